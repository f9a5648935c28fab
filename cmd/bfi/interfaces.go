package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/go-bfi/internal/capture"
)

func interfacesCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "interfaces",
		Usage: "List wireless interfaces and their modes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ifis, err := capture.Interfaces()
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(stdout).Encode(ifis)
			}
			return writeInterfaces(stdout, ifis)
		},
	}
}

func writeInterfaces(w io.Writer, ifis []capture.Interface) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPHY\tMODE\tMONITOR\tFREQ\tADDRESS")
	for _, i := range ifis {
		freq := "-"
		if i.Frequency != 0 {
			freq = fmt.Sprintf("%d MHz", i.Frequency)
		}
		monitor := "no"
		if i.Monitor {
			monitor = "yes"
		}
		fmt.Fprintf(tw, "%s\tphy%d\t%s\t%s\t%s\t%s\n", i.Name, i.PHY, i.Mode, monitor, freq, i.HardwareAddr)
	}
	return tw.Flush()
}
