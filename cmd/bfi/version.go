package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/llehouerou/go-bfi/internal/version"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			fmt.Fprintf(stdout, "version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Fprintf(stdout, "commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Fprintf(stdout, "build time: %s\n", info.BuildTime)
			}
			fmt.Fprintf(stdout, "go:         %s\n", info.GoVersion)
			return nil
		},
	}
}
