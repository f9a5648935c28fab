package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/go-bfi"
	"github.com/llehouerou/go-bfi/internal/tables"
)

func inspectCmd() *cli.Command {
	var (
		timestamp float64
		asJSON    bool
		angles    bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode one header-relative report given as hex and print every field",
		ArgsUsage: "HEX...",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:        "timestamp",
				Usage:       "timestamp to attach to the frame",
				Destination: &timestamp,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the report as JSON",
				Destination: &asJSON,
			},
			&cli.BoolFlag{
				Name:        "angles",
				Usage:       "also print the angle codes of every subcarrier",
				Destination: &angles,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return errors.New("inspect: missing HEX argument")
			}
			b, err := decodeHexArgs(cmd.Args().Slice())
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}

			r, err := bfi.Inspect(b, timestamp)
			if err != nil {
				return fmt.Errorf("inspect: %w (%s)", err, bfi.Kind(err).Name())
			}
			if asJSON {
				out, err := json.MarshalIndent(r, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout, string(out))
				return err
			}
			return writeReport(stdout, r, angles)
		},
	}
}

// decodeHexArgs joins args and decodes them, ignoring whitespace, colons
// and a leading 0x.
func decodeHexArgs(args []string) ([]byte, error) {
	s := strings.Join(args, "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(":", "", " ", "", "\t", "", "\n", "").Replace(s)
	if s == "" {
		return nil, errors.New("empty report")
	}
	return hex.DecodeString(s)
}

func writeReport(w io.Writer, r bfi.FrameReport, angles bool) error {
	h := r.Header
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "HE MIMO Control")
	fmt.Fprintf(tw, "  nc_index\t%d\t(%d columns)\n", h.NcIndex, h.Columns())
	fmt.Fprintf(tw, "  nr_index\t%d\t(%d rows)\n", h.NrIndex, h.Rows())
	fmt.Fprintf(tw, "  bandwidth\t%d\t(%v)\n", h.Bandwidth.Code(), h.Bandwidth)
	fmt.Fprintf(tw, "  grouping\t%d\t\n", h.Grouping)
	fmt.Fprintf(tw, "  codebook_info\t%d\t\n", h.CodebookInfo)
	fmt.Fprintf(tw, "  feedback_type\t%d\t(%s)\n", h.FeedbackType, feedbackName(h.FeedbackType))
	fmt.Fprintf(tw, "  remaining_feedback_segments\t%d\t\n", h.RemainingFeedbackSegments)
	fmt.Fprintf(tw, "  first_feedback_segment\t%d\t\n", h.FirstFeedbackSegment)
	fmt.Fprintf(tw, "  ru_start_index\t%d\t\n", h.RUStartIndex)
	fmt.Fprintf(tw, "  ru_end_index\t%d\t\n", h.RUEndIndex)
	fmt.Fprintf(tw, "  dialog_token_number\t%d\t\n", h.DialogTokenNumber)
	fmt.Fprintf(tw, "  reserved\t%d\t\n", h.Reserved)

	fmt.Fprintln(tw, "Layout")
	fmt.Fprintf(tw, "  bitfield_pattern\t%v\t\n", r.Layout.Pattern)
	fmt.Fprintf(tw, "  num_subcarrier\t%d\t\n", r.Layout.NumSubcarriers)
	fmt.Fprintf(tw, "  chunk_bits\t%d\t\n", r.Layout.ChunkBits())
	fmt.Fprintf(tw, "  total_bits\t%d\t\n", r.Layout.TotalBits())

	if angles {
		fmt.Fprintln(tw, "Angles")
		for sc, row := range r.Frame.Angles {
			fmt.Fprintf(tw, "  %d\t%v\t\n", sc, row)
		}
	}
	return tw.Flush()
}

func feedbackName(t uint8) string {
	switch t {
	case tables.FeedbackSU:
		return "SU"
	case tables.FeedbackMU:
		return "MU"
	case tables.FeedbackCQI:
		return "CQI"
	default:
		return "reserved"
	}
}
