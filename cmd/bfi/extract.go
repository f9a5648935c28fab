package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/llehouerou/go-bfi/internal/capture"
	"github.com/llehouerou/go-bfi/internal/logger"
	"github.com/llehouerou/go-bfi/internal/pipeline"
)

// stdout is where --print output goes.
var stdout io.Writer = os.Stdout

func extractCmd() *cli.Command {
	var (
		input  string
		output string
		format string
		show   bool
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Decode the beamforming reports of a pcap or pcapng file",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "capture file with radiotap link type",
				Required:    true,
				Destination: &input,
			},
		}, outputFlags(&output, &format, &show)...), decodeFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyDecodeConfig(cmd, cfg)
			applyOutputConfig(cmd, cfg, &format)
			if output == "" && !show {
				return errors.New("extract: nothing to do, set --output or --print")
			}
			log := logger.FromContext(ctx).With("path", input)

			src, err := capture.OpenFile(input)
			if err != nil {
				return err
			}
			defer src.Close()

			r := capture.NewReader(src, log)
			frames, err := r.ReadAll(ctx)
			if err != nil {
				return fmt.Errorf("extract: %s: %w", input, err)
			}

			res, err := pipeline.DecodeAll(ctx, frames, pipeline.Options{
				Workers:       workers,
				SkipMalformed: skipMalformed,
				Log:           log,
			})
			if err != nil {
				return fmt.Errorf("extract: %s: %w", input, err)
			}
			for _, fe := range res.Rejected {
				log.Warn("rejected frame", "index", fe.Index, "error", fe.Err)
			}

			var out io.Writer
			if show {
				out = stdout
			}
			w, f, err := openOutput(output, format)
			if err != nil {
				return err
			}
			sink := newFrameSink(w, f, max(len(res.Frames), 1), out, nil)
			for _, frame := range res.Frames {
				if err := sink.Add(frame); err != nil {
					_ = sink.Close()
					return err
				}
			}
			if err := sink.Close(); err != nil {
				return err
			}

			log.Info("extracted",
				"packets", r.Packets(),
				"frames", len(res.Frames),
				"skipped", r.Skipped(),
				"rejected", len(res.Rejected),
				"output", output)
			return nil
		},
	}
}
