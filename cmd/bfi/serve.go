package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/llehouerou/go-bfi/internal/logger"
	"github.com/llehouerou/go-bfi/internal/metrics"
	"github.com/llehouerou/go-bfi/internal/server"
)

func serveCmd() *cli.Command {
	var (
		addr      string
		maxUpload int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the decode API over HTTP",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       server.DefaultAddress,
				Destination: &addr,
			},
			&cli.Int64Flag{
				Name:        "max-upload-bytes",
				Usage:       "largest accepted capture upload",
				Value:       server.DefaultMaxUploadBytes,
				Destination: &maxUpload,
			},
		}, decodeFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyDecodeConfig(cmd, cfg)
			applyServeConfig(cmd, cfg, &addr, &maxUpload)

			s := server.New(server.Config{
				MaxUploadBytes: maxUpload,
				Workers:        workers,
				SkipMalformed:  skipMalformed,
			}, metrics.New(), logger.FromContext(ctx))
			return s.ListenAndServe(ctx, addr)
		},
	}
}
