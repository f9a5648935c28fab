package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/llehouerou/go-bfi/internal/config"
	"github.com/llehouerou/go-bfi/internal/logger"
)

// cfg is the loaded config file, set by setup before any command runs.
var cfg config.Config

// setup loads the config file and installs the logger in ctx.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	c, err := config.Load(configFile)
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet("config") && configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return ctx, fmt.Errorf("config: %w", err)
		}
	}
	cfg = c

	applyLoggingConfig(cmd, cfg)
	log, err := newLogger()
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func newLogger() (logger.Logger, error) {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return nil, err
	}
	return logger.Open(os.Stderr, format, level), nil
}

func applyLoggingConfig(c *cli.Command, cfg config.Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyDecodeConfig applies config file defaults to the decode flags when
// they were not set on the command line.
func applyDecodeConfig(c *cli.Command, cfg config.Config) {
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.SkipMalformed != nil && !c.IsSet("skip-malformed") {
		skipMalformed = *cfg.SkipMalformed
	}
}

func applyOutputConfig(c *cli.Command, cfg config.Config, format *string) {
	if cfg.OutputFormat != "" && !c.IsSet("format") {
		*format = cfg.OutputFormat
	}
}

func applyCaptureConfig(c *cli.Command, cfg config.Config,
	iface, filter *string, snaplen, batchSize *int,
) {
	if cfg.Interface != "" && !c.IsSet("interface") {
		*iface = cfg.Interface
	}
	if cfg.Filter != "" && !c.IsSet("filter") {
		*filter = cfg.Filter
	}
	if cfg.Snaplen != nil && !c.IsSet("snaplen") {
		*snaplen = *cfg.Snaplen
	}
	if cfg.BatchSize != nil && !c.IsSet("batch-size") {
		*batchSize = *cfg.BatchSize
	}
}

func applyServeConfig(c *cli.Command, cfg config.Config, addr *string, maxUpload *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxUploadBytes != nil && !c.IsSet("max-upload-bytes") {
		*maxUpload = *cfg.MaxUploadBytes
	}
}
