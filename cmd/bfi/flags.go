package main

import (
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/go-bfi/internal/config"
)

var (
	configFile    string
	logLevel      string
	logFormat     string
	debug         bool
	workers       int
	skipMalformed bool
)

func globalFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to the YAML config file",
			Value:       config.DefaultPath(),
			Destination: &configFile,
		},
	}, loggingFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "concurrent decoders (0 = GOMAXPROCS)",
			Destination: &workers,
		},
		&cli.BoolFlag{
			Name:        "skip-malformed",
			Usage:       "skip reports that fail to decode instead of aborting",
			Destination: &skipMalformed,
		},
	}
}

func outputFlags(output, format *string, show *bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output file (.parquet, .jsonl or .json)",
			Destination: output,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "output format (parquet, jsonl, json); default from the output extension",
			Destination: format,
		},
		&cli.BoolFlag{
			Name:        "print",
			Aliases:     []string{"p"},
			Usage:       "print decoded frames to stdout as JSON lines",
			Destination: show,
		},
	}
}
