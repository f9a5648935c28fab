package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/go-bfi/internal/capture"
	"github.com/llehouerou/go-bfi/internal/logger"
	"github.com/llehouerou/go-bfi/internal/metrics"
	"github.com/llehouerou/go-bfi/internal/pipeline"
)

const defaultBatchSize = 10

func captureCmd() *cli.Command {
	var (
		iface       string
		filter      string
		snaplen     int
		batchSize   int
		output      string
		format      string
		show        bool
		metricsAddr string
	)

	return &cli.Command{
		Name:  "capture",
		Usage: "Decode beamforming reports live from a monitor-mode interface",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{
				Name:        "interface",
				Aliases:     []string{"i"},
				Usage:       "wireless interface in monitor mode",
				Destination: &iface,
			},
			&cli.StringFlag{
				Name:        "filter",
				Usage:       "BPF filter",
				Value:       capture.DefaultFilter,
				Destination: &filter,
			},
			&cli.IntFlag{
				Name:        "snaplen",
				Usage:       "bytes kept per packet",
				Value:       capture.DefaultSnaplen,
				Destination: &snaplen,
			},
			&cli.IntFlag{
				Name:        "batch-size",
				Usage:       "frames per output batch",
				Value:       defaultBatchSize,
				Destination: &batchSize,
			},
			&cli.StringFlag{
				Name:        "metrics-addr",
				Usage:       "serve Prometheus metrics on this address while capturing",
				Destination: &metricsAddr,
			},
		}, outputFlags(&output, &format, &show)...), decodeFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyDecodeConfig(cmd, cfg)
			applyOutputConfig(cmd, cfg, &format)
			applyCaptureConfig(cmd, cfg, &iface, &filter, &snaplen, &batchSize)
			if iface == "" {
				return errors.New("capture: --interface is required")
			}
			if output == "" && !show {
				return errors.New("capture: nothing to do, set --output or --print")
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			id := uuid.NewString()
			log := logger.FromContext(ctx).With("interface", iface, "capture_id", id)
			warnIfNotMonitor(log, iface)

			var m *metrics.Metrics
			if metricsAddr != "" {
				m = metrics.New()
				go serveMetrics(ctx, log, metricsAddr, m)
			}

			src, err := capture.OpenLive(ctx, capture.LiveConfig{
				Interface: iface,
				Filter:    filter,
				Snaplen:   snaplen,
			})
			if err != nil {
				return err
			}
			defer src.Close()

			w, f, err := openOutput(output, format)
			if err != nil {
				return err
			}
			var out io.Writer
			if show {
				out = stdout
			}
			sink := newFrameSink(w, f, batchSize, out, m)

			log.Info("capturing", "filter", filter, "output", output, "batch_size", batchSize)
			start := time.Now()
			r := capture.NewReader(src, log)
			st, err := pipeline.Stream(ctx, r, pipeline.Options{
				SkipMalformed: skipMalformed,
				Metrics:       m,
				Log:           log,
			}, sink.Add)
			m.AddSkipped(r.Skipped())
			if cerr := sink.Close(); err == nil {
				err = cerr
			}
			if errors.Is(err, context.Canceled) {
				err = nil
			}

			received, dropped, serr := src.Stats()
			if serr != nil {
				log.Debug("capture stats unavailable", "error", serr)
			}
			log.Info("capture stopped",
				"duration", time.Since(start).Round(time.Millisecond),
				"packets", r.Packets(),
				"frames", st.Decoded,
				"rejected", st.Rejected,
				"skipped", r.Skipped(),
				"batches", sink.batches,
				"received", received,
				"dropped", dropped)
			if err != nil {
				return fmt.Errorf("capture: %w", err)
			}
			return nil
		},
	}
}

// warnIfNotMonitor logs when iface is known to nl80211 but not in
// monitor mode. Lookup failures are only logged at debug level.
func warnIfNotMonitor(log logger.Logger, iface string) {
	ifis, err := capture.Interfaces()
	if err != nil {
		log.Debug("cannot list wireless interfaces", "error", err)
		return
	}
	ifi, ok := capture.FindInterface(ifis, iface)
	if !ok {
		log.Warn("interface is not a known wireless interface")
		return
	}
	if !ifi.Monitor {
		log.Warn("interface is not in monitor mode", "mode", ifi.Mode)
	}
}

func serveMetrics(ctx context.Context, log logger.Logger, addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", "error", err)
	}
}
