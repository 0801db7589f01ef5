package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/danmuck/sensorwire/internal/config"
	"github.com/danmuck/sensorwire/internal/listener"
	"github.com/danmuck/sensorwire/internal/observability"
	"github.com/danmuck/sensorwire/internal/protocol"
	"github.com/danmuck/sensorwire/internal/tabular"
)

func newListenCmd(a *app) *cobra.Command {
	var (
		port        string
		baud        int
		mode        string
		out         string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Decode or capture packets from a serial port",
		Long: `Read a serial port until interrupted. In decode mode every read is
decoded and appended to the records file; in capture mode newline-delimited
reads are written as raw hex rows.

Example:
  sensorctl listen --port /dev/ttyUSB0 --baud 9600 --metrics-addr :9100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("port") {
				a.cfg.Serial.Port = port
			}
			if flags.Changed("baud") {
				a.cfg.Serial.BaudRate = baud
			}
			if flags.Changed("mode") {
				a.cfg.Serial.Mode = mode
			}
			if flags.Changed("metrics-addr") {
				a.cfg.Output.MetricsAddr = metricsAddr
			}
			lcfg := listener.ConfigFrom(a.cfg.Serial)
			if lcfg.Mode != listener.ModeDecode && lcfg.Mode != listener.ModeCapture {
				return fmt.Errorf("unknown mode %q", lcfg.Mode)
			}
			dec, err := a.decoder()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr := a.cfg.Output.MetricsAddr; addr != "" {
				shutdown := serveMetrics(a, addr)
				defer shutdown()
			}

			if formatIgnored(a.cfg, lcfg.Mode) {
				a.logger.Warn().
					Str("format", a.cfg.Output.Format).
					Msg("listen appends CSV records; output.format is ignored, run convert for parquet")
			}

			sp, err := listener.Open(lcfg)
			if err != nil {
				return err
			}
			l := listener.New(sp, lcfg, dec, a.logger)
			w := tabular.NewWriter()

			if lcfg.Mode == listener.ModeCapture {
				path := out
				if path == "" {
					path = a.cfg.CapturePath()
				}
				n, err := l.Capture(ctx, w, path)
				fmt.Fprintf(cmd.OutOrStdout(), "captured %d rows to %s\n", n, path)
				return err
			}

			path := out
			if path == "" {
				path = a.cfg.RecordsPath()
			}
			acc := protocol.NewAccumulator()
			err = l.Run(ctx, acc, func(rec protocol.Record) {
				fmt.Fprintln(cmd.OutOrStdout(), rec)
				if err := w.AppendRecords(path, []protocol.Record{rec}); err != nil {
					a.logger.Error().Err(err).Str("path", path).Msg("record not persisted")
				}
			})
			a.logger.Info().Int("records", acc.Len()).Str("path", path).Msg("listener stopped")
			return err
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "serial device, e.g. /dev/ttyUSB0")
	cmd.Flags().IntVarP(&baud, "baud", "b", 9600, "baud rate")
	cmd.Flags().StringVar(&mode, "mode", "decode", "decode|capture")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the configured records or capture file)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

// formatIgnored reports whether output.format differs from the CSV
// rows decode mode always appends.
func formatIgnored(cfg config.Config, mode listener.Mode) bool {
	if mode != listener.ModeDecode {
		return false
	}
	f, err := tabular.ParseFormat(cfg.Output.Format)
	return err != nil || f != tabular.FormatCSV
}

func serveMetrics(a *app, addr string) func() {
	observability.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	a.logger.Info().Str("addr", addr).Msg("serving metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
