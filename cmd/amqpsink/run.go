// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xmidt-org/amqpsink"
)

const metricsShutdownTimeout = 5 * time.Second

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	diag, err := newDiagnosticLogger(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}

	formatter, err := amqpsink.Format(cfg.Format).Formatter()
	if err != nil {
		return err
	}

	appender := &amqpsink.Appender[*logrus.Entry]{
		Config:       cfg.Broker,
		Encoder:      amqpsink.FormatterEncoder{Formatter: formatter},
		Logger:       &diag,
		StatusOutput: cmd.ErrOrStderr(),
	}
	if cfg.TLS {
		appender.TLS = &tls.Config{
			ServerName: cfg.Broker.Host,
			MinVersion: tls.VersionTLS12,
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// A second signal gets the default behavior.
	context.AfterFunc(ctx, stop)

	if cfg.MetricsListen != "" {
		shutdown, err := serveMetrics(appender, cfg.MetricsListen, &diag)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	// Start reports its own failures on stderr.
	if err := appender.Start(); err != nil {
		return errors.New("appender not started")
	}
	defer appender.Stop()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.TraceLevel)
	logger.AddHook(amqpsink.NewHook(appender))

	n, err := forward(ctx, logger, level, cmd.InOrStdin(), args)
	diag.Debug().Int("lines", n).Msg("input finished")

	return err
}

// forward logs each argument, or each line of r when there are no arguments,
// at level. Reading stops as soon as ctx is done, even while r is blocked.
// Returns the number of entries logged.
func forward(ctx context.Context, logger *logrus.Logger, level logrus.Level, r io.Reader, args []string) (int, error) {
	entry := logger.WithContext(ctx)

	if len(args) > 0 {
		for _, arg := range args {
			entry.Log(level, arg)
		}
		return len(args), nil
	}

	// The scanner goroutine outlives a cancelled forward while r is blocked.
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var n int
	for {
		if ctx.Err() != nil {
			return n, nil
		}

		select {
		case <-ctx.Done():
			return n, nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return n, fmt.Errorf("reading input: %w", err)
				}
				return n, nil
			}
			if line == "" {
				continue
			}
			entry.Log(level, line)
			n++
		}
	}
}

func newDiagnosticLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

// serveMetrics registers appender metrics on a private registry and serves
// them on addr until the returned function is called.
func serveMetrics(appender *amqpsink.Appender[*logrus.Entry], addr string, logger *zerolog.Logger) (func(), error) {
	reg := prometheus.NewRegistry()
	m, err := amqpsink.NewMetrics(reg, "")
	if err != nil {
		return nil, err
	}
	appender.InitialPublishEventListeners = append(appender.InitialPublishEventListeners, m.Listener)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
