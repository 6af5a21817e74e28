// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package amqpsink provides a log appender that forwards structured log
// events to a RabbitMQ queue.
//
// # Overview
//
// An Appender sits at the end of a logging pipeline. Each event handed to
// Append is encoded and published, synchronously and once, to a queue through
// the default exchange. Logging must never break the application, so the
// appender never returns publish or shutdown errors to its caller: failures
// are written to a status output (stderr by default) and to an optional
// diagnostic logger, and the event is dropped.
//
// # Quick Start
//
// Create an Appender by setting fields directly:
//
//	appender := &amqpsink.Appender[*logrus.Entry]{
//	    Config: amqpsink.Config{
//	        Host:  "rabbitmq.internal",
//	        Queue: "logs",
//	    },
//	    Encoder: amqpsink.FormatterEncoder{},
//	}
//	if err := appender.Start(); err != nil {
//	    // already reported; the appender stays stopped and drops events
//	}
//	defer appender.Stop()
//
//	logrus.AddHook(amqpsink.NewHook(appender))
//
// Empty connection fields fall back to the Default* constants
// (localhost:5672, guest/guest, virtual host "/"). Queue and Encoder are
// required; Port, when set, must be numeric.
//
// # Logging Frameworks
//
// Hook plugs the appender into logrus, with FormatterEncoder reusing any
// logrus.Formatter. Writer plugs it into anything that writes one record per
// Write call, including zerolog and the log/slog JSON and text handlers,
// with RawEncoder publishing the bytes unchanged. Any other framework can
// call Append directly with its own Encoder.
//
// # Observability
//
// Every Append produces a PublishEvent for registered listeners. Metrics is
// a ready-made listener exporting Prometheus counters:
//
//	m, err := amqpsink.NewMetrics(prometheus.DefaultRegisterer, "")
//	if err != nil {
//	    return err
//	}
//	appender.InitialPublishEventListeners = []func(*amqpsink.PublishEvent){m.Listener}
//
// # What It Does Not Do
//
// There is no retry, batching, publisher confirm, or reconnect. A dropped
// connection makes every later Append fail (and be reported) until the
// appender is stopped and started again.
package amqpsink
