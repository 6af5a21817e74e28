// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"context"

	"github.com/rs/zerolog"
)

// Writer publishes each Write call as one message. zerolog and the log/slog
// JSON and text handlers issue exactly one Write per record, so either can
// log straight to a queue:
//
//	appender := &amqpsink.Appender[[]byte]{
//	    Config:  amqpsink.Config{Queue: "logs"},
//	    Encoder: amqpsink.RawEncoder{},
//	}
//	_ = appender.Start()
//	defer appender.Stop()
//
//	logger := zerolog.New(amqpsink.NewWriter(appender))
//	slogger := slog.New(slog.NewJSONHandler(amqpsink.NewWriter(appender), nil))
//
// Write never fails; publish errors are reported by the Appender.
//
// Pointing the Appender's own Logger at a logger that writes through this
// Writer is supported but discouraged: diagnostics then travel over the
// broker they are about. While one failure is being logged, further failures
// are reported on StatusOutput only.
type Writer struct {
	// Appender receives the records. Required.
	Appender *Appender[[]byte]

	// Level is the minimum zerolog level forwarded by WriteLevel. The zero
	// value forwards debug and above.
	Level zerolog.Level
}

// NewWriter creates a Writer forwarding every level from debug up.
func NewWriter(a *Appender[[]byte]) *Writer {
	return &Writer{
		Appender: a,
		Level:    zerolog.DebugLevel,
	}
}

// Write implements io.Writer. p is only used for the duration of the call.
func (w *Writer) Write(p []byte) (int, error) {
	w.Appender.Append(context.Background(), p)
	return len(p), nil
}

// WriteLevel implements zerolog.LevelWriter.
func (w *Writer) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < w.Level {
		return len(p), nil
	}
	return w.Write(p)
}

// Verify that *Writer implements zerolog.LevelWriter interface at compile time.
var _ zerolog.LevelWriter = (*Writer)(nil)
