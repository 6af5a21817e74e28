// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Hook is a logrus.Hook that appends every fired entry to an Appender.
//
//	appender := &amqpsink.Appender[*logrus.Entry]{
//	    Config:  amqpsink.Config{Queue: "logs"},
//	    Encoder: amqpsink.FormatterEncoder{},
//	}
//	_ = appender.Start()
//	defer appender.Stop()
//	logrus.AddHook(amqpsink.NewHook(appender))
type Hook struct {
	// Appender receives the entries. Required.
	Appender *Appender[*logrus.Entry]

	// LogLevels restricts the levels forwarded. Empty means all levels.
	LogLevels []logrus.Level
}

// NewHook creates a Hook forwarding the given levels, or all levels when none
// are given.
func NewHook(a *Appender[*logrus.Entry], levels ...logrus.Level) *Hook {
	return &Hook{
		Appender:  a,
		LogLevels: levels,
	}
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	if len(h.LogLevels) == 0 {
		return logrus.AllLevels
	}
	return h.LogLevels
}

// Fire implements logrus.Hook. It always returns nil so logrus never prints
// hook failures; those are reported by the Appender.
func (h *Hook) Fire(entry *logrus.Entry) error {
	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}
	h.Appender.Append(ctx, entry)
	return nil
}

// FormatterEncoder encodes logrus entries with a logrus.Formatter.
type FormatterEncoder struct {
	// Formatter renders the entry.
	// Optional. If nil, a logrus.JSONFormatter is used.
	Formatter logrus.Formatter
}

// Encode implements Encoder.
func (e FormatterEncoder) Encode(entry *logrus.Entry) ([]byte, error) {
	f := e.Formatter
	if f == nil {
		f = &logrus.JSONFormatter{}
	}
	return f.Format(entry)
}

// Verify that *Hook implements logrus.Hook interface at compile time.
var _ logrus.Hook = (*Hook)(nil)
