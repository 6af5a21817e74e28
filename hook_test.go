// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

// newTestEntryAppender creates a started logrus appender backed by ch.
func newTestEntryAppender(t *testing.T, ch *mockChannel, enc Encoder[*logrus.Entry]) *Appender[*logrus.Entry] {
	t.Helper()
	ch.On("Close").Return(nil)
	conn := &mockConnection{}
	conn.On("Channel").Return(ch, nil)
	conn.On("Close").Return(nil)
	d := &dialRecorder{conn: conn}

	a := &Appender[*logrus.Entry]{
		Config:       Config{Queue: "logs"},
		Encoder:      enc,
		StatusOutput: &bytes.Buffer{},
	}
	a.dial = d.dial
	require.NoError(t, a.Start())
	return a
}

func newTestLogger(hook logrus.Hook) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.TraceLevel)
	logger.AddHook(hook)
	return logger
}

func TestHook(t *testing.T) {
	t.Parallel()

	t.Run("fired entries are published as json", func(t *testing.T) {
		t.Parallel()
		var body []byte
		ch := &mockChannel{}
		ch.On("PublishWithContext", mock.Anything, "", "logs", false, false, mock.Anything).
			Run(func(args mock.Arguments) {
				body = append([]byte(nil), args.Get(5).(amqp.Publishing).Body...)
			}).
			Return(nil)

		a := newTestEntryAppender(t, ch, FormatterEncoder{})
		logger := newTestLogger(NewHook(a))

		logger.WithField("request_id", "abc").Info("hello")

		ch.AssertNumberOfCalls(t, "PublishWithContext", 1)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "hello", got["msg"])
		assert.Equal(t, "info", got["level"])
		assert.Equal(t, "abc", got["request_id"])
	})

	t.Run("levels restrict forwarded entries", func(t *testing.T) {
		t.Parallel()
		ch := &mockChannel{}
		ch.On("PublishWithContext", mock.Anything, "", "logs", false, false, mock.Anything).Return(nil)

		a := newTestEntryAppender(t, ch, FormatterEncoder{})
		logger := newTestLogger(NewHook(a, logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel))

		logger.Info("ignored")
		logger.Warn("ignored")
		logger.Error("forwarded")

		ch.AssertNumberOfCalls(t, "PublishWithContext", 1)
	})

	t.Run("default levels are all levels", func(t *testing.T) {
		t.Parallel()
		h := NewHook(nil)
		assert.Equal(t, logrus.AllLevels, h.Levels())
	})

	t.Run("entry context is passed to the publish", func(t *testing.T) {
		t.Parallel()
		var got any
		ch := &mockChannel{}
		ch.On("PublishWithContext", mock.Anything, "", "logs", false, false, mock.Anything).
			Run(func(args mock.Arguments) {
				got = args.Get(0).(context.Context).Value(ctxKey{})
			}).
			Return(nil)

		a := newTestEntryAppender(t, ch, FormatterEncoder{})
		logger := newTestLogger(NewHook(a))

		ctx := context.WithValue(context.Background(), ctxKey{}, "trace-1")
		logger.WithContext(ctx).Info("hello")

		assert.Equal(t, "trace-1", got)
	})

	t.Run("fire never returns an error", func(t *testing.T) {
		t.Parallel()
		ch := &mockChannel{}
		ch.On("PublishWithContext", mock.Anything, "", "logs", false, false, mock.Anything).Return(amqp.ErrClosed)

		a := newTestEntryAppender(t, ch, FormatterEncoder{})
		h := NewHook(a)

		err := h.Fire(logrus.NewEntry(logrus.New()))
		assert.NoError(t, err)

		a.Stop()
		err = h.Fire(logrus.NewEntry(logrus.New()))
		assert.NoError(t, err)
	})
}

func TestFormatterEncoder(t *testing.T) {
	t.Parallel()

	entry := logrus.NewEntry(logrus.New())
	entry.Time = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	entry.Level = logrus.WarnLevel
	entry.Message = "disk almost full"
	entry.Data = logrus.Fields{"disk": "sda"}

	t.Run("nil formatter uses json", func(t *testing.T) {
		t.Parallel()
		b, err := FormatterEncoder{}.Encode(entry)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, "disk almost full", got["msg"])
		assert.Equal(t, "warning", got["level"])
		assert.Equal(t, "sda", got["disk"])
	})

	t.Run("custom formatter", func(t *testing.T) {
		t.Parallel()
		b, err := FormatterEncoder{Formatter: &logrus.TextFormatter{DisableColors: true}}.Encode(entry)
		require.NoError(t, err)
		assert.Contains(t, string(b), `msg="disk almost full"`)
		assert.Contains(t, string(b), "disk=sda")
	})
}
