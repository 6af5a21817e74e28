// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import "errors"

var (
	// ErrValidation indicates the appender configuration is invalid (missing
	// queue or encoder, malformed port).
	ErrValidation = &metricError{
		metric:  "validation_error",
		message: "validation error",
	}

	// ErrConnection indicates the broker connection or channel could not be
	// opened.
	ErrConnection = &metricError{
		metric:  "connection_error",
		message: "connection error",
	}

	// ErrEncoding indicates the encoder failed to turn an event into bytes.
	ErrEncoding = &metricError{
		metric:  "encoding_error",
		message: "encoding failed",
	}

	// ErrPublish indicates the broker publish failed (closed channel, network
	// fault, broker rejection, timeout).
	ErrPublish = &metricError{
		metric:  "publish_error",
		message: "publish failed",
	}

	// ErrShutdown indicates the channel or connection failed to close.
	ErrShutdown = &metricError{
		metric:  "shutdown_error",
		message: "shutdown error",
	}

	// ErrNotStarted indicates the appender has not been started.
	ErrNotStarted = &metricError{
		metric:  "not_started",
		message: "appender not started",
	}

	// ErrAlreadyStarted indicates the appender has already been started.
	ErrAlreadyStarted = &metricError{
		metric:  "already_started",
		message: "appender already started",
	}
)

// metricError is a sentinel carrying a label for PublishEvent.ErrorType and
// the errors_total metric. Sentinels are matched by message, so a copy still
// satisfies errors.Is.
type metricError struct {
	metric  string // PublishEvent.ErrorType label, e.g. "publish_error"
	message string // status line text
}

// Error implements the error interface.
func (e *metricError) Error() string {
	return e.message
}

// Metric returns the ErrorType label.
func (e *metricError) Metric() string {
	return e.metric
}

func (e *metricError) Is(target error) bool {
	if t, ok := target.(*metricError); ok {
		return e.message == t.message
	}
	return false
}

// errorType returns the label of the first sentinel in err's tree: "" for
// nil and "unknown" for errors raised outside this package.
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var me *metricError
	if errors.As(err, &me) {
		return me.Metric()
	}

	return "unknown"
}
