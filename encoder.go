// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

// Encoder turns a log event into the bytes published to the queue.
type Encoder[E any] interface {
	Encode(event E) ([]byte, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc[E any] func(event E) ([]byte, error)

// Encode calls f(event).
func (f EncoderFunc[E]) Encode(event E) ([]byte, error) {
	return f(event)
}

// RawEncoder publishes events that are already encoded, such as the lines
// written by zerolog or a log/slog handler.
type RawEncoder struct{}

// Encode returns event unchanged.
func (RawEncoder) Encode(event []byte) ([]byte, error) {
	return event, nil
}
