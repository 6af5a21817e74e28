// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
)

// mockChannel is a mock implementation of amqpChannel for testing.
type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *mockChannel) Close() error {
	args := m.Called()
	return args.Error(0)
}

// mockConnection is a mock implementation of amqpConnection for testing.
type mockConnection struct {
	mock.Mock
}

func (m *mockConnection) Channel() (amqpChannel, error) {
	args := m.Called()
	ch, _ := args.Get(0).(amqpChannel)
	return ch, args.Error(1)
}

func (m *mockConnection) Close() error {
	args := m.Called()
	return args.Error(0)
}

// dialRecorder is a dialer that hands out a fixed connection and remembers
// what it was asked to dial.
type dialRecorder struct {
	conn  amqpConnection
	err   error
	calls int
	url   string
	cfg   amqp.Config
}

func (d *dialRecorder) dial(url string, cfg amqp.Config) (amqpConnection, error) {
	d.calls++
	d.url = url
	d.cfg = cfg
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}
