// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is an interface for the amqp091-go channel methods we need.
// This allows us to mock the channel for testing while using the real
// *amqp.Channel in production.
type amqpChannel interface {
	// PublishWithContext sends a message to an exchange with the given routing key.
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error

	// Close closes the channel.
	Close() error
}

// amqpConnection is an interface for the amqp091-go connection methods we need.
type amqpConnection interface {
	// Channel opens a new channel on the connection.
	Channel() (amqpChannel, error)

	// Close closes the connection and every channel opened on it.
	Close() error
}

// Verify that *amqp.Channel implements amqpChannel interface at compile time.
var _ amqpChannel = (*amqp.Channel)(nil)

// connection adapts *amqp.Connection so Channel returns the interface type.
type connection struct {
	*amqp.Connection
}

func (c connection) Channel() (amqpChannel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// dialer opens a broker connection. This allows dependency injection for
// testing.
type dialer func(url string, cfg amqp.Config) (amqpConnection, error)

// defaultDialer is the production dialer that uses amqp091-go.
func defaultDialer(url string, cfg amqp.Config) (amqpConnection, error) {
	conn, err := amqp.DialConfig(url, cfg)
	if err != nil {
		return nil, err
	}
	return connection{Connection: conn}, nil
}

// session holds the connection and its publish channel. An appender holds a
// *session: nil when disconnected, otherwise both halves are open.
type session struct {
	conn    amqpConnection
	channel amqpChannel
}

// openSession dials the broker and opens one channel. If the channel cannot
// be opened the connection is closed so that no half-open session escapes.
func openSession(dial dialer, url string, cfg amqp.Config) (*session, error) {
	conn, err := dial(url, cfg)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}

	return &session{conn: conn, channel: ch}, nil
}

// close closes the channel and then the connection. Both are always
// attempted; failures are joined.
func (s *session) close() error {
	var errs []error
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing channel: %w", err))
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
