// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package amqpsink_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

const (
	messageConsumeWait = 10 * time.Second
)

// broker is a running RabbitMQ test container.
type broker struct {
	url  string
	host string
	port string
}

// setupRabbitMQ starts RabbitMQ using testcontainers.
// Automatically registers cleanup to stop RabbitMQ when test completes.
func setupRabbitMQ(t *testing.T) broker {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(t, err, "Failed to start RabbitMQ container")

	t.Cleanup(func() {
		t.Log("Stopping RabbitMQ container...")
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate RabbitMQ container: %v", err)
		}
	})

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err, "Failed to get AMQP URL")

	uri, err := amqp.ParseURI(url)
	require.NoError(t, err, "Failed to parse AMQP URL")

	t.Logf("RabbitMQ available at: %s:%d", uri.Host, uri.Port)

	return broker{
		url:  url,
		host: uri.Host,
		port: strconv.Itoa(uri.Port),
	}
}

// declareQueue creates a non-durable queue so that default exchange
// publishes have somewhere to land.
func declareQueue(t *testing.T, b broker, name string) {
	t.Helper()

	conn, err := amqp.Dial(b.url)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	_, err = ch.QueueDeclare(name, false, false, false, false, nil)
	require.NoError(t, err)
}

// getMessages polls queue until want messages arrived or timeout elapsed.
// Returns all message bodies received.
func getMessages(t *testing.T, b broker, queue string, want int, timeout time.Duration) []amqp.Delivery {
	t.Helper()

	conn, err := amqp.Dial(b.url)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var deliveries []amqp.Delivery
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) && len(deliveries) < want {
		d, ok, err := ch.Get(queue, true)
		require.NoError(t, err)
		if !ok {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		deliveries = append(deliveries, d)
	}

	return deliveries
}
