// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics turns PublishEvents into Prometheus counters and a latency
// histogram. Register it with AddPublishEventListener(m.Listener) or through
// InitialPublishEventListeners.
type Metrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors under namespace and registers them with
// reg. An empty namespace uses "amqpsink".
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = "amqpsink"
	}

	m := &Metrics{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "publish",
				Name:      "messages_total",
				Help:      "Total number of log events published",
			},
			[]string{"queue"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "publish",
				Name:      "errors_total",
				Help:      "Total number of log events dropped",
			},
			[]string{"queue", "error_type"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "publish",
				Name:      "bytes_total",
				Help:      "Total encoded bytes published",
			},
			[]string{"queue"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "publish",
				Name:      "duration_seconds",
				Help:      "Time spent encoding and publishing a log event",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"queue"},
		),
	}

	for _, c := range []prometheus.Collector{m.published, m.failed, m.bytes, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	return m, nil
}

// Listener records a single PublishEvent.
func (m *Metrics) Listener(e *PublishEvent) {
	if e.Error != nil {
		m.failed.WithLabelValues(e.Queue, e.ErrorType).Inc()
	} else {
		m.published.WithLabelValues(e.Queue).Inc()
		m.bytes.WithLabelValues(e.Queue).Add(float64(e.Size))
	}
	m.duration.WithLabelValues(e.Queue).Observe(e.Duration.Seconds())
}
