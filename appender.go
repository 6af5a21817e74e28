// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/xmidt-org/eventor"
)

// PublishEvent represents an event when a log event has been published or
// failed to publish.
type PublishEvent struct {
	// Queue is the queue the event was published to (or attempted to publish to).
	Queue string

	// Size is the encoded payload size in bytes (zero if encoding failed).
	Size int

	// Error is the error that occurred during publishing (nil for successful publishes).
	Error error

	// ErrorType is the error classification (empty for successful publishes).
	// Values: "encoding_error", "publish_error", "not_started".
	ErrorType string

	// Duration is the time taken from Append() call to completion (success or failure).
	Duration time.Duration
}

// Appender forwards log events of type E to a RabbitMQ queue.
//
// The lifecycle is Start, then Append any number of times, then Stop. No
// method returns an error to the logging path: every failure in Append and
// Stop is written to StatusOutput and Logger and then dropped.
//
// Thread Safety: all methods may be called concurrently. Publishes are not
// serialized by the Appender; *amqp.Channel handles concurrent publishers.
type Appender[E any] struct {
	// --- STATIC CONFIGURATION (set before Start, immutable after) ---

	// Config holds the broker address, credentials, queue and timeouts.
	Config

	// Encoder turns each event into the message body.
	// Required.
	Encoder Encoder[E]

	// TLS configures TLS encryption and switches the scheme to amqps.
	// Optional. If nil, plaintext connections are used.
	TLS *tls.Config

	// Logger receives configuration warnings and error details.
	// Optional. If nil, nothing is logged.
	Logger *zerolog.Logger

	// StatusOutput receives one line per failure.
	// Optional. If nil, os.Stderr is used.
	StatusOutput io.Writer

	// InitialPublishEventListeners are event listeners registered when Start() is called.
	// For dynamic listener management use AddPublishEventListener().
	// Optional.
	InitialPublishEventListeners []func(*PublishEvent)

	// --- INTERNAL FIELDS (not for user configuration) ---

	// dial is for internal use only (testing hook).
	// Opens broker connections, can be overridden for mocking in tests.
	dial dialer

	// mu is for internal use only.
	// Protects the session field during Start/Stop operations. Never held
	// while logging.
	mu sync.Mutex

	// reporting is for internal use only.
	// Set while reportError writes to Logger.
	reporting atomic.Bool

	// session is for internal use only.
	// Nil until Start succeeds and again after Stop.
	session *session

	// publishEventListeners is for internal use only.
	// Event broadcaster for PublishEvent notifications.
	publishEventListeners eventor.Eventor[func(*PublishEvent)]

	// registerInitialListenersOnce is for internal use only.
	// Ensures InitialPublishEventListeners are registered exactly once.
	registerInitialListenersOnce sync.Once
}

// AddPublishEventListener adds a listener called after every Append, whether
// the event was published or dropped. The returned function removes the
// listener.
//
// Listeners run on the goroutine calling Append and must be thread-safe.
func (a *Appender[E]) AddPublishEventListener(fn func(*PublishEvent)) func() {
	return a.publishEventListeners.Add(fn)
}

// Start validates the configuration, then opens the broker connection and
// its channel.
//
// Returns an error if:
//   - Configuration is invalid (empty Queue, non-numeric Port, no Encoder)
//   - The connection or channel cannot be opened
//   - Already started
//
// Validation and connection errors are also reported on StatusOutput, so a
// host may ignore the returned error; the appender then stays stopped and
// Append does nothing.
func (a *Appender[E]) Start() error {
	// Logging happens outside the lock; Logger may write back into this
	// appender.
	warnings, err := a.prepare()
	logger := a.log()
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}
	if err != nil {
		return a.startFailed(err)
	}

	url, err := a.connect()
	if err != nil {
		return a.startFailed(err)
	}

	logger.Debug().
		Str("url", url).
		Str("queue", a.Queue).
		Msg("appender started")

	return nil
}

// prepare applies defaults, registers the initial listeners and validates
// the configuration.
func (a *Appender[E]) prepare() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return nil, ErrAlreadyStarted
	}

	if a.dial == nil {
		a.dial = defaultDialer
	}

	a.registerInitialListenersOnce.Do(func() {
		for _, listener := range a.InitialPublishEventListeners {
			a.publishEventListeners.Add(listener)
		}
	})

	return a.validate()
}

// connect opens the session and returns the broker URL.
func (a *Appender[E]) connect() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return "", ErrAlreadyStarted
	}

	url := a.url(a.TLS)
	s, err := openSession(a.dial, url, a.amqpConfig(a.TLS))
	if err != nil {
		return url, errors.Join(ErrConnection, fmt.Errorf("connecting to %s: %w", url, err))
	}

	a.session = s
	return url, nil
}

func (a *Appender[E]) startFailed(err error) error {
	if !errors.Is(err, ErrAlreadyStarted) {
		a.reportError("starting appender", err)
	}
	return err
}

// Started reports whether Start succeeded and Stop has not been called since.
func (a *Appender[E]) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.session != nil
}

// Append encodes event and publishes it to Queue through the default
// exchange. There is exactly one attempt and no retry. Failures are reported
// and the event is dropped; Append does nothing if the appender is not
// started.
func (a *Appender[E]) Append(ctx context.Context, event E) {
	if ctx == nil {
		ctx = context.Background()
	}

	startTime := time.Now()
	pe := PublishEvent{
		Queue: a.Queue,
	}

	a.mu.Lock()
	s := a.session
	a.mu.Unlock()

	if s == nil {
		a.dispatchEvent(&pe, startTime, ErrNotStarted)
		return
	}

	payload, err := a.encode(event)
	if err != nil {
		a.dropped(&pe, startTime, errors.Join(ErrEncoding, err))
		return
	}
	pe.Size = len(payload)

	// Apply PublishTimeout only if the context doesn't already have a deadline.
	if a.PublishTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.PublishTimeout)
			defer cancel()
		}
	}

	err = s.channel.PublishWithContext(ctx, "", a.Queue, false, false, amqp.Publishing{
		Body: payload,
	})
	if err != nil {
		a.dropped(&pe, startTime, errors.Join(ErrPublish, err))
		return
	}

	a.dispatchEvent(&pe, startTime, nil)
}

// Stop closes the channel and then the connection. Both closes are always
// attempted and failures are reported, never returned.
// Safe to call multiple times and before Start.
func (a *Appender[E]) Stop() {
	a.mu.Lock()
	s := a.session
	a.session = nil
	a.mu.Unlock()

	if s == nil {
		return // Already stopped or never started
	}

	if err := s.close(); err != nil {
		a.reportError("stopping appender", errors.Join(ErrShutdown, err))
		return
	}

	a.log().Debug().
		Str("queue", a.Queue).
		Msg("appender stopped")
}

// validate checks the configuration and returns a warning for every empty
// field along with the joined problems.
func (a *Appender[E]) validate() ([]string, error) {
	var warnings []string
	warn := func(msg string) {
		warnings = append(warnings, msg)
	}

	problems := a.check(warn)
	if a.Encoder == nil {
		warn("Encoder must be set")
		problems = append(problems, errors.New("encoder must be set"))
	}

	if len(problems) == 0 {
		return warnings, nil
	}

	return warnings, errors.Join(append([]error{ErrValidation}, problems...)...)
}

// encode runs the encoder, converting a panic into an error.
func (a *Appender[E]) encode(event E) (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encoder panicked: %v", r)
		}
	}()

	return a.Encoder.Encode(event)
}

// dropped reports a failed Append and notifies listeners.
func (a *Appender[E]) dropped(event *PublishEvent, since time.Time, err error) {
	a.reportError(fmt.Sprintf("sending message to queue '%s'", a.Queue), err)
	a.dispatchEvent(event, since, err)
}

// dispatchEvent dispatches a PublishEvent to all registered listeners.
func (a *Appender[E]) dispatchEvent(event *PublishEvent, since time.Time, err error) {
	if err != nil {
		event.Error = err
		event.ErrorType = errorType(err)
	}
	event.Duration = time.Since(since)

	a.publishEventListeners.Visit(func(listener func(*PublishEvent)) {
		listener(event)
	})
}
