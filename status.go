// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var nopLogger = zerolog.Nop()

// log returns the diagnostic logger, never nil.
func (a *Appender[E]) log() *zerolog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return &nopLogger
}

func (a *Appender[E]) statusOutput() io.Writer {
	if a.StatusOutput != nil {
		return a.StatusOutput
	}
	return os.Stderr
}

// reportError writes a one line status message and logs the error at warn
// level. It never goes through the host logging framework, which may be the
// one feeding this appender.
//
// Logger may still be wired to a Writer on this same appender. A failure
// reported while another report is being logged gets only the status line,
// so a failing publish cannot feed itself through Logger.
func (a *Appender[E]) reportError(phase string, err error) {
	msg := fmt.Sprintf("Error while %s : %s", phase, flatten(err))
	_, _ = fmt.Fprintln(a.statusOutput(), msg+". Enable debug logging to know more")

	if !a.reporting.CompareAndSwap(false, true) {
		return
	}
	defer a.reporting.Store(false)

	a.log().Warn().
		Err(err).
		Str("queue", a.Queue).
		Str("error_type", errorType(err)).
		Msg(msg)
}

// flatten renders joined errors on one line.
func flatten(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}
