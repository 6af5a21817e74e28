// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Format names the message body layout for logrus entries.
type Format string

const (
	// FormatJSON renders one JSON object per event.
	FormatJSON Format = "json"

	// FormatText renders logfmt-style key=value text.
	FormatText Format = "text"
)

var formatTypes map[Format]struct{}
var formatList []string

func init() {
	list := []Format{
		FormatJSON,
		FormatText,
	}

	formatTypes = make(map[Format]struct{})
	for _, f := range list {
		formatTypes[f] = struct{}{}
		formatList = append(formatList, string(f))
	}
}

// validateFormat validates the Format enum value.
func validateFormat(format Format) error {
	if format == "" {
		return nil
	}

	_, ok := formatTypes[format]
	if ok {
		return nil
	}

	list := strings.Join(formatList, "', '")
	list = "'" + list + "'"
	return errors.Join(ErrValidation,
		fmt.Errorf("format '%s' is invalid: must be %s or empty", format, list))
}

// Formatter returns the logrus.Formatter for the format. Empty means json.
func (f Format) Formatter() (logrus.Formatter, error) {
	if err := validateFormat(f); err != nil {
		return nil, err
	}

	switch f {
	case FormatText:
		return &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}, nil
	default:
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		}, nil
	}
}
