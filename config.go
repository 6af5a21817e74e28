// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package amqpsink

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Fallback values used for any connection field left empty.
const (
	DefaultHost        = "localhost"
	DefaultPort        = 5672
	DefaultTLSPort     = 5671
	DefaultUsername    = "guest"
	DefaultPassword    = "guest"
	DefaultVirtualHost = "/"
)

// Same values amqp.Dial uses; amqp.DialConfig leaves them to the caller.
const (
	defaultHeartbeat = 10 * time.Second
	defaultLocale    = "en_US"
)

// Config holds the broker settings of an Appender. Every field is a string
// so it can be filled from declarative configuration as-is; empty fields
// fall back to the Default* constants.
type Config struct {
	// VirtualHost is the broker virtual host.
	// Optional. Default: DefaultVirtualHost.
	VirtualHost string `mapstructure:"virtual_host"`

	// Host is the broker host name or address.
	// Optional. Default: DefaultHost.
	Host string `mapstructure:"host"`

	// Port is the broker port and must contain only digits.
	// Optional. Default: DefaultPort, or DefaultTLSPort when TLS is set.
	Port string `mapstructure:"port"`

	// Username is the PLAIN auth user.
	// Optional. Default: DefaultUsername.
	Username string `mapstructure:"username"`

	// Password is the PLAIN auth password.
	// Optional. Default: DefaultPassword.
	Password string `mapstructure:"password"`

	// Queue is the queue every event is routed to through the default exchange.
	// Required.
	Queue string `mapstructure:"queue"`

	// DialTimeout bounds opening the TCP connection.
	// Zero or negative values use the amqp091-go default.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// PublishTimeout bounds a single publish when the caller's context has no
	// deadline. Zero or negative values mean no timeout.
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// check reports every empty field through warn and returns the problems that
// prevent the appender from starting.
func (c *Config) check(warn func(string)) []error {
	var problems []error

	if c.VirtualHost == "" {
		warn("VirtualHost might be missing")
	}

	if c.Host == "" {
		warn(fmt.Sprintf("Host might be missing ('%s' by default)", DefaultHost))
	}

	if c.Port == "" {
		warn(fmt.Sprintf("Port might be missing ('%d' by default)", DefaultPort))
	} else if err := validatePort(c.Port); err != nil {
		warn(err.Error())
		problems = append(problems, err)
	}

	if c.Username == "" {
		warn(fmt.Sprintf("Username might be missing ('%s' by default)", DefaultUsername))
	}

	if c.Password == "" {
		warn(fmt.Sprintf("Password might be missing ('%s' by default)", DefaultPassword))
	}

	if c.Queue == "" {
		warn("Queue must be set")
		problems = append(problems, errors.New("queue must be set"))
	}

	return problems
}

// validatePort accepts a non-empty string of ASCII digits naming a port in
// 1..65535.
func validatePort(port string) error {
	if !isNumeric(port) {
		return fmt.Errorf("port must be numeric, got '%s'", port)
	}

	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil || n == 0 {
		return fmt.Errorf("port must be between 1 and 65535, got '%s'", port)
	}

	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// url builds the broker URL from Host and Port. Credentials and the virtual
// host travel in the amqp.Config instead.
func (c *Config) url(tlsConfig *tls.Config) string {
	scheme := "amqp"
	port := strconv.Itoa(DefaultPort)
	if tlsConfig != nil {
		scheme = "amqps"
		port = strconv.Itoa(DefaultTLSPort)
	}

	host := DefaultHost
	if c.Host != "" {
		host = c.Host
	}
	if c.Port != "" {
		port = c.Port
	}

	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
	}
	return u.String()
}

// amqpConfig converts the settings into the amqp091-go dial configuration.
func (c *Config) amqpConfig(tlsConfig *tls.Config) amqp.Config {
	username := DefaultUsername
	if c.Username != "" {
		username = c.Username
	}

	password := DefaultPassword
	if c.Password != "" {
		password = c.Password
	}

	vhost := DefaultVirtualHost
	if c.VirtualHost != "" {
		vhost = c.VirtualHost
	}

	cfg := amqp.Config{
		SASL: []amqp.Authentication{
			&amqp.PlainAuth{Username: username, Password: password},
		},
		Vhost:           vhost,
		TLSClientConfig: tlsConfig,
		Heartbeat:       defaultHeartbeat,
		Locale:          defaultLocale,
	}

	if c.DialTimeout > 0 {
		cfg.Dial = amqp.DefaultDial(c.DialTimeout)
	}

	return cfg
}
