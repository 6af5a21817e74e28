// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command amqpsink publishes log lines to a RabbitMQ queue.
//
// Lines are taken from the arguments or, when there are none, from standard
// input. Each line becomes one log entry, formatted as JSON or text and
// published as one message.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "amqpsink [message...]",
		Short: "Publish log lines to a RabbitMQ queue",
		Long: `amqpsink formats each argument, or each line read from standard input,
as a log entry and publishes it to a RabbitMQ queue through the default
exchange. Publish failures are reported on stderr and never stop the stream.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := rootCmd.Flags()
	flags.StringP("config", "c", "", "Configuration file path")
	flags.String("host", "", "Broker host (default \"localhost\")")
	flags.String("port", "", "Broker port (default \"5672\", or \"5671\" with --tls)")
	flags.String("vhost", "", "Virtual host (default \"/\")")
	flags.String("username", "", "Broker username (default \"guest\")")
	flags.String("password", "", "Broker password (default \"guest\")")
	flags.StringP("queue", "q", "", "Destination queue (required)")
	flags.Duration("dial-timeout", 0, "Connection timeout, 0 for the client default")
	flags.Duration("publish-timeout", 0, "Per-message publish timeout, 0 for none")
	flags.Bool("tls", false, "Connect with TLS (amqps)")
	flags.StringP("format", "f", "json", "Message format (json, text)")
	flags.StringP("level", "L", "info", "Level of the published entries (trace, debug, info, warn, error)")
	flags.String("log-level", "error", "Diagnostic log level (debug, info, warn, error, disabled)")
	flags.String("metrics-listen", "", "Serve Prometheus metrics on this address")

	return rootCmd
}
