// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xmidt-org/amqpsink"
)

// settings is the command configuration, merged from flags, environment
// variables (AMQPSINK_*) and an optional config file.
type settings struct {
	Broker        amqpsink.Config `mapstructure:"broker"`
	TLS           bool            `mapstructure:"tls"`
	Format        string          `mapstructure:"format"`
	Level         string          `mapstructure:"level"`
	LogLevel      string          `mapstructure:"log_level"`
	MetricsListen string          `mapstructure:"metrics_listen"`
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	v := viper.New()

	setDefaults(v)

	if err := bindFlags(cmd, v); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("AMQPSINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &s, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it. Broker
// fields stay empty; the appender applies its own defaults and warns.
func setDefaults(v *viper.Viper) {
	v.SetDefault("broker.host", "")
	v.SetDefault("broker.port", "")
	v.SetDefault("broker.virtual_host", "")
	v.SetDefault("broker.username", "")
	v.SetDefault("broker.password", "")
	v.SetDefault("broker.queue", "")
	v.SetDefault("broker.dial_timeout", "0s")
	v.SetDefault("broker.publish_timeout", "0s")

	v.SetDefault("tls", false)
	v.SetDefault("format", string(amqpsink.FormatJSON))
	v.SetDefault("level", "info")
	v.SetDefault("log_level", "error")
	v.SetDefault("metrics_listen", "")
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := map[string]string{
		"host":            "broker.host",
		"port":            "broker.port",
		"vhost":           "broker.virtual_host",
		"username":        "broker.username",
		"password":        "broker.password",
		"queue":           "broker.queue",
		"dial-timeout":    "broker.dial_timeout",
		"publish-timeout": "broker.publish_timeout",
		"tls":             "tls",
		"format":          "format",
		"level":           "level",
		"log-level":       "log_level",
		"metrics-listen":  "metrics_listen",
	}

	for flag, key := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	return nil
}
