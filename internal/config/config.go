// go-xbee
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-xbee.
//
// go-xbee is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-xbee is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-xbee; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package config loads the TOML configuration shared by the command line tools
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config is the merged tool configuration
type Config struct {
	Serial  SerialConfig
	MQTT    MQTTConfig
	Metrics MetricsConfig
	Log     LogConfig
	Frame   FrameConfig
}

// SerialConfig selects and configures the serial port. An empty Port means
// auto-detect.
type SerialConfig struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// FrameConfig sizes the frame buffers
type FrameConfig struct {
	MaxPayload int
}

// MQTTConfig configures the broker connection of the gateway
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// MetricsConfig configures the Prometheus endpoint; an empty Listen disables it
type MetricsConfig struct {
	Listen string
}

// LogConfig configures logging
type LogConfig struct {
	Level zerolog.Level
}

type fileConfig struct {
	Serial struct {
		Port        string `toml:"port"`
		ReadTimeout string `toml:"read_timeout"`
		Baud        int    `toml:"baud"`
	} `toml:"serial"`
	Frame struct {
		MaxPayload int `toml:"max_payload"`
	} `toml:"frame"`
	MQTT struct {
		Broker      string `toml:"broker"`
		ClientID    string `toml:"client_id"`
		TopicPrefix string `toml:"topic_prefix"`
		QoS         int    `toml:"qos"`
	} `toml:"mqtt"`
	Metrics struct {
		Listen string `toml:"listen"`
	} `toml:"metrics"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Serial: SerialConfig{
			BaudRate:    9600,
			ReadTimeout: 50 * time.Millisecond,
		},
		Frame: FrameConfig{MaxPayload: 256},
		MQTT: MQTTConfig{
			Broker:      "tcp://127.0.0.1:1883",
			ClientID:    "xbee2mqtt",
			TopicPrefix: "xbee",
			QoS:         1,
		},
		Log: LogConfig{Level: zerolog.InfoLevel},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	if meta.IsDefined("serial", "port") {
		cfg.Serial.Port = strings.TrimSpace(raw.Serial.Port)
	}
	if meta.IsDefined("serial", "baud") {
		cfg.Serial.BaudRate = raw.Serial.Baud
	}
	if meta.IsDefined("serial", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Serial.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse serial.read_timeout: %w", err)
		}
		cfg.Serial.ReadTimeout = d
	}

	if meta.IsDefined("frame", "max_payload") {
		cfg.Frame.MaxPayload = raw.Frame.MaxPayload
	}

	if meta.IsDefined("mqtt", "broker") {
		cfg.MQTT.Broker = strings.TrimSpace(raw.MQTT.Broker)
	}
	if meta.IsDefined("mqtt", "client_id") {
		cfg.MQTT.ClientID = strings.TrimSpace(raw.MQTT.ClientID)
	}
	if meta.IsDefined("mqtt", "topic_prefix") {
		cfg.MQTT.TopicPrefix = strings.Trim(strings.TrimSpace(raw.MQTT.TopicPrefix), "/")
	}
	if meta.IsDefined("mqtt", "qos") {
		if raw.MQTT.QoS < 0 || raw.MQTT.QoS > 2 {
			return Config{}, fmt.Errorf("%w: mqtt.qos %d outside 0..2", ErrInvalidConfig, raw.MQTT.QoS)
		}
		cfg.MQTT.QoS = byte(raw.MQTT.QoS)
	}

	if meta.IsDefined("metrics", "listen") {
		cfg.Metrics.Listen = strings.TrimSpace(raw.Metrics.Listen)
	}

	if meta.IsDefined("log", "level") {
		level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw.Log.Level)))
		if err != nil {
			return Config{}, fmt.Errorf("parse log.level: %w", err)
		}
		cfg.Log.Level = level
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges
func (c Config) Validate() error {
	var errs []error

	if c.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: serial.baud must be positive", ErrInvalidConfig))
	}
	if c.Serial.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: serial.read_timeout must be positive", ErrInvalidConfig))
	}
	if c.Frame.MaxPayload <= 0 || c.Frame.MaxPayload > 0xFFFF {
		errs = append(errs, fmt.Errorf("%w: frame.max_payload %d outside 1..65535", ErrInvalidConfig, c.Frame.MaxPayload))
	}
	if c.MQTT.TopicPrefix == "" {
		errs = append(errs, fmt.Errorf("%w: mqtt.topic_prefix is empty", ErrInvalidConfig))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("%w: mqtt.qos %d outside 0..2", ErrInvalidConfig, c.MQTT.QoS))
	}

	return errors.Join(errs...)
}
