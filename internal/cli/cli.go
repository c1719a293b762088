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

// Package cli holds the device setup shared by the command line tools
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/detection"
	// Registers the serial port detector
	_ "github.com/ZaparooProject/go-xbee/detection/uart"
	"github.com/ZaparooProject/go-xbee/internal/config"
	"github.com/ZaparooProject/go-xbee/transport/spi"
	"github.com/ZaparooProject/go-xbee/transport/uart"
)

// NewLogger returns a console logger writing to out
func NewLogger(out io.Writer, app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Str("app", app).Logger().Level(level)
}

// NewTransport opens path. Paths naming an SPI bus ("SPI0.0", "/dev/spidev0.0")
// use the SPI transport, everything else is treated as a serial port.
func NewTransport(path string, cfg config.SerialConfig) (xbee.Transport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	if strings.Contains(strings.ToLower(path), "spi") {
		t, err := spi.New(path, spi.WithTimeout(cfg.ReadTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return t, nil
	}

	t, err := uart.New(path, uart.WithBaudRate(cfg.BaudRate), uart.WithTimeout(cfg.ReadTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport: %w", err)
	}
	return t, nil
}

// ResolvePort returns the configured port or, when none is set, the most
// likely detected one
func ResolvePort(ctx context.Context, cfg config.SerialConfig, logger zerolog.Logger) (string, error) {
	if cfg.Port != "" {
		return cfg.Port, nil
	}

	opts := detection.DefaultOptions()
	opts.BaudRate = cfg.BaudRate
	devices, err := detection.DetectAllContext(ctx, &opts)
	if err != nil {
		return "", fmt.Errorf("auto-detect: %w", err)
	}
	detection.SortByLikelihood(devices)

	for _, d := range devices {
		logger.Debug().Str("device", d.String()).Str("vidpid", d.VIDPID).Msg("detected")
	}
	logger.Info().Str("device", devices[0].String()).Msg("using detected device")
	return devices[0].Path, nil
}

// OpenDevice resolves the port, opens its transport and wraps it in a Device
func OpenDevice(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*xbee.Device, error) {
	path, err := ResolvePort(ctx, cfg.Serial, logger)
	if err != nil {
		return nil, err
	}

	t, err := NewTransport(path, cfg.Serial)
	if err != nil {
		return nil, err
	}

	device, err := xbee.New(t,
		xbee.WithMaxPayload(cfg.Frame.MaxPayload),
		xbee.WithReadTimeout(cfg.Serial.ReadTimeout),
		xbee.WithLogger(logger),
	)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return device, nil
}
