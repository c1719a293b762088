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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/internal/cli"
	"github.com/ZaparooProject/go-xbee/internal/config"
	"github.com/ZaparooProject/go-xbee/listener"
)

type flags struct {
	devicePath *string
	configPath *string
	atCommand  *string
	sendText   *string
	dest       *string
	timeout    *time.Duration
	baud       *int
	debug      *bool
	echo       *bool
}

func parseFlags() *flags {
	f := &flags{
		devicePath: flag.String("device", "",
			"Serial device path or SPI bus (e.g., /dev/ttyUSB0, COM3, SPI0.0). Leave empty for auto-detection."),
		configPath: flag.String("config", "", "Optional TOML configuration file"),
		atCommand:  flag.String("at", "", "Send a local AT command, e.g. NJ or AP=1, and print the response"),
		sendText:   flag.String("send", "", "Transmit text to -dest"),
		dest: flag.String("dest", "broadcast",
			"Destination for -send: 16 hex digits, broadcast or coordinator"),
		timeout: flag.Duration("timeout", 0, "Stop after this long (0 waits for a signal when monitoring)"),
		baud:    flag.Int("baud", 0, "Serial baud rate (overrides the config file)"),
		debug:   flag.Bool("debug", false, "Enable debug output"),
		echo:    flag.Bool("echo", false, "While monitoring, send every received payload back to its source"),
	}
	flag.Parse()
	return f
}

func loadConfig(f *flags) (config.Config, error) {
	cfg := config.Default()
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if *f.devicePath != "" {
		cfg.Serial.Port = *f.devicePath
	}
	if *f.baud > 0 {
		cfg.Serial.BaudRate = *f.baud
	}
	if *f.debug {
		cfg.Log.Level = zerolog.DebugLevel
	}
	return cfg, cfg.Validate()
}

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func run() int {
	f := parseFlags()

	cfg, err := loadConfig(f)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := cli.NewLogger(os.Stderr, "xbeecat", cfg.Log.Level)
	xbee.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *f.timeout)
		defer cancel()
	}

	device, err := cli.OpenDevice(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open device")
		return 1
	}
	defer func() { _ = device.Close() }()

	listenerConfig := listener.DefaultConfig()
	listenerConfig.Logger = logger
	l, err := listener.New(device, listenerConfig)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create listener")
		return 1
	}

	m := newModes(ctx, l, os.Stdout, logger, *f.echo)
	if err := l.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to start listener")
		return 1
	}
	defer l.Stop()

	switch {
	case *f.atCommand != "":
		err = m.runAT(ctx, *f.atCommand)
	case *f.sendText != "":
		err = m.runSend(ctx, *f.dest, *f.sendText)
	default:
		err = m.runMonitor(ctx)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("failed")
		return 1
	}
	return 0
}
