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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/internal/cli"
	"github.com/ZaparooProject/go-xbee/internal/config"
	"github.com/ZaparooProject/go-xbee/internal/gateway"
	"github.com/ZaparooProject/go-xbee/internal/metrics"
	"github.com/ZaparooProject/go-xbee/listener"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func run() int {
	configPath := flag.String("config", "", "TOML configuration file")
	devicePath := flag.String("device", "", "Serial device path (overrides the config file)")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *devicePath != "" {
		cfg.Serial.Port = *devicePath
	}
	if *debug {
		cfg.Log.Level = zerolog.DebugLevel
	}

	logger := cli.NewLogger(os.Stderr, "xbee2mqtt", cfg.Log.Level)
	xbee.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("gateway stopped")
		return 1
	}
	return 0
}

func newMQTTClient(cfg config.MQTTConfig, logger zerolog.Logger, onConnect func()) mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info().Str("broker", cfg.Broker).Msg("connected")
			onConnect()
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn().Err(err).Msg("connection lost")
		})
	return mqtt.NewClient(opts)
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	device, err := cli.OpenDevice(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = device.Close() }()

	listenerConfig := listener.DefaultConfig()
	listenerConfig.Logger = logger
	// The gateway keeps running through transient serial errors
	listenerConfig.MaxConsecutiveErrors = 0
	l, err := listener.New(device, listenerConfig)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	gwMetrics := metrics.NewGateway()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry, l, gwMetrics); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	var gw *gateway.Gateway
	client := newMQTTClient(cfg.MQTT, logger, func() {
		if err := gw.Subscribe(); err != nil {
			logger.Error().Err(err).Msg("subscribe failed")
		}
	})
	gw = gateway.New(client, l, gateway.Config{
		Metrics:     gwMetrics,
		Logger:      logger,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		QoS:         cfg.MQTT.QoS,
	})

	l.OnReceivePacket = gw.PublishReceivePacket
	l.OnError = func(err error) {
		logger.Debug().Err(err).Msg("receive error")
	}

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connect to %s: timed out", cfg.MQTT.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.MQTT.Broker, err)
	}
	defer client.Disconnect(250)

	if err := l.Start(ctx); err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	defer l.Stop()

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info().Str("listen", cfg.Metrics.Listen).Msg("serving metrics")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	logger.Info().Str("prefix", cfg.MQTT.TopicPrefix).Msg("gateway running")

	var runErr error
	select {
	case <-ctx.Done():
	case <-l.Done():
		runErr = errors.New("listener stopped")
	case err := <-serverErr:
		runErr = fmt.Errorf("metrics server: %w", err)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	return runErr
}
