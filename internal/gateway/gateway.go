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

// Package gateway bridges XBee radio traffic and an MQTT broker.
//
// Received packets are published to "<prefix>/<source>/rx" where source is the
// sender's 64-bit address as 16 upper-case hex digits. Messages published to
// "<prefix>/tx/<destination>" are transmitted; destination is 16 hex digits,
// "broadcast" or "coordinator".
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/internal/metrics"
)

// ErrInvalidTopic is returned for transmit topics that do not name a destination
var ErrInvalidTopic = errors.New("invalid transmit topic")

// Broker is the part of mqtt.Client the gateway uses
type Broker interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Sender transmits commands to the radio; *listener.Listener implements it
type Sender interface {
	Send(ctx context.Context, cmd xbee.Command) error
	NextFrameID() byte
}

// Config configures a Gateway
type Config struct {
	Metrics     *metrics.Gateway
	Logger      zerolog.Logger
	TopicPrefix string
	SendTimeout time.Duration
	QoS         byte
}

// Gateway forwards frames between a Sender and a Broker
type Gateway struct {
	broker Broker
	sender Sender
	config Config
}

// New creates a gateway. A nil Metrics gets an unregistered set of counters.
func New(broker Broker, sender Sender, config Config) *Gateway {
	if config.Metrics == nil {
		config.Metrics = metrics.NewGateway()
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = time.Second
	}
	config.TopicPrefix = strings.Trim(config.TopicPrefix, "/")

	return &Gateway{broker: broker, sender: sender, config: config}
}

// RxTopic returns the topic a packet from source is published to
func RxTopic(prefix string, source uint64) string {
	return fmt.Sprintf("%s/%016X/rx", prefix, source)
}

// TxFilter returns the subscription filter for transmit requests
func TxFilter(prefix string) string {
	return prefix + "/tx/+"
}

// ParseTxTopic extracts the destination from a transmit topic
func ParseTxTopic(prefix, topic string) (uint64, error) {
	dest, ok := strings.CutPrefix(topic, prefix+"/tx/")
	if !ok || dest == "" || strings.Contains(dest, "/") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	addr, err := xbee.ParseAddress(dest)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTopic, err)
	}
	return addr, nil
}

// Subscribe registers the transmit handler with the broker
func (g *Gateway) Subscribe() error {
	token := g.broker.Subscribe(TxFilter(g.config.TopicPrefix), g.config.QoS, g.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", TxFilter(g.config.TopicPrefix), err)
	}
	g.config.Logger.Info().Str("filter", TxFilter(g.config.TopicPrefix)).Msg("subscribed")
	return nil
}

// PublishReceivePacket publishes the packet's RF data and waits up to
// SendTimeout for the broker. The payload is copied.
func (g *Gateway) PublishReceivePacket(p *xbee.ZigbeeReceivePacket) {
	topic := RxTopic(g.config.TopicPrefix, p.SourceAddress)
	payload := append([]byte(nil), p.Payload...)

	token := g.broker.Publish(topic, g.config.QoS, false, payload)
	if !token.WaitTimeout(g.config.SendTimeout) {
		g.config.Metrics.Published.WithLabelValues("rx", "timeout").Inc()
		g.config.Logger.Warn().Str("topic", topic).Msg("publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		g.config.Metrics.Published.WithLabelValues("rx", "error").Inc()
		g.config.Logger.Warn().Err(err).Str("topic", topic).Msg("publish failed")
		return
	}

	g.config.Metrics.Published.WithLabelValues("rx", "ok").Inc()
	g.config.Logger.Debug().Str("topic", topic).Int("len", len(payload)).Msg("published")
}

func (g *Gateway) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	if err := g.Transmit(msg.Topic(), msg.Payload()); err != nil {
		g.config.Logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("transmit failed")
	}
}

// Transmit sends payload to the destination named by topic
func (g *Gateway) Transmit(topic string, payload []byte) error {
	dest, err := ParseTxTopic(g.config.TopicPrefix, topic)
	if err != nil {
		g.config.Metrics.Commands.WithLabelValues("invalid_topic").Inc()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.config.SendTimeout)
	defer cancel()

	req := xbee.NewTransmitRequest(g.sender.NextFrameID(), dest, payload)
	if err := g.sender.Send(ctx, req); err != nil {
		g.config.Metrics.Commands.WithLabelValues("send_error").Inc()
		return fmt.Errorf("send to %016X: %w", dest, err)
	}

	g.config.Metrics.Commands.WithLabelValues("ok").Inc()
	return nil
}
