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

// Package metrics exports listener counters and gateway activity to Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ZaparooProject/go-xbee/listener"
)

const namespace = "xbee"

// StatsSource is implemented by *listener.Listener
type StatsSource interface {
	Stats() listener.Stats
}

type statsCollector struct {
	source StatsSource
	descs  []statDesc
}

type statDesc struct {
	desc  *prometheus.Desc
	value func(listener.Stats) uint64
}

func newDesc(name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "listener", name), help, nil, nil)
}

// NewListenerCollector reports the counters of source as Prometheus counters.
// Values are read on every scrape.
func NewListenerCollector(source StatsSource) prometheus.Collector {
	return &statsCollector{
		source: source,
		descs: []statDesc{
			{newDesc("frames_total", "Frames that passed checksum validation."),
				func(s listener.Stats) uint64 { return s.Frames }},
			{newDesc("at_responses_total", "AT command response frames."),
				func(s listener.Stats) uint64 { return s.ATResponses }},
			{newDesc("receive_packets_total", "Receive packet frames."),
				func(s listener.Stats) uint64 { return s.ReceivePackets }},
			{newDesc("unknown_frames_total", "Valid frames with an unrecognised frame type."),
				func(s listener.Stats) uint64 { return s.UnknownFrames }},
			{newDesc("parse_errors_total", "Frames of a known type whose payload failed to parse."),
				func(s listener.Stats) uint64 { return s.ParseErrors }},
			{newDesc("rejected_frames_total", "Frames rejected for checksum or length."),
				func(s listener.Stats) uint64 { return s.RejectedFrames }},
			{newDesc("transport_errors_total", "Transport read failures."),
				func(s listener.Stats) uint64 { return s.TransportErrors }},
		},
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d.desc
	}
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	for _, d := range c.descs {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, float64(d.value(stats)))
	}
}

// Gateway counts MQTT bridge traffic
type Gateway struct {
	Published *prometheus.CounterVec
	Commands  *prometheus.CounterVec
}

// NewGateway builds the gateway counters. Register them with Register.
func NewGateway() *Gateway {
	return &Gateway{
		Published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "published_total",
				Help:      "Messages published to the broker by kind and result.",
			},
			[]string{"kind", "result"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "commands_total",
				Help:      "Transmit commands received from the broker by result.",
			},
			[]string{"result"},
		),
	}
}

// Register adds the listener collector and the gateway counters to reg
func Register(reg prometheus.Registerer, source StatsSource, gw *Gateway) error {
	collectors := []prometheus.Collector{NewListenerCollector(source)}
	if gw != nil {
		collectors = append(collectors, gw.Published, gw.Commands)
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
