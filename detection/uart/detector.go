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

// Package uart detects XBee modules on serial ports
package uart

import (
	"context"
	"errors"
	"fmt"

	xbee "github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/detection"
	uarttransport "github.com/ZaparooProject/go-xbee/transport/uart"
)

// ErrNotAPIMode is returned by a probe when the port answered but not with
// an API frame, or not at all
var ErrNotAPIMode = errors.New("no API mode response")

// detector implements the Detector interface for serial ports
type detector struct{}

// New creates a new serial port detector
func New() detection.Detector {
	return &detector{}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return string(xbee.TransportUART)
}

// Detect lists serial ports, drops blocked and ignored ones and, in Probe
// mode, keeps only ports where a module answers an API mode query
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if opts == nil {
		defaults := detection.DefaultOptions()
		opts = &defaults
	}

	ports, err := listPorts(ctx)
	if err != nil {
		return nil, err
	}

	devices := make([]detection.DeviceInfo, 0, len(ports))
	for _, p := range ports {
		info := detection.DeviceInfo{
			Transport: string(xbee.TransportUART),
			Path:      p.Path,
			Name:      p.Name,
			VIDPID:    p.VIDPID,
			Metadata:  map[string]string{},
		}
		if p.SerialNumber != "" {
			info.Metadata["serial_number"] = p.SerialNumber
		}
		devices = append(devices, info)
	}

	devices = detection.Filter(devices, opts)
	detection.SortByLikelihood(devices)

	if opts.Mode != detection.Probe {
		return devices, nil
	}

	confirmed := devices[:0]
	for _, d := range devices {
		mode, err := probePort(ctx, d.Path, opts)
		if err != nil {
			xbee.Logger().Debug().Err(err).Str("port", d.Path).Msg("probe failed")
			continue
		}
		d.Metadata["api_mode"] = fmt.Sprint(mode)
		confirmed = append(confirmed, d)
	}
	return confirmed, nil
}

// probePort is replaced in tests
var probePort = probe

// probe asks the module on path for its AP register
func probe(ctx context.Context, path string, opts *detection.Options) (byte, error) {
	transport, err := uarttransport.New(path, uarttransport.WithBaudRate(opts.BaudRate))
	if err != nil {
		return 0, err
	}

	device, err := xbee.New(transport)
	if err != nil {
		_ = transport.Close()
		return 0, err
	}
	defer func() { _ = device.Close() }()

	return queryAPIMode(ctx, device, opts)
}

func queryAPIMode(ctx context.Context, device *xbee.Device, opts *detection.Options) (byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	id := device.NextFrameID()
	if err := device.SendContext(ctx, xbee.NewATCommand(id, "AP")); err != nil {
		return 0, err
	}

	for {
		resp, err := device.ReadResponseContext(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return 0, ErrNotAPIMode
			}
			return 0, err
		}

		at, ok := resp.(*xbee.ATCommandResponse)
		if !ok || at.FrameID != id || at.CommandName() != "AP" {
			continue
		}
		if at.Status != xbee.ATStatusOK || !at.HasData {
			return 0, fmt.Errorf("%w: AP returned %s", ErrNotAPIMode, at.Status)
		}
		return at.Data, nil
	}
}
