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

package uart

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial/enumerator"

	"github.com/ZaparooProject/go-xbee/detection"
)

// serialPort is one entry of the host's serial port list
type serialPort struct {
	Path         string
	Name         string
	VIDPID       string
	SerialNumber string
}

// listPorts is replaced in tests
var listPorts = getSerialPorts

// getSerialPorts lists ports through the serial enumerator and merges in the
// platform's own port list, which can contain ports the enumerator misses
func getSerialPorts(ctx context.Context) ([]serialPort, error) {
	details, enumErr := enumerator.GetDetailedPortsList()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("listing ports cancelled: %w", err)
	}

	ports := make([]serialPort, 0, len(details))
	seen := make(map[string]bool, len(details))
	for _, d := range details {
		p := serialPort{Path: d.Name, Name: d.Name}
		if d.IsUSB {
			p.VIDPID = detection.ParseVIDPID(d.VID + ":" + d.PID)
			p.SerialNumber = d.SerialNumber
			if d.Product != "" {
				p.Name = d.Product
			}
		}
		ports = append(ports, p)
		seen[p.Path] = true
	}

	platformPorts, platformErr := getPlatformPorts()
	if enumErr != nil && len(platformPorts) == 0 {
		return nil, fmt.Errorf("failed to list serial ports: %w", errors.Join(enumErr, platformErr))
	}
	for _, p := range platformPorts {
		if !seen[p.Path] {
			ports = append(ports, p)
			seen[p.Path] = true
		}
	}

	return ports, nil
}
