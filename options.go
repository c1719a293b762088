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

package xbee

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-xbee/internal/frame"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithMaxPayload sets the largest payload the device will receive
func WithMaxPayload(n int) Option {
	return func(d *Device) error {
		if n <= 0 || n > frame.MaxPayload {
			return fmt.Errorf("%w: max payload %d outside 1..%d", ErrInvalidParameter, n, frame.MaxPayload)
		}
		d.config.MaxPayload = n
		return nil
	}
}

// WithTxBufferSize sets the size of the buffer outgoing commands are encoded into
func WithTxBufferSize(n int) Option {
	return func(d *Device) error {
		if n <= 0 || n > frame.MaxPayload {
			return fmt.Errorf("%w: tx buffer size %d outside 1..%d", ErrInvalidParameter, n, frame.MaxPayload)
		}
		d.config.TxBufferSize = n
		return nil
	}
}

// WithReadTimeout sets the transport read timeout
func WithReadTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: read timeout must be positive", ErrInvalidParameter)
		}
		d.config.ReadTimeout = timeout
		return nil
	}
}

// WithLogger sets the logger used for the device's debug output
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) error {
		d.config.Logger = l
		return nil
	}
}
