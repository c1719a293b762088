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

// Package uart provides a serial port transport for XBee modules
package uart

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	xbee "github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/internal/transport"
)

const (
	// DefaultBaudRate is the factory setting of the BD register
	DefaultBaudRate = 9600

	defaultTimeout = 50 * time.Millisecond
	readChunkSize  = 64
)

// port is the part of serial.Port the transport relies on
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Option configures a Transport before the port is opened
type Option func(*config)

type config struct {
	baudRate int
	timeout  time.Duration
}

// WithBaudRate sets the serial speed; it must match the module's BD register
func WithBaudRate(baud int) Option {
	return func(c *config) {
		c.baudRate = baud
	}
}

// WithTimeout sets the initial read timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// Transport implements xbee.Transport over a serial port.
//
// Reads are buffered: one Read on the port may return several bytes, which
// are handed out by subsequent ReadByte calls.
type Transport struct {
	port     port
	portName string
	pending  []byte
	buf      [readChunkSize]byte
	timeout  time.Duration
	mu       sync.Mutex
}

// New opens portName in 8N1 mode
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := config{baudRate: DefaultBaudRate, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: cfg.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, xbee.NewTransportError("open", portName,
			fmt.Errorf("%w: %w", xbee.ErrDeviceNotFound, err), xbee.ErrorTypePermanent)
	}

	t := newTransport(p, portName)
	if err := t.SetTimeout(cfg.timeout); err != nil {
		_ = p.Close()
		return nil, err
	}

	return t, nil
}

func newTransport(p port, portName string) *Transport {
	return &Transport{
		port:     p,
		portName: portName,
		timeout:  defaultTimeout,
	}
}

// ReadByte returns the next byte from the port, waiting at most the read timeout
func (t *Transport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) > 0 {
		b := t.pending[0]
		t.pending = t.pending[1:]
		return b, nil
	}

	if t.port == nil {
		return 0, xbee.NewTransportError("ReadByte", t.portName, xbee.ErrTransportClosed, xbee.ErrorTypePermanent)
	}

	n, err := t.port.Read(t.buf[:])
	if err != nil {
		return 0, xbee.NewTransportError("ReadByte", t.portName,
			fmt.Errorf("%w: %w", xbee.ErrTransportRead, err), xbee.ErrorTypeTransient)
	}
	if n == 0 {
		return 0, xbee.NewTimeoutError("ReadByte", t.portName)
	}

	t.pending = t.buf[1:n]
	return t.buf[0], nil
}

// ReadByteContext waits for the next byte until ctx is done. Read timeouts
// of the port only bound how often ctx is checked.
func (t *Transport) ReadByteContext(ctx context.Context) (byte, error) {
	return transport.Poll(ctx, 0, func() (byte, bool, error) {
		b, err := t.ReadByte()
		if err != nil {
			if xbee.GetErrorType(err) == xbee.ErrorTypeTimeout {
				return 0, true, nil
			}
			return 0, false, err
		}
		return b, false, nil
	})
}

// Write writes p to the port
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	sp := t.port
	t.mu.Unlock()

	if sp == nil {
		return 0, xbee.NewTransportError("write", t.portName, xbee.ErrTransportClosed, xbee.ErrorTypePermanent)
	}

	written := 0
	for written < len(p) {
		n, err := sp.Write(p[written:])
		written += n
		if err != nil {
			return written, xbee.NewTransportError("write", t.portName,
				fmt.Errorf("%w: %w", xbee.ErrTransportWrite, err), xbee.ErrorTypeTransient)
		}
		if n == 0 {
			return written, xbee.NewTransportError("write", t.portName, xbee.ErrTransportWrite, xbee.ErrorTypeTransient)
		}
	}

	return written, nil
}

// WriteByte writes a single byte to the port
func (t *Transport) WriteByte(b byte) error {
	_, err := t.Write([]byte{b})
	return err
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.timeout = timeout
	if t.port == nil {
		return nil
	}
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return xbee.NewTransportError("SetTimeout", t.portName, err, xbee.ErrorTypePermanent)
	}
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.pending = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() xbee.TransportType {
	return xbee.TransportUART
}

// PortName returns the serial port path
func (t *Transport) PortName() string {
	return t.portName
}

var (
	_ xbee.Transport         = (*Transport)(nil)
	_ xbee.ContextByteReader = (*Transport)(nil)
	_ io.Writer              = (*Transport)(nil)
	_ port                   = serial.Port(nil)
)
