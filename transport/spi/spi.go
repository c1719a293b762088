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

// Package spi provides SPI transport implementation for XBee modules
package spi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	xbee "github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/internal/transport"
)

const (
	// DefaultSpeed is well below the 5 MHz the SPI slave supports
	DefaultSpeed = physic.MegaHertz

	// idleByte is clocked out while reading and returned by the module when it has nothing to send
	idleByte = 0xFF

	defaultTimeout = 50 * time.Millisecond
	readChunkSize  = 16
)

// Option configures a Transport
type Option func(*config)

type config struct {
	attnPin string
	speed   physic.Frequency
	timeout time.Duration
}

// WithAttnPin names the GPIO connected to the module's SPI_nATTN output
func WithAttnPin(name string) Option {
	return func(c *config) {
		c.attnPin = name
	}
}

// WithSpeed sets the SPI clock frequency
func WithSpeed(f physic.Frequency) Option {
	return func(c *config) {
		c.speed = f
	}
}

// WithTimeout sets the initial read timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// Transport implements xbee.Transport for an XBee configured as SPI slave.
//
// The bus is full duplex: every byte written clocks one byte in. Reads clock
// out idle bytes. When an ATTN pin is configured, reads wait for the module to
// assert it. Without one, a chunk that comes back entirely idle is treated as
// no data.
type Transport struct {
	conn    spi.Conn
	closer  io.Closer
	attn    gpio.PinIn
	busName string
	pending []byte
	rx      [readChunkSize]byte
	idle    [readChunkSize]byte
	timeout time.Duration
	mu      sync.Mutex
}

// New opens the SPI port busName ("" selects the first one available)
func New(busName string, opts ...Option) (*Transport, error) {
	cfg := newConfig(opts)

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(busName)
	if err != nil {
		return nil, xbee.NewTransportError("open", busName,
			fmt.Errorf("%w: %w", xbee.ErrDeviceNotFound, err), xbee.ErrorTypePermanent)
	}

	var attn gpio.PinIn
	if cfg.attnPin != "" {
		pin := gpioreg.ByName(cfg.attnPin)
		if pin == nil {
			_ = port.Close()
			return nil, fmt.Errorf("%w: no GPIO named %q", xbee.ErrInvalidParameter, cfg.attnPin)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("failed to configure ATTN pin %s: %w", cfg.attnPin, err)
		}
		attn = pin
	}

	t, err := NewFromPort(port, attn, busName, opts...)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return t, nil
}

// NewFromPort creates a transport on an already opened SPI port. attn may be nil.
func NewFromPort(port spi.PortCloser, attn gpio.PinIn, busName string, opts ...Option) (*Transport, error) {
	cfg := newConfig(opts)

	conn, err := port.Connect(cfg.speed, spi.Mode0, 8)
	if err != nil {
		return nil, xbee.NewTransportError("connect", busName, err, xbee.ErrorTypePermanent)
	}

	t := &Transport{
		conn:    conn,
		closer:  port,
		attn:    attn,
		busName: busName,
		timeout: cfg.timeout,
	}
	for i := range t.idle {
		t.idle[i] = idleByte
	}

	return t, nil
}

func newConfig(opts []Option) config {
	cfg := config{speed: DefaultSpeed, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ReadByte returns the next byte from the module, waiting at most the read timeout
func (t *Transport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) > 0 {
		return t.popPending(), nil
	}

	if t.conn == nil {
		return 0, xbee.NewTransportError("ReadByte", t.busName, xbee.ErrTransportClosed, xbee.ErrorTypePermanent)
	}

	if err := t.waitAttention(); err != nil {
		return 0, err
	}

	if err := t.conn.Tx(t.idle[:], t.rx[:]); err != nil {
		return 0, xbee.NewTransportError("ReadByte", t.busName,
			fmt.Errorf("%w: %w", xbee.ErrTransportRead, err), xbee.ErrorTypeTransient)
	}

	if t.attn == nil && allIdle(t.rx[:]) {
		time.Sleep(time.Millisecond)
		return 0, xbee.NewTimeoutError("ReadByte", t.busName)
	}

	t.pending = t.rx[:]
	return t.popPending(), nil
}

// ReadByteContext waits for the next byte until ctx is done
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

func (t *Transport) popPending() byte {
	b := t.pending[0]
	t.pending = t.pending[1:]
	return b
}

// waitAttention blocks until the module asserts ATTN (active low)
func (t *Transport) waitAttention() error {
	if t.attn == nil {
		return nil
	}

	_, err := transport.TimeoutPoll(t.timeout, func() (struct{}, bool, error) {
		return struct{}{}, t.attn.Read() != gpio.Low, nil
	})
	if errors.Is(err, transport.ErrPollTimeout) {
		return xbee.NewTimeoutError("ReadByte", t.busName)
	}
	return err
}

// Write clocks p out to the module. Bytes the module sends at the same time
// are kept for ReadByte.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return 0, xbee.NewTransportError("write", t.busName, xbee.ErrTransportClosed, xbee.ErrorTypePermanent)
	}

	r := make([]byte, len(p))
	if err := t.conn.Tx(p, r); err != nil {
		return 0, xbee.NewTransportError("write", t.busName,
			fmt.Errorf("%w: %w", xbee.ErrTransportWrite, err), xbee.ErrorTypeTransient)
	}

	if !allIdle(r) {
		t.pending = append(t.pending, r...)
	}
	return len(p), nil
}

// WriteByte clocks a single byte out to the module
func (t *Transport) WriteByte(b byte) error {
	_, err := t.Write([]byte{b})
	return err
}

// SetTimeout sets how long ReadByte waits for ATTN
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close releases the SPI port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	t.conn = nil
	t.pending = nil
	if err := t.closer.Close(); err != nil {
		return fmt.Errorf("failed to close SPI port %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() xbee.TransportType {
	return xbee.TransportSPI
}

func allIdle(b []byte) bool {
	for _, v := range b {
		if v != idleByte {
			return false
		}
	}
	return true
}

var (
	_ xbee.Transport         = (*Transport)(nil)
	_ xbee.ContextByteReader = (*Transport)(nil)
	_ io.Writer              = (*Transport)(nil)
)
