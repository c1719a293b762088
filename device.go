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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-xbee/internal/frame"
	"github.com/ZaparooProject/go-xbee/internal/transport"
)

// Default buffer sizes. 256 bytes covers the largest RF payload of every
// XBee 3 firmware plus the frame fields around it.
const (
	DefaultMaxPayload   = 256
	DefaultTxBufferSize = 256
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	Logger zerolog.Logger
	// MaxPayload is the largest payload the receiver accepts
	MaxPayload int
	// TxBufferSize is the size of the buffer outgoing commands are encoded into
	TxBufferSize int
	// ReadTimeout is applied to the transport when the device is created;
	// zero leaves the transport setting alone
	ReadTimeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Logger:       Logger(),
		MaxPayload:   DefaultMaxPayload,
		TxBufferSize: DefaultTxBufferSize,
	}
}

// Device sends commands to and receives frames from an XBee module in API mode
//
// Thread Safety: Device is NOT thread-safe. Sending and receiving share no
// state, so one goroutine may send while another receives, but each direction
// must be driven from a single goroutine.
type Device struct {
	transport Transport
	config    *DeviceConfig
	receiver  *Receiver
	txBuf     []byte
	frameID   byte
}

// New creates a device on top of transport
func New(t Transport, opts ...Option) (*Device, error) {
	if t == nil {
		return nil, errors.New("transport cannot be nil")
	}

	device := &Device{
		transport: t,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	if device.config.ReadTimeout > 0 {
		if err := t.SetTimeout(device.config.ReadTimeout); err != nil {
			return nil, fmt.Errorf("failed to set transport timeout: %w", err)
		}
	}

	device.receiver = NewReceiver(make([]byte, device.config.MaxPayload))
	device.txBuf = make([]byte, device.config.TxBufferSize)

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Config returns the device configuration
func (d *Device) Config() DeviceConfig {
	return *d.config
}

// NextFrameID returns the next frame ID for a command. IDs wrap from 255 to 1;
// 0 is skipped because it tells the module not to answer.
func (d *Device) NextFrameID() byte {
	d.frameID++
	if d.frameID == 0 {
		d.frameID = 1
	}
	return d.frameID
}

// Send encodes cmd and writes it to the transport
func (d *Device) Send(cmd Command) error {
	return d.SendContext(context.Background(), cmd)
}

// SendContext encodes cmd and writes it to the transport with context support
func (d *Device) SendContext(ctx context.Context, cmd Command) error {
	f, err := BuildFrame(cmd, d.txBuf)
	if err != nil {
		return err
	}
	return d.SendFrameContext(ctx, f)
}

// SendFrameContext writes an already built frame to the transport
func (d *Device) SendFrameContext(ctx context.Context, f Frame) error {
	if f.Len() > frame.MaxPayload {
		return NewDataTooLargeError("send", string(d.transport.Type()))
	}

	if err := writeFrame(ctx, d.transport, f); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}

	d.config.Logger.Debug().
		Int("len", f.Len()).
		Hex("payload", f.Payload()).
		Msg("frame sent")
	return nil
}

// ReadFrame blocks until a frame is received
func (d *Device) ReadFrame() (Frame, error) {
	return d.ReadFrameContext(context.Background())
}

// ReadFrameContext reads bytes until a complete frame has been reconstructed.
//
// A frame that fails validation is reported immediately as a *FrameError
// wrapping ErrChecksumMismatch or ErrPayloadTooLarge; the receiver is already
// reset and the next call starts on a clean frame. Transport read timeouts
// are not reported: reading continues until ctx is done.
//
// The returned Frame is only valid until the next read.
func (d *Device) ReadFrameContext(ctx context.Context) (Frame, error) {
	return transport.Poll(ctx, 0, func() (Frame, bool, error) {
		b, err := readByteContext(ctx, d.transport)
		if err != nil {
			if GetErrorType(err) == ErrorTypeTimeout {
				return Frame{}, true, nil
			}
			return Frame{}, false, err
		}

		f, ok, err := d.receiver.Push(b)
		if err != nil {
			d.config.Logger.Debug().Err(err).Msg("frame rejected")
			return Frame{}, false, err
		}
		if ok {
			d.config.Logger.Debug().
				Int("len", f.Len()).
				Hex("payload", f.Payload()).
				Msg("frame received")
		}
		return f, !ok, nil
	})
}

// ReadResponse blocks until a known response is received
func (d *Device) ReadResponse() (Response, error) {
	return d.ReadResponseContext(context.Background())
}

// ReadResponseContext reads frames until one decodes as a known response.
// Rejected frames and frames of unknown type are skipped; frames of a known
// type that fail to parse are returned as errors.
func (d *Device) ReadResponseContext(ctx context.Context) (Response, error) {
	for {
		f, err := d.ReadFrameContext(ctx)
		if err != nil {
			var fe *FrameError
			if errors.As(err, &fe) {
				continue
			}
			return nil, err
		}

		resp, err := ParseResponse(f)
		if errors.Is(err, ErrUnknownFrameType) {
			d.config.Logger.Debug().Err(err).Msg("skipping frame")
			continue
		}
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}

// Close closes the underlying transport
func (d *Device) Close() error {
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}
