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

package spi

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"

	xbee "github.com/ZaparooProject/go-xbee"
)

func idleChunk() []byte {
	return bytes.Repeat([]byte{idleByte}, readChunkSize)
}

// chunk pads data with idle bytes to a full read
func chunk(data ...byte) []byte {
	return append(data, bytes.Repeat([]byte{idleByte}, readChunkSize-len(data))...)
}

func newPlayback(ops ...conntest.IO) *spitest.Playback {
	return &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}}
}

func TestSPIContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := &Transport{}

	_, err := transport.ReadByteContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTransportCreation(t *testing.T) {
	t.Parallel()

	transport, err := NewFromPort(newPlayback(), nil, "SPI0.0")
	require.NoError(t, err)

	assert.Equal(t, xbee.TransportSPI, transport.Type())
	assert.True(t, transport.IsConnected())
	assert.Equal(t, defaultTimeout, transport.timeout)

	require.NoError(t, transport.Close())
	assert.False(t, transport.IsConnected())

	_, err = transport.ReadByte()
	require.ErrorIs(t, err, xbee.ErrTransportClosed)
}

func TestTransport_ReadWithAttn(t *testing.T) {
	t.Parallel()

	wire := []byte{0x7E, 0x00, 0x02, 0x8A, 0x06, 0x6F}
	port := newPlayback(conntest.IO{W: idleChunk(), R: chunk(wire...)})
	attn := &gpiotest.Pin{N: "GPIO22", Num: 22, L: gpio.Low}

	transport, err := NewFromPort(port, attn, "SPI0.0")
	require.NoError(t, err)

	got := make([]byte, 0, len(wire))
	for range wire {
		b, err := transport.ReadByte()
		require.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, wire, got)

	require.NoError(t, transport.Close())
}

func TestTransport_AttnNotAsserted(t *testing.T) {
	t.Parallel()

	attn := &gpiotest.Pin{N: "GPIO22", Num: 22, L: gpio.High}
	transport, err := NewFromPort(newPlayback(), attn, "SPI0.0", WithTimeout(5*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = transport.ReadByte()

	require.ErrorIs(t, err, xbee.ErrTransportTimeout)
	assert.Equal(t, xbee.ErrorTypeTimeout, xbee.GetErrorType(err))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	// nothing was clocked on the bus
	require.NoError(t, transport.Close())
}

func TestTransport_IdleWithoutAttn(t *testing.T) {
	t.Parallel()

	port := newPlayback(conntest.IO{W: idleChunk(), R: idleChunk()})
	transport, err := NewFromPort(port, nil, "SPI0.0")
	require.NoError(t, err)

	_, err = transport.ReadByte()
	require.ErrorIs(t, err, xbee.ErrTransportTimeout)

	require.NoError(t, transport.Close())
}

func TestTransport_WriteKeepsIncomingBytes(t *testing.T) {
	t.Parallel()

	out := []byte{0x7E, 0x00, 0x04, 0x08, 0x01, 0x4E, 0x49, 0x5F}
	in := []byte{0xFF, 0xFF, 0x7E, 0x00, 0x02, 0x8A, 0x06, 0x6F}
	port := newPlayback(conntest.IO{W: out, R: in})

	transport, err := NewFromPort(port, nil, "SPI0.0")
	require.NoError(t, err)

	n, err := transport.Write(out)
	require.NoError(t, err)
	assert.Equal(t, len(out), n)

	got := make([]byte, 0, len(in))
	for range in {
		b, err := transport.ReadByte()
		require.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, in, got)

	require.NoError(t, transport.Close())
}

func TestTransport_WithDevice(t *testing.T) {
	t.Parallel()

	request := []byte{0x7E, 0x00, 0x04, 0x08, 0x01, 0x4E, 0x49, 0x5F}
	response := []byte{0x7E, 0x00, 0x05, 0x88, 0x01, 0x4E, 0x49, 0x00, 0xDF}
	port := newPlayback(
		conntest.IO{W: request, R: bytes.Repeat([]byte{idleByte}, len(request))},
		conntest.IO{W: idleChunk(), R: chunk(response...)},
	)
	attn := &gpiotest.Pin{N: "GPIO22", Num: 22, L: gpio.Low}

	transport, err := NewFromPort(port, attn, "SPI0.0")
	require.NoError(t, err)

	device, err := xbee.New(transport)
	require.NoError(t, err)

	require.NoError(t, device.Send(xbee.NewATCommand(0x01, "NI")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, err := device.ReadFrameContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, response[3:8], f.Payload())

	require.NoError(t, device.Close())
}
