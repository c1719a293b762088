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
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-xbee/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T, mock *MockTransport, opts ...Option) *Device {
	t.Helper()

	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	device, err := New(mock, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })
	return device
}

func corruptedFrame(payload []byte) []byte {
	wire := testutil.EncodeFrame(payload)
	wire[len(wire)-1] ^= 0x01
	return wire
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		transport Transport
		name      string
		errMsg    string
		opts      []Option
		wantErr   bool
	}{
		{
			name:      "Valid_MockTransport",
			transport: NewMockTransport(),
		},
		{
			name:    "Nil_Transport",
			wantErr: true,
			errMsg:  "transport cannot be nil",
		},
		{
			name:      "Zero_MaxPayload",
			transport: NewMockTransport(),
			opts:      []Option{WithMaxPayload(0)},
			wantErr:   true,
			errMsg:    "max payload",
		},
		{
			name:      "Oversized_TxBuffer",
			transport: NewMockTransport(),
			opts:      []Option{WithTxBufferSize(0x10000)},
			wantErr:   true,
			errMsg:    "tx buffer size",
		},
		{
			name:      "Negative_ReadTimeout",
			transport: NewMockTransport(),
			opts:      []Option{WithReadTimeout(-time.Second)},
			wantErr:   true,
			errMsg:    "read timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device, err := New(tt.transport, tt.opts...)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, device)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, device)
			assert.Equal(t, tt.transport, device.Transport())
			assert.Equal(t, DefaultMaxPayload, device.Config().MaxPayload)
			assert.Equal(t, DefaultMaxPayload, device.receiver.Capacity())
			assert.Len(t, device.txBuf, DefaultTxBufferSize)
		})
	}
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock,
		WithMaxPayload(32),
		WithTxBufferSize(64),
		WithReadTimeout(5*time.Millisecond),
	)

	cfg := device.Config()
	assert.Equal(t, 32, cfg.MaxPayload)
	assert.Equal(t, 64, cfg.TxBufferSize)
	assert.Equal(t, 5*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, 32, device.receiver.Capacity())

	mock.mu.Lock()
	defer mock.mu.Unlock()
	assert.Equal(t, 5*time.Millisecond, mock.timeout)
}

func TestDevice_NextFrameID(t *testing.T) {
	t.Parallel()

	device := newTestDevice(t, NewMockTransport())

	assert.Equal(t, byte(1), device.NextFrameID())
	assert.Equal(t, byte(2), device.NextFrameID())

	device.frameID = 0xFE
	assert.Equal(t, byte(0xFF), device.NextFrameID())
	assert.Equal(t, byte(1), device.NextFrameID(), "0 must be skipped on wrap")
}

func TestDevice_Send(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock)

	req := NewTransmitRequest(1, testutil.TestDestinationAddress, testutil.TestRFData)
	require.NoError(t, device.Send(req))

	assert.Equal(t, testutil.EncodeFrame(transmitRequestVector), mock.Written())
}

func TestDevice_Send_BufferTooSmall(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock, WithTxBufferSize(21))

	req := NewTransmitRequest(1, testutil.TestDestinationAddress, testutil.TestRFData)
	err := device.Send(req)

	require.ErrorIs(t, err, ErrBufferTooSmall)
	assert.Empty(t, mock.Written())
}

func TestDevice_SendContext_Cancelled(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := device.SendContext(ctx, NewATCommand(1, "NI"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.Written())
}

func TestDevice_SendFrameContext_TooLarge(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock)

	err := device.SendFrameContext(context.Background(), NewFrame(make([]byte, 0x10000)))
	require.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Equal(t, ErrorTypePermanent, GetErrorType(err))
	assert.Empty(t, mock.Written())
}

func TestDevice_ReadFrameContext(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock)

	payload := testutil.BuildATCommandResponse(0x01, "NI", 0x00)
	go func() {
		// noise, then a pause longer than the read timeout, then the frame
		mock.Feed(0x00, 0x13)
		time.Sleep(30 * time.Millisecond)
		mock.FeedFrame(payload)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, err := device.ReadFrameContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, f.Payload())
}

func TestDevice_ReadFrameContext_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		wire    []byte
	}{
		{
			name:    "checksum mismatch",
			wire:    corruptedFrame(testutil.BuildATCommandResponse(0x01, "NI", 0x00)),
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "payload too large",
			wire:    testutil.EncodeFrame(make([]byte, 40)),
			wantErr: ErrPayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			device := newTestDevice(t, mock, WithMaxPayload(32))

			valid := testutil.BuildATCommandResponse(0x02, "AP", 0x00, 0x01)
			mock.Feed(tt.wire...)
			mock.FeedFrame(valid)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_, err := device.ReadFrameContext(ctx)
			require.ErrorIs(t, err, tt.wantErr)

			var fe *FrameError
			require.ErrorAs(t, err, &fe)

			f, err := device.ReadFrameContext(ctx)
			require.NoError(t, err)
			assert.Equal(t, valid, f.Payload())
		})
	}
}

func TestDevice_ReadFrameContext_ContextTimeout(t *testing.T) {
	t.Parallel()

	device := newTestDevice(t, NewMockTransport())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := device.ReadFrameContext(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDevice_ReadFrameContext_TransportError(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock)

	readErr := NewTransportError("ReadByte", "mock", ErrTransportRead, ErrorTypeTransient)
	mock.SetReadError(readErr)

	_, err := device.ReadFrameContext(context.Background())
	require.ErrorIs(t, err, ErrTransportRead)
	assert.True(t, IsRetryable(err))
}

func TestDevice_ReadResponseContext(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock)

	mock.Feed(corruptedFrame(testutil.BuildATCommandResponse(0x01, "NI", 0x00))...)
	mock.FeedFrame(testutil.BuildModemStatus(0x06))
	mock.FeedFrame(receivePacketVector)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := device.ReadResponseContext(ctx)
	require.NoError(t, err)

	rx, ok := resp.(*ZigbeeReceivePacket)
	require.True(t, ok)
	assert.Equal(t, testutil.TestSourceAddress, rx.SourceAddress)
	assert.Equal(t, testutil.TestNetworkAddress, rx.NetworkAddress)
	assert.Equal(t, []byte("RxData"), rx.Payload)
}

func TestDevice_ReadResponseContext_ParseError(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock)

	mock.FeedFrame([]byte{0x88, 0x01, 0x4E, 0x49, 0x10})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := device.ReadResponseContext(ctx)
	require.ErrorIs(t, err, ErrInvalidEnumValue)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 5, pe.Len)
}

func TestDevice_CommandRoundTrip(t *testing.T) {
	t.Parallel()

	mock := NewMockTransportWithFunc(func(payload []byte) []byte {
		if payload[0] != FrameTypeATCommand {
			return nil
		}
		return testutil.BuildATCommandResponse(payload[1], string(payload[2:4]), 0x00, 0x2A)
	})
	device := newTestDevice(t, mock)

	id := device.NextFrameID()
	require.NoError(t, device.Send(NewATCommand(id, "CH")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := device.ReadResponseContext(ctx)
	require.NoError(t, err)

	at, ok := resp.(*ATCommandResponse)
	require.True(t, ok)
	assert.Equal(t, id, at.FrameID)
	assert.Equal(t, "CH", at.CommandName())
	assert.Equal(t, ATStatusOK, at.Status)
	assert.True(t, at.HasData)
	assert.Equal(t, byte(0x2A), at.Data)
}

func TestDevice_Close(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	require.NoError(t, device.Close())
	assert.False(t, mock.IsConnected())

	_, err = device.ReadFrameContext(context.Background())
	require.ErrorIs(t, err, ErrTransportClosed)

	err = device.Send(NewATCommand(1, "NI"))
	require.ErrorIs(t, err, ErrTransportClosed)
}
