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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout", err: ErrTransportTimeout, want: true},
		{name: "transport read", err: ErrTransportRead, want: true},
		{name: "transport write", err: ErrTransportWrite, want: true},
		{name: "frame corrupted", err: ErrFrameCorrupted, want: true},
		{name: "checksum mismatch", err: ErrChecksumMismatch, want: true},
		{name: "wrapped checksum mismatch", err: &FrameError{Op: "receive", Err: ErrChecksumMismatch}, want: true},
		{name: "payload too large", err: ErrPayloadTooLarge, want: false},
		{name: "rejected oversize frame", err: &FrameError{Op: "receive", Err: ErrPayloadTooLarge}, want: false},
		{name: "buffer too small", err: ErrBufferTooSmall, want: false},
		{name: "size out of range", err: newParseError(0x88, nil, ErrSizeOutOfRange), want: false},
		{name: "device not found", err: ErrDeviceNotFound, want: false},
		{name: "closed", err: ErrTransportClosed, want: false},
		{name: "text only", err: errors.New("outer: " + ErrTransportTimeout.Error()), want: false},
		{name: "fmt wrapped", err: fmt.Errorf("outer: %w", ErrTransportTimeout), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsRetryable_TransportError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		transport *TransportError
		name      string
		want      bool
	}{
		{
			name: "flagged retryable",
			transport: &TransportError{
				Err: errors.New("test error"), Op: "read", Port: "/dev/ttyUSB0",
				Type: ErrorTypeTransient, Retryable: true,
			},
			want: true,
		},
		{
			name: "flag wins over retryable cause",
			transport: &TransportError{
				Err: ErrTransportTimeout, Op: "read", Port: "/dev/ttyUSB0",
				Type: ErrorTypeTimeout, Retryable: false,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.transport))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nil error", err: nil, want: ErrorTypePermanent},
		{name: "transport timeout", err: ErrTransportTimeout, want: ErrorTypeTimeout},
		{name: "transport read", err: ErrTransportRead, want: ErrorTypeTransient},
		{name: "checksum mismatch", err: ErrChecksumMismatch, want: ErrorTypeTransient},
		{name: "payload too large", err: ErrPayloadTooLarge, want: ErrorTypePermanent},
		{name: "unknown error", err: errors.New("unknown error"), want: ErrorTypePermanent},
		{name: "timeout constructor", err: NewTimeoutError("ReadByte", "/dev/ttyUSB0"), want: ErrorTypeTimeout},
		{
			name: "wrapped transport error",
			err:  fmt.Errorf("failed to send frame: %w", NewFrameCorruptedError("write", "")),
			want: ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestErrorType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "permanent", ErrorTypePermanent.String())
	assert.Equal(t, "transient", ErrorTypeTransient.String())
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
}

func TestNewTransportError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err           error
		name          string
		op            string
		port          string
		errType       ErrorType
		wantRetryable bool
	}{
		{
			name: "permanent", op: "open", port: "/dev/ttyUSB0",
			err: errors.New("permission denied"), errType: ErrorTypePermanent,
		},
		{
			name: "transient without port", op: "write",
			err: errors.New("connection lost"), errType: ErrorTypeTransient, wantRetryable: true,
		},
		{
			name: "timeout", op: "ReadByte", port: "spidev0.0",
			err: ErrTransportTimeout, errType: ErrorTypeTimeout, wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := NewTransportError(tt.op, tt.port, tt.err, tt.errType)
			assert.Equal(t, tt.op, te.Op)
			assert.Equal(t, tt.port, te.Port)
			assert.ErrorIs(t, te, tt.err)
			assert.Equal(t, tt.errType, te.Type)
			assert.Equal(t, tt.wantRetryable, te.Retryable)
		})
	}
}

func TestTransportError_Error(t *testing.T) {
	t.Parallel()

	withPort := &TransportError{Err: errors.New("connection failed"), Op: "read", Port: "/dev/ttyUSB0"}
	assert.Equal(t, "read on /dev/ttyUSB0: connection failed", withPort.Error())

	withoutPort := &TransportError{Err: errors.New("device busy"), Op: "write"}
	assert.Equal(t, "write: device busy", withoutPort.Error())
}

func TestErrorConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		te            *TransportError
		wantErr       error
		name          string
		wantType      ErrorType
		wantRetryable bool
	}{
		{
			name: "timeout", te: NewTimeoutError("read", "/dev/ttyUSB0"),
			wantErr: ErrTransportTimeout, wantType: ErrorTypeTimeout, wantRetryable: true,
		},
		{
			name: "frame corrupted", te: NewFrameCorruptedError("read", "/dev/ttyUSB0"),
			wantErr: ErrFrameCorrupted, wantType: ErrorTypeTransient, wantRetryable: true,
		},
		{
			name: "data too large", te: NewDataTooLargeError("send", "/dev/ttyUSB0"),
			wantErr: ErrPayloadTooLarge, wantType: ErrorTypePermanent, wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, "/dev/ttyUSB0", tt.te.Port)
			assert.ErrorIs(t, tt.te, tt.wantErr)
			assert.Equal(t, tt.wantType, tt.te.Type)
			assert.Equal(t, tt.wantRetryable, tt.te.Retryable)
		})
	}
}

func TestFrameError_Error(t *testing.T) {
	t.Parallel()

	mismatch := &FrameError{Op: "receive", Err: ErrChecksumMismatch, Expected: 0x0D, Received: 0x0C}
	assert.Equal(t, "receive: checksum mismatch: expected 0xd, got 0xc", mismatch.Error())

	overflow := &FrameError{Op: "receive", Err: ErrPayloadTooLarge, Declared: 300, Capacity: 256}
	assert.Equal(t, "receive: payload too large: declared 300 bytes, capacity 256", overflow.Error())

	var target *FrameError
	require.ErrorAs(t, fmt.Errorf("read: %w", overflow), &target)
	assert.Equal(t, 300, target.Declared)
}

func TestParseError_Error(t *testing.T) {
	t.Parallel()

	err := newParseError(0x88, []byte{0x88, 0x01}, ErrSizeOutOfRange)
	assert.Equal(t, "parse frame type 0x88 (2 bytes): payload size out of range", err.Error())
	assert.ErrorIs(t, err, ErrSizeOutOfRange)
}
