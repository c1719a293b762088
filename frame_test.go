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
	"bytes"
	"errors"
	"slices"
	"testing"

	testutil "github.com/ZaparooProject/go-xbee/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Serialize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
		want    []byte
	}{
		{
			name:    "AT command with parameter",
			payload: []byte{0x08, 0x01, 0x4E, 0x4A, 0xFF},
			want:    []byte{0x7E, 0x00, 0x05, 0x08, 0x01, 0x4E, 0x4A, 0xFF, 0x5F},
		},
		{
			name:    "empty payload",
			payload: []byte{},
			want:    []byte{0x7E, 0x00, 0x00, 0xFF},
		},
		{
			name:    "transmit request",
			payload: append([]byte{0x10, 0x01}, testutil.TestRFData...),
			want:    testutil.EncodeFrame(append([]byte{0x10, 0x01}, testutil.TestRFData...)),
		},
		{
			name:    "length above one byte",
			payload: bytes.Repeat([]byte{0x01}, 300),
			want:    testutil.EncodeFrame(bytes.Repeat([]byte{0x01}, 300)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := slices.Collect(NewFrame(tt.payload).Serialize())
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.payload)+4)
		})
	}
}

func TestFrame_SerializeRestarts(t *testing.T) {
	t.Parallel()

	f := NewFrame([]byte{0x08, 0x52, 0x4E, 0x4A})
	seq := f.Serialize()

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
}

func TestFrame_SerializeEarlyBreak(t *testing.T) {
	t.Parallel()

	f := NewFrame([]byte{0x08, 0x52, 0x4E, 0x4A})

	var head []byte
	for b := range f.Serialize() {
		head = append(head, b)
		if len(head) == 2 {
			break
		}
	}
	assert.Equal(t, []byte{0x7E, 0x00}, head)

	// a fresh range is unaffected by the earlier break
	assert.Equal(t, []byte{0x7E, 0x00, 0x04, 0x08, 0x52, 0x4E, 0x4A, 0x0D}, slices.Collect(f.Serialize()))
}

func TestFrame_Oversize(t *testing.T) {
	t.Parallel()

	f := NewFrame(make([]byte, 0x10000))

	assert.Empty(t, slices.Collect(f.Serialize()))

	_, err := f.AppendBinary(nil)
	require.ErrorIs(t, err, ErrPayloadTooLarge)

	err = f.WriteBytes(&bytes.Buffer{})
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestBuildFrame(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 10)
	f, err := BuildFrame(NewATCommand(0x52, "NJ"), buf)
	require.NoError(t, err)

	want := []byte{0x7E, 0x00, 0x04, 0x08, 0x52, 0x4E, 0x4A, 0x0D}
	assert.Equal(t, want, slices.Collect(f.Serialize()))

	// the frame is a view over the caller's buffer
	assert.Same(t, &buf[0], &f.Payload()[0])
}

func TestBuildFrame_BufferTooSmall(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 1)
	_, err := BuildFrame(NewATCommand(0x52, "NJ"), buf)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferTooSmall))
	assert.Equal(t, []byte{0x00}, buf, "nothing may be written when the size check fails")
}

func TestFrame_WriteTo(t *testing.T) {
	t.Parallel()

	payload := []byte{0x08, 0x01, 0x4E, 0x4A, 0xFF}
	var buf bytes.Buffer

	n, err := NewFrame(payload).WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, testutil.EncodeFrame(payload), buf.Bytes())
}

func TestFrame_WriteBytes(t *testing.T) {
	t.Parallel()

	payload := []byte{0x08, 0x01, 0x4E, 0x4A, 0xFF}
	var buf bytes.Buffer

	require.NoError(t, NewFrame(payload).WriteBytes(&buf))
	assert.Equal(t, testutil.EncodeFrame(payload), buf.Bytes())
}

func TestFrame_Accessors(t *testing.T) {
	t.Parallel()

	f := NewFrame([]byte{0x88, 0x01})
	id, ok := f.FrameType()
	assert.True(t, ok)
	assert.Equal(t, byte(0x88), id)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 6, f.WireLen())

	_, ok = NewFrame(nil).FrameType()
	assert.False(t, ok)
}

func TestFrame_Clone(t *testing.T) {
	t.Parallel()

	buf := []byte{0x88, 0x01, 0x02}
	f := NewFrame(buf)
	c := f.Clone()

	buf[1] = 0xAA
	assert.Equal(t, byte(0xAA), f.Payload()[1])
	assert.Equal(t, byte(0x01), c.Payload()[1])
}
