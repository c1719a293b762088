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
	"io"
	"iter"

	"github.com/ZaparooProject/go-xbee/internal/frame"
)

// Frame is a view over one API frame payload: the frame type byte followed by
// its fields. The delimiter, length and checksum are not part of the payload;
// they are produced by Serialize.
//
// A Frame never copies its bytes. The buffer it was created from must outlive
// it and must not be modified while the Frame is in use. Frames returned by
// Receiver.Push are only valid until the next call to Push; use Clone to keep one.
type Frame struct {
	payload []byte
}

// NewFrame wraps payload without copying it
func NewFrame(payload []byte) Frame {
	return Frame{payload: payload}
}

// BuildFrame encodes cmd into buf and returns a Frame over the written bytes.
// Nothing is written when buf cannot hold the encoded command.
func BuildFrame(cmd Command, buf []byte) (Frame, error) {
	data, err := cmd.Fill(buf)
	if err != nil {
		return Frame{}, fmt.Errorf("build frame type %#02x: %w", cmd.FrameType(), err)
	}
	return Frame{payload: data}, nil
}

// Payload returns the frame payload. The returned slice aliases the frame's buffer.
func (f Frame) Payload() []byte {
	return f.payload
}

// Len returns the payload length
func (f Frame) Len() int {
	return len(f.payload)
}

// WireLen returns the number of bytes Serialize produces
func (f Frame) WireLen() int {
	return len(f.payload) + frame.Overhead
}

// FrameType returns the identifier byte, or false for an empty payload
func (f Frame) FrameType() (byte, bool) {
	if len(f.payload) == 0 {
		return 0, false
	}
	return f.payload[0], true
}

// Clone returns a Frame backed by its own copy of the payload
func (f Frame) Clone() Frame {
	if f.payload == nil {
		return Frame{}
	}
	return Frame{payload: append([]byte(nil), f.payload...)}
}

// Serialize returns the frame's wire bytes as a lazy sequence: the start
// delimiter, the big-endian length, the payload and finally the checksum.
// Every range over the sequence starts from the beginning. Payloads that do
// not fit the 16-bit length field produce an empty sequence.
func (f Frame) Serialize() iter.Seq[byte] {
	return func(yield func(byte) bool) {
		if len(f.payload) > frame.MaxPayload {
			return
		}

		msb, lsb := frame.EncodeLength(len(f.payload))
		if !yield(frame.StartDelimiter) || !yield(msb) || !yield(lsb) {
			return
		}

		var sum byte
		for _, b := range f.payload {
			sum += b
			if !yield(b) {
				return
			}
		}

		yield(frame.ChecksumFromSum(sum))
	}
}

// AppendBinary appends the serialized frame to dst
func (f Frame) AppendBinary(dst []byte) ([]byte, error) {
	if len(f.payload) > frame.MaxPayload {
		return dst, fmt.Errorf("%w: %d bytes exceeds length field", ErrPayloadTooLarge, len(f.payload))
	}
	for b := range f.Serialize() {
		dst = append(dst, b)
	}
	return dst, nil
}

// WriteTo writes the serialized frame to w in a single Write call
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	buf, err := f.AppendBinary(make([]byte, 0, f.WireLen()))
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write frame: %w", err)
	}
	return int64(n), nil
}

// WriteBytes feeds the serialized frame to a byte-at-a-time sink
func (f Frame) WriteBytes(w io.ByteWriter) error {
	if len(f.payload) > frame.MaxPayload {
		return fmt.Errorf("%w: %d bytes exceeds length field", ErrPayloadTooLarge, len(f.payload))
	}
	for b := range f.Serialize() {
		if err := w.WriteByte(b); err != nil {
			return fmt.Errorf("failed to write frame byte: %w", err)
		}
	}
	return nil
}
