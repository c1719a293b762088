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

	"github.com/ZaparooProject/go-xbee/internal/frame"
)

// ReceiverState is the position of a Receiver within the frame being reconstructed
type ReceiverState int

const (
	StateWaitingForDelimiter ReceiverState = iota
	StateReceivingLengthMSB
	StateReceivingLengthLSB
	StateReceivingData
	StateReceivingChecksum
)

// String returns the state name
func (s ReceiverState) String() string {
	switch s {
	case StateWaitingForDelimiter:
		return "WaitingForDelimiter"
	case StateReceivingLengthMSB:
		return "ReceivingLengthMSB"
	case StateReceivingLengthLSB:
		return "ReceivingLengthLSB"
	case StateReceivingData:
		return "ReceivingData"
	case StateReceivingChecksum:
		return "ReceivingChecksum"
	default:
		return fmt.Sprintf("ReceiverState(%d)", int(s))
	}
}

// receiverState holds every counter of the reconstruction. The zero value is
// the initial state.
type receiverState struct {
	state     ReceiverState
	cursor    int
	remaining int
	sum       byte
}

type eventKind int

const (
	eventNone eventKind = iota
	eventStore
	eventComplete
	eventMismatch
	eventOverflow
)

// event tells the owner of the scratch buffer what a transition produced
type event struct {
	kind eventKind
	// index is the write position for eventStore
	index int
	// length is the payload length for eventComplete and eventMismatch, and
	// the declared length for eventOverflow
	length   int
	expected byte
}

// transition is the receive state machine. It consumes one byte and returns
// the next state together with the side effect the caller must apply. It
// never touches the scratch buffer itself.
func transition(s receiverState, capacity int, b byte) (receiverState, event) {
	switch s.state {
	case StateWaitingForDelimiter:
		if b == frame.StartDelimiter {
			s.state = StateReceivingLengthMSB
		}
		return s, event{}

	case StateReceivingLengthMSB:
		s.remaining = int(b) << 8
		s.state = StateReceivingLengthLSB
		return s, event{}

	case StateReceivingLengthLSB:
		s.remaining += int(b)
		if s.remaining > capacity {
			return receiverState{}, event{kind: eventOverflow, length: s.remaining}
		}
		if s.remaining == 0 {
			s.state = StateReceivingChecksum
		} else {
			s.state = StateReceivingData
		}
		return s, event{}

	case StateReceivingData:
		ev := event{kind: eventStore, index: s.cursor}
		s.cursor++
		s.sum += b
		s.remaining--
		if s.remaining == 0 {
			s.state = StateReceivingChecksum
		}
		return s, ev

	case StateReceivingChecksum:
		expected := frame.ChecksumFromSum(s.sum)
		ev := event{kind: eventComplete, length: s.cursor, expected: expected}
		if b != expected {
			ev.kind = eventMismatch
		}
		return receiverState{}, ev

	default:
		return receiverState{}, event{}
	}
}

// Receiver reconstructs API frames from a byte stream delivered one byte at a time.
//
// Thread Safety: Receiver is NOT thread-safe. It owns its scratch buffer
// exclusively and must be driven from a single goroutine.
type Receiver struct {
	buf []byte
	st  receiverState
}

// NewReceiver creates a Receiver that reconstructs payloads into buf.
// len(buf) is the largest payload the receiver accepts; frames declaring a
// longer payload are rejected with ErrPayloadTooLarge.
func NewReceiver(buf []byte) *Receiver {
	return &Receiver{buf: buf}
}

// Push feeds one byte to the receiver.
//
// It returns the completed frame and true once a frame's checksum byte has
// been consumed and matches. While a frame is still accumulating it returns
// false and a nil error. A frame that fails its checksum or declares a payload
// larger than the buffer is reported with a *FrameError wrapping
// ErrChecksumMismatch or ErrPayloadTooLarge. In every terminal case the
// receiver is back in its initial state before Push returns.
//
// The returned Frame aliases the receiver's buffer and is overwritten by the next frame.
func (r *Receiver) Push(b byte) (Frame, bool, error) {
	next, ev := transition(r.st, len(r.buf), b)
	r.st = next

	switch ev.kind {
	case eventStore:
		r.buf[ev.index] = b
	case eventComplete:
		return Frame{payload: r.buf[:ev.length:ev.length]}, true, nil
	case eventMismatch:
		return Frame{}, false, &FrameError{
			Op:       "receive",
			Err:      ErrChecksumMismatch,
			Expected: ev.expected,
			Received: b,
		}
	case eventOverflow:
		return Frame{}, false, &FrameError{
			Op:       "receive",
			Err:      ErrPayloadTooLarge,
			Declared: ev.length,
			Capacity: len(r.buf),
		}
	case eventNone:
	}

	return Frame{}, false, nil
}

// State returns the current reconstruction state
func (r *Receiver) State() ReceiverState {
	return r.st.state
}

// Capacity returns the largest payload the receiver accepts
func (r *Receiver) Capacity() int {
	return len(r.buf)
}

// Reset abandons any partially received frame
func (r *Receiver) Reset() {
	r.st = receiverState{}
}
