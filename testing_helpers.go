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
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTransport is an in-memory transport for tests.
//
// Bytes queued with Feed are returned by ReadByte; ReadByte blocks for up to
// the configured timeout when nothing is queued and then returns a timeout
// error, like a serial port would. Everything written is recorded. When
// ResponseFunc is set, each complete frame written is passed to it and the
// returned payload, if any, is queued as a response frame.
type MockTransport struct {
	rx           chan byte
	done         chan struct{}
	ResponseFunc func(payload []byte) []byte
	receiver     *Receiver
	written      bytes.Buffer
	timeout      time.Duration
	mu           sync.Mutex
	closeOnce    sync.Once
	readErr      error
	closed       bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		rx:       make(chan byte, 4096),
		done:     make(chan struct{}),
		receiver: NewReceiver(make([]byte, DefaultMaxPayload)),
		timeout:  10 * time.Millisecond,
	}
}

// NewMockTransportWithFunc creates a mock transport that answers written frames with fn
func NewMockTransportWithFunc(fn func(payload []byte) []byte) *MockTransport {
	m := NewMockTransport()
	m.ResponseFunc = fn
	return m
}

// Feed queues raw bytes for ReadByte
func (m *MockTransport) Feed(data ...byte) {
	for _, b := range data {
		m.rx <- b
	}
}

// FeedFrame queues the serialized form of a payload for ReadByte
func (m *MockTransport) FeedFrame(payload []byte) {
	for b := range NewFrame(payload).Serialize() {
		m.rx <- b
	}
}

// SetReadError makes every subsequent ReadByte fail with err once the queue is empty
func (m *MockTransport) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// Written returns a copy of every byte written so far
func (m *MockTransport) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written.Bytes()...)
}

// ReadByte implements io.ByteReader
func (m *MockTransport) ReadByte() (byte, error) {
	return m.ReadByteContext(context.Background())
}

// ReadByteContext implements ContextByteReader
func (m *MockTransport) ReadByteContext(ctx context.Context) (byte, error) {
	select {
	case b := <-m.rx:
		return b, nil
	default:
	}

	m.mu.Lock()
	readErr := m.readErr
	timeout := m.timeout
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return 0, NewTransportError("ReadByte", "mock", ErrTransportClosed, ErrorTypePermanent)
	}
	if readErr != nil {
		return 0, readErr
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case b := <-m.rx:
		return b, nil
	case <-m.done:
		return 0, NewTransportError("ReadByte", "mock", ErrTransportClosed, ErrorTypePermanent)
	case <-ctx.Done():
		return 0, fmt.Errorf("read cancelled: %w", ctx.Err())
	case <-timer.C:
		return 0, NewTimeoutError("ReadByte", "mock")
	}
}

// WriteByte implements io.ByteWriter
func (m *MockTransport) WriteByte(b byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return NewTransportError("WriteByte", "mock", ErrTransportClosed, ErrorTypePermanent)
	}
	_ = m.written.WriteByte(b)
	f, ok, _ := m.receiver.Push(b)
	responseFunc := m.ResponseFunc
	m.mu.Unlock()

	if ok && responseFunc != nil {
		if resp := responseFunc(f.Payload()); resp != nil {
			m.FeedFrame(resp)
		}
	}
	return nil
}

// Write implements io.Writer
func (m *MockTransport) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := m.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Close unblocks pending reads and marks the transport as closed
func (m *MockTransport) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.done)
	})
	return nil
}

// SetTimeout configures how long ReadByte waits for data
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected returns true until the transport is closed
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var (
	_ Transport         = (*MockTransport)(nil)
	_ ContextByteReader = (*MockTransport)(nil)
)
