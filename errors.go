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
)

// Frame codec errors
var (
	// ErrBufferTooSmall is returned when a command does not fit the supplied buffer.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrPayloadTooLarge is returned when a payload exceeds the receive buffer
	// or the 16-bit length field.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrChecksumMismatch is returned when a received frame fails checksum validation.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidParameter is returned for out-of-range command fields.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Response parsing errors
var (
	ErrIDMismatch       = errors.New("frame type mismatch")
	ErrSizeOutOfRange   = errors.New("payload size out of range")
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrUnknownFrameType = errors.New("unknown frame type")
)

// Transport errors
var (
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportClosed  = errors.New("transport closed")
	ErrFrameCorrupted   = errors.New("frame corrupted")
	ErrDeviceNotFound   = errors.New("device not found")
)

// ErrorType classifies an error for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by trying again
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on the next attempt
	ErrorTypeTransient
	// ErrorTypeTimeout errors mean no data arrived in time
	ErrorTypeTimeout
)

// String returns the error type name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError describes a failure of the underlying byte transport
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error; retryability follows the error type
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a retryable timeout error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewFrameCorruptedError creates a retryable error for a damaged frame
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, ErrorTypeTransient)
}

// NewDataTooLargeError creates a permanent error for oversized payloads
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrPayloadTooLarge, ErrorTypePermanent)
}

// FrameError carries the details of a rejected frame
type FrameError struct {
	Err error
	Op  string
	// Declared is the payload length announced by the length field
	Declared int
	// Capacity is the receive buffer size
	Capacity int
	Expected byte
	Received byte
}

// Error implements the error interface
func (e *FrameError) Error() string {
	switch {
	case errors.Is(e.Err, ErrChecksumMismatch):
		return fmt.Sprintf("%s: %v: expected %#02x, got %#02x", e.Op, e.Err, e.Expected, e.Received)
	case errors.Is(e.Err, ErrPayloadTooLarge):
		return fmt.Sprintf("%s: %v: declared %d bytes, capacity %d", e.Op, e.Err, e.Declared, e.Capacity)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

// Unwrap returns the underlying error
func (e *FrameError) Unwrap() error {
	return e.Err
}

// ParseError describes why a payload could not be decoded as a response
type ParseError struct {
	Err       error
	Len       int
	FrameType byte
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse frame type %#02x (%d bytes): %v", e.FrameType, e.Len, e.Err)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(frameType byte, payload []byte, err error) *ParseError {
	return &ParseError{FrameType: frameType, Len: len(payload), Err: err}
}

// IsRetryable reports whether an operation that failed with err may succeed if attempted again
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrChecksumMismatch):
		return true
	default:
		return false
	}
}

// GetErrorType returns the classification of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case IsRetryable(err):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
