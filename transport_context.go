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
	"fmt"
	"io"
)

// ContextByteReader is implemented by transports that can abandon a pending
// read when a context is cancelled
type ContextByteReader interface {
	ReadByteContext(ctx context.Context) (byte, error)
}

// readByteContext reads one byte from t, honouring ctx where the transport allows it.
// Transports without context support are bounded by their own read timeout.
func readByteContext(ctx context.Context, t io.ByteReader) (byte, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("context cancelled before reading: %w", ctx.Err())
	default:
	}

	if cr, ok := t.(ContextByteReader); ok {
		return cr.ReadByteContext(ctx)
	}
	return t.ReadByte()
}

// writeFrame sends f through the most efficient interface t offers
func writeFrame(ctx context.Context, t io.ByteWriter, f Frame) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled before sending frame: %w", ctx.Err())
	default:
	}

	if w, ok := t.(io.Writer); ok {
		_, err := f.WriteTo(w)
		return err
	}
	return f.WriteBytes(t)
}
