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

// Package transport provides internal polling helpers shared by the device and its transports
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPollTimeout is returned by TimeoutPoll when the deadline passes first
var ErrPollTimeout = errors.New("poll timeout")

// PollOperation represents one attempt of a polled operation
// Returns: data, again, error
// - data: the result once available
// - again: true if nothing was available yet and the operation should run again
// - error: any error that should stop polling
type PollOperation[T any] func() (T, bool, error)

// Poll runs operation until it produces a result, fails, or ctx is done.
// interval is slept between attempts that asked to run again; zero means
// the operation blocks on its own (for example on a port read timeout).
func Poll[T any](ctx context.Context, interval time.Duration, operation PollOperation[T]) (T, error) {
	var zero T

	for {
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("poll cancelled: %w", ctx.Err())
		default:
		}

		result, again, err := operation()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}

		if interval > 0 {
			if err := sleepContext(ctx, interval); err != nil {
				return zero, err
			}
		}
	}
}

// TimeoutPoll runs operation until it produces a result, fails, or timeout elapses.
// Attempts are spaced one millisecond apart.
func TimeoutPoll[T any](timeout time.Duration, operation PollOperation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		result, again, err := operation()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}

		time.Sleep(time.Millisecond)
	}

	return zero, ErrPollTimeout
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("poll cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
