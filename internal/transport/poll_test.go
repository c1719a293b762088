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

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := Poll(context.Background(), time.Millisecond, func() (int, bool, error) {
		calls++
		return calls * 10, calls < 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 30, got)
	assert.Equal(t, 3, calls)
}

func TestPoll_Error(t *testing.T) {
	t.Parallel()

	opErr := errors.New("read failed")
	calls := 0
	_, err := Poll(context.Background(), 0, func() (int, bool, error) {
		calls++
		if calls == 2 {
			return 0, false, opErr
		}
		return 0, true, nil
	})

	require.ErrorIs(t, err, opErr)
	assert.Equal(t, 2, calls)
}

func TestPoll_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Poll(ctx, 5*time.Millisecond, func() (struct{}, bool, error) {
		return struct{}{}, true, nil
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimeoutPoll(t *testing.T) {
	t.Parallel()

	t.Run("ready", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := TimeoutPoll(time.Second, func() (bool, bool, error) {
			calls++
			return true, calls < 2, nil
		})
		require.NoError(t, err)
		assert.True(t, got)
	})

	t.Run("never ready", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		_, err := TimeoutPoll(10*time.Millisecond, func() (bool, bool, error) {
			return false, true, nil
		})
		require.ErrorIs(t, err, ErrPollTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		opErr := errors.New("gpio read failed")
		_, err := TimeoutPoll(time.Second, func() (bool, bool, error) {
			return false, false, opErr
		})
		require.ErrorIs(t, err, opErr)
	})
}
