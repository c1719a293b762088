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

// Package listener runs the receive side of an xbee.Device in the background
// and dispatches decoded frames to callbacks.
package listener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	xbee "github.com/ZaparooProject/go-xbee"
)

// Listener errors
var (
	ErrAlreadyRunning = errors.New("listener is already running")
	ErrNotRunning     = errors.New("listener is not running")
	ErrStopped        = errors.New("listener was stopped")
	ErrQueryPending   = errors.New("AT query already pending")
)

// Listener reads frames from a device until stopped.
//
// Callbacks run on the listener goroutine. Payload slices they receive alias
// the device's receive buffer and are only valid until the callback returns.
type Listener struct {
	device          *xbee.Device
	config          *Config
	pendingQuery    atomic.Pointer[queryRequest]
	cancelFunc      context.CancelFunc
	done            chan struct{}
	OnATResponse    func(*xbee.ATCommandResponse)
	OnReceivePacket func(*xbee.ZigbeeReceivePacket)
	OnUnknownFrame  func(xbee.Frame)
	OnError         func(error)
	stats           counters
	queryMutex      sync.Mutex
	sendMutex       sync.Mutex
	stopMutex       sync.Mutex
	running         atomic.Bool
}

// Config holds configuration options for the Listener
type Config struct {
	Logger zerolog.Logger
	// RetryBackoff is the pause after a retryable transport error
	RetryBackoff time.Duration
	// MaxConsecutiveErrors stops the loop after that many retryable transport
	// errors in a row; 0 retries forever
	MaxConsecutiveErrors int
}

// DefaultConfig returns default listener configuration
func DefaultConfig() *Config {
	return &Config{
		Logger:               xbee.Logger(),
		RetryBackoff:         100 * time.Millisecond,
		MaxConsecutiveErrors: 10,
	}
}

// New creates a listener for device
func New(device *xbee.Device, config *Config) (*Listener, error) {
	if device == nil {
		return nil, errors.New("device cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Listener{
		device: device,
		config: config,
	}, nil
}

// Start begins reading frames in a background goroutine
func (l *Listener) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.stopMutex.Lock()
	l.cancelFunc = cancel
	l.done = done
	l.stopMutex.Unlock()

	go func() {
		defer close(done)
		defer func() {
			cancel()
			l.failPendingQuery(ErrStopped)
			l.running.Store(false)
		}()

		err := l.run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			l.config.Logger.Error().Err(err).Msg("listener stopped")
		}
	}()

	return nil
}

// Stop cancels the loop and blocks until it has exited
func (l *Listener) Stop() {
	l.stopMutex.Lock()
	cancel := l.cancelFunc
	done := l.done
	l.stopMutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done returns a channel closed when the most recent loop exits, or nil if
// the listener was never started
func (l *Listener) Done() <-chan struct{} {
	l.stopMutex.Lock()
	defer l.stopMutex.Unlock()
	return l.done
}

// IsRunning returns whether the loop is active
func (l *Listener) IsRunning() bool {
	return l.running.Load()
}

// Send writes cmd to the device. It may be called from any goroutine.
func (l *Listener) Send(ctx context.Context, cmd xbee.Command) error {
	l.sendMutex.Lock()
	defer l.sendMutex.Unlock()
	return l.device.SendContext(ctx, cmd)
}

// NextFrameID returns a frame ID for a command passed to Send
func (l *Listener) NextFrameID() byte {
	l.sendMutex.Lock()
	defer l.sendMutex.Unlock()
	return l.device.NextFrameID()
}

func (l *Listener) run(ctx context.Context) error {
	consecutive := 0

	for {
		f, err := l.device.ReadFrameContext(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			var fe *xbee.FrameError
			if errors.As(err, &fe) {
				l.stats.rejected.Add(1)
				l.config.Logger.Debug().Err(err).Msg("frame rejected")
				continue
			}

			l.stats.transportErrors.Add(1)
			l.reportError(err)
			if !xbee.IsRetryable(err) {
				return err
			}

			consecutive++
			if limit := l.config.MaxConsecutiveErrors; limit > 0 && consecutive >= limit {
				return fmt.Errorf("giving up after %d consecutive errors: %w", consecutive, err)
			}
			if err := sleepContext(ctx, l.config.RetryBackoff); err != nil {
				return err
			}
			continue
		}

		consecutive = 0
		l.stats.frames.Add(1)
		l.dispatch(f)
	}
}

func (l *Listener) dispatch(f xbee.Frame) {
	resp, err := xbee.ParseResponse(f)
	switch {
	case errors.Is(err, xbee.ErrUnknownFrameType):
		l.stats.unknown.Add(1)
		if l.OnUnknownFrame != nil {
			l.OnUnknownFrame(f)
		}
		return
	case err != nil:
		l.stats.parseErrors.Add(1)
		l.reportError(err)
		return
	}

	switch r := resp.(type) {
	case *xbee.ATCommandResponse:
		l.stats.atResponses.Add(1)
		l.deliverQueryResponse(r)
		if l.OnATResponse != nil {
			l.OnATResponse(r)
		}
	case *xbee.ZigbeeReceivePacket:
		l.stats.receivePackets.Add(1)
		if l.OnReceivePacket != nil {
			l.OnReceivePacket(r)
		}
	}
}

func (l *Listener) reportError(err error) {
	l.config.Logger.Debug().Err(err).Msg("listener error")
	if l.OnError != nil {
		l.OnError(err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
