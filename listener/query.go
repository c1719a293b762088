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

package listener

import (
	"context"
	"fmt"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
)

// queryRequest is an AT command waiting for its response
type queryRequest struct {
	result  chan queryResult
	frameID byte
}

type queryResult struct {
	err  error
	resp xbee.ATCommandResponse
}

// Query sends an AT command and waits for the response carrying its frame ID.
// The command's FrameID is replaced. Only one query may be outstanding.
func (l *Listener) Query(ctx context.Context, timeout time.Duration, cmd xbee.ATCommand) (*xbee.ATCommandResponse, error) {
	if !l.running.Load() {
		return nil, ErrNotRunning
	}

	if !l.queryMutex.TryLock() {
		return nil, ErrQueryPending
	}
	defer l.queryMutex.Unlock()

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd.FrameID = l.NextFrameID()
	req := &queryRequest{
		frameID: cmd.FrameID,
		result:  make(chan queryResult, 1),
	}

	l.pendingQuery.Store(req)
	defer l.pendingQuery.CompareAndSwap(req, nil)

	if !l.running.Load() {
		return nil, ErrStopped
	}

	if err := l.Send(queryCtx, cmd); err != nil {
		return nil, fmt.Errorf("failed to send AT command %s: %w", string(cmd.Command[:]), err)
	}

	select {
	case res := <-req.result:
		if res.err != nil {
			return nil, res.err
		}
		return &res.resp, nil
	case <-queryCtx.Done():
		return nil, queryCtx.Err()
	}
}

// deliverQueryResponse hands resp to the pending query if it answers it
func (l *Listener) deliverQueryResponse(resp *xbee.ATCommandResponse) {
	req := l.pendingQuery.Load()
	if req == nil || req.frameID != resp.FrameID {
		return
	}
	if l.pendingQuery.CompareAndSwap(req, nil) {
		req.result <- queryResult{resp: *resp}
	}
}

func (l *Listener) failPendingQuery(err error) {
	if req := l.pendingQuery.Swap(nil); req != nil {
		req.result <- queryResult{err: err}
	}
}
