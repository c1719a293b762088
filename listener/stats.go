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

import "sync/atomic"

// Stats is a snapshot of the listener's counters
type Stats struct {
	// Frames counts frames that passed checksum validation
	Frames          uint64
	ATResponses     uint64
	ReceivePackets  uint64
	UnknownFrames   uint64
	ParseErrors     uint64
	RejectedFrames  uint64
	TransportErrors uint64
}

type counters struct {
	frames          atomic.Uint64
	atResponses     atomic.Uint64
	receivePackets  atomic.Uint64
	unknown         atomic.Uint64
	parseErrors     atomic.Uint64
	rejected        atomic.Uint64
	transportErrors atomic.Uint64
}

// Stats returns the current counters. It is safe to call while running.
func (l *Listener) Stats() Stats {
	return Stats{
		Frames:          l.stats.frames.Load(),
		ATResponses:     l.stats.atResponses.Load(),
		ReceivePackets:  l.stats.receivePackets.Load(),
		UnknownFrames:   l.stats.unknown.Load(),
		ParseErrors:     l.stats.parseErrors.Load(),
		RejectedFrames:  l.stats.rejected.Load(),
		TransportErrors: l.stats.transportErrors.Load(),
	}
}
