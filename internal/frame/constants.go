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

// Package frame provides frame layout constants and checksum helpers for the XBee API protocol
package frame

// Frame markers
const (
	StartDelimiter = 0x7E // Start of every API frame
)

// Frame layout sizes
const (
	HeaderLength   = 3      // delimiter + 2 length bytes
	ChecksumLength = 1      // trailing checksum byte
	Overhead       = 4      // HeaderLength + ChecksumLength
	MaxPayload     = 0xFFFF // Largest payload the 16-bit length field can carry
)

// Frame type identifiers (first payload byte)
const (
	TypeATCommand         = 0x08
	TypeTransmitRequest   = 0x10
	TypeATCommandResponse = 0x88
	TypeReceivePacket     = 0x90
)

// Addressing constants used by transmit requests
const (
	BroadcastAddress      uint64 = 0x000000000000FFFF
	CoordinatorAddress    uint64 = 0x0000000000000000
	UnknownNetworkAddress uint16 = 0xFFFE
	MaxHops               byte   = 0x00 // 0 lets the module use its maximum hop count
)
