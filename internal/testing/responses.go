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

// Package testing provides canned XBee payloads and wire frames for tests
package testing

// BuildATCommandResponse creates an AT command response payload (frame type 0x88)
func BuildATCommandResponse(frameID byte, name string, status byte, data ...byte) []byte {
	payload := []byte{0x88, frameID, name[0], name[1], status}
	return append(payload, data...)
}

// BuildReceivePacket creates a Zigbee receive packet payload (frame type 0x90)
func BuildReceivePacket(source uint64, network uint16, options byte, data []byte) []byte {
	payload := []byte{0x90}
	for shift := 56; shift >= 0; shift -= 8 {
		payload = append(payload, byte(source>>shift))
	}
	payload = append(payload, byte(network>>8), byte(network), options)
	return append(payload, data...)
}

// BuildModemStatus creates a modem status payload (frame type 0x8A), a frame
// type the library does not decode
func BuildModemStatus(status byte) []byte {
	return []byte{0x8A, status}
}

// EncodeFrame wraps payload in delimiter, length and checksum.
// It is written independently of the library encoder so tests can compare the two.
func EncodeFrame(payload []byte) []byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}

	wire := make([]byte, 0, len(payload)+4)
	wire = append(wire, 0x7E, byte(len(payload)>>8), byte(len(payload)))
	wire = append(wire, payload...)
	return append(wire, 0xFF-sum)
}

// Common addresses for testing
var (
	// TestSourceAddress is the 64-bit address used by the sample receive packet
	TestSourceAddress uint64 = 0x0013A20040522BAA

	// TestDestinationAddress is the 64-bit address used by the sample transmit request
	TestDestinationAddress uint64 = 0x0013A200400A0127

	// TestNetworkAddress is the 16-bit address used by the sample receive packet
	TestNetworkAddress uint16 = 0x7D84

	// TestRFData is the sample transmit request payload ("TxData0A")
	TestRFData = []byte{0x54, 0x78, 0x44, 0x61, 0x74, 0x61, 0x30, 0x41}
)

// Frame types for reference
const (
	FrameTypeATCommand         = 0x08
	FrameTypeTransmitRequest   = 0x10
	FrameTypeATCommandResponse = 0x88
	FrameTypeModemStatus       = 0x8A
	FrameTypeReceivePacket     = 0x90
)
