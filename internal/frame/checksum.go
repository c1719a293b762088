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

package frame

// Sum returns the mod-256 sum of data.
func Sum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ChecksumFromSum converts a running payload sum into the transmitted checksum byte.
func ChecksumFromSum(sum byte) byte {
	return 0xFF - sum
}

// Checksum calculates the checksum byte for a payload: 0xFF minus the
// mod-256 sum of its bytes.
func Checksum(payload []byte) byte {
	return ChecksumFromSum(Sum(payload))
}

// Valid reports whether checksum matches payload.
// Adding the checksum to the payload sum always yields 0xFF for a valid frame.
func Valid(payload []byte, checksum byte) bool {
	return Sum(payload)+checksum == 0xFF
}

// EncodeLength splits a payload length into the big-endian wire bytes.
func EncodeLength(n int) (msb, lsb byte) {
	return byte(n / 256), byte(n % 256)
}
