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

package detection

import (
	"path/filepath"
	"strings"
)

// DefaultBlocklist returns USB devices that are never reported.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno, resets when the port is opened
		"1A86:7523", // CH340 boards running their own firmware
	}
}

// KnownAdapters returns USB adapters XBee modules are commonly sold on
func KnownAdapters() []string {
	return []string{
		"0403:6015", // Digi XBee USB adapter (FTDI FT231X)
		"0403:6001", // XBee Explorer (FTDI FT232R)
	}
}

// IsBlocked reports whether vidpid appears in list
func IsBlocked(vidpid string, blocklist []string) bool {
	if vidpid == "" {
		return false
	}
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))

	for _, blocked := range blocklist {
		blocked = strings.ToUpper(strings.TrimSpace(blocked))
		if vidpid == blocked {
			return true
		}
	}
	return false
}

var (
	vidMarkers = []string{"VID:", "VID_", "VENDOR=", "VID="}
	pidMarkers = []string{"PID:", "PID_", "PRODUCT=", "PID="}
)

// ParseVIDPID extracts "VVVV:PPPP" from a USB descriptor such as
// "VID:0403 PID:6015", `USB\VID_0403&PID_6015` or "0403:6015".
// It returns "" when no pair is found.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(strings.TrimSpace(descriptor))

	vid := hexAfter(descriptor, vidMarkers)
	pid := hexAfter(descriptor, pidMarkers)
	if vid != "" && pid != "" {
		return normalizeID(vid) + ":" + normalizeID(pid)
	}

	if left, right, ok := strings.Cut(descriptor, ":"); ok && isHex(left) && isHex(right) {
		return normalizeID(left) + ":" + normalizeID(right)
	}

	return ""
}

// hexAfter returns the hex digits following the first marker found in s
func hexAfter(s string, markers []string) string {
	for _, m := range markers {
		if idx := strings.Index(s, m); idx >= 0 {
			return leadingHex(s[idx+len(m):])
		}
	}
	return ""
}

func leadingHex(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return !isHexRune(r) })
	if end < 0 {
		return s
	}
	return s[:end]
}

// normalizeID left-pads IDs reported without leading zeros
func normalizeID(id string) string {
	if len(id) >= 4 {
		return id
	}
	return strings.Repeat("0", 4-len(id)) + id
}

func isHexRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}

func isHex(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !isHexRune(r) }) < 0
}

// IsPathIgnored reports whether devicePath matches one of ignorePaths after
// cleaning and case folding
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	normalizedDevice := normalizedPath(devicePath)

	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}

		normalizedIgnore := normalizedPath(ignorePath)

		if normalizedDevice == normalizedIgnore || devicePath == ignorePath {
			return true
		}
	}
	return false
}

// normalizedPath folds case because COM port names are case-insensitive
func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
