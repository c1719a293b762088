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

/*
Package xbee provides a pure Go codec for the XBee API frame protocol and a
small device layer for talking to XBee radio modules in API mode.

Every API frame on the wire has the same shape: a 0x7E start delimiter, a
big-endian 16-bit payload length, the payload itself and a one-byte checksum
equal to 0xFF minus the low byte of the payload sum. The first payload byte
identifies the frame type.

Features:
  - Byte-at-a-time frame reconstruction with a caller-owned buffer
  - Lazy, zero-allocation frame serialization
  - AT command and Zigbee transmit request encoding
  - AT command response and Zigbee receive packet decoding
  - UART and SPI transports, serial port detection
  - A background listener with callbacks and statistics

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-xbee"
	    "github.com/ZaparooProject/go-xbee/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}

	device, err := xbee.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	// Ask the module for its node identifier
	if err := device.Send(xbee.NewATCommand(device.NextFrameID(), "NI")); err != nil {
	    log.Fatal(err)
	}

	resp, err := device.ReadResponse()
	if err != nil {
	    log.Fatal(err)
	}
	if at, ok := resp.(*xbee.ATCommandResponse); ok {
	    fmt.Println(at.CommandName(), at.Status)
	}

Frames without a device:

The codec can be used directly on any byte stream:

	r := xbee.NewReceiver(make([]byte, 256))
	for _, b := range incoming {
	    f, ok, err := r.Push(b)
	    if err != nil {
	        // checksum mismatch or oversized frame; r is already reset
	        continue
	    }
	    if ok {
	        resp, err := xbee.ParseResponse(f)
	        ...
	    }
	}

	buf := make([]byte, 64)
	f, err := xbee.BuildFrame(xbee.NewBroadcast(1, []byte("hello")), buf)
	for b := range f.Serialize() {
	    port.WriteByte(b)
	}

Error Handling:

Rejected frames are reported as *FrameError and parse failures as
*ParseError; both wrap a sentinel that can be inspected:

	if errors.Is(err, xbee.ErrChecksumMismatch) {
	    // the frame was dropped
	}

Thread Safety:

Receiver and Device are not thread-safe. Drive each from a single goroutine,
or use the listener package which owns the read side of a Device.
*/
package xbee
