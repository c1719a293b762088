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

package xbee

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-xbee/internal/frame"
)

// Frame type identifiers
const (
	FrameTypeATCommand         = frame.TypeATCommand
	FrameTypeTransmitRequest   = frame.TypeTransmitRequest
	FrameTypeATCommandResponse = frame.TypeATCommandResponse
	FrameTypeReceivePacket     = frame.TypeReceivePacket
)

// Transmit request addressing defaults
const (
	BroadcastAddress      = frame.BroadcastAddress
	CoordinatorAddress    = frame.CoordinatorAddress
	UnknownNetworkAddress = frame.UnknownNetworkAddress
)

// ParseAddress parses a 64-bit destination written as 16 hex digits or as
// one of the names "broadcast" and "coordinator"
func ParseAddress(s string) (uint64, error) {
	switch strings.ToLower(s) {
	case "broadcast":
		return BroadcastAddress, nil
	case "coordinator":
		return CoordinatorAddress, nil
	}

	if len(s) != 16 {
		return 0, fmt.Errorf("%w: address %q is not 16 hex digits", ErrInvalidParameter, s)
	}
	addr, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: address %q: %w", ErrInvalidParameter, s, err)
	}
	return addr, nil
}

// Transmit options bits
const (
	OptionDisableRetries     byte = 0x01
	OptionEnableEncryption   byte = 0x20
	OptionUseExtendedTimeout byte = 0x40
)

// Command is an outgoing API frame.
//
// Fill writes the encoded payload to the start of buf and returns the written
// sub-slice. Implementations check len(buf) against EncodedLen before writing
// anything and return ErrBufferTooSmall when it does not fit.
type Command interface {
	FrameType() byte
	EncodedLen() int
	Fill(buf []byte) ([]byte, error)
}

func checkBuffer(cmd Command, buf []byte) error {
	if need := cmd.EncodedLen(); len(buf) < need {
		return fmt.Errorf("%w: frame type %#02x needs %d bytes, have %d",
			ErrBufferTooSmall, cmd.FrameType(), need, len(buf))
	}
	return nil
}

// ATCommand queries or sets a local module register (frame type 0x08)
type ATCommand struct {
	Command      [2]byte
	FrameID      byte
	Parameter    byte
	HasParameter bool
}

// NewATCommand creates a query for the two-letter command name.
// It panics if name is not exactly two bytes long; use ParseATCommandName
// for names that come from user input.
func NewATCommand(frameID byte, name string) ATCommand {
	cmd, err := ParseATCommandName(name)
	if err != nil {
		panic(err)
	}
	return ATCommand{FrameID: frameID, Command: cmd}
}

// ParseATCommandName converts a two-letter command name such as "NI" into its wire form
func ParseATCommandName(name string) ([2]byte, error) {
	if len(name) != 2 {
		return [2]byte{}, fmt.Errorf("%w: AT command name %q must be two characters", ErrInvalidParameter, name)
	}
	return [2]byte{name[0], name[1]}, nil
}

// WithParameter returns a copy of the command carrying a one-byte parameter value
func (c ATCommand) WithParameter(value byte) ATCommand {
	c.Parameter = value
	c.HasParameter = true
	return c
}

// FrameType implements Command
func (ATCommand) FrameType() byte {
	return FrameTypeATCommand
}

// EncodedLen implements Command
func (c ATCommand) EncodedLen() int {
	if c.HasParameter {
		return 5
	}
	return 4
}

// Fill implements Command
func (c ATCommand) Fill(buf []byte) ([]byte, error) {
	if err := checkBuffer(c, buf); err != nil {
		return nil, err
	}

	buf[0] = FrameTypeATCommand
	buf[1] = c.FrameID
	buf[2] = c.Command[0]
	buf[3] = c.Command[1]
	if c.HasParameter {
		buf[4] = c.Parameter
	}

	return buf[:c.EncodedLen()], nil
}

// transmitRequestHeaderLen is the fixed part of a transmit request before the RF data
const transmitRequestHeaderLen = 14

// TransmitRequest sends RF data to a remote node (frame type 0x10)
type TransmitRequest struct {
	Payload            []byte
	Destination        uint64
	NetworkAddress     uint16
	FrameID            byte
	Radius             byte
	DisableRetries     bool
	EnableEncryption   bool
	UseExtendedTimeout bool
}

// NewTransmitRequest creates a request addressed to the 64-bit destination.
// The payload is referenced, not copied.
func NewTransmitRequest(frameID byte, destination uint64, payload []byte) TransmitRequest {
	return TransmitRequest{
		FrameID:        frameID,
		Destination:    destination,
		NetworkAddress: UnknownNetworkAddress,
		Radius:         frame.MaxHops,
		Payload:        payload,
	}
}

// NewBroadcast creates a request delivered to every node on the network
func NewBroadcast(frameID byte, payload []byte) TransmitRequest {
	return NewTransmitRequest(frameID, BroadcastAddress, payload)
}

// NewToCoordinator creates a request addressed to the network coordinator
func NewToCoordinator(frameID byte, payload []byte) TransmitRequest {
	return NewTransmitRequest(frameID, CoordinatorAddress, payload)
}

// Options returns the transmit options byte
func (r TransmitRequest) Options() byte {
	var opts byte
	if r.DisableRetries {
		opts |= OptionDisableRetries
	}
	if r.EnableEncryption {
		opts |= OptionEnableEncryption
	}
	if r.UseExtendedTimeout {
		opts |= OptionUseExtendedTimeout
	}
	return opts
}

// FrameType implements Command
func (TransmitRequest) FrameType() byte {
	return FrameTypeTransmitRequest
}

// EncodedLen implements Command
func (r TransmitRequest) EncodedLen() int {
	return transmitRequestHeaderLen + len(r.Payload)
}

// Fill implements Command
func (r TransmitRequest) Fill(buf []byte) ([]byte, error) {
	if err := checkBuffer(r, buf); err != nil {
		return nil, err
	}

	buf[0] = FrameTypeTransmitRequest
	buf[1] = r.FrameID
	binary.BigEndian.PutUint64(buf[2:10], r.Destination)
	binary.BigEndian.PutUint16(buf[10:12], r.NetworkAddress)
	buf[12] = r.Radius
	buf[13] = r.Options()
	copy(buf[transmitRequestHeaderLen:], r.Payload)

	return buf[:r.EncodedLen()], nil
}

var (
	_ Command = ATCommand{}
	_ Command = TransmitRequest{}
)
