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
)

// Response is an incoming API frame that can be decoded from a payload.
//
// RespondsTo is a cheap check of the frame type byte; callers probe it before
// committing to Parse. Parse decodes the whole payload, frame type included,
// and returns a *ParseError wrapping ErrIDMismatch, ErrSizeOutOfRange or
// ErrInvalidEnumValue when it cannot.
type Response interface {
	FrameType() byte
	RespondsTo(id byte) bool
	Parse(payload []byte) error
}

// ATCommandStatus is the result code of an AT command
type ATCommandStatus byte

const (
	ATStatusOK               ATCommandStatus = 0
	ATStatusError            ATCommandStatus = 1
	ATStatusInvalidCommand   ATCommandStatus = 2
	ATStatusInvalidParameter ATCommandStatus = 3
	ATStatusTxFailure        ATCommandStatus = 4
)

// String returns the status name
func (s ATCommandStatus) String() string {
	switch s {
	case ATStatusOK:
		return "OK"
	case ATStatusError:
		return "ERROR"
	case ATStatusInvalidCommand:
		return "Invalid Command"
	case ATStatusInvalidParameter:
		return "Invalid Parameter"
	case ATStatusTxFailure:
		return "Tx Failure"
	default:
		return fmt.Sprintf("ATCommandStatus(%d)", byte(s))
	}
}

func parseATCommandStatus(b byte) (ATCommandStatus, error) {
	status := ATCommandStatus(b)
	if status > ATStatusTxFailure {
		return 0, fmt.Errorf("%w: AT command status %#02x", ErrInvalidEnumValue, b)
	}
	return status, nil
}

const (
	atResponseMinLen = 5
	atResponseMaxLen = 6
)

// ATCommandResponse is the module's answer to an ATCommand (frame type 0x88)
type ATCommandResponse struct {
	Command [2]byte
	FrameID byte
	Status  ATCommandStatus
	// Data holds the single-byte register value when HasData is set
	Data    byte
	HasData bool
}

// FrameType implements Response
func (*ATCommandResponse) FrameType() byte {
	return FrameTypeATCommandResponse
}

// RespondsTo implements Response
func (*ATCommandResponse) RespondsTo(id byte) bool {
	return id == FrameTypeATCommandResponse
}

// CommandName returns the two-letter command name
func (r *ATCommandResponse) CommandName() string {
	return string(r.Command[:])
}

// Parse implements Response
func (r *ATCommandResponse) Parse(payload []byte) error {
	if len(payload) < atResponseMinLen || len(payload) > atResponseMaxLen {
		return newParseError(FrameTypeATCommandResponse, payload, ErrSizeOutOfRange)
	}
	if payload[0] != FrameTypeATCommandResponse {
		return newParseError(FrameTypeATCommandResponse, payload, ErrIDMismatch)
	}

	status, err := parseATCommandStatus(payload[4])
	if err != nil {
		return newParseError(FrameTypeATCommandResponse, payload, err)
	}

	*r = ATCommandResponse{
		FrameID: payload[1],
		Command: [2]byte{payload[2], payload[3]},
		Status:  status,
	}
	if len(payload) == atResponseMaxLen {
		r.Data = payload[5]
		r.HasData = true
	}

	return nil
}

// Receive options bits
const (
	ReceiveAcknowledged  byte = 0x01
	ReceiveBroadcast     byte = 0x02
	ReceiveEncrypted     byte = 0x20
	ReceiveFromEndDevice byte = 0x40
)

const receivePacketHeaderLen = 12

// ZigbeeReceivePacket carries RF data received from a remote node (frame type 0x90)
type ZigbeeReceivePacket struct {
	// Payload aliases the parsed buffer; it is only valid as long as that buffer is
	Payload        []byte
	SourceAddress  uint64
	NetworkAddress uint16
	Acknowledged   bool
	Broadcast      bool
	Encrypted      bool
	FromEndDevice  bool
}

// FrameType implements Response
func (*ZigbeeReceivePacket) FrameType() byte {
	return FrameTypeReceivePacket
}

// RespondsTo implements Response
func (*ZigbeeReceivePacket) RespondsTo(id byte) bool {
	return id == FrameTypeReceivePacket
}

// Parse implements Response
func (p *ZigbeeReceivePacket) Parse(payload []byte) error {
	if len(payload) < receivePacketHeaderLen {
		return newParseError(FrameTypeReceivePacket, payload, ErrSizeOutOfRange)
	}
	if payload[0] != FrameTypeReceivePacket {
		return newParseError(FrameTypeReceivePacket, payload, ErrIDMismatch)
	}

	opts := payload[11]
	*p = ZigbeeReceivePacket{
		SourceAddress:  binary.BigEndian.Uint64(payload[1:9]),
		NetworkAddress: binary.BigEndian.Uint16(payload[9:11]),
		Acknowledged:   opts&ReceiveAcknowledged != 0,
		Broadcast:      opts&ReceiveBroadcast != 0,
		Encrypted:      opts&ReceiveEncrypted != 0,
		FromEndDevice:  opts&ReceiveFromEndDevice != 0,
		Payload:        payload[receivePacketHeaderLen:],
	}

	return nil
}

// ParseResponse decodes f as whichever known response type claims its frame
// type byte. Frames no response type recognises yield ErrUnknownFrameType.
// Variable-length fields of the result alias f's buffer.
func ParseResponse(f Frame) (Response, error) {
	id, ok := f.FrameType()
	if !ok {
		return nil, fmt.Errorf("%w: empty frame", ErrUnknownFrameType)
	}

	for _, resp := range []Response{&ATCommandResponse{}, &ZigbeeReceivePacket{}} {
		if !resp.RespondsTo(id) {
			continue
		}
		if err := resp.Parse(f.Payload()); err != nil {
			return nil, err
		}
		return resp, nil
	}

	return nil, fmt.Errorf("%w: %#02x", ErrUnknownFrameType, id)
}

var (
	_ Response = (*ATCommandResponse)(nil)
	_ Response = (*ZigbeeReceivePacket)(nil)
)
