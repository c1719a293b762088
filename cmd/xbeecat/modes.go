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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/listener"
)

const queryTimeout = 2 * time.Second

// radio is the listener surface the modes drive
type radio interface {
	Query(ctx context.Context, timeout time.Duration, cmd xbee.ATCommand) (*xbee.ATCommandResponse, error)
	Send(ctx context.Context, cmd xbee.Command) error
	NextFrameID() byte
	Done() <-chan struct{}
	Stats() listener.Stats
}

type modes struct {
	radio  radio
	out    io.Writer
	logger zerolog.Logger
}

// newModes installs the listener callbacks; call it before Start
func newModes(ctx context.Context, l *listener.Listener, out io.Writer, logger zerolog.Logger, echo bool) *modes {
	m := &modes{radio: l, out: out, logger: logger}
	l.OnReceivePacket = m.monitorHandler(ctx, echo)
	l.OnError = func(err error) {
		logger.Debug().Err(err).Msg("receive error")
	}
	return m
}

// parseATArg splits "NJ" or "NJ=5A" into a command with an optional hex
// parameter. The frame ID is left for the listener to assign.
func parseATArg(arg string) (xbee.ATCommand, error) {
	name, value, hasValue := strings.Cut(arg, "=")
	code, err := xbee.ParseATCommandName(strings.ToUpper(name))
	if err != nil {
		return xbee.ATCommand{}, err
	}

	cmd := xbee.ATCommand{Command: code}
	if !hasValue {
		return cmd, nil
	}

	param, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(value), "0x"), 16, 8)
	if err != nil {
		return xbee.ATCommand{}, fmt.Errorf("%w: AT parameter %q must be one hex byte",
			xbee.ErrInvalidParameter, value)
	}
	return cmd.WithParameter(byte(param)), nil
}

func formatATResponse(resp *xbee.ATCommandResponse) string {
	s := fmt.Sprintf("AT%s frame=%d status=%s", resp.CommandName(), resp.FrameID, resp.Status)
	if resp.HasData {
		s += fmt.Sprintf(" value=0x%02X", resp.Data)
	}
	return s
}

func formatReceivePacket(p *xbee.ZigbeeReceivePacket) string {
	var flags []string
	if p.Acknowledged {
		flags = append(flags, "ack")
	}
	if p.Broadcast {
		flags = append(flags, "broadcast")
	}
	if p.Encrypted {
		flags = append(flags, "encrypted")
	}
	if p.FromEndDevice {
		flags = append(flags, "end-device")
	}
	return fmt.Sprintf("%016X/%04X [%s] %q", p.SourceAddress, p.NetworkAddress,
		strings.Join(flags, ","), p.Payload)
}

func (m *modes) runAT(ctx context.Context, arg string) error {
	cmd, err := parseATArg(arg)
	if err != nil {
		return err
	}

	resp, err := m.radio.Query(ctx, queryTimeout, cmd)
	if err != nil {
		return fmt.Errorf("AT%s: %w", arg, err)
	}
	_, _ = fmt.Fprintln(m.out, formatATResponse(resp))
	if resp.Status != xbee.ATStatusOK {
		return fmt.Errorf("AT%s: %s", resp.CommandName(), resp.Status)
	}
	return nil
}

func (m *modes) runSend(ctx context.Context, dest, text string) error {
	addr, err := xbee.ParseAddress(dest)
	if err != nil {
		return err
	}

	req := xbee.NewTransmitRequest(m.radio.NextFrameID(), addr, []byte(text))
	if err := m.radio.Send(ctx, req); err != nil {
		return fmt.Errorf("send to %016X: %w", addr, err)
	}
	_, _ = fmt.Fprintf(m.out, "sent %d bytes to %016X (frame %d)\n", len(text), addr, req.FrameID)
	return nil
}

// runMonitor waits until ctx ends or the listener stops and prints the
// counters. Packets are printed by the handler from monitorHandler.
func (m *modes) runMonitor(ctx context.Context) error {
	_, _ = fmt.Fprintln(m.out, "Listening for packets...")

	select {
	case <-ctx.Done():
	case <-m.radio.Done():
		return errors.New("listener stopped")
	}

	stats := m.radio.Stats()
	_, _ = fmt.Fprintf(m.out, "frames=%d rx=%d rejected=%d parse_errors=%d\n",
		stats.Frames, stats.ReceivePackets, stats.RejectedFrames, stats.ParseErrors)
	return nil
}

// monitorHandler prints each packet and, with echo set, sends its payload back
func (m *modes) monitorHandler(ctx context.Context, echo bool) func(*xbee.ZigbeeReceivePacket) {
	return func(p *xbee.ZigbeeReceivePacket) {
		_, _ = fmt.Fprintln(m.out, formatReceivePacket(p))
		if !echo {
			return
		}

		payload := append([]byte(nil), p.Payload...)
		reply := xbee.NewTransmitRequest(m.radio.NextFrameID(), p.SourceAddress, payload)
		reply.NetworkAddress = p.NetworkAddress
		if err := m.radio.Send(ctx, reply); err != nil {
			m.logger.Warn().Err(err).Msg("echo failed")
		}
	}
}
