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

// Package detection finds serial ports and buses that may have an XBee module attached
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNoDevicesFound is returned when no detector reported a device
	ErrNoDevicesFound = errors.New("no devices found")

	// ErrUnsupportedPlatform is returned by detectors that cannot run on this OS
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
)

// Mode controls how much a detector does to confirm a candidate
type Mode int

const (
	// Passive only lists ports; nothing is opened
	Passive Mode = iota
	// Probe opens each candidate and asks it for its API mode
	Probe
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Passive:
		return "passive"
	case Probe:
		return "probe"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// DeviceInfo describes a detected device
type DeviceInfo struct {
	Metadata  map[string]string
	Transport string
	Path      string
	Name      string
	// VIDPID is the USB vendor and product ID as "VVVV:PPPP", empty for non-USB ports
	VIDPID string
}

// String returns a human readable description
func (d DeviceInfo) String() string {
	if d.Name != "" && d.Name != d.Path {
		return fmt.Sprintf("%s:%s (%s)", d.Transport, d.Path, d.Name)
	}
	return fmt.Sprintf("%s:%s", d.Transport, d.Path)
}

// Options configures detection
type Options struct {
	// Blocklist holds VID:PID pairs that are never reported
	Blocklist []string
	// IgnorePaths holds device paths that are never reported
	IgnorePaths []string
	// Timeout bounds each probe
	Timeout time.Duration
	// BaudRate is used when probing serial ports
	BaudRate int
	Mode     Mode
}

// DefaultOptions returns the default detection options
func DefaultOptions() Options {
	return Options{
		Mode:      Passive,
		Timeout:   time.Second,
		BaudRate:  9600,
		Blocklist: DefaultBlocklist(),
	}
}

// Detector finds devices reachable over one transport
type Detector interface {
	Transport() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	detectorsMu sync.RWMutex
	detectors   []Detector
)

// RegisterDetector adds a detector. Transport packages call it from init.
func RegisterDetector(d Detector) {
	detectorsMu.Lock()
	defer detectorsMu.Unlock()
	detectors = append(detectors, d)
}

func registeredDetectors() []Detector {
	detectorsMu.RLock()
	defer detectorsMu.RUnlock()
	return append([]Detector(nil), detectors...)
}

// DetectAll runs every registered detector
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	return DetectAllContext(context.Background(), opts)
}

// DetectAllContext runs every registered detector. Detectors that are not
// supported on this platform are skipped; other failures are collected and
// only returned when no device was found at all.
func DetectAllContext(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	var (
		found []DeviceInfo
		errs  []error
	)

	for _, d := range registeredDetectors() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("detection cancelled: %w", err)
		}

		devices, err := d.Detect(ctx, opts)
		if errors.Is(err, ErrUnsupportedPlatform) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Transport(), err))
			continue
		}
		found = append(found, devices...)
	}

	if len(found) == 0 {
		return nil, errors.Join(append([]error{ErrNoDevicesFound}, errs...)...)
	}
	return found, nil
}

// Filter drops devices that are blocked or ignored by opts
func Filter(devices []DeviceInfo, opts *Options) []DeviceInfo {
	kept := devices[:0]
	for _, d := range devices {
		if IsPathIgnored(d.Path, opts.IgnorePaths) {
			continue
		}
		if d.VIDPID != "" && IsBlocked(d.VIDPID, opts.Blocklist) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// SortByLikelihood moves devices on known XBee adapters to the front,
// keeping the order of the rest
func SortByLikelihood(devices []DeviceInfo) {
	known := KnownAdapters()
	sort.SliceStable(devices, func(i, j int) bool {
		return IsBlocked(devices[i].VIDPID, known) && !IsBlocked(devices[j].VIDPID, known)
	})
}
