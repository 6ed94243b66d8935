// SPDX-License-Identifier: AGPL-3.0-or-later
// govbus - a decoding and recording library for the RESOL VBus
// Copyright (C) 2026 The govbus Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package framing

import "github.com/resol-vbus/govbus/internal/frame"

// Stats is an optional, caller-owned counter of FrameRejected occurrences
// by cause (spec.md §7: "accumulated in optional stats"). Passing nil to
// LiveDataBuffer.Read disables accounting entirely; it is never
// allocated implicitly.
type Stats struct {
	Accepted  int
	Rejected  map[frame.RejectReason]int
	ShortRead int
}

// NewStats returns a zeroed Stats ready to be passed to Read.
func NewStats() *Stats {
	return &Stats{Rejected: make(map[frame.RejectReason]int)}
}

func (s *Stats) addRejected(r frame.RejectReason) {
	if s == nil {
		return
	}
	if s.Rejected == nil {
		s.Rejected = make(map[frame.RejectReason]int)
	}
	s.Rejected[r]++
}

func (s *Stats) addAccepted() {
	if s == nil {
		return
	}
	s.Accepted++
}

func (s *Stats) addShortRead() {
	if s == nil {
		return
	}
	s.ShortRead++
}
