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

// Package frame holds the byte-level layouts of the three VBus frame
// families (Packet, Datagram, Telegram) and the septet/checksum algebra
// that turns validated wire bytes into typed records (spec.md §4.2, §6).
package frame

import (
	"fmt"

	"github.com/resol-vbus/govbus/internal/vbusid"
)

// Packet is protocol 0x10: header + command + frame_count 6-byte wire
// groups, each expanding to 4 payload bytes after septet reconstruction.
type Packet struct {
	Header     vbusid.Header
	Command    uint16
	FrameCount uint8
	// FrameData holds FrameCount*4 bytes, the full reconstructed payload.
	FrameData []byte
}

// ValidFrameData returns the prefix of FrameData that is actually
// populated: 4*FrameCount bytes.
func (p *Packet) ValidFrameData() []byte {
	n := int(p.FrameCount) * 4
	if n > len(p.FrameData) {
		n = len(p.FrameData)
	}
	return p.FrameData[:n]
}

func (p *Packet) Id() vbusid.PacketId { return vbusid.IdOf(p.Header, p.Command) }

func (p *Packet) IdHash() uint64 { return p.Id().Hash() }

func (p *Packet) String() string {
	return fmt.Sprintf("Packet{%s command=0x%04X frames=%d data=% X}",
		p.Header.String(), p.Command, p.FrameCount, p.ValidFrameData())
}

// Equal reports whether p and other decode to the same logical content.
func (p *Packet) Equal(other *Packet) bool {
	if p.Header != other.Header || p.Command != other.Command || p.FrameCount != other.FrameCount {
		return false
	}
	return bytesEqual(p.ValidFrameData(), other.ValidFrameData())
}

// Datagram is protocol 0x20: header + command + a signed 16-bit and a
// signed 32-bit parameter, all carried in a single wire frame.
type Datagram struct {
	Header  vbusid.Header
	Command uint16
	Param16 int16
	Param32 int32
}

func (d *Datagram) Id() vbusid.PacketId { return vbusid.IdOf(d.Header, d.Command) }

func (d *Datagram) IdHash() uint64 { return d.Id().Hash() }

func (d *Datagram) String() string {
	return fmt.Sprintf("Datagram{%s command=0x%04X param16=%d param32=%d}",
		d.Header.String(), d.Command, d.Param16, d.Param32)
}

func (d *Datagram) Equal(other *Datagram) bool {
	return *d == *other
}

// Telegram is protocol 0x30: header + a single command byte whose low
// nibble selects the payload length from TelegramPayloadLength, followed
// by that many payload bytes.
type Telegram struct {
	Header  vbusid.Header
	Command uint8
	Payload []byte
}

func (t *Telegram) Id() vbusid.PacketId { return vbusid.IdOf(t.Header, uint16(t.Command)) }

func (t *Telegram) IdHash() uint64 { return t.Id().Hash() }

func (t *Telegram) String() string {
	return fmt.Sprintf("Telegram{%s command=0x%02X payload=% X}", t.Header.String(), t.Command, t.Payload)
}

func (t *Telegram) Equal(other *Telegram) bool {
	if t.Header != other.Header || t.Command != other.Command {
		return false
	}
	return bytesEqual(t.Payload, other.Payload)
}

// TelegramPayloadLength maps the low nibble of a Telegram's command byte
// to the number of valid payload bytes it carries (spec.md §9 Open
// Question; see SPEC_FULL.md §4 for the resolution this table encodes).
var TelegramPayloadLength = [16]int{
	0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 21, 21, 21, 21, 21,
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
