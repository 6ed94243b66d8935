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

// Package vbusid holds the header and identity primitives shared by every
// VBus frame family: the channel/address/command tuple that names a
// logical conversation, and the hashing/equality/formatting helpers built
// on top of it.
package vbusid

import "fmt"

// ProtocolVersion distinguishes the three VBus frame families.
type ProtocolVersion uint8

const (
	ProtocolPacket   ProtocolVersion = 0x10
	ProtocolDatagram ProtocolVersion = 0x20
	ProtocolTelegram ProtocolVersion = 0x30
)

func (p ProtocolVersion) String() string {
	switch p {
	case ProtocolPacket:
		return "Packet"
	case ProtocolDatagram:
		return "Datagram"
	case ProtocolTelegram:
		return "Telegram"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(p))
	}
}

// Header is the common prefix of every VBus frame.
type Header struct {
	Channel            uint8
	DestinationAddress uint16
	SourceAddress      uint16
	ProtocolVersion    ProtocolVersion
	Timestamp          int64 // wall-clock, milliseconds since Unix epoch, UTC
}

func (h Header) String() string {
	return fmt.Sprintf("channel=0x%02X dest=0x%04X src=0x%04X proto=%s ts=%d",
		h.Channel, h.DestinationAddress, h.SourceAddress, h.ProtocolVersion, h.Timestamp)
}

// PacketId is the four-tuple identity that, together with a protocol
// version, names a logical conversation on the bus.
type PacketId struct {
	Channel            uint8
	DestinationAddress uint16
	SourceAddress      uint16
	Command            uint16
}

// PacketFieldId is the join key between a decoded packet and the
// specification: a PacketId plus the stable field_id_string of one of
// its fields.
type PacketFieldId struct {
	PacketId
	FieldId string
}

// IdOf builds the PacketId for a header plus command, the shape common to
// every frame family that carries a command.
func IdOf(h Header, command uint16) PacketId {
	return PacketId{
		Channel:            h.Channel,
		DestinationAddress: h.DestinationAddress,
		SourceAddress:      h.SourceAddress,
		Command:            command,
	}
}

func (id PacketId) String() string {
	return fmt.Sprintf("%02X_%04X_%04X_%04X", id.Channel, id.DestinationAddress, id.SourceAddress, id.Command)
}

func (id PacketFieldId) String() string {
	return id.PacketId.String() + "_" + id.FieldId
}

// fnvOffset64 and fnvPrime64 are the standard FNV-1a constants. IdHash is
// built on FNV-1a over the big-endian encoding of the identity tuple so
// that any implementation mixing the same bytes in the same order agrees
// on the resulting hash, independent of host endianness or struct layout.
const (
	fnvOffset64 uint64 = 14695981039346656037
	fnvPrime64  uint64 = 1099511628211
)

// Hash returns the identity hash used by DataSet for O(1) merge. The
// mixing order is fixed: channel, destination address (big-endian),
// source address (big-endian), command (big-endian).
func (id PacketId) Hash() uint64 {
	h := fnvOffset64
	mix := func(b byte) {
		h ^= uint64(b)
		h *= fnvPrime64
	}
	mix(id.Channel)
	mix(byte(id.DestinationAddress >> 8))
	mix(byte(id.DestinationAddress))
	mix(byte(id.SourceAddress >> 8))
	mix(byte(id.SourceAddress))
	mix(byte(id.Command >> 8))
	mix(byte(id.Command))
	return h
}

// IdHash is implemented by every record identifiable by a PacketId
// equivalent (Packet, Datagram, Telegram).
type IdHash interface {
	IdHash() uint64
	Id() PacketId
}
