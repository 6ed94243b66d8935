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

package frame

import "github.com/resol-vbus/govbus/internal/vbusid"

// Kind discriminates the payload carried by a Data value.
type Kind uint8

const (
	KindPacket Kind = iota
	KindDatagram
	KindTelegram
)

func (k Kind) String() string {
	switch k {
	case KindPacket:
		return "Packet"
	case KindDatagram:
		return "Datagram"
	case KindTelegram:
		return "Telegram"
	default:
		return "Unknown"
	}
}

// Data is the tagged union flowing through the pipeline: exactly one of
// Packet, Datagram, or Telegram is populated, selected by Kind. Every
// interrogation helper below is total: it never panics on the wrong
// variant, it reports zero values instead.
type Data struct {
	Kind     Kind
	Packet   *Packet
	Datagram *Datagram
	Telegram *Telegram
}

func FromPacket(p *Packet) Data     { return Data{Kind: KindPacket, Packet: p} }
func FromDatagram(d *Datagram) Data { return Data{Kind: KindDatagram, Datagram: d} }
func FromTelegram(t *Telegram) Data { return Data{Kind: KindTelegram, Telegram: t} }

func (d Data) IsPacket() bool   { return d.Kind == KindPacket }
func (d Data) IsDatagram() bool { return d.Kind == KindDatagram }
func (d Data) IsTelegram() bool { return d.Kind == KindTelegram }

// AsPacket returns the Packet and true if d carries one, else nil, false.
func (d Data) AsPacket() (*Packet, bool) {
	if d.Kind == KindPacket {
		return d.Packet, true
	}
	return nil, false
}

func (d Data) AsDatagram() (*Datagram, bool) {
	if d.Kind == KindDatagram {
		return d.Datagram, true
	}
	return nil, false
}

func (d Data) AsTelegram() (*Telegram, bool) {
	if d.Kind == KindTelegram {
		return d.Telegram, true
	}
	return nil, false
}

// Header returns the common header of whichever variant is populated.
func (d Data) Header() vbusid.Header {
	switch d.Kind {
	case KindPacket:
		return d.Packet.Header
	case KindDatagram:
		return d.Datagram.Header
	case KindTelegram:
		return d.Telegram.Header
	default:
		return vbusid.Header{}
	}
}

// Id returns the PacketId of whichever variant is populated.
func (d Data) Id() vbusid.PacketId {
	switch d.Kind {
	case KindPacket:
		return d.Packet.Id()
	case KindDatagram:
		return d.Datagram.Id()
	case KindTelegram:
		return d.Telegram.Id()
	default:
		return vbusid.PacketId{}
	}
}

func (d Data) IdHash() uint64 { return d.Id().Hash() }

// Timestamp returns the wall-clock timestamp of whichever variant is
// populated, in milliseconds since the Unix epoch.
func (d Data) Timestamp() int64 { return d.Header().Timestamp }

func (d Data) String() string {
	switch d.Kind {
	case KindPacket:
		return d.Packet.String()
	case KindDatagram:
		return d.Datagram.String()
	case KindTelegram:
		return d.Telegram.String()
	default:
		return "Data{empty}"
	}
}

// Equal reports whether d and other carry the same kind and equal
// content.
func (d Data) Equal(other Data) bool {
	if d.Kind != other.Kind {
		return false
	}
	switch d.Kind {
	case KindPacket:
		return d.Packet.Equal(other.Packet)
	case KindDatagram:
		return d.Datagram.Equal(other.Datagram)
	case KindTelegram:
		return d.Telegram.Equal(other.Telegram)
	default:
		return true
	}
}
