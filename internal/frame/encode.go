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

// Encode re-serializes p to its wire representation, septet-packing the
// payload and recomputing every checksum. Encode(Decode(b)) == b for any
// b accepted by Decode (spec.md §8 property 1).
func (p *Packet) Encode() []byte {
	out := make([]byte, 0, 1+headerSize+2+1+1+int(p.FrameCount)*6)
	out = append(out, SyncByte)
	headerBytes := encodeHeaderBytes(p.Header)
	out = append(out, headerBytes...)
	out = append(out, byte(p.Command), byte(p.Command>>8))
	out = append(out, p.FrameCount)
	out = append(out, checksum(out[1:]))

	for i := 0; i < int(p.FrameCount); i++ {
		src := p.FrameData[i*4 : i*4+4]
		payload := append([]byte(nil), src...)
		septet := septetPack(payload)
		cs := checksum(headerBytes, payload, []byte{septet})
		out = append(out, payload...)
		out = append(out, septet, cs)
	}
	return out
}

func (d *Datagram) Encode() []byte {
	headerBytes := encodeHeaderBytes(d.Header)
	body := make([]byte, 0, 6)
	body = append(body, byte(d.Command), byte(d.Command>>8))
	body = append(body, byte(d.Param16), byte(d.Param16>>8))
	u := uint32(d.Param32)
	body = append(body, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))

	payload := append([]byte(nil), body[2:]...) // param16+param32, septetable
	septet := septetPack(payload)
	copy(body[2:], payload)

	cs := checksum(headerBytes, body, []byte{septet})

	out := make([]byte, 0, 1+headerSize+len(body)+2)
	out = append(out, SyncByte)
	out = append(out, headerBytes...)
	out = append(out, body...)
	out = append(out, septet, cs)
	return out
}

func (t *Telegram) Encode() []byte {
	headerBytes := encodeHeaderBytes(t.Header)
	validLen := TelegramPayloadLength[t.Command&0x0F]
	groupCount := (validLen + 3) / 4

	out := make([]byte, 0, 1+headerSize+1+groupCount*6)
	out = append(out, SyncByte)
	out = append(out, headerBytes...)
	out = append(out, t.Command)

	padded := make([]byte, groupCount*4)
	copy(padded, t.Payload)
	for i := 0; i < groupCount; i++ {
		payload := append([]byte(nil), padded[i*4:i*4+4]...)
		septet := septetPack(payload)
		cs := checksum(headerBytes, payload, []byte{septet})
		out = append(out, payload...)
		out = append(out, septet, cs)
	}
	return out
}

// Encode re-serializes whichever variant d carries.
func (d Data) Encode() []byte {
	switch d.Kind {
	case KindPacket:
		return d.Packet.Encode()
	case KindDatagram:
		return d.Datagram.Encode()
	case KindTelegram:
		return d.Telegram.Encode()
	default:
		return nil
	}
}

func encodeHeaderBytes(h vbusid.Header) []byte {
	return []byte{
		h.Channel,
		byte(h.DestinationAddress), byte(h.DestinationAddress >> 8),
		byte(h.SourceAddress), byte(h.SourceAddress >> 8),
		byte(h.ProtocolVersion),
	}
}
