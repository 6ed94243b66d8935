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

import (
	"errors"

	"github.com/resol-vbus/govbus/internal/vbusid"
)

// ErrNeedMore signals that buf does not yet contain a complete frame;
// the caller should append more bytes and retry without consuming
// anything.
var ErrNeedMore = errors.New("frame: need more data")

// RejectReason classifies why a candidate frame was rejected, so callers
// can maintain the optional stats spec.md §7 describes.
type RejectReason int

const (
	RejectChecksum RejectReason = iota
	RejectHighBit
	RejectUnknownProtocol
)

func (r RejectReason) String() string {
	switch r {
	case RejectChecksum:
		return "checksum mismatch"
	case RejectHighBit:
		return "high bit set"
	case RejectUnknownProtocol:
		return "unknown protocol version"
	default:
		return "unknown"
	}
}

// RejectedError signals that the bytes at the front of buf are not a
// valid frame. The caller must discard exactly the sync byte and resume
// scanning one byte later; this is never a hard failure.
type RejectedError struct {
	Reason RejectReason
}

func (e *RejectedError) Error() string { return "frame: rejected: " + e.Reason.String() }

// ErrRejected is a sentinel usable with errors.Is; every *RejectedError
// satisfies it.
var ErrRejected = errors.New("frame: rejected")

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// headerSize is the wire size of the common header, sync byte excluded.
const headerSize = 6

// Decode attempts to decode one frame from buf, which must begin with
// the sync byte. now is the wall-clock timestamp (ms since epoch, UTC)
// attached to the decoded record's header.
//
// On success it returns the decoded Data and the number of bytes
// consumed from buf (including the leading sync byte). On ErrNeedMore
// or ErrRejected, 0 bytes are considered consumed; it is the caller's
// responsibility to react per the contract of those sentinels.
func Decode(buf []byte, now int64) (Data, int, error) {
	if len(buf) < 1 {
		return Data{}, 0, ErrNeedMore
	}
	if buf[0] != SyncByte {
		return Data{}, 0, &RejectedError{Reason: RejectUnknownProtocol}
	}
	if len(buf) < 1+headerSize {
		return Data{}, 0, ErrNeedMore
	}

	h := vbusid.Header{
		Channel:            buf[1],
		DestinationAddress: le16(buf[2], buf[3]),
		SourceAddress:      le16(buf[4], buf[5]),
		ProtocolVersion:    vbusid.ProtocolVersion(buf[6]),
		Timestamp:          now,
	}

	switch h.ProtocolVersion {
	case vbusid.ProtocolPacket:
		p, n, err := decodePacket(buf, h)
		if err != nil {
			return Data{}, 0, err
		}
		return FromPacket(p), n, nil
	case vbusid.ProtocolDatagram:
		d, n, err := decodeDatagram(buf, h)
		if err != nil {
			return Data{}, 0, err
		}
		return FromDatagram(d), n, nil
	case vbusid.ProtocolTelegram:
		t, n, err := decodeTelegram(buf, h)
		if err != nil {
			return Data{}, 0, err
		}
		return FromTelegram(t), n, nil
	default:
		return Data{}, 0, &RejectedError{Reason: RejectUnknownProtocol}
	}
}

func le16(lo, hi byte) uint16 { return uint16(lo) | uint16(hi)<<8 }

func decodePacket(buf []byte, h vbusid.Header) (*Packet, int, error) {
	const fixedLen = 1 + headerSize + 2 + 1 + 1 // sync+header+command+frame_count+checksum
	if len(buf) < fixedLen {
		return nil, 0, ErrNeedMore
	}
	command := le16(buf[7], buf[8])
	frameCount := buf[9]
	headerChecksumRegion := buf[1:10] // header(6) + command(2) + frame_count(1)
	wantChecksum := checksum(headerChecksumRegion)
	gotChecksum := buf[10]
	if !allLowBitsClear(headerChecksumRegion) {
		return nil, 0, &RejectedError{Reason: RejectHighBit}
	}
	if wantChecksum != gotChecksum {
		return nil, 0, &RejectedError{Reason: RejectChecksum}
	}

	total := fixedLen + int(frameCount)*6
	if len(buf) < total {
		return nil, 0, ErrNeedMore
	}

	frameData := make([]byte, int(frameCount)*4)
	headerBytes := buf[1:7]
	cursor := fixedLen
	for i := 0; i < int(frameCount); i++ {
		group := buf[cursor : cursor+6]
		payload := group[0:4]
		septet := group[4]
		groupChecksum := group[5]
		if !allLowBitsClear(group[0:5]) {
			return nil, 0, &RejectedError{Reason: RejectHighBit}
		}
		want := checksum(headerBytes, payload, []byte{septet})
		if want != groupChecksum {
			return nil, 0, &RejectedError{Reason: RejectChecksum}
		}
		dst := frameData[i*4 : i*4+4]
		copy(dst, payload)
		septetReconstruct(dst, septet)
		cursor += 6
	}

	return &Packet{
		Header:     h,
		Command:    command,
		FrameCount: frameCount,
		FrameData:  frameData,
	}, total, nil
}

func decodeDatagram(buf []byte, h vbusid.Header) (*Datagram, int, error) {
	const total = 1 + headerSize + 2 + 2 + 4 + 1 + 1 // sync+header+command+param16+param32+septet+checksum
	if len(buf) < total {
		return nil, 0, ErrNeedMore
	}
	body := buf[1:15] // header(6)+command(2)+param16(2)+param32(4)
	septet := buf[15]
	gotChecksum := buf[16]
	if !allLowBitsClear(buf[1:16]) {
		return nil, 0, &RejectedError{Reason: RejectHighBit}
	}
	want := checksum(body, []byte{septet})
	if want != gotChecksum {
		return nil, 0, &RejectedError{Reason: RejectChecksum}
	}

	command := le16(buf[7], buf[8])
	data := make([]byte, 6)
	copy(data, buf[9:15])
	septetReconstruct(data, septet)

	param32 := uint32(data[2]) | uint32(data[3])<<8 | uint32(data[4])<<16 | uint32(data[5])<<24

	return &Datagram{
		Header:  h,
		Command: command,
		Param16: int16(le16(data[0], data[1])),
		Param32: int32(param32),
	}, total, nil
}

func decodeTelegram(buf []byte, h vbusid.Header) (*Telegram, int, error) {
	const fixedLen = 1 + headerSize + 1 // sync+header+command
	if len(buf) < fixedLen {
		return nil, 0, ErrNeedMore
	}
	command := buf[7]
	validLen := TelegramPayloadLength[command&0x0F]
	groupCount := (validLen + 3) / 4
	total := fixedLen + groupCount*6
	if len(buf) < total {
		return nil, 0, ErrNeedMore
	}

	headerBytes := buf[1:7]
	raw := make([]byte, groupCount*4)
	cursor := fixedLen
	for i := 0; i < groupCount; i++ {
		group := buf[cursor : cursor+6]
		payload := group[0:4]
		septet := group[4]
		groupChecksum := group[5]
		if !allLowBitsClear(group[0:5]) {
			return nil, 0, &RejectedError{Reason: RejectHighBit}
		}
		want := checksum(headerBytes, payload, []byte{septet})
		if want != groupChecksum {
			return nil, 0, &RejectedError{Reason: RejectChecksum}
		}
		dst := raw[i*4 : i*4+4]
		copy(dst, payload)
		septetReconstruct(dst, septet)
		cursor += 6
	}

	return &Telegram{
		Header:  h,
		Command: command,
		Payload: raw[:validLen],
	}, total, nil
}
