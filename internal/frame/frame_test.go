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

package frame_test

import (
	"errors"
	"testing"

	"github.com/resol-vbus/govbus/internal/frame"
	"github.com/resol-vbus/govbus/internal/vbusid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() vbusid.Header {
	return vbusid.Header{
		Channel:            0x00,
		DestinationAddress: 0x0010,
		SourceAddress:      0x7E11,
		ProtocolVersion:    vbusid.ProtocolPacket,
	}
}

func TestPacketRoundTrip(t *testing.T) {
	t.Parallel()
	p := &frame.Packet{
		Header:     testHeader(),
		Command:    0x0100,
		FrameCount: 2,
		FrameData:  []byte{0x01, 0x82, 0x03, 0xFF, 0x00, 0x00, 0x00, 0x00},
	}
	wire := p.Encode()

	data, n, err := frame.Decode(wire, 1234)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	require.True(t, data.IsPacket())

	got, ok := data.AsPacket()
	require.True(t, ok)
	assert.Equal(t, p.Command, got.Command)
	assert.Equal(t, p.FrameCount, got.FrameCount)
	assert.Equal(t, p.ValidFrameData(), got.ValidFrameData())
	assert.Equal(t, int64(1234), got.Header.Timestamp)
}

func TestPacketZeroFrames(t *testing.T) {
	t.Parallel()
	p := &frame.Packet{
		Header:     testHeader(),
		Command:    0x0200,
		FrameCount: 0,
	}
	wire := p.Encode()
	data, n, err := frame.Decode(wire, 0)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	got, ok := data.AsPacket()
	require.True(t, ok)
	assert.Empty(t, got.ValidFrameData())
}

func TestDatagramRoundTrip(t *testing.T) {
	t.Parallel()
	h := testHeader()
	h.ProtocolVersion = vbusid.ProtocolDatagram
	d := &frame.Datagram{
		Header:  h,
		Command: 0x0015,
		Param16: -7,
		Param32: -123456,
	}
	wire := d.Encode()

	data, n, err := frame.Decode(wire, 0)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	require.True(t, data.IsDatagram())

	got, ok := data.AsDatagram()
	require.True(t, ok)
	assert.Equal(t, d.Command, got.Command)
	assert.Equal(t, d.Param16, got.Param16)
	assert.Equal(t, d.Param32, got.Param32)
}

func TestDatagramPositiveHighBitParams(t *testing.T) {
	t.Parallel()
	h := testHeader()
	h.ProtocolVersion = vbusid.ProtocolDatagram
	d := &frame.Datagram{
		Header:  h,
		Command: 0x0015,
		Param16: 0x00FF,
		Param32: 0x7FFFFFFF,
	}
	wire := d.Encode()
	data, _, err := frame.Decode(wire, 0)
	require.NoError(t, err)
	got, ok := data.AsDatagram()
	require.True(t, ok)
	assert.Equal(t, d.Param16, got.Param16)
	assert.Equal(t, d.Param32, got.Param32)
}

func TestTelegramRoundTrip(t *testing.T) {
	t.Parallel()
	h := testHeader()
	h.ProtocolVersion = vbusid.ProtocolTelegram
	tg := &frame.Telegram{
		Header:  h,
		Command: 0x01,
		Payload: []byte{0x11, 0x92},
	}
	wire := tg.Encode()

	data, n, err := frame.Decode(wire, 0)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	require.True(t, data.IsTelegram())

	got, ok := data.AsTelegram()
	require.True(t, ok)
	assert.Equal(t, tg.Command, got.Command)
	assert.Equal(t, tg.Payload, got.Payload)
}

func TestTelegramZeroLengthPayload(t *testing.T) {
	t.Parallel()
	h := testHeader()
	h.ProtocolVersion = vbusid.ProtocolTelegram
	tg := &frame.Telegram{Header: h, Command: 0x00}
	wire := tg.Encode()

	data, n, err := frame.Decode(wire, 0)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	got, ok := data.AsTelegram()
	require.True(t, ok)
	assert.Empty(t, got.Payload)
}

func TestDecodeNeedsMoreData(t *testing.T) {
	t.Parallel()
	p := &frame.Packet{
		Header:     testHeader(),
		Command:    0x0100,
		FrameCount: 1,
		FrameData:  []byte{0x01, 0x02, 0x03, 0x04},
	}
	wire := p.Encode()

	for n := 0; n < len(wire); n++ {
		_, _, err := frame.Decode(wire[:n], 0)
		assert.ErrorIs(t, err, frame.ErrNeedMore, "prefix of length %d should need more data", n)
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	t.Parallel()
	p := &frame.Packet{
		Header:     testHeader(),
		Command:    0x0100,
		FrameCount: 1,
		FrameData:  []byte{0x01, 0x02, 0x03, 0x04},
	}
	wire := p.Encode()
	wire[len(wire)-1] ^= 0xFF

	_, _, err := frame.Decode(wire, 0)
	var rejected *frame.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, frame.RejectChecksum, rejected.Reason)
	assert.True(t, errors.Is(err, frame.ErrRejected))
}

func TestDecodeRejectsHighBitSetWhereForbidden(t *testing.T) {
	t.Parallel()
	p := &frame.Packet{
		Header:     testHeader(),
		Command:    0x0100,
		FrameCount: 1,
		FrameData:  []byte{0x01, 0x02, 0x03, 0x04},
	}
	wire := p.Encode()
	// Corrupt the frame_count byte to have its high bit set, which must
	// be rejected before the checksum is even considered.
	wire[9] |= 0x80

	_, _, err := frame.Decode(wire, 0)
	var rejected *frame.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, frame.RejectHighBit, rejected.Reason)
}

func TestDecodeRejectsUnknownProtocolVersion(t *testing.T) {
	t.Parallel()
	h := testHeader()
	h.ProtocolVersion = vbusid.ProtocolVersion(0x99)
	wire := []byte{frame.SyncByte, h.Channel,
		byte(h.DestinationAddress), byte(h.DestinationAddress >> 8),
		byte(h.SourceAddress), byte(h.SourceAddress >> 8),
		byte(h.ProtocolVersion),
	}
	_, _, err := frame.Decode(wire, 0)
	var rejected *frame.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, frame.RejectUnknownProtocol, rejected.Reason)
}

func TestDecodeRejectsMissingSyncByte(t *testing.T) {
	t.Parallel()
	_, _, err := frame.Decode([]byte{0x00, 0x00}, 0)
	var rejected *frame.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, frame.RejectUnknownProtocol, rejected.Reason)
}

func TestDataEqualAcrossKinds(t *testing.T) {
	t.Parallel()
	p := frame.FromPacket(&frame.Packet{Header: testHeader(), Command: 1})
	tg := frame.FromTelegram(&frame.Telegram{Header: testHeader(), Command: 1})
	assert.False(t, p.Equal(tg))
	assert.True(t, p.Equal(p))
}

func TestDataAsWrongKindIsTotal(t *testing.T) {
	t.Parallel()
	p := frame.FromPacket(&frame.Packet{Header: testHeader(), Command: 1})
	d, ok := p.AsDatagram()
	assert.False(t, ok)
	assert.Nil(t, d)
	tg, ok := p.AsTelegram()
	assert.False(t, ok)
	assert.Nil(t, tg)
}
