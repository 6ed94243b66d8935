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

package recording

import (
	"io"

	"github.com/resol-vbus/govbus/internal/frame"
	"github.com/resol-vbus/govbus/internal/framing"
)

// LiveDataRecord is one decoded frame recovered from a TypeLiveData
// record, tagged with the channel and timestamp the record carried on
// disk (which may differ from the header's own channel/timestamp if the
// recording was relayed across a different link).
type LiveDataRecord struct {
	Data      frame.Data
	Channel   uint8
	Timestamp int64
}

// LiveDataReader layers over a Reader, extracting TypeLiveData records,
// passing their payload through the live-data decoder, and tagging
// results with the record's channel and timestamp. Non-LiveData records
// are skipped transparently.
type LiveDataReader struct {
	rr *Reader
}

// NewLiveDataReader wraps r.
func NewLiveDataReader(r io.Reader) *LiveDataReader {
	return &LiveDataReader{rr: NewReader(r)}
}

// SetWindow restricts reading to the given timestamp window.
func (lr *LiveDataReader) SetWindow(min, max int64) { lr.rr.SetWindow(min, max) }

// ReadFrame returns the next decoded frame from a TypeLiveData record,
// or io.EOF when the stream is exhausted.
func (lr *LiveDataReader) ReadFrame() (LiveDataRecord, error) {
	for {
		rec, err := lr.rr.ReadRecord()
		if err != nil {
			return LiveDataRecord{}, err
		}
		if rec.Type != TypeLiveData {
			continue
		}
		buf := framing.NewLiveDataBuffer(nil)
		buf.Append(rec.Body)
		stats := framing.NewStats()
		data, ok, err := buf.Read(stats, rec.Timestamp)
		if err != nil {
			return LiveDataRecord{}, err
		}
		if !ok {
			// The stored frame sequence was itself truncated or wholly
			// rejected; skip it and move to the next record rather than
			// failing the whole stream.
			continue
		}
		// The record's channel is authoritative over whatever channel
		// byte the wire bytes carried: a recording can be re-tagged
		// when relayed across a different link (spec.md §4.5, S5).
		overrideChannel(data, rec.Channel)
		return LiveDataRecord{Data: data, Channel: rec.Channel, Timestamp: rec.Timestamp}, nil
	}
}

// overrideChannel sets channel on whichever variant d carries in place,
// since Packet/Datagram/Telegram are held by pointer inside Data.
func overrideChannel(d frame.Data, channel uint8) {
	switch d.Kind {
	case frame.KindPacket:
		d.Packet.Header.Channel = channel
	case frame.KindDatagram:
		d.Datagram.Header.Channel = channel
	case frame.KindTelegram:
		d.Telegram.Header.Channel = channel
	}
}

// LiveDataWriter layers over a Writer, encoding decoded frames back into
// TypeLiveData records.
type LiveDataWriter struct {
	w *Writer
}

// NewLiveDataWriter wraps w.
func NewLiveDataWriter(w io.Writer) *LiveDataWriter {
	return &LiveDataWriter{w: NewWriter(w)}
}

// WriteFrame appends d as a TypeLiveData record, stamped with channel
// and timestamp (which need not match d.Header()'s own values, so a
// recording can be re-tagged when relayed across a different channel).
func (lw *LiveDataWriter) WriteFrame(d frame.Data, channel uint8, timestamp int64) error {
	return lw.w.WriteRecord(Record{
		Type:      TypeLiveData,
		Timestamp: timestamp,
		Channel:   channel,
		Body:      d.Encode(),
	})
}
