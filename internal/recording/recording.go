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

// Package recording implements the self-describing, type-tagged,
// length-prefixed persistent container format (spec.md §4.5): each
// record is a type byte, a big-endian length, a millisecond UTC
// timestamp, and a body whose shape depends on the type.
package recording

import (
	"encoding/binary"
	"io"

	"github.com/resol-vbus/govbus/internal/vbuserrors"
)

// RecordType discriminates a recording entry's body shape.
type RecordType uint8

const (
	// TypeLiveData carries one raw, still-septeted wire frame sequence
	// replayable through the live-data decoder, plus a channel override.
	TypeLiveData RecordType = 0x66
	// TypeDataSetSnapshot carries a serialized DataSet.
	TypeDataSetSnapshot RecordType = 0x77
)

// Record is one entry read from or to be written to a recording stream.
type Record struct {
	Type      RecordType
	Timestamp int64 // milliseconds since Unix epoch, UTC
	Channel   uint8 // meaningful for TypeLiveData only
	Body      []byte
}

// recordHeaderLen is the fixed prefix before Body: type(1) + length(4,
// big-endian, covers Channel+Body) + timestamp(8, big-endian).
const recordHeaderLen = 1 + 4 + 8

// Writer appends records to an underlying io.Writer. Flushing is
// explicit: callers that want buffering should wrap w in a
// *bufio.Writer themselves and call Flush before discarding the
// recording.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteRecord appends one record. The on-disk length field covers the
// channel byte plus Body, so the reader can skip unknown-typed records
// without interpreting them.
func (rw *Writer) WriteRecord(r Record) error {
	body := make([]byte, 1+len(r.Body))
	body[0] = r.Channel
	copy(body[1:], r.Body)

	header := make([]byte, recordHeaderLen)
	header[0] = byte(r.Type)
	binary.BigEndian.PutUint32(header[1:5], uint32(len(body)))
	binary.BigEndian.PutUint64(header[5:13], uint64(r.Timestamp))

	if _, err := rw.w.Write(header); err != nil {
		return err
	}
	_, err := rw.w.Write(body)
	return err
}

// Reader streams records from an underlying io.Reader, optionally
// restricted to a [MinTimestamp, MaxTimestamp] window: records entirely
// outside the window are skipped without their body being decoded (seeked
// past when the source is an io.Seeker, otherwise read and discarded).
type Reader struct {
	r              io.Reader
	MinTimestamp   int64
	MaxTimestamp   int64
	hasWindow      bool
	offset         int64
}

// NewReader returns a Reader over r with no timestamp filtering.
func NewReader(r io.Reader) *Reader { return &Reader{r: r, MaxTimestamp: 1<<63 - 1} }

// SetWindow restricts ReadRecord to records whose timestamp satisfies
// min <= ts <= max.
func (rr *Reader) SetWindow(min, max int64) {
	rr.MinTimestamp, rr.MaxTimestamp, rr.hasWindow = min, max, true
}

// Offset returns the number of bytes consumed from the underlying
// reader so far, for diagnostics in RecordingError.
func (rr *Reader) Offset() int64 { return rr.offset }

// ReadRecord reads the next record whose timestamp is inside the
// configured window, skipping (without fully decoding) any records
// outside it. It returns io.EOF when the stream is exhausted cleanly.
func (rr *Reader) ReadRecord() (Record, error) {
	for {
		header := make([]byte, recordHeaderLen)
		if _, err := io.ReadFull(rr.r, header); err != nil {
			if err == io.ErrUnexpectedEOF {
				return Record{}, &vbuserrors.RecordingError{
					Kind: vbuserrors.RecordingTruncatedBody, Offset: rr.offset, Detail: "truncated record header",
				}
			}
			return Record{}, err
		}
		rr.offset += recordHeaderLen

		typ := RecordType(header[0])
		length := binary.BigEndian.Uint32(header[1:5])
		if length == 0 {
			return Record{}, &vbuserrors.RecordingError{
				Kind: vbuserrors.RecordingBadLength, Offset: rr.offset, Detail: "zero-length record body (missing channel byte)",
			}
		}
		ts := int64(binary.BigEndian.Uint64(header[5:13]))

		if rr.hasWindow && (ts < rr.MinTimestamp || ts > rr.MaxTimestamp) {
			if err := rr.skip(int64(length)); err != nil {
				return Record{}, err
			}
			continue
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(rr.r, body); err != nil {
			return Record{}, &vbuserrors.RecordingError{
				Kind: vbuserrors.RecordingTruncatedBody, Offset: rr.offset, Detail: "truncated record body",
			}
		}
		rr.offset += int64(length)

		return Record{Type: typ, Timestamp: ts, Channel: body[0], Body: body[1:]}, nil
	}
}

func (rr *Reader) skip(n int64) error {
	if seeker, ok := rr.r.(io.Seeker); ok {
		if _, err := seeker.Seek(n, io.SeekCurrent); err == nil {
			rr.offset += n
			return nil
		}
	}
	copied, err := io.CopyN(io.Discard, rr.r, n)
	rr.offset += copied
	if err != nil {
		return &vbuserrors.RecordingError{
			Kind: vbuserrors.RecordingTruncatedBody, Offset: rr.offset, Detail: "truncated record body while skipping",
		}
	}
	return nil
}

// Stats summarizes a full pass over a recording stream: counts per
// record type and the observed timestamp extremes.
type Stats struct {
	CountByType map[RecordType]int
	MinSeen     int64
	MaxSeen     int64
	TotalCount  int
}

// ReadToStats walks r to completion (ignoring any configured window,
// since a full-file pass is the point) and returns the per-type counts
// and timestamp extremes (spec.md §4.5: "a read_to_stats convenience").
func ReadToStats(r io.Reader) (Stats, error) {
	rr := NewReader(r)
	stats := Stats{CountByType: make(map[RecordType]int)}
	first := true
	for {
		rec, err := rr.ReadRecord()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		stats.CountByType[rec.Type]++
		stats.TotalCount++
		if first || rec.Timestamp < stats.MinSeen {
			stats.MinSeen = rec.Timestamp
		}
		if first || rec.Timestamp > stats.MaxSeen {
			stats.MaxSeen = rec.Timestamp
		}
		first = false
	}
}
