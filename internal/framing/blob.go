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

// Package framing recovers VBus frames from an arbitrary octet stream:
// resynchronisation on the sync byte, length discovery, and checksum
// validation, layered over a BlobBuffer (spec.md §4.1).
package framing

// BlobBuffer is a linear byte buffer: bytes are appended at the tail, a
// read cursor consumes from the head, and Compact reclaims the drained
// prefix. It is not safe for concurrent use (spec.md §5: one instance,
// one thread at a time).
type BlobBuffer struct {
	buf    []byte
	head   int
	offset int64 // total bytes consumed since creation, monotonic
}

// Append adds b to the tail of the buffer.
func (bb *BlobBuffer) Append(b []byte) {
	bb.buf = append(bb.buf, b...)
}

// Bytes returns the currently-buffered, unconsumed slice. The returned
// slice aliases the buffer's storage and is invalidated by the next
// Append, Consume, or Compact.
func (bb *BlobBuffer) Bytes() []byte {
	return bb.buf[bb.head:]
}

// Len returns the number of unconsumed bytes.
func (bb *BlobBuffer) Len() int {
	return len(bb.buf) - bb.head
}

// Peek returns up to n unconsumed bytes without advancing the cursor. It
// returns fewer than n bytes if that many are not yet buffered.
func (bb *BlobBuffer) Peek(n int) []byte {
	avail := bb.Bytes()
	if n > len(avail) {
		n = len(avail)
	}
	return avail[:n]
}

// Consume advances the read cursor by n bytes and returns them. It
// panics if n exceeds Len, matching the teacher convention of failing
// fast on programmer error rather than silently truncating.
func (bb *BlobBuffer) Consume(n int) []byte {
	if n > bb.Len() {
		panic("framing: Consume beyond buffered length")
	}
	out := bb.buf[bb.head : bb.head+n]
	bb.head += n
	bb.offset += int64(n)
	return out
}

// Offset returns the total number of bytes consumed since creation.
func (bb *BlobBuffer) Offset() int64 {
	return bb.offset
}

// Compact reclaims the drained prefix, so the buffer's backing array
// does not grow without bound across a long-lived stream.
func (bb *BlobBuffer) Compact() {
	if bb.head == 0 {
		return
	}
	n := copy(bb.buf, bb.buf[bb.head:])
	bb.buf = bb.buf[:n]
	bb.head = 0
}
