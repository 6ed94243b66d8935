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

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/resol-vbus/govbus/internal/frame"
)

// ErrNeedMore is re-exported from frame so callers never need to import
// the frame package just to check this sentinel.
var ErrNeedMore = frame.ErrNeedMore

// LiveDataBuffer wraps a BlobBuffer with VBus resynchronisation. It
// scans forward for the sync byte 0xAA, attempts to decode a frame
// starting there, and on any per-byte rule violation discards that sync
// byte and resumes scanning one byte later — the sole recovery
// mechanism for framing errors (spec.md §4.1).
type LiveDataBuffer struct {
	blob   BlobBuffer
	logger *slog.Logger
}

// NewLiveDataBuffer returns an empty LiveDataBuffer. A nil logger
// defaults to slog.Default(); the logger is only ever used for
// debug-level resync tracing, never to report hard errors (SPEC_FULL.md
// §10).
func NewLiveDataBuffer(logger *slog.Logger) *LiveDataBuffer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveDataBuffer{logger: logger}
}

// Append adds bytes received from the transport to the buffer.
func (b *LiveDataBuffer) Append(p []byte) {
	b.blob.Append(p)
}

// Offset returns the total number of bytes consumed (including
// discarded resync bytes) since creation.
func (b *LiveDataBuffer) Offset() int64 {
	return b.blob.Offset()
}

// Read attempts to decode the next frame, stamping its header with now
// (milliseconds since the Unix epoch, UTC). It returns (frame.Data{},
// false, nil) when the buffer holds no decodable frame yet and the
// caller should Append more bytes (spec.md: NeedMore is a signal, not an
// error). stats, if non-nil, accumulates acceptance/rejection counts.
//
// Read never returns a hard error: rejected frames are recovered
// internally by discarding one byte and resuming scanning, as required
// by spec.md §4.1 and §7.
func (b *LiveDataBuffer) Read(stats *Stats, now int64) (frame.Data, bool, error) {
	for {
		avail := b.blob.Bytes()
		idx := bytes.IndexByte(avail, frame.SyncByte)
		if idx == -1 {
			// No sync byte buffered at all; nothing more to do until
			// more data arrives. The trailing bytes might be the
			// leading half of a not-yet-arrived sync byte region from
			// some other protocol noise, but VBus has no multi-byte
			// sync marker, so there is nothing worth retaining past
			// "no 0xAA present".
			if len(avail) > 0 {
				b.blob.Consume(len(avail))
				stats.addShortRead()
			}
			return frame.Data{}, false, nil
		}
		if idx > 0 {
			// Garbage before the sync byte: discard it without treating
			// it as a rejected frame (spec.md only defines rejection for
			// a failed decode attempt starting at a sync byte).
			b.blob.Consume(idx)
			avail = b.blob.Bytes()
		}

		data, n, err := frame.Decode(avail, now)
		switch {
		case err == nil:
			b.blob.Consume(n)
			b.blob.Compact()
			stats.addAccepted()
			return data, true, nil
		case errors.Is(err, frame.ErrNeedMore):
			return frame.Data{}, false, nil
		default:
			var rejected *frame.RejectedError
			if errors.As(err, &rejected) {
				stats.addRejected(rejected.Reason)
				b.logger.Debug("vbus: discarding sync byte after rejected frame",
					"reason", rejected.Reason.String(), "offset", b.blob.Offset())
			}
			// Discard exactly the sync byte and resume scanning one
			// byte later.
			b.blob.Consume(1)
			continue
		}
	}
}
