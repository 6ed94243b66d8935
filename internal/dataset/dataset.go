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

// Package dataset merges a stream of time-stamped VBus records into a
// sparse current-state snapshot with age-based eviction (spec.md §4.4).
package dataset

import (
	"sort"

	"github.com/resol-vbus/govbus/internal/frame"
)

// DataSet is a mapping from packet identity to the most recently
// observed Data, in first-insertion order, together with the last
// update timestamp seen across every AddData call.
//
// The backing store is a slice (for stable, insertion-ordered iteration
// and cheap Sort) plus a hash-to-index map (for O(1) merge by identity),
// mirroring the teacher's xsync-map-for-lookup pattern scaled down to a
// single-threaded, non-concurrent structure (spec.md §5: one instance,
// one thread at a time — no concurrent map is warranted here, unlike
// the immutable, shared Specification).
type DataSet struct {
	entries   []frame.Data
	indexByID map[uint64]int
	timestamp int64
}

// New returns an empty DataSet.
func New() *DataSet {
	return &DataSet{indexByID: make(map[uint64]int)}
}

// AddData merges d into the set: if an entry with the same identity
// hash already exists, it is replaced in place (preserving its position
// in iteration order); otherwise d is appended. DataSet's timestamp
// becomes max(current, d.Timestamp()).
func (ds *DataSet) AddData(d frame.Data) {
	h := d.IdHash()
	if idx, ok := ds.indexByID[h]; ok {
		ds.entries[idx] = d
	} else {
		ds.indexByID[h] = len(ds.entries)
		ds.entries = append(ds.entries, d)
	}
	if ts := d.Timestamp(); ts > ds.timestamp {
		ds.timestamp = ts
	}
}

// Timestamp returns the DataSet's last-update timestamp.
func (ds *DataSet) Timestamp() int64 { return ds.timestamp }

// Len returns the number of entries currently held.
func (ds *DataSet) Len() int { return len(ds.entries) }

// ClearPacketsOlderThan removes every entry whose payload is a Packet
// and whose timestamp is strictly less than t. Datagrams and Telegrams
// are never evicted by this call (spec.md §4.4 rationale: they are
// one-shot events, not periodic samples with a freshness window).
func (ds *DataSet) ClearPacketsOlderThan(t int64) {
	ds.filter(func(d frame.Data) bool {
		return !(d.IsPacket() && d.Timestamp() < t)
	})
}

// ClearAllPackets removes every Packet entry regardless of age.
func (ds *DataSet) ClearAllPackets() {
	ds.filter(func(d frame.Data) bool { return !d.IsPacket() })
}

// RemoveAllData drops every entry and resets the last-update timestamp.
func (ds *DataSet) RemoveAllData() {
	ds.entries = nil
	ds.indexByID = make(map[uint64]int)
	ds.timestamp = 0
}

// filter keeps only entries for which keep returns true, preserving
// relative order, and rebuilds the identity index to match.
func (ds *DataSet) filter(keep func(frame.Data) bool) {
	out := ds.entries[:0]
	for _, d := range ds.entries {
		if keep(d) {
			out = append(out, d)
		}
	}
	ds.entries = out
	ds.indexByID = make(map[uint64]int, len(out))
	for i, d := range out {
		ds.indexByID[d.IdHash()] = i
	}
}

// SortBy reorders the view using less as the ordering predicate, without
// changing identity-based lookup results (the index is rebuilt after
// sorting).
func (ds *DataSet) SortBy(less func(a, b frame.Data) bool) {
	sort.SliceStable(ds.entries, func(i, j int) bool { return less(ds.entries[i], ds.entries[j]) })
	ds.reindex()
}

// SortByIdSlice reorders the view to match the order of ids: entries
// whose identity hash is not present in ids are appended afterward in
// their prior relative order.
func (ds *DataSet) SortByIdSlice(ids []uint64) {
	rank := make(map[uint64]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	const notFound = 1 << 30
	sort.SliceStable(ds.entries, func(i, j int) bool {
		ra, oka := rank[ds.entries[i].IdHash()]
		rb, okb := rank[ds.entries[j].IdHash()]
		if !oka {
			ra = notFound
		}
		if !okb {
			rb = notFound
		}
		return ra < rb
	})
	ds.reindex()
}

func (ds *DataSet) reindex() {
	for i, d := range ds.entries {
		ds.indexByID[d.IdHash()] = i
	}
}

// Iter returns a copy of the current entries in iteration order: a
// finite snapshot a caller can range over without the set being mutated
// underneath it.
func (ds *DataSet) Iter() []frame.Data {
	out := make([]frame.Data, len(ds.entries))
	copy(out, ds.entries)
	return out
}

// Get returns the entry with the given identity hash, if present.
func (ds *DataSet) Get(idHash uint64) (frame.Data, bool) {
	idx, ok := ds.indexByID[idHash]
	if !ok {
		return frame.Data{}, false
	}
	return ds.entries[idx], true
}
