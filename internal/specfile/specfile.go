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

// Package specfile parses the VBus Specification File (VSF) binary
// format: a length-prefixed, table-oriented container mapping PacketId
// to PacketFieldSpec rows (spec.md §4.3). Loading performs a strict
// validation pass; partial success is never returned.
package specfile

import (
	"encoding/binary"
	"time"

	"github.com/resol-vbus/govbus/internal/vbuserrors"
)

// Magic is the four-byte signature every VSF file begins with.
var Magic = [4]byte{'V', 'S', 'F', '1'}

// FieldType discriminates how a field's raw integer value is presented.
type FieldType uint8

const (
	FieldNumber FieldType = iota
	FieldTime
	FieldWeektime
	FieldDateTime
)

// Part is one offset/bitmask/factor triple contributing to a field's raw
// value: acc += (frame_data[Offset] AND Bitmask) * Factor.
type Part struct {
	Offset  uint16
	Bitmask uint8
	Factor  int32
}

// FieldTemplate is one row of a PacketTemplate's field list.
type FieldTemplate struct {
	FieldIdTextIndex  uint32
	NameLocalizedIdx  uint32
	UnitId            uint16
	Precision         int8
	Type              FieldType
	Parts             []Part
}

// PacketTemplate names a (destination_address, source_address, command)
// conversation shape and its field list. A zero address in either
// address slot is a wildcard (SPEC_FULL.md §4).
type PacketTemplate struct {
	DestinationAddress uint16
	SourceAddress      uint16
	Command            uint16
	Fields             []FieldTemplate
}

// DeviceTemplate names one device participating on the bus, for
// presentation purposes only; the specification engine does not consult
// it for lookup.
type DeviceTemplate struct {
	SelfAddress       uint16
	PeerAddress       uint16
	NameLocalizedIdx  uint32
}

// Unit describes one physical unit: its code (e.g. "DegreesCelsius"), a
// family grouping (e.g. "Temperature"), and a localized display text.
type Unit struct {
	UnitId          uint16
	UnitCodeIndex   uint32
	UnitFamilyIndex uint32
	UnitTextIndex   uint32
}

// LocalizedText is one row of N language slots, each either an index
// into Texts or -1 (empty, encoded as 0xFFFFFFFF on the wire).
type LocalizedText struct {
	Slots []int64 // -1 means empty
}

// File is the fully parsed, validated contents of a VSF. Every
// inter-array reference inside it has already been bounds-checked.
type File struct {
	Datecode      int
	LanguageCount int
	Strings       []string // the string pool, one entry per NUL-terminated run
	Texts         []string // resolved directly to their string content
	LocalizedTexts []LocalizedText
	Units         []Unit
	DeviceTemplates []DeviceTemplate
	PacketTemplates []PacketTemplate
}

// reader walks buf and tracks the current offset for diagnostics.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) fail(kind vbuserrors.SpecFailureKind, detail string) error {
	return &vbuserrors.SpecError{Kind: kind, Offset: r.off, Detail: detail}
}

func (r *reader) u8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, r.fail(vbuserrors.SpecTruncated, "expected u8")
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, r.fail(vbuserrors.SpecTruncated, "expected u16")
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) i32() (int32, error) {
	u, err := r.u32()
	return int32(u), err
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, r.fail(vbuserrors.SpecTruncated, "expected u32")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// Parse validates and decodes a VSF binary blob in full.
func Parse(buf []byte) (*File, error) {
	r := &reader{buf: buf}

	if len(buf) < 4 || string(buf[0:4]) != string(Magic[:]) {
		return nil, &vbuserrors.SpecError{Kind: vbuserrors.SpecBadMagic, Offset: 0}
	}
	if len(buf) < 16 {
		return nil, &vbuserrors.SpecError{Kind: vbuserrors.SpecTruncated, Offset: len(buf), Detail: "header shorter than 16 bytes"}
	}
	r.off = 4

	totalLength, err := r.u32()
	if err != nil {
		return nil, err
	}
	if int(totalLength) != len(buf) {
		return nil, r.fail(vbuserrors.SpecLengthMismatch, "header total_length does not match blob size")
	}

	datecodeRaw, err := r.u32()
	if err != nil {
		return nil, err
	}
	datecode, err := parseDatecode(datecodeRaw)
	if err != nil {
		return nil, r.fail(vbuserrors.SpecBadDatecode, err.Error())
	}

	langCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	if _, err := r.u16(); err != nil { // reserved
		return nil, err
	}

	strings_, stringOffsets, err := r.readStringPool()
	if err != nil {
		return nil, err
	}
	byOffset := make(map[uint32]string, len(strings_))
	for i, off := range stringOffsets {
		byOffset[uint32(off)] = strings_[i]
	}

	textIndices, err := r.readUint32Array()
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(textIndices))
	for i, strIdx := range textIndices {
		s, ok := byOffset[strIdx]
		if !ok {
			return nil, r.fail(vbuserrors.SpecOffsetOutOfRange, "text references a byte offset that is not a string pool entry start")
		}
		texts[i] = s
	}

	localizedTexts, err := r.readLocalizedTexts(int(langCount), len(texts))
	if err != nil {
		return nil, err
	}

	units, err := r.readUnits(len(texts))
	if err != nil {
		return nil, err
	}

	deviceTemplates, err := r.readDeviceTemplates(len(localizedTexts))
	if err != nil {
		return nil, err
	}

	packetTemplates, err := r.readPacketTemplates(len(texts), len(localizedTexts))
	if err != nil {
		return nil, err
	}

	if r.remaining() != 0 {
		return nil, r.fail(vbuserrors.SpecLengthMismatch, "trailing bytes after last declared array")
	}

	return &File{
		Datecode:        datecode,
		LanguageCount:   int(langCount),
		Strings:         strings_,
		Texts:           texts,
		LocalizedTexts:  localizedTexts,
		Units:           units,
		DeviceTemplates: deviceTemplates,
		PacketTemplates: packetTemplates,
	}, nil
}

func parseDatecode(raw uint32) (int, error) {
	s := raw
	year := s / 10000
	month := (s / 100) % 100
	day := s % 100
	if year < 1990 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, errTime("datecode out of plausible range")
	}
	t := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
	if uint32(t.Year())*10000+uint32(t.Month())*100+uint32(t.Day()) != raw {
		return 0, errTime("datecode does not round-trip through a calendar date")
	}
	return int(raw), nil
}

type errTime string

func (e errTime) Error() string { return string(e) }

// readStringPool splits the length-prefixed NUL-terminated-run pool into
// entries, and records each entry's starting byte offset within the pool:
// the text-index table below references entries by that byte offset, not
// by their sequential position.
func (r *reader) readStringPool() (entries []string, offsets []int, err error) {
	poolLen, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	if r.remaining() < int(poolLen) {
		return nil, nil, r.fail(vbuserrors.SpecTruncated, "string pool shorter than declared length")
	}
	pool := r.buf[r.off : r.off+int(poolLen)]
	r.off += int(poolLen)

	start := 0
	for i := 0; i < len(pool); i++ {
		if pool[i] == 0 {
			entries = append(entries, string(pool[start:i]))
			offsets = append(offsets, start)
			start = i + 1
		}
	}
	if start != len(pool) {
		return nil, nil, r.fail(vbuserrors.SpecUnterminatedString, "string pool does not end on a NUL terminator")
	}
	return entries, offsets, nil
}

func (r *reader) readUint32Array() ([]uint32, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *reader) readLocalizedTexts(langCount, textCount int) ([]LocalizedText, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]LocalizedText, count)
	for i := range out {
		slots := make([]int64, langCount)
		for lang := 0; lang < langCount; lang++ {
			idx, err := r.u32()
			if err != nil {
				return nil, err
			}
			if idx == 0xFFFFFFFF {
				slots[lang] = -1
				continue
			}
			if int(idx) >= textCount {
				return nil, r.fail(vbuserrors.SpecOffsetOutOfRange, "localized text slot references out-of-range text")
			}
			slots[lang] = int64(idx)
		}
		out[i] = LocalizedText{Slots: slots}
	}
	return out, nil
}

func (r *reader) readUnits(textCount int) ([]Unit, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]Unit, count)
	for i := range out {
		unitId, err := r.u16()
		if err != nil {
			return nil, err
		}
		codeIdx, err := r.u32()
		if err != nil {
			return nil, err
		}
		familyIdx, err := r.u32()
		if err != nil {
			return nil, err
		}
		textIdx, err := r.u32()
		if err != nil {
			return nil, err
		}
		if int(codeIdx) >= textCount || int(familyIdx) >= textCount || int(textIdx) >= textCount {
			return nil, r.fail(vbuserrors.SpecOffsetOutOfRange, "unit references out-of-range text")
		}
		out[i] = Unit{UnitId: unitId, UnitCodeIndex: codeIdx, UnitFamilyIndex: familyIdx, UnitTextIndex: textIdx}
	}
	return out, nil
}

func (r *reader) readDeviceTemplates(localizedCount int) ([]DeviceTemplate, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]DeviceTemplate, count)
	for i := range out {
		self, err := r.u16()
		if err != nil {
			return nil, err
		}
		peer, err := r.u16()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u32()
		if err != nil {
			return nil, err
		}
		if int(nameIdx) >= localizedCount {
			return nil, r.fail(vbuserrors.SpecOffsetOutOfRange, "device template references out-of-range localized text")
		}
		out[i] = DeviceTemplate{SelfAddress: self, PeerAddress: peer, NameLocalizedIdx: nameIdx}
	}
	return out, nil
}

func (r *reader) readPacketTemplates(textCount, localizedCount int) ([]PacketTemplate, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]PacketTemplate, count)
	for i := range out {
		dest, err := r.u16()
		if err != nil {
			return nil, err
		}
		src, err := r.u16()
		if err != nil {
			return nil, err
		}
		command, err := r.u16()
		if err != nil {
			return nil, err
		}
		fieldCount, err := r.u16()
		if err != nil {
			return nil, err
		}
		fields := make([]FieldTemplate, fieldCount)
		for f := range fields {
			fieldIdx, err := r.u32()
			if err != nil {
				return nil, err
			}
			nameIdx, err := r.u32()
			if err != nil {
				return nil, err
			}
			unitId, err := r.u16()
			if err != nil {
				return nil, err
			}
			precisionRaw, err := r.u8()
			if err != nil {
				return nil, err
			}
			typeRaw, err := r.u8()
			if err != nil {
				return nil, err
			}
			partCount, err := r.u16()
			if err != nil {
				return nil, err
			}
			if int(fieldIdx) >= textCount {
				return nil, r.fail(vbuserrors.SpecOffsetOutOfRange, "field template references out-of-range text")
			}
			if int(nameIdx) >= localizedCount {
				return nil, r.fail(vbuserrors.SpecOffsetOutOfRange, "field template references out-of-range localized text")
			}
			// unit_id is a logical key resolved by the specification
			// engine's unit index, not a positional index here; 0 is
			// the documented "no unit" sentinel and is always valid.
			parts := make([]Part, partCount)
			for p := range parts {
				offset, err := r.u16()
				if err != nil {
					return nil, err
				}
				bitmask, err := r.u8()
				if err != nil {
					return nil, err
				}
				factor, err := r.i32()
				if err != nil {
					return nil, err
				}
				parts[p] = Part{Offset: offset, Bitmask: bitmask, Factor: factor}
			}
			fields[f] = FieldTemplate{
				FieldIdTextIndex: fieldIdx,
				NameLocalizedIdx: nameIdx,
				UnitId:           unitId,
				Precision:        int8(precisionRaw),
				Type:             FieldType(typeRaw),
				Parts:            parts,
			}
		}
		out[i] = PacketTemplate{DestinationAddress: dest, SourceAddress: src, Command: command, Fields: fields}
	}
	return out, nil
}
