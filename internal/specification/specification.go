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

// Package specification resolves raw packet payload bytes into typed,
// scaled, localized field values, against a parsed VSF (spec.md §4.3).
// A Specification is built once from a *specfile.File and is immutable
// thereafter; it is safe to share across goroutines.
package specification

import (
	"github.com/mitchellh/hashstructure/v2"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/resol-vbus/govbus/internal/specfile"
	"github.com/resol-vbus/govbus/internal/vbusid"
	"github.com/resol-vbus/govbus/internal/vbuserrors"
)

// templateKey is the lookup key for a packet template. Channel is
// deliberately excluded: the VSF's packet templates describe a
// conversation shape shared across every channel a device may be
// attached to, not a channel-specific schema.
type templateKey struct {
	Destination uint16
	Source      uint16
	Command     uint16
}

// Field is one resolved field spec: the stable identity plus everything
// needed to extract and format its value from a packet's frame data.
type Field struct {
	FieldId   string
	Name      func(lang int) string
	Unit      specfile.Unit
	Precision int8
	Type      specfile.FieldType
	Parts     []specfile.Part
}

// PacketSpec is the resolved field list for one packet template.
type PacketSpec struct {
	Id     vbusid.PacketId
	Fields []Field
}

// Specification is the immutable, queryable form of a parsed VSF.
type Specification struct {
	file *specfile.File

	byTemplate  *xsync.Map[templateKey, *PacketSpec]
	byField     *xsync.Map[string, *Field] // keyed by fieldKey(template key, field id)
	byUnitCode  *xsync.Map[string, specfile.Unit]
	wildcards   []templateKey // destination or source == 0 entries, checked on miss

	memo *xsync.Map[uint64, formattedValue]
}

type formattedValue struct {
	text string
}

// New builds a Specification from a parsed VSF file. Construction is the
// only time the engine mutates its indices; afterwards it is read-only.
func New(f *specfile.File) *Specification {
	s := &Specification{
		file:       f,
		byTemplate: xsync.NewMap[templateKey, *PacketSpec](),
		byField:    xsync.NewMap[string, *Field](),
		byUnitCode: xsync.NewMap[string, specfile.Unit](),
		memo:       xsync.NewMap[uint64, formattedValue](),
	}

	for _, u := range f.Units {
		code := f.Texts[u.UnitCodeIndex]
		s.byUnitCode.Store(code, u)
	}

	for _, pt := range f.PacketTemplates {
		key := templateKey{Destination: pt.DestinationAddress, Source: pt.SourceAddress, Command: pt.Command}
		id := vbusid.PacketId{DestinationAddress: pt.DestinationAddress, SourceAddress: pt.SourceAddress, Command: pt.Command}
		spec := &PacketSpec{Id: id}
		for _, ft := range pt.Fields {
			ft := ft
			fieldId := f.Texts[ft.FieldIdTextIndex]
			var unit specfile.Unit
			for _, u := range f.Units {
				if u.UnitId == ft.UnitId {
					unit = u
					break
				}
			}
			field := Field{
				FieldId:   fieldId,
				Name:      s.localizedTextFunc(ft.NameLocalizedIdx),
				Unit:      unit,
				Precision: ft.Precision,
				Type:      ft.Type,
				Parts:     ft.Parts,
			}
			spec.Fields = append(spec.Fields, field)
			fcopy := field
			s.byField.Store(fieldKey(key, fieldId), &fcopy)
		}
		s.byTemplate.Store(key, spec)
		if pt.DestinationAddress == 0 || pt.SourceAddress == 0 {
			s.wildcards = append(s.wildcards, key)
		}
	}

	return s
}

func fieldKey(k templateKey, fieldId string) string {
	return vbusid.PacketId{DestinationAddress: k.Destination, SourceAddress: k.Source, Command: k.Command}.String() + "|" + fieldId
}

// localizedTextFunc returns a function resolving a language index to the
// text in that slot, falling back to slot 0 (the primary language) when
// the requested slot is empty (SPEC_FULL.md §12).
func (s *Specification) localizedTextFunc(idx uint32) func(lang int) string {
	return func(lang int) string {
		if int(idx) >= len(s.file.LocalizedTexts) {
			return ""
		}
		row := s.file.LocalizedTexts[idx]
		if lang < 0 || lang >= len(row.Slots) {
			lang = 0
		}
		slot := row.Slots[lang]
		if slot < 0 && lang != 0 && len(row.Slots) > 0 {
			slot = row.Slots[0]
		}
		if slot < 0 {
			return ""
		}
		return s.file.Texts[slot]
	}
}

// PacketSpecFor resolves a PacketId to its PacketSpec, consulting exact
// matches first and falling back to wildcard templates (destination or
// source address of 0x0000 in the template) per SPEC_FULL.md §4.
func (s *Specification) PacketSpecFor(id vbusid.PacketId) (*PacketSpec, bool) {
	key := templateKey{Destination: id.DestinationAddress, Source: id.SourceAddress, Command: id.Command}
	if spec, ok := s.byTemplate.Load(key); ok {
		return spec, true
	}
	for _, wk := range s.wildcards {
		if wk.Command != id.Command {
			continue
		}
		if wk.Destination != 0 && wk.Destination != id.DestinationAddress {
			continue
		}
		if wk.Source != 0 && wk.Source != id.SourceAddress {
			continue
		}
		spec, ok := s.byTemplate.Load(wk)
		if ok {
			return spec, true
		}
	}
	return nil, false
}

// FieldSpecFor resolves a PacketFieldId directly, without returning the
// whole template's field list. An exact (non-wildcard) template match is
// served from the O(1) field index built at construction time; a
// wildcard match falls back to PacketSpecFor since the index is keyed by
// the template's own addresses, not the concrete id's.
func (s *Specification) FieldSpecFor(id vbusid.PacketFieldId) (*Field, error) {
	key := templateKey{Destination: id.DestinationAddress, Source: id.SourceAddress, Command: id.Command}
	if field, ok := s.byField.Load(fieldKey(key, id.FieldId)); ok {
		return field, nil
	}
	spec, ok := s.PacketSpecFor(id.PacketId)
	if !ok {
		return nil, vbuserrors.ErrUnknownPacket
	}
	for i := range spec.Fields {
		if spec.Fields[i].FieldId == id.FieldId {
			return &spec.Fields[i], nil
		}
	}
	return nil, vbuserrors.ErrUnknownField
}

// UnitByCode resolves a unit_code string (e.g. "DegreesCelsius") to its
// VSF unit row.
func (s *Specification) UnitByCode(code string) (specfile.Unit, error) {
	u, ok := s.byUnitCode.Load(code)
	if !ok {
		return specfile.Unit{}, vbuserrors.ErrUnknownUnit
	}
	return u, nil
}

// RawValue assembles the signed 64-bit raw integer for field from
// frameData, per spec.md §4.3: acc += (frame_data[offset] AND bitmask) *
// factor, in declared part order.
func RawValue(field *Field, frameData []byte) (int64, error) {
	var acc int64
	for _, part := range field.Parts {
		if int(part.Offset) >= len(frameData) {
			return 0, vbuserrors.ErrUnknownField
		}
		masked := int64(frameData[part.Offset] & part.Bitmask)
		acc += masked * int64(part.Factor)
	}
	return acc, nil
}

// F64 converts a field's raw integer value to its scaled floating-point
// representation: raw * 10^(-precision).
func F64(field *Field, raw int64) float64 {
	v := float64(raw)
	p := int(field.Precision)
	for i := 0; i < p; i++ {
		v /= 10
	}
	for i := 0; i > p; i-- {
		v *= 10
	}
	return v
}

// memoKey is hashed via hashstructure to build a stable cache key for a
// given (field id, locale, raw value) formatting request, so repeated
// queries for the same shape share one formatted string instead of
// reformatting on every call.
type memoKey struct {
	PacketId vbusid.PacketId
	FieldId  string
	Locale   string
	Raw      int64
}

func memoHash(k memoKey) (uint64, error) {
	return hashstructure.Hash(k, hashstructure.FormatV2, nil)
}
