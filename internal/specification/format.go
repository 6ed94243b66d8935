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

package specification

import (
	"fmt"

	"github.com/resol-vbus/govbus/internal/specfile"
	"github.com/resol-vbus/govbus/internal/vbusid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// FormatValue renders field's raw value as a localized, unit-suffixed
// string, memoizing on (packet id, field id, locale, raw value) so
// repeated formatting of the same reading under the same locale is O(1)
// after the first call. locale only affects the Number path;
// Time/Weektime/DateTime rendering is locale-independent by construction
// (spec.md §4.3), but still keyed by locale so the cache entry shape
// stays uniform.
func (s *Specification) FormatValue(packetId vbusid.PacketId, field *Field, raw int64, locale language.Tag) string {
	key := memoKey{PacketId: packetId, FieldId: field.FieldId, Locale: locale.String(), Raw: raw}
	hash, err := memoHash(key)
	if err == nil {
		if v, ok := s.memo.Load(hash); ok {
			return v.text
		}
	}

	text := s.formatUncached(field, raw, locale)

	if err == nil {
		s.memo.Store(hash, formattedValue{text: text})
	}
	return text
}

func (s *Specification) formatUncached(field *Field, raw int64, locale language.Tag) string {
	switch field.Type {
	case specfile.FieldTime:
		return formatTimeOfDay(raw)
	case specfile.FieldWeektime:
		return formatWeektime(raw)
	case specfile.FieldDateTime:
		return formatDateTime(raw)
	default:
		return s.formatNumber(field, raw, locale)
	}
}

// formatNumber renders a scaled decimal with locale-correct grouping and
// separator via x/text/message, then appends the unit's display text if
// one is attached to the field.
func (s *Specification) formatNumber(field *Field, raw int64, locale language.Tag) string {
	p := message.NewPrinter(locale)
	f64 := F64(field, raw)
	rendered := p.Sprintf("%.*f", int(field.Precision), f64)
	if field.Unit.UnitId == 0 {
		return rendered
	}
	return rendered + " " + s.unitText(field.Unit)
}

func (s *Specification) unitText(u specfile.Unit) string {
	if int(u.UnitTextIndex) >= len(s.file.Texts) {
		return ""
	}
	return s.file.Texts[u.UnitTextIndex]
}

// formatTimeOfDay renders a raw minute-of-day value as HH:MM.
func formatTimeOfDay(raw int64) string {
	minutes := raw % (24 * 60)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// formatWeektime renders a raw minute-of-week value (0 = Monday 00:00;
// raw / 1440 selects the weekday, raw % 1440 the minute of that day) as
// "Day HH:MM".
func formatWeektime(raw int64) string {
	day := (raw / (24 * 60)) % 7
	if day < 0 {
		day += 7
	}
	minutes := raw % (24 * 60)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%s %02d:%02d", weekdayNames[day], minutes/60, minutes%60)
}

// formatDateTime renders a raw value as seconds-since-epoch in UTC. The
// target timezone is a presentation-layer concern the core does not
// decide on behalf of the caller.
func formatDateTime(raw int64) string {
	return fmt.Sprintf("%d", raw)
}
