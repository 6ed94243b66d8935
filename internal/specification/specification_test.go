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

package specification_test

import (
	"testing"

	"github.com/resol-vbus/govbus/internal/specfile"
	"github.com/resol-vbus/govbus/internal/specification"
	"github.com/resol-vbus/govbus/internal/vbusid"
	"github.com/resol-vbus/govbus/internal/vbuserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func loadDefault(t *testing.T) *specification.Specification {
	t.Helper()
	f, err := specfile.Default()
	require.NoError(t, err)
	return specification.New(f)
}

// TestScenarioS3 is spec.md §8's concrete scenario S3: load the embedded
// default spec and query PacketId(dest=0x0010, src=0x7E11, command=0x0100);
// expect a non-empty field list whose first field id_string matches the
// embedded default VSF's documented value.
func TestScenarioS3(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)

	id := vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100}
	ps, ok := spec.PacketSpecFor(id)
	require.True(t, ok)
	require.NotEmpty(t, ps.Fields)
	assert.Equal(t, "012_4_0", ps.Fields[0].FieldId)
}

// TestScenarioS6 is spec.md §8's concrete scenario S6: a field with parts
// [(0,0xFF,1),(1,0xFF,256),(2,0xFF,65536),(3,0x80,-16777216)] and frame
// data [0x01,0x02,0x03,0x80], sign extension applied via the high part's
// negative factor. The expected total is computed from the formula
// spec.md itself states (acc += (frame_data[offset] AND bitmask) *
// factor): 0x01*1 + 0x02*256 + 0x03*65536 + 0x80*-16777216 = -2147286527.
func TestScenarioS6(t *testing.T) {
	t.Parallel()
	field := &specification.Field{
		FieldId: "test",
		Parts: []specfile.Part{
			{Offset: 0, Bitmask: 0xFF, Factor: 1},
			{Offset: 1, Bitmask: 0xFF, Factor: 256},
			{Offset: 2, Bitmask: 0xFF, Factor: 65536},
			{Offset: 3, Bitmask: 0x80, Factor: -16777216},
		},
	}
	raw, err := specification.RawValue(field, []byte{0x01, 0x02, 0x03, 0x80})
	require.NoError(t, err)
	assert.Equal(t, int64(-2147286527), raw)
}

func TestFieldSpecForUnknownPacket(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)
	_, err := spec.FieldSpecFor(vbusid.PacketFieldId{
		PacketId: vbusid.PacketId{DestinationAddress: 0xFFFF, SourceAddress: 0xFFFF, Command: 0xFFFF},
		FieldId:  "whatever",
	})
	assert.ErrorIs(t, err, vbuserrors.ErrUnknownPacket)
}

func TestFieldSpecForUnknownField(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)
	_, err := spec.FieldSpecFor(vbusid.PacketFieldId{
		PacketId: vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100},
		FieldId:  "does-not-exist",
	})
	assert.ErrorIs(t, err, vbuserrors.ErrUnknownField)
}

func TestFieldSpecForExactMatch(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)
	field, err := spec.FieldSpecFor(vbusid.PacketFieldId{
		PacketId: vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100},
		FieldId:  "012_4_0",
	})
	require.NoError(t, err)
	assert.Equal(t, int8(1), field.Precision)
}

func TestUnitByCodeUnknown(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)
	_, err := spec.UnitByCode("NotARealUnit")
	assert.ErrorIs(t, err, vbuserrors.ErrUnknownUnit)
}

func TestUnitByCodeKnown(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)
	u, err := spec.UnitByCode("DegreesCelsius")
	require.NoError(t, err)
	assert.NotZero(t, u.UnitId)
}

func TestF64Scaling(t *testing.T) {
	t.Parallel()
	field := &specification.Field{Precision: 1}
	assert.InDelta(t, 12.3, specification.F64(field, 123), 1e-9)

	field0 := &specification.Field{Precision: 0}
	assert.InDelta(t, 123.0, specification.F64(field0, 123), 1e-9)
}

func TestFormatValueAppendsUnit(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)
	field, err := spec.FieldSpecFor(vbusid.PacketFieldId{
		PacketId: vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100},
		FieldId:  "012_4_0",
	})
	require.NoError(t, err)

	id := vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100}
	text := spec.FormatValue(id, field, 123, language.English)
	assert.Equal(t, "12.3 deg C", text)
}

func TestFormatValueIsMemoized(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)
	field, err := spec.FieldSpecFor(vbusid.PacketFieldId{
		PacketId: vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100},
		FieldId:  "012_4_0",
	})
	require.NoError(t, err)

	id := vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100}
	first := spec.FormatValue(id, field, 123, language.English)
	second := spec.FormatValue(id, field, 123, language.English)
	assert.Equal(t, first, second)
}

// TestFormatValueMemoKeyIncludesLocale guards against the memoization key
// collapsing distinct locales onto the same cache entry: the same
// (packet id, field, raw) pair must render with each locale's own
// grouping/decimal separators even after the other locale has already
// populated the cache.
func TestFormatValueMemoKeyIncludesLocale(t *testing.T) {
	t.Parallel()
	spec := loadDefault(t)
	field, err := spec.FieldSpecFor(vbusid.PacketFieldId{
		PacketId: vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100},
		FieldId:  "012_4_0",
	})
	require.NoError(t, err)

	id := vbusid.PacketId{DestinationAddress: 0x0010, SourceAddress: 0x7E11, Command: 0x0100}
	const raw = 12345 // renders as 1234.5, large enough for grouping to differ by locale

	en := spec.FormatValue(id, field, raw, language.AmericanEnglish)
	de := spec.FormatValue(id, field, raw, language.German)
	assert.NotEqual(t, en, de, "en-US and de grouping/decimal separators must differ for this value")

	// Re-querying each locale after the other has populated the cache
	// must still return that locale's own rendering, not the other
	// locale's cached text for the same (packet id, field, raw) shape.
	assert.Equal(t, en, spec.FormatValue(id, field, raw, language.AmericanEnglish))
	assert.Equal(t, de, spec.FormatValue(id, field, raw, language.German))
}
