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

package specfile_test

import (
	"testing"

	"github.com/resol-vbus/govbus/internal/specfile"
	"github.com/resol-vbus/govbus/internal/vbuserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmbeddedDefault(t *testing.T) {
	t.Parallel()
	f, err := specfile.Default()
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, 2, f.LanguageCount)
	require.Len(t, f.PacketTemplates, 1)

	pt := f.PacketTemplates[0]
	assert.Equal(t, uint16(0x0010), pt.DestinationAddress)
	assert.Equal(t, uint16(0x7E11), pt.SourceAddress)
	assert.Equal(t, uint16(0x0100), pt.Command)
	require.Len(t, pt.Fields, 1)

	field := pt.Fields[0]
	assert.Equal(t, "012_4_0", f.Texts[field.FieldIdTextIndex])
	assert.Equal(t, int8(1), field.Precision)
	assert.Equal(t, specfile.FieldNumber, field.Type)
	require.Len(t, field.Parts, 2)
	assert.Equal(t, int32(1), field.Parts[0].Factor)
	assert.Equal(t, int32(256), field.Parts[1].Factor)
}

func TestParseRejectsBadMagic(t *testing.T) {
	t.Parallel()
	_, err := specfile.Parse([]byte("NOPE0000000000000000"))
	var specErr *vbuserrors.SpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, vbuserrors.SpecBadMagic, specErr.Kind)
}

func TestParseRejectsLengthMismatch(t *testing.T) {
	t.Parallel()
	f, err := specfile.Default()
	require.NoError(t, err)
	_ = f

	buf := []byte{'V', 'S', 'F', '1', 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0}
	_, err = specfile.Parse(buf)
	var specErr *vbuserrors.SpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, vbuserrors.SpecLengthMismatch, specErr.Kind)
}

func TestParseRejectsTruncated(t *testing.T) {
	t.Parallel()
	_, err := specfile.Parse([]byte{'V', 'S', 'F', '1', 16, 0, 0, 0})
	var specErr *vbuserrors.SpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, vbuserrors.SpecTruncated, specErr.Kind)
}

func TestParseRejectsBadDatecode(t *testing.T) {
	t.Parallel()
	buf := []byte{'V', 'S', 'F', '1',
		16, 0, 0, 0, // total_length = 16 (header only, empty pool/arrays would follow but we truncate deliberately to hit datecode validation first)
		0xFF, 0xFF, 0xFF, 0xFF, // datecode = absurd
		0, 0, 0, 0,
	}
	_, err := specfile.Parse(buf)
	var specErr *vbuserrors.SpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, vbuserrors.SpecBadDatecode, specErr.Kind)
}
