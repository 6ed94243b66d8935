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

package specfile

import (
	"bytes"
	_ "embed"
	"io"
	"sync"

	"github.com/ulikunitz/xz"
)

//go:embed default_spec-date.txt
var builtInDateStr string

//go:embed default_spec.vsf.xz
var compressedDefaultSpec []byte

var (
	defaultOnce sync.Once
	defaultFile *File
	defaultErr  error
)

// BuiltInDate is the datecode embedded alongside the default VSF, for
// callers that want to compare it against a remote spec's datecode
// before deciding whether to fetch an update. It is informational only;
// the core never performs network I/O.
func BuiltInDate() string { return builtInDateStr }

// Default decompresses and parses the VSF embedded in the binary. The
// result is parsed once and cached; callers share the same *File.
func Default() (*File, error) {
	defaultOnce.Do(func() {
		r, err := xz.NewReader(bytes.NewReader(compressedDefaultSpec))
		if err != nil {
			defaultErr = err
			return
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			defaultErr = err
			return
		}
		defaultFile, defaultErr = Parse(raw)
	})
	return defaultFile, defaultErr
}
