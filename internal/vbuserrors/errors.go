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

// Package vbuserrors declares the error kinds shared across the decoding
// and recording pipeline (spec.md §7): soft lookup failures returned as
// absence, and fatal structural failures carrying diagnostic context.
package vbuserrors

import (
	"errors"
	"fmt"
)

// Soft lookup failures on the specification engine. Callers should treat
// these as "not found", not as a fatal condition.
var (
	ErrUnknownUnit   = errors.New("vbus: unknown unit")
	ErrUnknownPacket = errors.New("vbus: unknown packet template")
	ErrUnknownField  = errors.New("vbus: unknown field")
	ErrNeedMoreData  = errors.New("vbus: need more data")
)

// SpecFailureKind discriminates why a VSF file failed to load.
type SpecFailureKind int

const (
	SpecBadMagic SpecFailureKind = iota
	SpecLengthMismatch
	SpecOffsetOutOfRange
	SpecUnterminatedString
	SpecBadDatecode
	SpecLanguageCountMismatch
	SpecTruncated
)

func (k SpecFailureKind) String() string {
	switch k {
	case SpecBadMagic:
		return "bad magic"
	case SpecLengthMismatch:
		return "length mismatch"
	case SpecOffsetOutOfRange:
		return "offset out of range"
	case SpecUnterminatedString:
		return "unterminated string"
	case SpecBadDatecode:
		return "bad datecode"
	case SpecLanguageCountMismatch:
		return "language count mismatch"
	case SpecTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// SpecError is returned by the VSF loader on any structural failure.
// It is always fatal to the load: partial success is not permitted.
type SpecError struct {
	Kind   SpecFailureKind
	Offset int
	Detail string
}

func (e *SpecError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("vbus: corrupt specification file at offset %d: %s", e.Offset, e.Kind)
	}
	return fmt.Sprintf("vbus: corrupt specification file at offset %d: %s (%s)", e.Offset, e.Kind, e.Detail)
}

// RecordingFailureKind discriminates why a recording stream failed.
type RecordingFailureKind int

const (
	RecordingBadLength RecordingFailureKind = iota
	RecordingNonMonotonicTimestamp
	RecordingTruncatedBody
)

func (k RecordingFailureKind) String() string {
	switch k {
	case RecordingBadLength:
		return "impossible length prefix"
	case RecordingNonMonotonicTimestamp:
		return "non-monotonic timestamp"
	case RecordingTruncatedBody:
		return "truncated record body"
	default:
		return "unknown"
	}
}

// RecordingError is returned by the recording reader on a structural
// failure in the persisted stream. Fatal to the stream.
type RecordingError struct {
	Kind   RecordingFailureKind
	Offset int64
	Detail string
}

func (e *RecordingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("vbus: corrupt recording at offset %d: %s", e.Offset, e.Kind)
	}
	return fmt.Sprintf("vbus: corrupt recording at offset %d: %s (%s)", e.Offset, e.Kind, e.Detail)
}
