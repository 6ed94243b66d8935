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

// Package config declares the settings for the vbusdump demonstration
// CLI. The decode/record core (internal/frame, internal/framing,
// internal/specfile, internal/specification, internal/dataset,
// internal/recording) takes no configuration of its own (spec.md §5:
// "no connection management, no timers"); this package exists only to
// drive the CLI.
package config

// LogLevel selects the minimum severity emitted by the CLI's logger.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config is the vbusdump configuration, loaded by configulator from
// flags and environment variables and validated before use.
type Config struct {
	LogLevel LogLevel `name:"log-level" default:"info"`

	// Input is the path to read from: a raw VBus octet stream when
	// Recording is false, or a recording container when true.
	Input string `name:"input"`
	// Recording selects how Input is interpreted.
	Recording bool `name:"recording" default:"false"`
	// SpecFile optionally overrides the embedded default VSF.
	SpecFile string `name:"spec-file"`

	// Output, when set, re-records everything read from Input as a
	// LiveData recording.
	Output string `name:"output"`

	// MinTimestamp and MaxTimestamp restrict which records are read
	// from a recording Input; zero values disable the respective bound.
	MinTimestamp int64 `name:"min-timestamp"`
	MaxTimestamp int64 `name:"max-timestamp"`
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}
	if c.Input == "" {
		return ErrInputRequired
	}
	if c.MaxTimestamp != 0 && c.MinTimestamp > c.MaxTimestamp {
		return ErrInvalidTimestampWindow
	}
	return nil
}
