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

package config_test

import (
	"testing"

	"github.com/resol-vbus/govbus/internal/config"
	"github.com/stretchr/testify/assert"
)

func makeValidConfig() config.Config {
	return config.Config{
		LogLevel: config.LogLevelInfo,
		Input:    "capture.bin",
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, makeValidConfig().Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.LogLevel = "chatty"
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)
}

func TestValidateRejectsMissingInput(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.Input = ""
	assert.ErrorIs(t, cfg.Validate(), config.ErrInputRequired)
}

func TestValidateRejectsInvertedTimestampWindow(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.Recording = true
	cfg.MinTimestamp = 2000
	cfg.MaxTimestamp = 1000
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidTimestampWindow)
}

func TestValidateAllowsZeroMaxTimestamp(t *testing.T) {
	t.Parallel()
	cfg := makeValidConfig()
	cfg.MinTimestamp = 5000
	cfg.MaxTimestamp = 0
	assert.NoError(t, cfg.Validate())
}
