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

// Package vbusdump implements the demonstration CLI for govbus: decode a
// captured octet stream or replay a recording, aggregate it into a
// DataSet, print a raw field dump, and optionally re-record the stream
// (SPEC_FULL.md §10, §12). It is not "the formatter CLI" spec.md
// excludes: no unit-aware, locale-formatted presentation layer is built
// here, only raw resolved values for smoke-testing the pipeline.
package vbusdump

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/lmittmann/tint"
	"github.com/resol-vbus/govbus/internal/config"
	"github.com/resol-vbus/govbus/internal/dataset"
	"github.com/resol-vbus/govbus/internal/framing"
	"github.com/resol-vbus/govbus/internal/recording"
	"github.com/resol-vbus/govbus/internal/specfile"
	"github.com/resol-vbus/govbus/internal/specification"
	"github.com/spf13/cobra"
)

// NewCommand builds the vbusdump root command, with defaults sourced
// from configulator and overridable via flags.
func NewCommand(version, commit string) *cobra.Command {
	cfg, err := configulator.New[config.Config]().Default()
	if err != nil {
		// Default only fails on a malformed Config struct tag, a
		// programmer error caught at startup, not runtime input.
		panic(err)
	}

	cmd := &cobra.Command{
		Use:     "vbusdump",
		Short:   "Decode or replay a RESOL VBus capture",
		Version: fmt.Sprintf("%s - %s", version, commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, &cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar((*string)(&cfg.LogLevel), "log-level", string(cfg.LogLevel), "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.Input, "input", cfg.Input, "path to a raw octet capture, or a recording when --recording is set")
	flags.BoolVar(&cfg.Recording, "recording", cfg.Recording, "interpret --input as a recording container rather than a raw capture")
	flags.StringVar(&cfg.SpecFile, "spec-file", cfg.SpecFile, "VSF file to use instead of the embedded default")
	flags.StringVar(&cfg.Output, "output", cfg.Output, "re-record everything read from --input to this path")
	flags.Int64Var(&cfg.MinTimestamp, "min-timestamp", cfg.MinTimestamp, "lower bound (ms since epoch) when replaying a recording")
	flags.Int64Var(&cfg.MaxTimestamp, "max-timestamp", cfg.MaxTimestamp, "upper bound (ms since epoch) when replaying a recording")

	return cmd
}

func runRoot(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogger(cfg)

	spec, err := loadSpecification(cfg)
	if err != nil {
		return fmt.Errorf("failed to load specification: %w", err)
	}

	in, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	var out *recording.LiveDataWriter
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = recording.NewLiveDataWriter(f)
	}

	ds := dataset.New()
	if cfg.Recording {
		err = replayRecording(in, cfg, ds, out)
	} else {
		err = decodeLiveStream(in, ds, out)
	}
	if err != nil {
		return fmt.Errorf("failed to process input: %w", err)
	}

	dumpDataSet(cmd.OutOrStdout(), ds, spec)
	return nil
}

// setupLogger configures the structured logger, matching the teacher's
// per-level tint.Handler selection (internal/cmd/root.go).
func setupLogger(cfg *config.Config) {
	var logger *slog.Logger
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)
}

// loadSpecification parses cfg.SpecFile if given, otherwise the embedded
// default VSF.
func loadSpecification(cfg *config.Config) (*specification.Specification, error) {
	if cfg.SpecFile == "" {
		f, err := specfile.Default()
		if err != nil {
			return nil, err
		}
		return specification.New(f), nil
	}
	raw, err := os.ReadFile(cfg.SpecFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	f, err := specfile.Parse(raw)
	if err != nil {
		return nil, err
	}
	return specification.New(f), nil
}

// decodeLiveStream reads raw wire octets from r, decoding and merging
// every recovered frame into ds, optionally mirroring each frame to out.
func decodeLiveStream(r io.Reader, ds *dataset.DataSet, out *recording.LiveDataWriter) error {
	buf := framing.NewLiveDataBuffer(slog.Default())
	stats := framing.NewStats()
	chunk := make([]byte, 4096)

	for {
		n, readErr := r.Read(chunk)
		if n > 0 {
			buf.Append(chunk[:n])
			if err := drainFrames(buf, stats, ds, out); err != nil {
				return err
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}
	}
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func drainFrames(buf *framing.LiveDataBuffer, stats *framing.Stats, ds *dataset.DataSet, out *recording.LiveDataWriter) error {
	for {
		now := nowMillis()
		d, ok, err := buf.Read(stats, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		ds.AddData(d)
		if out != nil {
			if err := out.WriteFrame(d, d.Header().Channel, d.Timestamp()); err != nil {
				return err
			}
		}
	}
}

// replayRecording replays a recording container, filtering by the
// configured timestamp window and mirroring each frame to out.
func replayRecording(r io.Reader, cfg *config.Config, ds *dataset.DataSet, out *recording.LiveDataWriter) error {
	lr := recording.NewLiveDataReader(r)
	if cfg.MinTimestamp != 0 || cfg.MaxTimestamp != 0 {
		max := cfg.MaxTimestamp
		if max == 0 {
			max = 1<<63 - 1
		}
		lr.SetWindow(cfg.MinTimestamp, max)
	}

	for {
		rec, err := lr.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		ds.AddData(rec.Data)
		if out != nil {
			if err := out.WriteFrame(rec.Data, rec.Channel, rec.Timestamp); err != nil {
				return err
			}
		}
	}
}

// dumpDataSet prints a summary line, then one line per entry with its
// identity and kind. For a Packet entry it follows with one line per
// resolved field (the scaled value, without unit or locale formatting)
// when spec has a template for it, or one line with its raw frame payload
// bytes otherwise.
func dumpDataSet(w io.Writer, ds *dataset.DataSet, spec *specification.Specification) {
	fmt.Fprintf(w, "dataset: %d entries, timestamp=%d\n", ds.Len(), ds.Timestamp())
	for _, d := range ds.Iter() {
		id := d.Id()
		fmt.Fprintf(w, "  %s kind=%s\n", id.String(), d.Kind)

		p, ok := d.AsPacket()
		if !ok {
			continue
		}
		pspec, ok := spec.PacketSpecFor(id)
		if !ok {
			fmt.Fprintf(w, "    (no spec) frame_data=% x\n", p.FrameData)
			continue
		}
		for i := range pspec.Fields {
			field := &pspec.Fields[i]
			raw, err := specification.RawValue(field, p.FrameData)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "    %s = %g\n", field.FieldId, specification.F64(field, raw))
		}
	}
}
