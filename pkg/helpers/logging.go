// Dopamine Lottery
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Dopamine Lottery.
//
// Dopamine Lottery is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Dopamine Lottery is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Dopamine Lottery.  If not, see <http://www.gnu.org/licenses/>.

package helpers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var logWriter io.Writer = os.Stderr

// LogWriter returns the writer set up by InitLogging, so later setup steps
// can rebuild the logger without losing the file output.
func LogWriter() io.Writer {
	return logWriter
}

// EnsureDirectories creates the config, data and log directories.
func EnsureDirectories(dirs Dirs) error {
	if err := os.MkdirAll(dirs.ConfigDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dirs.DataDir, 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(dirs.LogDir, 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// InitLogging points the global zerolog logger at a rotating log file in
// the log directory, plus any extra writers (usually a console writer).
func InitLogging(dirs Dirs, writers []io.Writer) error {
	if err := os.MkdirAll(dirs.LogDir, 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   filepath.Join(dirs.LogDir, config.LogFile),
		MaxSize:    1,
		MaxBackups: 2,
	}}

	if len(writers) > 0 {
		logWriters = append(logWriters, writers...)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logWriter = io.MultiWriter(logWriters...)
	log.Logger = log.Output(logWriter).
		With().Timestamp().Caller().Logger()

	return nil
}
