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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/rs/zerolog/log"
)

// ErrAlreadyRunning is returned when another live process holds the pid file.
var ErrAlreadyRunning = errors.New("another instance is already running")

// InstanceLock is a pid file marking this process as the only one using
// the data directory. The ledger lock is process local, so a second
// instance would race on the data file.
type InstanceLock struct {
	path string
}

// ReadPid returns the pid recorded in the pid file in dir, or 0 if there
// is none.
func ReadPid(dir string) (int, error) {
	//nolint:gosec // pid file in our own data dir
	data, err := os.ReadFile(filepath.Join(dir, config.PidFile))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

// AcquireInstance writes the current pid to dir. A stale or unreadable pid
// file is replaced.
func AcquireInstance(dir string) (*InstanceLock, error) {
	pid, err := ReadPid(dir)
	if err != nil {
		log.Warn().Err(err).Msg("replacing unreadable pid file")
	} else if pid > 0 && pid != os.Getpid() {
		proc, findErr := os.FindProcess(pid)
		if findErr == nil && IsProcessRunning(proc) {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		log.Info().Int("pid", pid).Msg("replacing stale pid file")
	}

	path := filepath.Join(dir, config.PidFile)
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}
	return &InstanceLock{path: path}, nil
}

// Release removes the pid file.
func (l *InstanceLock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}
