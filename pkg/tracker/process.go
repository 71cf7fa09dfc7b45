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

package tracker

import (
	"context"
	"fmt"

	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessLister answers whether an executable is currently running.
type ProcessLister interface {
	Running(ctx context.Context, exeName string) (bool, error)
}

// ProcessNamer lists the image names of running processes.
type ProcessNamer interface {
	Names(ctx context.Context) ([]string, error)
}

// SystemProcesses checks the OS process list through gopsutil.
type SystemProcesses struct{}

// Running reports whether any process image name matches exeName,
// ignoring case. Processes that exit or deny access mid-scan are skipped.
func (SystemProcesses) Running(ctx context.Context, exeName string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}

	want := helpers.FoldName(exeName)
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if helpers.FoldName(name) == want {
			return true, nil
		}
	}

	return false, nil
}

// Names returns the image name of every readable process.
func (SystemProcesses) Names(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
