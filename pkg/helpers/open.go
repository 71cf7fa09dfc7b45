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
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// MaxPathLength bounds paths handed to the desktop opener.
const MaxPathLength = 4096

// OpenCommand returns the desktop's "open with default app" command.
func OpenCommand() string {
	switch runtime.GOOS {
	case "windows":
		return "explorer"
	case "darwin":
		return "open"
	default:
		return "xdg-open"
	}
}

// ValidateOpenPath checks path is a non-empty absolute path of sane length.
func ValidateOpenPath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("path too long: %d bytes (max %d)", len(path), MaxPathLength)
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	return nil
}

// OpenPath opens a file or directory with the default desktop app. The
// opener is started but not waited on.
func OpenPath(path string) error {
	if err := ValidateOpenPath(path); err != nil {
		return err
	}
	//nolint:gosec // validated local path
	cmd := exec.CommandContext(context.Background(), OpenCommand(), path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open path: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
