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

package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch reloads the config whenever the file changes on disk and calls
// onReload after each successful reload. The parent directory is watched
// rather than the file, since most editors save by replacing the file.
// The watcher is closed when ctx is done.
func (c *Instance) Watch(ctx context.Context, onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(c.cfgPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	target := filepath.Clean(c.cfgPath)

	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				log.Error().Err(err).Msg("error closing config watcher")
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := c.Load(); err != nil {
					log.Warn().Err(err).Msg("config reload failed, keeping previous values")
					continue
				}
				log.Info().Msg("config reloaded")
				if onReload != nil {
					onReload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Msgf("error in config watcher: %s", err)
			}
		}
	}()

	return nil
}
