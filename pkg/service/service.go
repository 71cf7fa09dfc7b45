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

// Package service wires the ledger, tracker, lottery, draw history and
// audio together and exposes the operations the front ends call.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/dopamine-lottery/pkg/audio"
	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/ZaparooProject/dopamine-lottery/pkg/database/drawdb"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers/syncutil"
	"github.com/ZaparooProject/dopamine-lottery/pkg/ledger"
	"github.com/ZaparooProject/dopamine-lottery/pkg/lottery"
	"github.com/ZaparooProject/dopamine-lottery/pkg/tracker"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var ErrNotTracking = errors.New("not tracking any app")

// Options configures Start. Zero values select the real implementations.
type Options struct {
	Cfg    *config.Instance
	Fs     afero.Fs
	Procs  tracker.ProcessLister
	Player audio.Player
	Clock  clockwork.Clock
	Seed   *int64
	Dirs   helpers.Dirs
}

type Service struct {
	cfg     *config.Instance
	store   *ledger.Store
	draws   *drawdb.Database
	player  audio.Player
	procs   tracker.ProcessLister
	tracker *tracker.Manager
	game    *lottery.Game
	ctx     context.Context //nolint:containedctx // service lifetime
	cancel  context.CancelFunc
	done    chan struct{}
	dirs    helpers.Dirs
	stopMu  syncutil.Mutex
}

func setupEnvironment(dirs helpers.Dirs) error {
	log.Info().Msg("creating app directories")
	if err := helpers.EnsureDirectories(dirs); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dirs.DataDir, config.AssetsDir), 0o750); err != nil {
		return fmt.Errorf("failed to create assets directory: %w", err)
	}
	return nil
}

// importLastApp moves the old last_app.txt into the config file the first
// time it is seen, then renames it so it is not imported again.
func importLastApp(fs afero.Fs, cfg *config.Instance, dataDir string) {
	path := filepath.Join(dataDir, config.LastAppTxt)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return
	}

	last := strings.TrimSpace(string(data))
	if last != "" && cfg.LastApp() == "" {
		cfg.SetLastApp(last)
		if err := cfg.Save(); err != nil {
			log.Error().Err(err).Msg("error saving imported last app")
			return
		}
		log.Info().Str("app", last).Msg("imported last tracked app")
	}

	if err := fs.Rename(path, path+".migrated"); err != nil {
		log.Warn().Err(err).Msg("failed to rename last_app.txt")
	}
}

//nolint:gocritic // options struct copied once at startup
func Start(opts Options) (*Service, error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	if opts.Cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Procs == nil {
		opts.Procs = tracker.SystemProcesses{}
	}
	if opts.Player == nil {
		opts.Player = audio.NewMalgoPlayer()
	}

	if err := setupEnvironment(opts.Dirs); err != nil {
		log.Error().Err(err).Msg("error setting up environment")
		return nil, err
	}

	log.Info().Msg("opening ledger")
	store, err := ledger.Open(opts.Fs, opts.Dirs.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	importLastApp(opts.Fs, opts.Cfg, opts.Dirs.DataDir)

	log.Info().Msg("opening draw history")
	draws, err := drawdb.Open(filepath.Join(opts.Dirs.DataDir, config.DrawsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open draw history: %w", err)
	}

	var seed int64
	if opts.Seed != nil {
		seed = *opts.Seed
	} else if seed, err = lottery.NewSeed(); err != nil {
		_ = draws.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cfg:     opts.Cfg,
		dirs:    opts.Dirs,
		store:   store,
		draws:   draws,
		player:  opts.Player,
		procs:   opts.Procs,
		tracker: tracker.NewManager(store, opts.Procs, opts.Clock),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.game = lottery.NewGame(store, draws, lottery.NewDrawer(seed), s.odds, opts.Clock)

	log.Info().Msg("starting config watcher")
	if err := opts.Cfg.Watch(ctx, s.onConfigReload); err != nil {
		log.Error().Err(err).Msg("config watcher failed to start (continuing without hot reload)")
	}

	log.Info().Int("chances", store.Chances()).Msg("service started")
	return s, nil
}

func (s *Service) onConfigReload() {
	s.player.ClearFileCache()
	if s.cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (s *Service) odds() lottery.Odds {
	l := s.cfg.Lottery()
	return lottery.Odds{
		WinChance:     l.WinChance,
		JackpotChance: l.JackpotChance,
		MinPrize:      l.MinPrize,
		MaxPrize:      l.MaxPrize,
		JackpotPrize:  l.JackpotPrize,
	}
}

func (s *Service) trackerConfig() tracker.Config {
	return tracker.Config{
		TimeRequired:  s.cfg.TimeRequired(),
		TickInterval:  s.cfg.TickInterval(),
		RollsPerMulti: s.cfg.RollsPerMulti(),
	}
}

// Config returns the live config instance.
func (s *Service) Config() *config.Instance {
	return s.cfg
}

func (s *Service) Dirs() helpers.Dirs {
	return s.dirs
}

// Done is closed once Stop has finished.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Stop ends tracking, flushes progress and closes the draw history.
func (s *Service) Stop() error {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()

	select {
	case <-s.done:
		return nil
	default:
	}

	log.Info().Msg("stopping service")
	s.tracker.Stop()
	s.cancel()

	err := s.draws.Close()
	close(s.done)
	if err != nil {
		return fmt.Errorf("failed to close draw history: %w", err)
	}
	log.Info().Msg("service stopped")
	return nil
}
