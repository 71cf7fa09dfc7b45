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

package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ZaparooProject/dopamine-lottery/pkg/audio"
	"github.com/ZaparooProject/dopamine-lottery/pkg/database/drawdb"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/ZaparooProject/dopamine-lottery/pkg/lottery"
	"github.com/ZaparooProject/dopamine-lottery/pkg/tracker"
	"github.com/rs/zerolog/log"
)

const (
	suggestTimeout = 2 * time.Second
	maxSuggestions = 3
)

// soundCallbacks plays the chance and milestone sounds on the tracker
// goroutine, then queues the event for the front end. A front end queue
// that drops events never loses a sound.
type soundCallbacks struct {
	next  tracker.Callbacks
	queue tracker.UIQueue
	svc   *Service
}

func (c soundCallbacks) OnTick(elapsed string) {
	c.queue(func() { c.next.OnTick(elapsed) })
}

func (c soundCallbacks) OnChancesChanged(total int) {
	c.queue(func() { c.next.OnChancesChanged(total) })
}

func (c soundCallbacks) OnMilestone(total int) {
	path, enabled := c.svc.cfg.MilestoneSoundPath(c.svc.dirs.DataDir)
	audio.PlayConfigured(c.svc.player, path, enabled && c.svc.cfg.AudioEnabled(), audio.CueMilestone)
	c.queue(func() { c.next.OnMilestone(total) })
}

func (c soundCallbacks) OnChanceAdded(total int) {
	path, enabled := c.svc.cfg.ChanceSoundPath(c.svc.dirs.DataDir)
	audio.PlayConfigured(c.svc.player, path, enabled && c.svc.cfg.AudioEnabled(), audio.CueChance)
	c.queue(func() { c.next.OnChanceAdded(total) })
}

func (s *Service) cue(c audio.Cue) {
	audio.PlayConfigured(s.player, "", s.cfg.AudioEnabled(), c)
}

func (s *Service) resultCue(r lottery.Result) {
	switch r.Outcome {
	case lottery.OutcomeWin:
		s.cue(audio.CueWin)
	case lottery.OutcomeJackpot:
		s.cue(audio.CueJackpot)
	default:
		s.cue(audio.CueFail)
	}
}

// Track starts tracking the executable at path, replacing any current
// session, and remembers it as the last tracked app. Callbacks are
// delivered through queue.
func (s *Service) Track(path string, cb tracker.Callbacks, queue tracker.UIQueue) (*tracker.Session, error) {
	if cb == nil {
		cb = tracker.CallbackFuncs{}
	}
	if queue == nil {
		queue = tracker.Immediate
	}

	sounds := soundCallbacks{next: cb, queue: queue, svc: s}
	session, err := s.tracker.Start(s.ctx, path, s.trackerConfig, sounds, tracker.Immediate)
	if err != nil {
		return nil, err
	}

	if s.cfg.LastApp() != path {
		s.cfg.SetLastApp(path)
		if err := s.cfg.Save(); err != nil {
			log.Error().Err(err).Msg("error saving last tracked app")
		}
	}

	s.cue(audio.CueStart)
	return session, nil
}

// Suggest returns running process names resembling the app at path, for
// when path is not running. It returns nil if the app is running or the
// process list is unavailable.
func (s *Service) Suggest(ctx context.Context, path string) []string {
	namer, ok := s.procs.(tracker.ProcessNamer)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	names, err := namer.Names(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("error listing processes for suggestions")
		return nil
	}
	return tracker.Suggest(helpers.ExeName(path), names, maxSuggestions)
}

// TrackLast resumes tracking the most recently tracked app.
func (s *Service) TrackLast(cb tracker.Callbacks, queue tracker.UIQueue) (*tracker.Session, error) {
	last := s.cfg.LastApp()
	if last == "" {
		return nil, tracker.ErrNoTarget
	}
	return s.Track(last, cb, queue)
}

// TogglePause pauses or resumes the current session and returns whether
// it is now paused.
func (s *Service) TogglePause() (bool, error) {
	session := s.tracker.Current()
	if session == nil {
		return false, ErrNotTracking
	}
	paused := session.TogglePause()
	log.Info().Bool("paused", paused).Str("target", session.Target()).Msg("tracking pause toggled")
	return paused, nil
}

// StopTracking stops the current session, if any, after it has flushed.
func (s *Service) StopTracking() {
	s.tracker.Stop()
}

// Tracking returns the active session or nil.
func (s *Service) Tracking() *tracker.Session {
	return s.tracker.Current()
}

func (s *Service) Chances() int {
	return s.store.Chances()
}

func (s *Service) LastApp() string {
	return s.cfg.LastApp()
}

// Play spends one chance on a single draw.
func (s *Service) Play() (lottery.Result, error) {
	s.cue(audio.CueClick)
	res, err := s.game.Play()
	if errors.Is(err, lottery.ErrNoChances) {
		s.cue(audio.CueFail)
		return res, err
	} else if err != nil {
		log.Error().Err(err).Msg("error playing lottery")
		return res, err
	}
	s.resultCue(res)
	return res, nil
}

// CanPlayMulti reports whether there are enough chances for a full
// multi-play.
func (s *Service) CanPlayMulti() bool {
	return s.store.Chances() >= s.cfg.RollsPerMulti()
}

// PlayMulti draws rolls_per_multi times, one per second, calling onResult
// after each reveal. It stops early when chances run out.
func (s *Service) PlayMulti(ctx context.Context, onResult func(lottery.Result)) ([]lottery.Result, error) {
	results, err := s.game.PlayMulti(ctx, s.cfg.RollsPerMulti(), func(r lottery.Result) {
		s.resultCue(r)
		if onResult != nil {
			onResult(r)
		}
	})
	if errors.Is(err, lottery.ErrNoChances) {
		s.cue(audio.CueFail)
	}
	return results, err
}

// Stats summarises the draw history.
func (s *Service) Stats() (drawdb.Stats, error) {
	return s.draws.Stats()
}

// Recent returns the latest draws, newest first.
func (s *Service) Recent(limit int) ([]drawdb.Record, error) {
	return s.draws.Recent(limit)
}

// ExportCSV writes the full draw history as CSV.
func (s *Service) ExportCSV(w io.Writer) error {
	return s.draws.ExportCSV(w)
}
