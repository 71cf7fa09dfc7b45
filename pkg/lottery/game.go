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

package lottery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var ErrNoChances = errors.New("no lottery chances left")

// DefaultPace is the delay between reveals in a multi-play.
const DefaultPace = time.Second

// Spender is the part of the ledger a draw spends from.
type Spender interface {
	Use() (bool, error)
}

// Recorder stores draw results. Failures are logged and never fail a play.
type Recorder interface {
	Record(r Result) error
}

// OddsSource is read before each draw so config reloads apply at once.
type OddsSource func() Odds

type Game struct {
	spender  Spender
	recorder Recorder
	drawer   *Drawer
	odds     OddsSource
	clock    clockwork.Clock
	Pace     time.Duration
}

// NewGame wires a game. recorder and clock may be nil.
func NewGame(spender Spender, recorder Recorder, drawer *Drawer, odds OddsSource, clock clockwork.Clock) *Game {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if odds == nil {
		odds = func() Odds { return DefaultOdds }
	}
	return &Game{
		spender:  spender,
		recorder: recorder,
		drawer:   drawer,
		odds:     odds,
		clock:    clock,
		Pace:     DefaultPace,
	}
}

func (g *Game) draw(batch string, roll int) (Result, error) {
	ok, err := g.spender.Use()
	if err != nil {
		return Result{}, fmt.Errorf("failed to spend chance: %w", err)
	}
	if !ok {
		return Result{}, ErrNoChances
	}

	outcome, prize := g.drawer.Draw(g.odds())
	res := Result{
		Time:    g.clock.Now(),
		Batch:   batch,
		Outcome: outcome,
		Prize:   prize,
		Roll:    roll,
	}

	log.Info().
		Str("batch", batch).
		Int("roll", roll).
		Stringer("outcome", outcome).
		Int("prize", prize).
		Msg("lottery: draw")

	if g.recorder != nil {
		if err := g.recorder.Record(res); err != nil {
			log.Error().Err(err).Msg("lottery: failed to record draw")
		}
	}

	return res, nil
}

// Play spends one chance and draws once.
func (g *Game) Play() (Result, error) {
	return g.draw(uuid.New().String(), 0)
}

// PlayMulti draws up to n times, one reveal per Pace, calling onResult after
// each. It stops early with ErrNoChances once the ledger is empty, or with
// the context error if ctx is cancelled. Results drawn so far are returned
// either way.
func (g *Game) PlayMulti(ctx context.Context, n int, onResult func(Result)) ([]Result, error) {
	limit := rate.Inf
	if g.Pace > 0 {
		limit = rate.Every(g.Pace)
	}
	limiter := rate.NewLimiter(limit, 1)

	batch := uuid.New().String()
	results := make([]Result, 0, max(n, 0))

	for i := range n {
		if err := g.wait(ctx, limiter); err != nil {
			return results, fmt.Errorf("multi-play interrupted: %w", err)
		}

		res, err := g.draw(batch, i+1)
		if err != nil {
			return results, err
		}

		results = append(results, res)
		if onResult != nil {
			onResult(res)
		}
	}

	return results, nil
}

// wait blocks until limiter allows the next reveal, timed on g.clock.
func (g *Game) wait(ctx context.Context, limiter *rate.Limiter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := g.clock.Now()
	delay := limiter.ReserveN(now, 1).DelayFrom(now)
	if delay <= 0 {
		return nil
	}

	timer := g.clock.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
