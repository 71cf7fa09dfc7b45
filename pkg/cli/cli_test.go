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

package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/ZaparooProject/dopamine-lottery/pkg/database/drawdb"
	"github.com/ZaparooProject/dopamine-lottery/pkg/ledger"
	"github.com/ZaparooProject/dopamine-lottery/pkg/lottery"
	"github.com/ZaparooProject/dopamine-lottery/pkg/tracker"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleProcs struct{}

func (idleProcs) Running(context.Context, string) (bool, error) {
	return false, nil
}

type fakeController struct {
	mgr      *tracker.Manager
	statsErr error
	results  []lottery.Result
	records  []drawdb.Record
	chances  int
	stopped  int
}

func newFakeController(t *testing.T) *fakeController {
	t.Helper()
	store, err := ledger.Open(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	return &fakeController{
		mgr: tracker.NewManager(store, idleProcs{}, clockwork.NewFakeClock()),
	}
}

func (f *fakeController) Track(path string, cb tracker.Callbacks, queue tracker.UIQueue) (*tracker.Session, error) {
	src := tracker.StaticConfig(tracker.Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 2})
	//nolint:wrapcheck // passthrough
	return f.mgr.Start(context.Background(), path, src, cb, queue)
}

func (f *fakeController) StopTracking() {
	f.stopped++
	f.mgr.Stop()
}

func (f *fakeController) Chances() int { return f.chances }

func (f *fakeController) Play() (lottery.Result, error) {
	if f.chances == 0 {
		return lottery.Result{}, lottery.ErrNoChances
	}
	f.chances--
	return lottery.Result{Outcome: lottery.OutcomeJackpot, Prize: 100}, nil
}

func (f *fakeController) PlayMulti(_ context.Context, onResult func(lottery.Result)) ([]lottery.Result, error) {
	for _, r := range f.results {
		onResult(r)
	}
	if len(f.results) == 0 {
		return nil, lottery.ErrNoChances
	}
	return f.results, nil
}

func (f *fakeController) Stats() (drawdb.Stats, error) {
	return drawdb.Stats{Plays: 3, Wins: 1, Jackpots: 1, Losses: 1, TotalPrize: 104}, f.statsErr
}

func (f *fakeController) Recent(limit int) ([]drawdb.Record, error) {
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeController) ExportCSV(w io.Writer) error {
	_, err := io.WriteString(w, "time,batch,outcome,id,roll,prize\n")
	return err
}

func parse(t *testing.T, args ...string) *Flags {
	t.Helper()
	flags := SetupFlags(flag.NewFlagSet("test", flag.ContinueOnError))
	exit, err := flags.Pre(args, io.Discard)
	require.NoError(t, err)
	require.False(t, exit)
	return flags
}

func TestPreVersion(t *testing.T) {
	t.Parallel()

	flags := SetupFlags(flag.NewFlagSet("test", flag.ContinueOnError))
	var out bytes.Buffer
	exit, err := flags.Pre([]string{"-version"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Equal(t, config.AppName+" v"+config.AppVersion+"\n", out.String())
}

func TestPreBadFlag(t *testing.T) {
	t.Parallel()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	flags := SetupFlags(set)
	exit, err := flags.Pre([]string{"-nope"}, io.Discard)
	require.Error(t, err)
	assert.True(t, exit)
}

func TestPostNoCommand(t *testing.T) {
	t.Parallel()

	flags := parse(t)
	ran, err := flags.Post(context.Background(), newFakeController(t), io.Discard)
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestPostChances(t *testing.T) {
	t.Parallel()

	ctl := newFakeController(t)
	ctl.chances = 7
	var out bytes.Buffer
	ran, err := parse(t, "-chances").Post(context.Background(), ctl, &out)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, "7\n", out.String())
}

func TestPostPlay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    string
		chances int
	}{
		{name: "no chances", chances: 0, want: "No lottery chances left!\n"},
		{name: "jackpot", chances: 2, want: "JACKPOT! You won $100!\nChances left: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctl := newFakeController(t)
			ctl.chances = tt.chances
			var out bytes.Buffer
			ran, err := parse(t, "-play").Post(context.Background(), ctl, &out)
			require.NoError(t, err)
			assert.True(t, ran)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestPostPlayMulti(t *testing.T) {
	t.Parallel()

	ctl := newFakeController(t)
	var out bytes.Buffer
	_, err := parse(t, "-play-multi").Post(context.Background(), ctl, &out)
	require.NoError(t, err)
	assert.Equal(t, "Not enough chances for a multi-play yet.\n", out.String())

	ctl.results = []lottery.Result{
		{Outcome: lottery.OutcomeWin, Prize: 4, Roll: 1},
		{Outcome: lottery.OutcomeLose, Roll: 2},
	}
	out.Reset()
	_, err = parse(t, "-play-multi").Post(context.Background(), ctl, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Roll 1: You won $4!\nRoll 2: Keep working!\n")
	assert.Contains(t, out.String(), "Total won: $4\n")
}

func TestPostStats(t *testing.T) {
	t.Parallel()

	ctl := newFakeController(t)
	var out bytes.Buffer
	_, err := parse(t, "-stats").Post(context.Background(), ctl, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Plays:     3")
	assert.Contains(t, out.String(), "Total won: $104")

	ctl.statsErr = errors.New("boom")
	_, err = parse(t, "-stats").Post(context.Background(), ctl, io.Discard)
	require.Error(t, err)
}

func TestPostHistory(t *testing.T) {
	t.Parallel()

	ctl := newFakeController(t)
	var out bytes.Buffer
	_, err := parse(t, "-history", "5").Post(context.Background(), ctl, &out)
	require.NoError(t, err)
	assert.Equal(t, "No draws yet.\n", out.String())

	ctl.records = []drawdb.Record{
		{Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Outcome: "win", Prize: 9},
		{Time: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC), Outcome: "lose"},
	}
	out.Reset()
	_, err = parse(t, "-history", "1").Post(context.Background(), ctl, &out)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02 03:04:05  win     $9\n", out.String())

	_, err = parse(t, "-history", "0").Post(context.Background(), ctl, io.Discard)
	require.Error(t, err)
}

func TestPostExport(t *testing.T) {
	t.Parallel()

	ctl := newFakeController(t)
	var out bytes.Buffer
	_, err := parse(t, "-export", "-").Post(context.Background(), ctl, &out)
	require.NoError(t, err)
	assert.Equal(t, "time,batch,outcome,id,roll,prize\n", out.String())

	path := filepath.Join(t.TempDir(), "draws.csv")
	out.Reset()
	_, err = parse(t, "-export", path).Post(context.Background(), ctl, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "outcome")

	_, err = parse(t, "-export", "").Post(context.Background(), ctl, io.Discard)
	require.Error(t, err)
}

func TestPostTrack(t *testing.T) {
	t.Parallel()

	ctl := newFakeController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	ran, err := parse(t, "-track", "/games/Game.exe").Post(ctx, ctl, &out)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Contains(t, out.String(), "Tracking Game.exe")
	assert.Contains(t, out.String(), "Tracked 00:00:00")
	assert.Equal(t, 1, ctl.stopped)
}

func TestPostTrackNoTarget(t *testing.T) {
	t.Parallel()

	ctl := newFakeController(t)
	_, err := parse(t, "-track", "").Post(context.Background(), ctl, io.Discard)
	require.ErrorIs(t, err, tracker.ErrNoTarget)
}
