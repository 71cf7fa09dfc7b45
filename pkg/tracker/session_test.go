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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaparooProject/dopamine-lottery/pkg/ledger"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProcs struct {
	err     error
	running atomic.Bool
	calls   atomic.Int32
}

func (f *fakeProcs) Running(_ context.Context, _ string) (bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return true, f.err
	}
	return f.running.Load(), nil
}

type recorder struct {
	ticks     []string
	changed   []int
	milestone []int
	added     []int
	mu        sync.Mutex
}

func (r *recorder) OnTick(elapsed string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, elapsed)
}

func (r *recorder) OnChancesChanged(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, total)
}

func (r *recorder) OnMilestone(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.milestone = append(r.milestone, total)
}

func (r *recorder) OnChanceAdded(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, total)
}

func (r *recorder) lastTick() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ticks) == 0 {
		return ""
	}
	return r.ticks[len(r.ticks)-1]
}

func (r *recorder) snapshot() (changed, milestone, added []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.changed...),
		append([]int(nil), r.milestone...),
		append([]int(nil), r.added...)
}

// flakyStore fails the first failAdds calls to Add and the first
// failSaves calls to SaveProgress.
type flakyStore struct {
	*ledger.Store
	failAdds  atomic.Int32
	failSaves atomic.Int32
}

func (f *flakyStore) SaveProgress(name string, seconds int) error {
	if f.failSaves.Load() > 0 {
		f.failSaves.Add(-1)
		return errors.New("disk full")
	}
	return f.Store.SaveProgress(name, seconds)
}

func (f *flakyStore) Add(k int) (int, error) {
	if f.failAdds.Load() > 0 {
		f.failAdds.Add(-1)
		return 0, errors.New("disk full")
	}
	return f.Store.Add(k)
}

type env struct {
	store *ledger.Store
	procs *fakeProcs
	clock *clockwork.FakeClock
	mgr   *Manager
	rec   *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := ledger.Open(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	procs := &fakeProcs{}
	procs.running.Store(true)
	fc := clockwork.NewFakeClock()
	return &env{
		store: store,
		procs: procs,
		clock: fc,
		mgr:   NewManager(store, procs, fc),
		rec:   &recorder{},
	}
}

// tick waits for the loop to finish its current pass and go to sleep,
// then advances the clock n-1 more times. The first pass runs as soon as
// the session starts, so tick(n) right after Start covers n passes.
func tick(ctx context.Context, t *testing.T, fc *clockwork.FakeClock, d time.Duration, n int) {
	t.Helper()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	for range n - 1 {
		fc.Advance(d)
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSessionConvertsUnitsToChances(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	cfg := Config{TimeRequired: 5 * time.Second, TickInterval: time.Second, RollsPerMulti: 3}
	s, err := e.mgr.Start(ctx, "/usr/bin/Game.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)
	assert.Equal(t, "Game.exe", s.Target())

	tick(ctx, t, e.clock, time.Second, 17)
	e.mgr.Stop()

	assert.Equal(t, 3, e.store.Chances())
	assert.Equal(t, 2, e.store.Progress("game.exe"))
	assert.Equal(t, "00:00:17", e.rec.lastTick())
	assert.Equal(t, 17, s.Elapsed())

	changed, milestone, added := e.rec.snapshot()
	assert.Equal(t, []int{1, 2, 3}, changed)
	assert.Equal(t, []int{3}, milestone)
	assert.Equal(t, []int{1, 2}, added)
}

func TestSessionCarryOverReachesMilestone(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	require.NoError(t, e.store.SaveProgress("app.exe", 3599))
	_, err := e.store.Add(9)
	require.NoError(t, err)

	cfg := Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 10}
	_, err = e.mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)

	tick(ctx, t, e.clock, time.Second, 1)
	e.mgr.Stop()

	assert.Equal(t, 10, e.store.Chances())
	assert.Equal(t, 0, e.store.Progress("app.exe"))
	assert.Equal(t, "01:00:00", e.rec.lastTick())

	changed, milestone, added := e.rec.snapshot()
	assert.Equal(t, []int{10}, changed)
	assert.Equal(t, []int{10}, milestone)
	assert.Empty(t, added)
}

func TestSessionIdleWhenProcessAbsent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)
	e.procs.running.Store(false)

	cfg := Config{TimeRequired: 2 * time.Second, TickInterval: time.Second, RollsPerMulti: 10}
	_, err := e.mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)

	tick(ctx, t, e.clock, time.Second, 5)
	e.mgr.Stop()

	assert.Equal(t, 0, e.store.Chances())
	assert.Empty(t, e.rec.lastTick())
	assert.GreaterOrEqual(t, e.procs.calls.Load(), int32(5))
}

func TestSessionProcessErrorCountsAsAbsent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)
	e.procs.err = errors.New("access denied")

	cfg := Config{TimeRequired: time.Second, TickInterval: time.Second, RollsPerMulti: 10}
	s, err := e.mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)

	tick(ctx, t, e.clock, time.Second, 3)
	e.mgr.Stop()

	assert.Equal(t, 0, e.store.Chances())
	assert.Equal(t, 0, s.Elapsed())
}

func TestSessionPause(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	cfg := Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 10}
	s, err := e.mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)

	tick(ctx, t, e.clock, time.Second, 1)
	assert.Equal(t, 1, s.Elapsed())

	assert.True(t, s.TogglePause())
	assert.Equal(t, StatePaused, s.State())

	for range 3 {
		e.clock.Advance(time.Second)
		require.NoError(t, e.clock.BlockUntilContext(ctx, 1))
	}
	assert.Equal(t, 1, s.Elapsed(), "no accrual while paused")

	assert.False(t, s.TogglePause())
	assert.Equal(t, StateRunning, s.State())
	e.clock.Advance(time.Second)
	require.NoError(t, e.clock.BlockUntilContext(ctx, 1))

	e.mgr.Stop()
	assert.Equal(t, 2, s.Elapsed())
	assert.Equal(t, 2, e.store.Progress("app.exe"))
}

func TestStopFlushesProgress(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	cfg := Config{TimeRequired: 10 * time.Second, TickInterval: time.Second, RollsPerMulti: 10}
	s, err := e.mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)

	tick(ctx, t, e.clock, time.Second, 4)
	e.mgr.Stop()

	select {
	case <-s.Done():
	default:
		t.Fatal("session still running after Stop")
	}
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, e.mgr.Current())
	assert.Equal(t, 4, e.store.Progress("app.exe"))
}

func TestStartReplacesSession(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	cfg := StaticConfig(Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 10})
	first, err := e.mgr.Start(ctx, "one.exe", cfg, e.rec, nil)
	require.NoError(t, err)
	tick(ctx, t, e.clock, time.Second, 2)

	second, err := e.mgr.Start(ctx, "two.exe", cfg, e.rec, nil)
	require.NoError(t, err)

	select {
	case <-first.Done():
	default:
		t.Fatal("first session not stopped")
	}
	assert.Equal(t, 2, e.store.Progress("one.exe"))
	assert.Same(t, second, e.mgr.Current())
	assert.NotEqual(t, first.ID(), second.ID())

	e.mgr.Stop()
}

func TestStartResumesCarryOver(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	cfg := StaticConfig(Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 10})
	_, err := e.mgr.Start(ctx, "app.exe", cfg, e.rec, nil)
	require.NoError(t, err)
	tick(ctx, t, e.clock, time.Second, 3)
	e.mgr.Stop()

	s, err := e.mgr.Start(ctx, "APP.EXE", cfg, e.rec, nil)
	require.NoError(t, err)
	tick(ctx, t, e.clock, time.Second, 2)
	e.mgr.Stop()

	assert.Equal(t, 5, s.Elapsed())
	assert.Equal(t, 5, e.store.Progress("app.exe"))
}

func TestAddFailureKeepsUnit(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	flaky := &flakyStore{Store: e.store}
	flaky.failAdds.Store(1)
	mgr := NewManager(flaky, e.procs, e.clock)

	cfg := Config{TimeRequired: 2 * time.Second, TickInterval: time.Second, RollsPerMulti: 10}
	_, err := mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)

	tick(ctx, t, e.clock, time.Second, 2)
	assert.Equal(t, 0, e.store.Chances())
	assert.Equal(t, 2, e.store.Progress("app.exe"))

	tick(ctx, t, e.clock, time.Second, 2)
	mgr.Stop()

	assert.Equal(t, 1, e.store.Chances())
	assert.Equal(t, 1, e.store.Progress("app.exe"))
}

func TestIdleTickRetriesFailedSave(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	flaky := &flakyStore{Store: e.store}
	flaky.failSaves.Store(1)
	mgr := NewManager(flaky, e.procs, e.clock)

	cfg := Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 10}
	_, err := mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)

	tick(ctx, t, e.clock, time.Second, 1)
	assert.Equal(t, 0, e.store.Progress("app.exe"))

	e.procs.running.Store(false)
	e.clock.Advance(time.Second)
	require.NoError(t, e.clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, e.store.Progress("app.exe"))

	mgr.Stop()
	assert.Equal(t, 1, e.store.Progress("app.exe"))
}

// blockingProcs holds every process query until release is closed.
type blockingProcs struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingProcs) Running(context.Context, string) (bool, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return false, nil
}

func TestStopWaitsPastTimeout(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	procs := &blockingProcs{entered: make(chan struct{}), release: make(chan struct{})}
	mgr := NewManager(e.store, procs, e.clock)
	mgr.StopTimeout = 10 * time.Millisecond

	cfg := Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 10}
	s, err := mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)
	<-procs.entered

	stopped := make(chan struct{})
	go func() {
		mgr.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the session was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(procs.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the session exited")
	}

	select {
	case <-s.Done():
	default:
		t.Fatal("session still running after Stop")
	}
}

func TestConfigReadEachTick(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	var current atomic.Pointer[Config]
	current.Store(&Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 10})
	src := func() Config { return *current.Load() }

	_, err := e.mgr.Start(ctx, "app.exe", src, e.rec, nil)
	require.NoError(t, err)
	tick(ctx, t, e.clock, time.Second, 3)
	assert.Equal(t, 0, e.store.Chances())

	current.Store(&Config{TimeRequired: 2 * time.Second, TickInterval: time.Second, RollsPerMulti: 10})
	tick(ctx, t, e.clock, time.Second, 2)
	e.mgr.Stop()

	// 3 seconds carried plus 1 more on the next pass: two units
	assert.Equal(t, 2, e.store.Chances())
	assert.Equal(t, 0, e.store.Progress("app.exe"))
}

func TestCallbacksGoThroughQueue(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := testCtx(t)

	var queued atomic.Int32
	queue := func(fn func()) {
		queued.Add(1)
		fn()
	}

	cfg := Config{TimeRequired: time.Second, TickInterval: time.Second, RollsPerMulti: 10}
	_, err := e.mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, queue)
	require.NoError(t, err)
	tick(ctx, t, e.clock, time.Second, 2)
	e.mgr.Stop()

	// per pass: tick, chances changed, chance added
	assert.Equal(t, int32(6), queued.Load())
}

func TestParentContextCancel(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx, cancel := context.WithCancel(testCtx(t))

	cfg := Config{TimeRequired: time.Hour, TickInterval: time.Second, RollsPerMulti: 10}
	s, err := e.mgr.Start(ctx, "app.exe", StaticConfig(cfg), e.rec, nil)
	require.NoError(t, err)
	tick(ctx, t, e.clock, time.Second, 2)

	cancel()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not exit on parent cancel")
	}
	assert.Equal(t, 2, e.store.Progress("app.exe"))
	assert.Nil(t, e.mgr.Current())
}

func TestStartNoTarget(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	for _, target := range []string{"", "   ", "/usr/bin/"} {
		_, err := e.mgr.Start(context.Background(), target, nil, nil, nil)
		require.ErrorIs(t, err, ErrNoTarget, "target %q", target)
	}
	assert.Nil(t, e.mgr.Current())
}
