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

package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers/syncutil"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
)

// testScreen wraps a SimulationScreen with helpers for injecting keys and
// reading back what was drawn.
type testScreen struct {
	tcell.SimulationScreen
}

func newTestScreen(t *testing.T, width, height int) *testScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NotNil(t, sim, "failed to create simulation screen")
	require.NoError(t, sim.Init(), "failed to initialize simulation screen")
	sim.SetSize(width, height)
	return &testScreen{SimulationScreen: sim}
}

func (s *testScreen) injectRune(r rune) {
	s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
}

func (s *testScreen) injectString(str string) {
	for _, r := range str {
		s.injectRune(r)
	}
}

func (s *testScreen) injectEnter() {
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
}

func (s *testScreen) text() string {
	cells, width, height := s.GetContents()
	var sb strings.Builder
	for y := range height {
		for x := range width {
			cell := cells[y*width+x]
			if len(cell.Runes) > 0 {
				sb.WriteRune(cell.Runes[0])
			} else {
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

// appRunner runs a tview app against a simulation screen in the background.
type appRunner struct {
	app     *tview.Application
	screen  *testScreen
	stopMu  syncutil.Mutex
	stopped bool
}

func newAppRunner(t *testing.T, width, height int) *appRunner {
	t.Helper()
	screen := newTestScreen(t, width, height)
	app := tview.NewApplication()
	app.SetScreen(screen.SimulationScreen)
	return &appRunner{app: app, screen: screen}
}

func (r *appRunner) start(root tview.Primitive) {
	r.app.SetRoot(root, true)
	go func() {
		_ = r.app.Run()
		r.stopMu.Lock()
		r.stopped = true
		r.stopMu.Unlock()
	}()
	time.Sleep(20 * time.Millisecond)
}

func (r *appRunner) isStopped() bool {
	r.stopMu.Lock()
	defer r.stopMu.Unlock()
	return r.stopped
}

func (r *appRunner) stop() {
	if !r.isStopped() {
		r.app.Stop()
		time.Sleep(20 * time.Millisecond)
	}
}

func (r *appRunner) waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func (r *appRunner) waitForText(text string, timeout time.Duration) bool {
	return r.waitFor(func() bool {
		r.app.Draw()
		time.Sleep(5 * time.Millisecond)
		return strings.Contains(r.screen.text(), text)
	}, timeout)
}
