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

package systray

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"fyne.io/systray"
	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/ZaparooProject/dopamine-lottery/pkg/database/drawdb"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/ZaparooProject/dopamine-lottery/pkg/lottery"
	"github.com/ZaparooProject/dopamine-lottery/pkg/tracker"
	"github.com/nixinwang/dialog"
	"github.com/rs/zerolog/log"
	"golang.design/x/clipboard"
)

// Controller is the set of service operations the tray menu drives.
type Controller interface {
	Track(path string, cb tracker.Callbacks, queue tracker.UIQueue) (*tracker.Session, error)
	TrackLast(cb tracker.Callbacks, queue tracker.UIQueue) (*tracker.Session, error)
	TogglePause() (bool, error)
	StopTracking()
	Tracking() *tracker.Session
	Chances() int
	Play() (lottery.Result, error)
	CanPlayMulti() bool
	PlayMulti(ctx context.Context, onResult func(lottery.Result)) ([]lottery.Result, error)
	Stats() (drawdb.Stats, error)
	Dirs() helpers.Dirs
}

func openPath(path string) {
	if err := helpers.OpenPath(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to open path")
	}
}

func chancesLabel(n int) string {
	if n == 1 {
		return "1 chance"
	}
	return fmt.Sprintf("%d chances", n)
}

func statusLabel(s *tracker.Session) string {
	if s == nil {
		return "Not tracking"
	}
	state := "Tracking"
	if s.Paused() {
		state = "Paused"
	}
	return fmt.Sprintf("%s %s (%s)", state, s.Target(), tracker.FormatElapsed(s.Elapsed()))
}

func pauseLabel(s *tracker.Session) string {
	if s != nil && s.Paused() {
		return "Resume"
	}
	return "Pause"
}

func statsText(stats drawdb.Stats) string {
	return fmt.Sprintf(
		"Plays: %d\nWins: %d\nJackpots: %d\nLosses: %d\nTotal won: $%d",
		stats.Plays, stats.Wins, stats.Jackpots, stats.Losses, stats.TotalPrize,
	)
}

func aboutText(year int) string {
	return fmt.Sprintf(
		"Dopamine Lottery\nVersion v%s\n\n© %d Zaparoo Contributors\nLicense: GPLv3",
		config.AppVersion, year,
	)
}

func milestoneText(total int) string {
	return fmt.Sprintf("Milestone! %d chances earned. Time for a multi-play!", total)
}

func multiText(results []lottery.Result) string {
	text := ""
	total := 0
	for _, r := range results {
		text += r.Message() + "\n"
		total += r.Prize
	}
	return text + fmt.Sprintf("\nTotal won: $%d", total)
}

type menu struct {
	ctl       Controller
	updates   chan func()
	chances   *systray.MenuItem
	status    *systray.MenuItem
	pause     *systray.MenuItem
	stop      *systray.MenuItem
	multiPlay *systray.MenuItem
}

func (m *menu) refresh() {
	s := m.ctl.Tracking()
	m.chances.SetTitle(chancesLabel(m.ctl.Chances()))
	m.status.SetTitle(statusLabel(s))
	m.pause.SetTitle(pauseLabel(s))
	if s == nil {
		m.pause.Disable()
		m.stop.Disable()
	} else {
		m.pause.Enable()
		m.stop.Enable()
	}
	if m.ctl.CanPlayMulti() {
		m.multiPlay.Enable()
	} else {
		m.multiPlay.Disable()
	}
}

// queue hands tracker callbacks to the menu's update goroutine. Updates
// are dropped rather than block the tracker when the menu falls behind.
func (m *menu) queue(fn func()) {
	select {
	case m.updates <- fn:
	default:
		log.Debug().Msg("tray update dropped")
	}
}

func (m *menu) runUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-m.updates:
			fn()
		}
	}
}

func (m *menu) callbacks() tracker.Callbacks {
	return tracker.CallbackFuncs{
		Tick: func(string) {
			m.refresh()
		},
		ChancesChanged: func(int) {
			m.refresh()
		},
		Milestone: func(total int) {
			text := milestoneText(total)
			systray.SetTooltip(text)
			go dialog.Message("%s", text).Title("Milestone!").Info()
		},
	}
}

func (m *menu) track() {
	path, err := dialog.File().
		Title("Choose an app to track").
		Filter("Executables", "exe").
		Filter("All files", "*").
		Load()
	if errors.Is(err, dialog.ErrCancelled) {
		return
	} else if err != nil {
		log.Error().Err(err).Msg("failed to pick app")
		return
	}
	m.started(m.ctl.Track(path, m.callbacks(), m.queue))
}

func (m *menu) started(_ *tracker.Session, err error) {
	if errors.Is(err, tracker.ErrNoTarget) {
		dialog.Message("No app has been tracked yet. Use Track App first.").
			Title("Dopamine Lottery").Info()
		return
	} else if err != nil {
		log.Error().Err(err).Msg("failed to start tracking")
		dialog.Message("Could not start tracking: %s", err).Title("Dopamine Lottery").Error()
		return
	}
	m.refresh()
}

func (m *menu) play() {
	res, err := m.ctl.Play()
	m.refresh()
	if errors.Is(err, lottery.ErrNoChances) {
		dialog.Message("No lottery chances left!").Title("Lottery").Info()
		return
	} else if err != nil {
		log.Error().Err(err).Msg("failed to play")
		return
	}
	dialog.Message("%s", res.Message()).Title("Lottery").Info()
}

func (m *menu) playMulti(ctx context.Context) {
	m.multiPlay.Disable()
	results, err := m.ctl.PlayMulti(ctx, func(lottery.Result) {
		m.refresh()
	})
	m.refresh()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, lottery.ErrNoChances) {
		log.Error().Err(err).Msg("failed to multi-play")
		return
	}
	if len(results) == 0 {
		dialog.Message("Not enough chances for a multi-play yet.").Title("Lottery").Info()
		return
	}
	dialog.Message("%s", multiText(results)).Title("Multi-play").Info()
}

func (m *menu) copyStats() {
	stats, err := m.ctl.Stats()
	if err != nil {
		log.Error().Err(err).Msg("failed to read stats")
		return
	}
	if err := clipboard.Init(); err != nil {
		log.Error().Err(err).Msg("failed to initialize clipboard")
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(statsText(stats)))
}

func onReady(ctx context.Context, ctl Controller, icon []byte) func() {
	return func() {
		systray.SetIcon(icon)
		if runtime.GOOS != "darwin" {
			systray.SetTitle("Dopamine Lottery")
		}
		systray.SetTooltip("Dopamine Lottery")

		m := &menu{ctl: ctl, updates: make(chan func(), 100)}
		go m.runUpdates(ctx)

		m.chances = systray.AddMenuItem("", "Lottery chances available")
		m.chances.Disable()
		m.status = systray.AddMenuItem("", "Tracking status")
		m.status.Disable()
		systray.AddSeparator()

		mTrack := systray.AddMenuItem("Track App...", "Choose an app to track")
		mTrackLast := systray.AddMenuItem("Track Last App", "Resume tracking the last app")
		m.pause = systray.AddMenuItem("Pause", "Pause or resume tracking")
		m.stop = systray.AddMenuItem("Stop Tracking", "Stop tracking the current app")
		systray.AddSeparator()

		mPlay := systray.AddMenuItem("Play Lottery", "Spend one chance")
		m.multiPlay = systray.AddMenuItem("Multi-Play", "Spend several chances at once")
		mStats := systray.AddMenuItem("Stats", "Show lottery stats")
		mCopyStats := systray.AddMenuItem("Copy Stats", "Copy lottery stats to the clipboard")
		systray.AddSeparator()

		mEditConfig := systray.AddMenuItem("Edit Config", "Edit config file")
		mOpenLog := systray.AddMenuItem("View Log", "View log file")
		mOpenData := systray.AddMenuItem("Data Folder", "Open data directory")
		mAbout := systray.AddMenuItem("About", "")
		systray.AddSeparator()
		mQuit := systray.AddMenuItem("Quit", "Stop tracking and quit")

		m.refresh()

		go func() {
			for {
				select {
				case <-ctx.Done():
					systray.Quit()
					return
				case <-mTrack.ClickedCh:
					m.track()
				case <-mTrackLast.ClickedCh:
					m.started(ctl.TrackLast(m.callbacks(), m.queue))
				case <-m.pause.ClickedCh:
					if _, err := ctl.TogglePause(); err != nil {
						log.Warn().Err(err).Msg("failed to toggle pause")
					}
					m.refresh()
				case <-m.stop.ClickedCh:
					ctl.StopTracking()
					m.refresh()
				case <-mPlay.ClickedCh:
					m.play()
				case <-m.multiPlay.ClickedCh:
					go m.playMulti(ctx)
				case <-mStats.ClickedCh:
					stats, err := ctl.Stats()
					if err != nil {
						log.Error().Err(err).Msg("failed to read stats")
						continue
					}
					dialog.Message("%s", statsText(stats)).Title("Lottery Stats").Info()
				case <-mCopyStats.ClickedCh:
					m.copyStats()
				case <-mEditConfig.ClickedCh:
					openPath(ctl.Dirs().ConfigPath())
				case <-mOpenLog.ClickedCh:
					openPath(ctl.Dirs().LogPath())
				case <-mOpenData.ClickedCh:
					openPath(ctl.Dirs().DataDir)
				case <-mAbout.ClickedCh:
					dialog.Message("%s", aboutText(time.Now().Year())).Title("About Dopamine Lottery").Info()
				case <-mQuit.ClickedCh:
					systray.Quit()
				}
			}
		}()
	}
}

// Run blocks running the tray menu until Quit is chosen, then calls exit.
func Run(ctx context.Context, ctl Controller, icon []byte, exit func()) {
	systray.Run(onReady(ctx, ctl, icon), exit)
}
