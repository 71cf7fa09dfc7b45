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

// Package tui is the terminal front end: a single tview page showing the
// chance count, tracking status and the latest draw.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/ZaparooProject/dopamine-lottery/pkg/database/drawdb"
	"github.com/ZaparooProject/dopamine-lottery/pkg/lottery"
	"github.com/ZaparooProject/dopamine-lottery/pkg/tracker"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	PageMain  = "main"
	PageTrack = "track"
)

// Controller is the set of service operations the TUI drives.
type Controller interface {
	Track(path string, cb tracker.Callbacks, queue tracker.UIQueue) (*tracker.Session, error)
	TrackLast(cb tracker.Callbacks, queue tracker.UIQueue) (*tracker.Session, error)
	TogglePause() (bool, error)
	StopTracking()
	Tracking() *tracker.Session
	Chances() int
	LastApp() string
	Play() (lottery.Result, error)
	CanPlayMulti() bool
	PlayMulti(ctx context.Context, onResult func(lottery.Result)) ([]lottery.Result, error)
	Stats() (drawdb.Stats, error)
	Suggest(ctx context.Context, path string) []string
}

type View struct {
	app     *tview.Application
	ctl     Controller
	pages   *tview.Pages
	status  *tview.TextView
	result  *tview.TextView
	help    *tview.TextView
	cancel  context.CancelFunc
	elapsed string
	state   string
	chances int
	busy    bool
}

func New(app *tview.Application, ctl Controller) *View {
	v := &View{
		app:     app,
		ctl:     ctl,
		pages:   tview.NewPages(),
		status:  tview.NewTextView().SetDynamicColors(true),
		result:  tview.NewTextView().SetDynamicColors(true),
		help:    tview.NewTextView().SetDynamicColors(true),
		elapsed: tracker.FormatElapsed(0),
		state:   "Not tracking",
		chances: ctl.Chances(),
	}

	v.result.SetBorder(true).SetTitle("Lottery")
	v.help.SetText(
		"[yellow]t[-] track  [yellow]r[-] resume last  [yellow]p[-] pause  [yellow]s[-] stop  " +
			"[yellow]l[-] play  [yellow]m[-] multi-play  [yellow]q[-] quit",
	)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.status, 5, 0, false).
		AddItem(v.result, 0, 1, false).
		AddItem(v.help, 1, 0, false)
	main.SetBorder(true).
		SetTitle("Dopamine Lottery v" + config.AppVersion).
		SetTitleAlign(tview.AlignCenter)
	main.SetInputCapture(v.handleKey)

	v.pages.AddPage(PageMain, main, true, true)
	v.render()
	v.showStats()

	return v
}

// Root is the primitive to pass to Application.SetRoot.
func (v *View) Root() tview.Primitive {
	return v.pages
}

// Queue marshals tracker callbacks onto the tview event loop.
func (v *View) Queue(fn func()) {
	v.app.QueueUpdateDraw(fn)
}

func (v *View) callbacks() tracker.Callbacks {
	return tracker.CallbackFuncs{
		Tick: func(elapsed string) {
			v.elapsed = elapsed
			v.render()
		},
		ChancesChanged: func(total int) {
			v.chances = total
			v.render()
		},
		Milestone: func(total int) {
			v.result.SetText(fmt.Sprintf("[green::b]Milestone![-::-] %d chances earned.", total))
		},
		ChanceAdded: func(total int) {
			v.result.SetText(fmt.Sprintf("[green]+1 chance[-] (%d total)", total))
		},
	}
}

func (v *View) render() {
	target := "-"
	if s := v.ctl.Tracking(); s != nil {
		target = s.Target()
		if s.Paused() {
			v.state = "Paused"
		} else {
			v.state = "Tracking"
		}
	}

	multi := "no"
	if v.ctl.CanPlayMulti() {
		multi = "yes"
	}

	v.status.SetText(fmt.Sprintf(
		"[::b]Chances:[::-]    %d\n[::b]Status:[::-]     %s\n[::b]App:[::-]        %s\n"+
			"[::b]Time:[::-]       %s\n[::b]Multi-play:[::-] %s",
		v.chances, v.state, target, v.elapsed, multi,
	))
}

func (v *View) showError(err error) {
	v.result.SetText("[red]" + tview.Escape(err.Error()) + "[-]")
}

func (v *View) showStats() {
	stats, err := v.ctl.Stats()
	if err != nil {
		log.Warn().Err(err).Msg("tui: reading stats")
		return
	}
	if stats.Plays == 0 {
		v.result.SetText("No draws yet. Track an app to earn chances.")
		return
	}
	v.result.SetText(fmt.Sprintf(
		"Plays: %d  Wins: %d  Jackpots: %d  Won: $%d",
		stats.Plays, stats.Wins, stats.Jackpots, stats.TotalPrize,
	))
}

func (v *View) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEscape {
		v.app.Stop()
		return nil
	}
	if event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	case 't':
		v.showTrackForm()
	case 'r':
		v.startTracking(v.ctl.TrackLast(v.callbacks(), v.Queue))
	case 'p':
		v.togglePause()
	case 's':
		v.stopTracking()
	case 'l':
		v.play()
	case 'm':
		v.playMulti()
	case 'q':
		v.app.Stop()
	default:
		return event
	}
	return nil
}

func (v *View) startTracking(s *tracker.Session, err error) {
	if errors.Is(err, tracker.ErrNoTarget) {
		v.result.SetText("No app to track yet. Press [yellow]t[-] to pick one.")
		return
	} else if err != nil {
		v.showError(err)
		return
	}
	v.state = "Tracking"
	v.elapsed = tracker.FormatElapsed(s.Elapsed())
	v.result.SetText("Tracking " + tview.Escape(s.Target()))
	v.render()
}

func (v *View) showTrackForm() {
	input := tview.NewInputField().
		SetLabel("Executable: ").
		SetText(v.ctl.LastApp()).
		SetFieldWidth(0)

	form := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(tview.NewTextView().SetText("Enter a path or process name, Esc to cancel."), 1, 0, false)
	form.SetBorder(true).SetTitle("Track app")

	input.SetDoneFunc(func(key tcell.Key) {
		v.pages.RemovePage(PageTrack)
		if key != tcell.KeyEnter {
			return
		}
		path := strings.TrimSpace(input.GetText())
		v.startTracking(v.ctl.Track(path, v.callbacks(), v.Queue))
		go v.suggest(path)
	})

	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, 4, 0, true).
			AddItem(nil, 0, 1, false), 60, 0, true).
		AddItem(nil, 0, 1, false)

	v.pages.AddPage(PageTrack, modal, true, true)
	v.app.SetFocus(input)
}

// suggest looks for running apps with a similar name, in case the path
// was mistyped. Runs off the UI goroutine.
func (v *View) suggest(path string) {
	hints := v.ctl.Suggest(context.Background(), path)
	if len(hints) == 0 {
		return
	}
	text := fmt.Sprintf(
		"\n[yellow]Not running right now. Did you mean: %s?[-]",
		tview.Escape(strings.Join(hints, ", ")),
	)
	v.Queue(func() {
		v.result.SetText(v.result.GetText(false) + text)
	})
}

func (v *View) togglePause() {
	paused, err := v.ctl.TogglePause()
	if err != nil {
		v.showError(err)
		return
	}
	if paused {
		v.state = "Paused"
	} else {
		v.state = "Tracking"
	}
	v.render()
}

func (v *View) stopTracking() {
	v.ctl.StopTracking()
	v.state = "Not tracking"
	v.render()
}

func (v *View) play() {
	if v.busy {
		return
	}
	res, err := v.ctl.Play()
	v.chances = v.ctl.Chances()
	v.render()
	if errors.Is(err, lottery.ErrNoChances) {
		v.result.SetText("[red]No lottery chances left![-]")
		return
	} else if err != nil {
		v.showError(err)
		return
	}
	v.result.SetText(tview.Escape(res.Message()))
}

func (v *View) playMulti() {
	if v.busy {
		return
	}
	if !v.ctl.CanPlayMulti() {
		v.result.SetText("Not enough chances for a multi-play yet.")
		return
	}

	v.busy = true
	v.result.SetText("Rolling...")
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	var lines []string
	go func() {
		defer cancel()
		_, err := v.ctl.PlayMulti(ctx, func(r lottery.Result) {
			lines = append(lines, tview.Escape(r.Message()))
			text := strings.Join(lines, "\n")
			v.Queue(func() {
				v.chances = v.ctl.Chances()
				v.result.SetText(text)
				v.render()
			})
		})
		v.Queue(func() {
			v.busy = false
			if errors.Is(err, lottery.ErrNoChances) {
				lines = append(lines, "[red]No more chances![-]")
				v.result.SetText(strings.Join(lines, "\n"))
			} else if err != nil && !errors.Is(err, context.Canceled) {
				v.showError(err)
			}
			v.render()
		})
	}()
}

// Close cancels a multi-play in progress.
func (v *View) Close() {
	if v.cancel != nil {
		v.cancel()
	}
}

// Run builds the view, runs the terminal UI until the user quits and
// stops tracking on the way out.
func Run(ctl Controller) error {
	app := tview.NewApplication()
	v := New(app, ctl)
	defer v.Close()

	if err := app.SetRoot(v.Root(), true).EnableMouse(true).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	ctl.StopTracking()
	return nil
}
