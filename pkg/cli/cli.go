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
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/ZaparooProject/dopamine-lottery/pkg/database/drawdb"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/ZaparooProject/dopamine-lottery/pkg/lottery"
	"github.com/ZaparooProject/dopamine-lottery/pkg/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Controller is the subset of the service the one-shot commands use.
type Controller interface {
	Track(path string, cb tracker.Callbacks, queue tracker.UIQueue) (*tracker.Session, error)
	StopTracking()
	Chances() int
	Play() (lottery.Result, error)
	PlayMulti(ctx context.Context, onResult func(lottery.Result)) ([]lottery.Result, error)
	Stats() (drawdb.Stats, error)
	Recent(limit int) ([]drawdb.Record, error)
	ExportCSV(w io.Writer) error
}

type Flags struct {
	set       *flag.FlagSet
	Version   *bool
	Chances   *bool
	Play      *bool
	PlayMulti *bool
	Stats     *bool
	History   *int
	Export    *string
	Track     *string
	Debug     *bool
}

// SetupFlags defines the flags shared by every platform entry point.
func SetupFlags(set *flag.FlagSet) *Flags {
	return &Flags{
		set: set,
		Version: set.Bool(
			"version",
			false,
			"print version and exit",
		),
		Chances: set.Bool(
			"chances",
			false,
			"print the number of lottery chances and exit",
		),
		Play: set.Bool(
			"play",
			false,
			"spend one chance on the lottery and print the result",
		),
		PlayMulti: set.Bool(
			"play-multi",
			false,
			"spend a batch of chances on the lottery and print the results",
		),
		Stats: set.Bool(
			"stats",
			false,
			"print lottery stats and exit",
		),
		History: set.Int(
			"history",
			0,
			"print the given number of most recent draws and exit",
		),
		Export: set.String(
			"export",
			"",
			"write the draw history as CSV to the given file (- for stdout) and exit",
		),
		Track: set.String(
			"track",
			"",
			"track an app in the foreground until interrupted",
		),
		Debug: set.Bool(
			"debug",
			false,
			"enable debug logging for this run",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses the arguments and handles the flags that need no setup.
// It reports true when the process should exit.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.set.Parse(args); err != nil {
		return true, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s\n", config.AppName, config.AppVersion)
		return true, nil
	}

	return false, nil
}

// Setup creates the app directories, starts logging and loads the config.
// Console logging is only added when a console writer is given.
func Setup(dirs helpers.Dirs, console io.Writer) (*config.Instance, error) {
	if err := helpers.EnsureDirectories(dirs); err != nil {
		return nil, err
	}

	var writers []io.Writer
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console})
	}
	if err := helpers.InitLogging(dirs, writers); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.NewConfig(dirs.ConfigDir, config.BaseDefaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return cfg, nil
}

// ApplyDebug raises the log level when -debug was passed.
func (f *Flags) ApplyDebug() {
	if *f.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// Post runs any one-shot command against a started service. It reports
// true when a command ran and the process should exit.
func (f *Flags) Post(ctx context.Context, ctl Controller, out io.Writer) (bool, error) {
	switch {
	case *f.Chances:
		_, _ = fmt.Fprintf(out, "%d\n", ctl.Chances())
	case *f.Play:
		return true, play(ctl, out)
	case *f.PlayMulti:
		return true, playMulti(ctx, ctl, out)
	case *f.Stats:
		return true, printStats(ctl, out)
	case f.isFlagPassed("history"):
		return true, printHistory(ctl, out, *f.History)
	case f.isFlagPassed("export"):
		return true, export(ctl, out, *f.Export)
	case f.isFlagPassed("track"):
		return true, track(ctx, ctl, out, *f.Track)
	default:
		return false, nil
	}
	return true, nil
}

func play(ctl Controller, out io.Writer) error {
	res, err := ctl.Play()
	if errors.Is(err, lottery.ErrNoChances) {
		_, _ = fmt.Fprintln(out, "No lottery chances left!")
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	_, _ = fmt.Fprintln(out, res.Message())
	_, _ = fmt.Fprintf(out, "Chances left: %d\n", ctl.Chances())
	return nil
}

func playMulti(ctx context.Context, ctl Controller, out io.Writer) error {
	results, err := ctl.PlayMulti(ctx, func(r lottery.Result) {
		_, _ = fmt.Fprintln(out, r.Message())
	})
	switch {
	case errors.Is(err, lottery.ErrNoChances) && len(results) == 0:
		_, _ = fmt.Fprintln(out, "Not enough chances for a multi-play yet.")
		return nil
	case errors.Is(err, lottery.ErrNoChances), errors.Is(err, context.Canceled):
	case err != nil:
		return fmt.Errorf("failed to multi-play: %w", err)
	}

	total := 0
	for _, r := range results {
		total += r.Prize
	}
	_, _ = fmt.Fprintf(out, "Total won: $%d\n", total)
	_, _ = fmt.Fprintf(out, "Chances left: %d\n", ctl.Chances())
	return nil
}

func printStats(ctl Controller, out io.Writer) error {
	stats, err := ctl.Stats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Chances:   %d\n", ctl.Chances())
	_, _ = fmt.Fprintf(out, "Plays:     %d\n", stats.Plays)
	_, _ = fmt.Fprintf(out, "Wins:      %d\n", stats.Wins)
	_, _ = fmt.Fprintf(out, "Jackpots:  %d\n", stats.Jackpots)
	_, _ = fmt.Fprintf(out, "Losses:    %d\n", stats.Losses)
	_, _ = fmt.Fprintf(out, "Total won: $%d\n", stats.TotalPrize)
	return nil
}

func printHistory(ctl Controller, out io.Writer, limit int) error {
	if limit < 1 {
		return fmt.Errorf("history limit must be at least 1, got %d", limit)
	}
	records, err := ctl.Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No draws yet.")
		return nil
	}
	for _, r := range records {
		_, _ = fmt.Fprintf(out, "%s  %-7s $%d\n", r.Time.Format("2006-01-02 15:04:05"), r.Outcome, r.Prize)
	}
	return nil
}

func export(ctl Controller, out io.Writer, path string) error {
	if path == "" {
		return errors.New("export flag requires a file name")
	}
	if path == "-" {
		return ctl.ExportCSV(out) //nolint:wrapcheck // already wrapped
	}

	//nolint:gosec // user supplied output path
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := ctl.ExportCSV(f); err != nil {
		_ = f.Close()
		return err //nolint:wrapcheck // already wrapped
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Draw history written to %s\n", path)
	return nil
}

func track(ctx context.Context, ctl Controller, out io.Writer, path string) error {
	cb := tracker.CallbackFuncs{
		ChanceAdded: func(total int) {
			_, _ = fmt.Fprintf(out, "+1 chance (%d total)\n", total)
		},
		Milestone: func(total int) {
			_, _ = fmt.Fprintf(out, "Milestone! %d chances earned\n", total)
		},
	}

	s, err := ctl.Track(path, cb, tracker.Immediate)
	if err != nil {
		return fmt.Errorf("failed to start tracking: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Tracking %s, press Ctrl+C to stop\n", s.Target())

	select {
	case <-ctx.Done():
	case <-s.Done():
	}
	ctl.StopTracking()

	_, _ = fmt.Fprintf(out, "Tracked %s\n", tracker.FormatElapsed(s.Elapsed()))
	log.Info().Str("app", s.Target()).Msg("foreground tracking finished")
	return nil
}

// Exit prints err to stderr and exits with a status matching it.
func Exit(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
