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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/dopamine-lottery/pkg/assets"
	"github.com/ZaparooProject/dopamine-lottery/pkg/cli"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/ZaparooProject/dopamine-lottery/pkg/service"
	"github.com/ZaparooProject/dopamine-lottery/pkg/ui/systray"
	"github.com/rs/zerolog/log"
)

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	if exit, err := flags.Pre(os.Args[1:], os.Stdout); exit {
		return err
	}

	dirs := helpers.DefaultDirs()
	cfg, err := cli.Setup(dirs, nil)
	if err != nil {
		return err
	}
	flags.ApplyDebug()

	lock, err := helpers.AcquireInstance(dirs.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn().Err(err).Msg("error releasing instance lock")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.Start(service.Options{Cfg: cfg, Dirs: dirs})
	if err != nil {
		log.Error().Err(err).Msg("error starting service")
		return err
	}

	if ran, err := flags.Post(ctx, svc, os.Stdout); ran {
		if stopErr := svc.Stop(); stopErr != nil {
			log.Error().Err(stopErr).Msg("error stopping service")
		}
		return err
	}

	systray.Run(ctx, svc, assets.TrayIcon(), func() {
		log.Info().Msg("tray exited, stopping service")
		if err := svc.Stop(); err != nil {
			log.Error().Err(err).Msg("error stopping service")
		}
	})

	return nil
}

func main() {
	if err := run(); err != nil {
		cli.Exit(err)
	}
}
