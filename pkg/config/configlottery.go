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

package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Lottery holds the draw odds and prize range.
type Lottery struct {
	WinChance     float64 `toml:"win_chance" validate:"gte=0,lte=1"`
	JackpotChance float64 `toml:"jackpot_chance" validate:"gte=0,lte=1"`
	MinPrize      int     `toml:"min_prize" validate:"gte=0"`
	MaxPrize      int     `toml:"max_prize" validate:"gtefield=MinPrize"`
	JackpotPrize  int     `toml:"jackpot_prize" validate:"gte=0"`
}

var DefaultLottery = Lottery{
	WinChance:     0.49,
	JackpotChance: 0.02,
	MinPrize:      1,
	MaxPrize:      20,
	JackpotPrize:  100,
}

var ErrOddsOverflow = errors.New("win_chance + jackpot_chance must not exceed 1")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateLottery checks field ranges and that the combined odds fit in [0,1].
func ValidateLottery(l Lottery) error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("lottery settings: %w", err)
	}
	if l.WinChance+l.JackpotChance > 1 {
		return ErrOddsOverflow
	}
	return nil
}

func (c *Instance) Lottery() Lottery {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Lottery
}
