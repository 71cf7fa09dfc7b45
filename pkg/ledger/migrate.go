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

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	LegacyChancesFile  = "chances.txt"
	LegacyProgressFile = "progress.json"
)

// Migrate folds the old chances.txt and progress.json files into the
// unified document. Values already in the document win. Legacy files are
// removed only after the document has been written, so a failed write
// leaves everything as it was. Returns true if any legacy file was used.
func (s *Store) Migrate() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}

	var consumed []string

	chancesPath := s.legacyPath(LegacyChancesFile)
	data, err := afero.ReadFile(s.fs, chancesPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return false, fmt.Errorf("failed to read legacy chances: %w", err)
	default:
		n, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr != nil {
			s.quarantine(chancesPath, perr)
			break
		}
		if doc.Chances == nil {
			doc.setCount(n)
			log.Info().Int("chances", doc.count()).Msg("ledger: imported legacy chances")
		}
		consumed = append(consumed, chancesPath)
	}

	progressPath := s.legacyPath(LegacyProgressFile)
	data, err = afero.ReadFile(s.fs, progressPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return false, fmt.Errorf("failed to read legacy progress: %w", err)
	default:
		var legacy map[string]int
		if perr := json.Unmarshal(data, &legacy); perr != nil {
			s.quarantine(progressPath, perr)
			break
		}
		folded := make(map[string]int, len(legacy))
		for name, secs := range legacy {
			key := helpers.FoldName(name)
			folded[key] = max(folded[key], secs, 0)
		}
		for key, secs := range folded {
			if _, ok := doc.Progress[key]; !ok {
				doc.Progress[key] = secs
			}
		}
		log.Info().Int("entries", len(legacy)).Msg("ledger: imported legacy progress")
		consumed = append(consumed, progressPath)
	}

	if len(consumed) == 0 {
		return false, nil
	}

	if err := s.write(doc); err != nil {
		return false, err
	}

	for _, path := range consumed {
		if err := s.fs.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("ledger: failed to remove legacy file")
		}
	}

	return true, nil
}
