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
	"sort"

	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/hbollon/go-edlib"
)

// MinSuggestSimilarity is the Jaro-Winkler score a running process name
// needs to be offered as a suggestion.
const MinSuggestSimilarity float32 = 0.8

type suggestion struct {
	name  string
	score float32
}

// Suggest returns up to n candidate names that look like target, best
// first. It returns nil when target itself is among the candidates.
func Suggest(target string, candidates []string, n int) []string {
	want := helpers.FoldName(target)
	if want == "" || n < 1 {
		return nil
	}

	seen := make(map[string]struct{}, len(candidates))
	var matches []suggestion
	for _, c := range candidates {
		folded := helpers.FoldName(c)
		if folded == want {
			return nil
		}
		if _, ok := seen[folded]; ok || folded == "" {
			continue
		}
		seen[folded] = struct{}{}

		score := edlib.JaroWinklerSimilarity(want, folded)
		if score >= MinSuggestSimilarity {
			matches = append(matches, suggestion{name: c, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name < matches[j].name
	})

	out := make([]string, 0, min(n, len(matches)))
	for _, m := range matches[:min(n, len(matches))] {
		out = append(out, m.name)
	}
	return out
}
