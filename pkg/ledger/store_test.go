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
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"
)

const testDir = "/data"

func newMemStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	s, err := Open(fsys, testDir)
	require.NoError(t, err)
	return s, fsys
}

func readDoc(t *testing.T, fsys afero.Fs) map[string]any {
	t.Helper()
	data, err := afero.ReadFile(fsys, filepath.Join(testDir, "app_data.json"))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestChancesMissingFile(t *testing.T) {
	t.Parallel()
	s, _ := newMemStore(t)
	assert.Equal(t, 0, s.Chances())
	assert.Equal(t, 0, s.Progress("anything.exe"))
}

func TestAddAndUse(t *testing.T) {
	t.Parallel()
	s, fsys := newMemStore(t)

	total, err := s.Add(3)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	ok, err := s.Use()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Chances())

	doc := readDoc(t, fsys)
	assert.InDelta(t, 2, doc["chances"], 0)
}

func TestAddClampsToOne(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		k    int
	}{
		{name: "zero", k: 0},
		{name: "negative", k: -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newMemStore(t)
			total, err := s.Add(tt.k)
			require.NoError(t, err)
			assert.Equal(t, 1, total)
		})
	}
}

func TestUseAtZero(t *testing.T) {
	t.Parallel()
	s, fsys := newMemStore(t)

	ok, err := s.Use()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Chances())

	exists, err := afero.Exists(fsys, s.Path())
	require.NoError(t, err)
	assert.False(t, exists, "a failed use must not write")
}

func TestCorruptDocumentReadsEmpty(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(testDir, "app_data.json"), []byte("{not json"), 0o600))

	s, err := Open(fsys, testDir)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Chances())

	total, err := s.Add(1)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.InDelta(t, 1, readDoc(t, fsys)["chances"], 0)
}

func TestNegativeStoredValuesClamp(t *testing.T) {
	t.Parallel()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(testDir, "app_data.json"),
		[]byte(`{"chances": -4, "progress": {"a.exe": -10}}`), 0o600))

	s, err := Open(fsys, testDir)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Chances())
	assert.Equal(t, 0, s.Progress("a.exe"))

	ok, err := s.Use()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProgressCaseInsensitive(t *testing.T) {
	t.Parallel()
	s, fsys := newMemStore(t)

	require.NoError(t, s.SaveProgress("Game.EXE", 1200))
	assert.Equal(t, 1200, s.Progress("game.exe"))
	assert.Equal(t, 1200, s.Progress("GAME.exe"))

	require.NoError(t, s.SaveProgress("game.exe", 30))
	assert.Equal(t, 30, s.Progress("Game.EXE"))

	progress, ok := readDoc(t, fsys)["progress"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, progress, 1, "case variants share one key")
}

func TestSaveProgressClampsNegative(t *testing.T) {
	t.Parallel()
	s, _ := newMemStore(t)
	require.NoError(t, s.SaveProgress("a.exe", -5))
	assert.Equal(t, 0, s.Progress("a.exe"))
}

func TestProgressAndChancesShareDocument(t *testing.T) {
	t.Parallel()
	s, fsys := newMemStore(t)

	_, err := s.Add(2)
	require.NoError(t, err)
	require.NoError(t, s.SaveProgress("a.exe", 100))
	_, err = s.Add(1)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Chances())
	assert.Equal(t, 100, s.Progress("a.exe"))

	doc := readDoc(t, fsys)
	assert.InDelta(t, 3, doc["chances"], 0)
	assert.Contains(t, doc, "progress")
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	s, fsys := newMemStore(t)

	for range 5 {
		_, err := s.Add(1)
		require.NoError(t, err)
	}

	entries, err := afero.ReadDir(fsys, testDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestConcurrentAddUse(t *testing.T) {
	t.Parallel()
	s, _ := newMemStore(t)

	_, err := s.Add(50)
	require.NoError(t, err)

	var g errgroup.Group
	var used atomic.Int32

	for range 100 {
		g.Go(func() error {
			ok, err := s.Use()
			if ok {
				used.Add(1)
			}
			return err
		})
	}
	for range 25 {
		g.Go(func() error {
			_, err := s.Add(1)
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 75-int(used.Load()), s.Chances())
	assert.GreaterOrEqual(t, s.Chances(), 0)
	assert.GreaterOrEqual(t, int(used.Load()), 50)
}

func TestLedgerMatchesModel(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		s := NewStore(afero.NewMemMapFs(), testDir)
		model := 0

		ops := rapid.SliceOfN(rapid.IntRange(-3, 5), 1, 40).Draw(rt, "ops")
		for _, op := range ops {
			if op < 0 {
				ok, err := s.Use()
				if err != nil {
					rt.Fatalf("use: %v", err)
				}
				if ok != (model > 0) {
					rt.Fatalf("use returned %v with model %d", ok, model)
				}
				if model > 0 {
					model--
				}
				continue
			}
			total, err := s.Add(op)
			if err != nil {
				rt.Fatalf("add: %v", err)
			}
			model += max(op, 1)
			if total != model {
				rt.Fatalf("add returned %d, want %d", total, model)
			}
		}

		if got := s.Chances(); got != model {
			rt.Fatalf("chances %d, want %d", got, model)
		}
	})
}

func TestProgressRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		s := NewStore(afero.NewMemMapFs(), testDir)
		name := rapid.StringMatching(`[A-Za-z0-9_]{1,12}\.(exe|EXE)`).Draw(rt, "name")
		secs := rapid.IntRange(-100, 100000).Draw(rt, "secs")

		if err := s.SaveProgress(name, secs); err != nil {
			rt.Fatalf("save: %v", err)
		}
		if got, want := s.Progress(strings.ToUpper(name)), max(secs, 0); got != want {
			rt.Fatalf("progress %d, want %d", got, want)
		}
	})
}
