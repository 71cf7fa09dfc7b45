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

// Package ledger persists the chance count and per-app carry-over seconds
// in a single JSON document. All reads and writes go through one mutex so
// the tracker goroutine and the UI can mutate the document concurrently.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/dopamine-lottery/pkg/config"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers"
	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type document struct {
	Chances  *int           `json:"chances,omitempty"`
	Progress map[string]int `json:"progress"`
}

type Store struct {
	fs  afero.Fs
	dir string
	mu  syncutil.Mutex
}

// NewStore returns a store rooted at dir without touching the filesystem.
func NewStore(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

// Open creates the data directory if needed and folds in any legacy files.
// A failed migration is logged and leaves the legacy files for next time.
func Open(fsys afero.Fs, dir string) (*Store, error) {
	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := NewStore(fsys, dir)
	migrated, err := s.Migrate()
	if err != nil {
		log.Error().Err(err).Msg("ledger: legacy migration failed")
	} else if migrated {
		log.Info().Msg("ledger: migrated legacy data files")
	}

	return s, nil
}

// Path returns the location of the unified document.
func (s *Store) Path() string {
	return filepath.Join(s.dir, config.DataFile)
}

// load reads the document. A missing file is an empty document, and so is
// a corrupt one: the next write replaces it.
func (s *Store) load() (document, error) {
	doc := document{Progress: map[string]int{}}

	data, err := afero.ReadFile(s.fs, s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	} else if err != nil {
		return doc, fmt.Errorf("failed to read ledger: %w", err)
	}

	var raw document
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("path", s.Path()).Msg("ledger: corrupt document, starting empty")
		return doc, nil
	}

	if raw.Chances != nil {
		n := max(*raw.Chances, 0)
		doc.Chances = &n
	}
	for name, secs := range raw.Progress {
		key := helpers.FoldName(name)
		// case variants collapse onto one key, keep the larger value
		doc.Progress[key] = max(doc.Progress[key], secs, 0)
	}

	return doc, nil
}

func (d *document) count() int {
	if d.Chances == nil {
		return 0
	}
	return *d.Chances
}

func (d *document) setCount(n int) {
	n = max(n, 0)
	d.Chances = &n
}

// write replaces the document via a temp file in the same directory so a
// crash mid-write never leaves a truncated file behind.
func (s *Store) write(doc document) error {
	if doc.Chances == nil {
		doc.setCount(0)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, config.DataFile+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = s.fs.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.Path()); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace ledger: %w", err)
	}

	return nil
}

// Chances returns the current count, or 0 if the document can't be read.
func (s *Store) Chances() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		log.Warn().Err(err).Msg("ledger: reading chances")
		return 0
	}
	return doc.count()
}

// Add increases the count by k and returns the new total. Values of k
// below 1 are treated as 1.
func (s *Store) Add(k int) (int, error) {
	k = max(k, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	doc.setCount(doc.count() + k)
	if err := s.write(doc); err != nil {
		return 0, err
	}
	return doc.count(), nil
}

// Use spends one chance. It returns false without changing anything when
// the count is already zero.
func (s *Store) Use() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}

	if doc.count() <= 0 {
		return false, nil
	}

	doc.setCount(doc.count() - 1)
	if err := s.write(doc); err != nil {
		return false, err
	}
	return true, nil
}

// Progress returns the carry-over seconds stored for an executable name.
func (s *Store) Progress(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		log.Warn().Err(err).Msg("ledger: reading progress")
		return 0
	}
	return doc.Progress[helpers.FoldName(name)]
}

// SaveProgress stores carry-over seconds for an executable name. Negative
// values are stored as 0.
func (s *Store) SaveProgress(name string, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	doc.Progress[helpers.FoldName(name)] = max(seconds, 0)
	return s.write(doc)
}

func (s *Store) legacyPath(name string) string {
	return filepath.Join(s.dir, name)
}

// quarantine renames a legacy file that could not be parsed so it is not
// retried on every start.
func (s *Store) quarantine(path string, cause error) {
	log.Warn().Err(cause).Str("path", path).Msg("ledger: ignoring corrupt legacy file")
	if err := s.fs.Rename(path, path+".error"); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Str("path", path).Msg("ledger: failed to rename corrupt legacy file")
	}
}
