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

// Package drawdb keeps a history of lottery draws in a bbolt file.
package drawdb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/dopamine-lottery/pkg/lottery"
	bolt "go.etcd.io/bbolt"
)

const BucketDraws = "draws"

var errNoBucket = errors.New("draws bucket does not exist")

// Record is one stored draw.
type Record struct {
	Time    time.Time `json:"time"`
	Batch   string    `json:"batch"`
	Outcome string    `json:"outcome"`
	ID      uint64    `json:"id"`
	Prize   int       `json:"prize"`
	Roll    int       `json:"roll"`
}

// Stats aggregates every recorded draw.
type Stats struct {
	Plays      int
	Wins       int
	Jackpots   int
	Losses     int
	TotalPrize int
}

type Database struct {
	bdb *bolt.DB
}

func Open(path string) (*Database, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketDraws))
		return err //nolint:wrapcheck // wrapped below
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create draws bucket: %w", err)
	}

	return &Database{bdb: db}, nil
}

func (d *Database) Close() error {
	if err := d.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	return nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Record appends a draw result under the next sequence id.
//
//nolint:gocritic // lottery.Result passed by value to satisfy lottery.Recorder
func (d *Database) Record(r lottery.Result) error {
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketDraws))
		if b == nil {
			return errNoBucket
		}

		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}

		data, err := json.Marshal(Record{
			ID:      id,
			Batch:   r.Batch,
			Outcome: r.Outcome.String(),
			Prize:   r.Prize,
			Roll:    r.Roll,
			Time:    r.Time,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal draw: %w", err)
		}

		return b.Put(itob(id), data)
	})
	if err != nil {
		return fmt.Errorf("failed to record draw: %w", err)
	}
	return nil
}

// Recent returns up to limit draws, newest first.
func (d *Database) Recent(limit int) ([]Record, error) {
	rs := make([]Record, 0, max(limit, 0))
	if limit <= 0 {
		return rs, nil
	}

	err := d.bdb.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketDraws))
		if b == nil {
			return errNoBucket
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(rs) < limit; k, v = c.Prev() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("failed to unmarshal draw %d: %w", binary.BigEndian.Uint64(k), err)
			}
			rs = append(rs, r)
		}
		return nil
	})
	if err != nil {
		return rs, fmt.Errorf("failed to view bolt database: %w", err)
	}

	return rs, nil
}

func (d *Database) Stats() (Stats, error) {
	var s Stats

	err := d.bdb.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketDraws))
		if b == nil {
			return errNoBucket
		}

		return b.ForEach(func(_, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("failed to unmarshal draw: %w", err)
			}
			s.Plays++
			s.TotalPrize += r.Prize
			switch r.Outcome {
			case lottery.OutcomeWin.String():
				s.Wins++
			case lottery.OutcomeJackpot.String():
				s.Jackpots++
			default:
				s.Losses++
			}
			return nil
		})
	})
	if err != nil {
		return s, fmt.Errorf("failed to view bolt database: %w", err)
	}

	return s, nil
}
