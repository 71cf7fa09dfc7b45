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

package drawdb

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	bolt "go.etcd.io/bbolt"
)

// CSVRow is one draw as written by ExportCSV.
type CSVRow struct {
	Time    string `csv:"time"`
	Batch   string `csv:"batch"`
	Outcome string `csv:"outcome"`
	ID      uint64 `csv:"id"`
	Roll    int    `csv:"roll"`
	Prize   int    `csv:"prize"`
}

// ExportCSV writes every recorded draw, oldest first, as CSV with a
// header row.
func (d *Database) ExportCSV(w io.Writer) error {
	rows := make([]CSVRow, 0)

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
			rows = append(rows, CSVRow{
				ID:      r.ID,
				Time:    r.Time.UTC().Format(time.RFC3339),
				Batch:   r.Batch,
				Outcome: r.Outcome,
				Roll:    r.Roll,
				Prize:   r.Prize,
			})
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to view bolt database: %w", err)
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
