/*
 * store.go, part of alchemscan.
 *
 * Copyright 2026 Raul Mera <rmera{at}usach(dot)cl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package manifest

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//Store saves and loads manifests in a SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	batch TEXT,
	root TEXT,
	created_at DATETIME
);
CREATE TABLE IF NOT EXISTS jobs (
	run_id TEXT,
	seq INTEGER,
	name TEXT,
	dir TEXT,
	input TEXT,
	output TEXT,
	status TEXT,
	error_message TEXT,
	started_at DATETIME,
	finished_at DATETIME,
	PRIMARY KEY (run_id, seq)
);
`

//Open opens (creating it if needed) the manifest database in the file path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("manifest: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: creating tables in %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

//Close closes the database.
func (S *Store) Close() error {
	return S.db.Close()
}

//Save stores M. Saving a manifest again replaces the previous version.
func (S *Store) Save(M *Manifest) (err error) {
	tx, err := S.db.Begin()
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if _, err = tx.Exec(`INSERT OR REPLACE INTO runs (id, batch, root, created_at) VALUES (?, ?, ?, ?)`,
		M.RunID, M.Batch, M.Root, M.Created); err != nil {
		return fmt.Errorf("manifest: saving run %s: %w", M.RunID, err)
	}
	if _, err = tx.Exec(`DELETE FROM jobs WHERE run_id = ?`, M.RunID); err != nil {
		return fmt.Errorf("manifest: saving run %s: %w", M.RunID, err)
	}
	for i, e := range M.Entries {
		if _, err = tx.Exec(`INSERT INTO jobs (run_id, seq, name, dir, input, output, status, error_message, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			M.RunID, i, e.Name, e.Dir, e.Input, e.Output, string(e.Status), e.Err, e.Started, e.Finished); err != nil {
			return fmt.Errorf("manifest: saving job %s: %w", e.Name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

//Load returns the manifest with the given run ID.
func (S *Store) Load(runID string) (*Manifest, error) {
	M := &Manifest{RunID: runID}
	err := S.db.QueryRow(`SELECT batch, root, created_at FROM runs WHERE id = ?`, runID).Scan(&M.Batch, &M.Root, &M.Created)
	if err != nil {
		return nil, fmt.Errorf("manifest: loading run %s: %w", runID, err)
	}
	rows, err := S.db.Query(`SELECT name, dir, input, output, status, error_message, started_at, finished_at FROM jobs WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("manifest: loading jobs of run %s: %w", runID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		var status string
		var started, finished time.Time
		if err := rows.Scan(&e.Name, &e.Dir, &e.Input, &e.Output, &status, &e.Err, &started, &finished); err != nil {
			return nil, fmt.Errorf("manifest: loading jobs of run %s: %w", runID, err)
		}
		e.Status = Status(status)
		e.Started, e.Finished = started, finished
		M.Entries = append(M.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifest: loading jobs of run %s: %w", runID, err)
	}
	return M, nil
}

//Latest returns the most recent manifest for batch, or sql.ErrNoRows (wrapped)
//if there is none.
func (S *Store) Latest(batch string) (*Manifest, error) {
	var id string
	err := S.db.QueryRow(`SELECT id FROM runs WHERE batch = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, batch).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("manifest: no run for batch %s: %w", batch, err)
	}
	return S.Load(id)
}
