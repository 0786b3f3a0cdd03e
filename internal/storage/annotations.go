/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"preworkbench/internal/domain"
)

// language=SQL
// dialect=SQLite
const selectSetNamesSQL = `SELECT DISTINCT set_name FROM annotations ORDER BY set_name`

// language=SQL
// dialect=SQLite
const selectAnnotationsSQL = `SELECT rowid, start, end, meta FROM annotations WHERE set_name = ? ORDER BY rowid`

// language=SQL
// dialect=SQLite
const replaceAnnotationSQL = `REPLACE INTO annotations (rowid, set_name, start, end, meta) VALUES (?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const insertAnnotationSQL = `INSERT INTO annotations (set_name, start, end, meta) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const deleteAnnotationSetSQL = `DELETE FROM annotations WHERE set_name = ?`

// AnnotationSetNames returns the distinct set names present in the project,
// sorted for deterministic listings. A fresh project yields an empty slice.
func (p *Project) AnnotationSetNames(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, selectSetNamesSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: list annotation sets: %v", ErrStorageCorrupt, err)
	}
	defer func() { _ = rows.Close() }()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan set name: %v", ErrStorageCorrupt, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list annotation sets: %v", ErrStorageCorrupt, err)
	}
	return names, nil
}

// Annotations returns all annotations stored under setName with their
// metadata decoded. Undecodable metadata fails the whole read rather than
// silently dropping rows.
func (p *Project) Annotations(ctx context.Context, setName string) ([]domain.Annotation, error) {
	rows, err := p.db.QueryContext(ctx, selectAnnotationsSQL, setName)
	if err != nil {
		return nil, fmt.Errorf("%w: read annotations: %v", ErrStorageCorrupt, err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Annotation
	for rows.Next() {
		a := domain.Annotation{SetName: setName}
		var metaJSON string
		if err := rows.Scan(&a.ID, &a.Start, &a.End, &metaJSON); err != nil {
			return nil, fmt.Errorf("%w: scan annotation: %v", ErrStorageCorrupt, err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &a.Meta); err != nil {
			return nil, fmt.Errorf("%w: annotation %d metadata: %v", ErrSerialization, a.ID, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read annotations: %v", ErrStorageCorrupt, err)
	}
	return out, nil
}

// StoreAnnotation persists r under setName and returns its storage identity.
// A range with a non-zero ID replaces its existing row in place; a range
// without one is inserted and receives a fresh identity. The caller decides
// whether to keep the returned identity on its in-memory range; the store
// never writes into caller-owned data. Each call commits immediately.
func (p *Project) StoreAnnotation(ctx context.Context, setName string, r domain.Range) (int64, error) {
	meta := r.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("%w: annotation metadata: %v", ErrSerialization, err)
	}
	if r.ID != 0 {
		if _, err := p.db.ExecContext(ctx, replaceAnnotationSQL, r.ID, setName, r.Start, r.End, string(metaJSON)); err != nil {
			return 0, fmt.Errorf("%w: update annotation %d: %v", ErrStorageUnavailable, r.ID, err)
		}
		return r.ID, nil
	}
	res, err := p.db.ExecContext(ctx, insertAnnotationSQL, setName, r.Start, r.End, string(metaJSON))
	if err != nil {
		return 0, fmt.Errorf("%w: insert annotation: %v", ErrStorageUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: read assigned rowid: %v", ErrStorageUnavailable, err)
	}
	return id, nil
}

// DeleteAnnotationSet removes every annotation stored under setName and
// returns the number of deleted rows.
func (p *Project) DeleteAnnotationSet(ctx context.Context, setName string) (int64, error) {
	res, err := p.db.ExecContext(ctx, deleteAnnotationSetSQL, setName)
	if err != nil {
		return 0, fmt.Errorf("%w: delete annotation set %q: %v", ErrStorageUnavailable, setName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete annotation set %q: %v", ErrStorageUnavailable, setName, err)
	}
	return n, nil
}
