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
	"database/sql"
	"errors"
	"fmt"

	"preworkbench/internal/serial"
)

// language=SQL
// dialect=SQLite
const selectOptionSQL = `SELECT value FROM options WHERE name = ?`

// language=SQL
// dialect=SQLite
const upsertOptionSQL = `REPLACE INTO options (name, value) VALUES (?, ?)`

// FormatInfosOptionKey is the option under which the project's format-info
// grammar source is persisted.
const FormatInfosOptionKey = "format_infos"

// DefaultFormatInfos is the grammar source a fresh project starts with.
const DefaultFormatInfos = `DEFAULT struct(endianness="<") {}`

// GetValue looks up a named option and returns its decoded value, or
// defaultValue when the option was never set. A missing key is not an error.
func (p *Project) GetValue(ctx context.Context, key string, defaultValue any) (any, error) {
	var blob []byte
	err := p.db.QueryRowContext(ctx, selectOptionSQL, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultValue, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read option %q: %v", ErrStorageCorrupt, key, err)
	}
	v, err := serial.Unmarshal(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: option %q: %v", ErrSerialization, key, err)
	}
	return v, nil
}

// SetValue serializes value and upserts the row for key. The write is its own
// durable transaction; later reads through any handle observe it.
func (p *Project) SetValue(ctx context.Context, key string, value any) error {
	blob, err := serial.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: option %q: %v", ErrSerialization, key, err)
	}
	if _, err := p.db.ExecContext(ctx, upsertOptionSQL, key, blob); err != nil {
		return fmt.Errorf("%w: write option %q: %v", ErrStorageUnavailable, key, err)
	}
	return nil
}

// GetString is a convenience wrapper for string-typed options.
// A stored value of a different type counts as a serialization failure.
func (p *Project) GetString(ctx context.Context, key, defaultValue string) (string, error) {
	v, err := p.GetValue(ctx, key, defaultValue)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: option %q holds %T, want string", ErrSerialization, key, v)
	}
	return s, nil
}

// FormatInfos returns the project's format-info grammar source, falling back
// to the default grammar for a fresh project. The grammar is persisted as a
// plain option; parsing it is a collaborator's concern.
func (p *Project) FormatInfos(ctx context.Context) (string, error) {
	return p.GetString(ctx, FormatInfosOptionKey, DefaultFormatInfos)
}

// SetFormatInfos persists the format-info grammar source.
func (p *Project) SetFormatInfos(ctx context.Context, text string) error {
	return p.SetValue(ctx, FormatInfosOptionKey, text)
}
