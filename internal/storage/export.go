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
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"preworkbench/internal/domain"
)

// annotationSetSchema validates interchange documents before any row is
// written. Offsets must be integers; meta must be an object.
const annotationSetSchema = `{
	"type": "object",
	"required": ["setName", "annotations"],
	"properties": {
		"setName": {"type": "string", "minLength": 1},
		"annotations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["start", "end", "meta"],
				"properties": {
					"id":    {"type": "integer"},
					"start": {"type": "integer"},
					"end":   {"type": "integer"},
					"meta":  {"type": "object"}
				}
			}
		}
	}
}`

// annotationSetDoc is the JSON interchange document for one annotation set.
type annotationSetDoc struct {
	SetName     string              `json:"setName"`
	Annotations []domain.Annotation `json:"annotations"`
}

// ExportAnnotationSet writes all annotations of setName to path as an
// indented JSON document. The file is written to a temp name in the target
// directory first and renamed over the destination, so readers never observe
// a partial document.
func (p *Project) ExportAnnotationSet(ctx context.Context, setName, path string) error {
	anns, err := p.Annotations(ctx, setName)
	if err != nil {
		return err
	}
	if anns == nil {
		anns = []domain.Annotation{}
	}
	doc := annotationSetDoc{SetName: setName, Annotations: anns}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal export: %v", ErrSerialization, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write export temp: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace export file: %w", err)
	}
	return nil
}

// ImportAnnotationSet reads an interchange document from path, validates it
// against the embedded schema and inserts every annotation as a new row
// (incoming identities are ignored, the project assigns fresh ones). It
// returns the imported set name and the number of inserted annotations.
func (p *Project) ImportAnnotationSet(ctx context.Context, path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read import file: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(annotationSetSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return "", 0, fmt.Errorf("%w: validate import: %v", ErrSerialization, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return "", 0, fmt.Errorf("%w: import document invalid: %s", ErrSerialization, strings.Join(msgs, "; "))
	}

	var doc annotationSetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", 0, fmt.Errorf("%w: parse import: %v", ErrSerialization, err)
	}
	count := 0
	for _, a := range doc.Annotations {
		r := domain.Range{Start: a.Start, End: a.End, Metadata: a.Meta}
		if _, err := p.StoreAnnotation(ctx, doc.SetName, r); err != nil {
			return doc.SetName, count, err
		}
		count++
	}
	return doc.SetName, count, nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}
