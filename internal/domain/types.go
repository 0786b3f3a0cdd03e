/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model structures shared between the
// persistence layer and its callers (parse runs, range views, the CLI).

// Range is a labeled byte range produced by an annotating parse run or drawn
// by hand over a hex view. Start and End are byte offsets into the analyzed
// buffer; the store does not enforce Start <= End, that is the producer's
// concern.
//
// ID is the storage identity of the range. It is zero for a range that was
// never persisted; the store assigns an identity on first insert and returns
// it to the caller. A Range with a non-zero ID updates its existing row in
// place when stored again.
type Range struct {
	ID       int64
	Start    int64
	End      int64
	Metadata map[string]any
}

// NewRange returns a Range covering [start, end) with an empty metadata map.
func NewRange(start, end int64) Range {
	return Range{Start: start, End: end, Metadata: map[string]any{}}
}

// Length returns the number of bytes covered by the range.
// Negative for inverted ranges, which the store accepts as-is.
func (r Range) Length() int64 { return r.End - r.Start }

// WithMeta sets a metadata key and returns the range for chaining during construction.
func (r Range) WithMeta(key string, value any) Range {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
	return r
}

// Annotation is a persisted range row as read back from a project database.
// Meta is the decoded metadata object that was stored alongside the offsets.
type Annotation struct {
	ID      int64          `json:"id"`
	SetName string         `json:"setName"`
	Start   int64          `json:"start"`
	End     int64          `json:"end"`
	Meta    map[string]any `json:"meta"`
}

// Common metadata keys written by annotating parse runs. Arbitrary additional
// keys are allowed; these are the ones the range views understand.
const (
	MetaName     = "name"     // dotted field path within the parsed structure
	MetaShow     = "show"     // display string of the decoded value
	MetaShowName = "showname" // human-readable field label
	MetaColor    = "color"    // highlight color, "#rrggbb"
)
