/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements project persistence.
// A project is a filesystem directory owning a single embedded SQLite database
// at <dir>/.pre_workbench, which stores scalar configuration options (binary
// serialized blobs) and byte-range annotations grouped into named sets.
// Every write commits immediately; there are no multi-call transactions. The
// database connection is owned exclusively by one Project handle for its
// entire lifetime and the layer assumes a single process per project file.
package storage
