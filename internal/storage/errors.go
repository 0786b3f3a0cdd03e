/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import "errors"

// Error taxonomy of the persistence layer. All errors returned by Project
// methods wrap one of these sentinels; callers are expected to report the
// failure and abort the attempted action, there is no retry or degraded mode.
var (
	// ErrStorageUnavailable indicates the database file cannot be opened or
	// created (missing directory, permissions, disk full, incompatible lock).
	ErrStorageUnavailable = errors.New("project storage unavailable")

	// ErrStorageCorrupt indicates the database file exists but its schema or
	// content is unreadable.
	ErrStorageCorrupt = errors.New("project database corrupt")

	// ErrSerialization indicates an option value or annotation metadata object
	// could not be encoded or decoded.
	ErrSerialization = errors.New("value serialization failed")
)
