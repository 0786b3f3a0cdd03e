/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package serial implements the binary tagged-value format used for option
// blobs in project databases. Unlike the JSON used for annotation metadata,
// option values may carry raw byte strings and need a stable, self-describing
// binary encoding that survives round-trips without type loss.
//
// Wire layout: a two-byte header (magic 0xB7, format version), followed by a
// single value. Each value is a one-byte tag followed by a fixed- or
// length-prefixed payload; lengths and integers are big-endian.
package serial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	magic         = 0xB7
	formatVersion = 1
)

// Value tags.
const (
	tagNil    = 0x00
	tagFalse  = 0x01
	tagTrue   = 0x02
	tagInt    = 0x03
	tagFloat  = 0x04
	tagString = 0x05
	tagBytes  = 0x06
	tagList   = 0x07
	tagMap    = 0x08
)

// ErrUnsupportedType is returned by Marshal for values outside the supported set.
var ErrUnsupportedType = errors.New("serial: unsupported type")

// ErrMalformed is returned by Unmarshal for truncated or invalid input.
var ErrMalformed = errors.New("serial: malformed input")

// Marshal encodes a value into the binary option format. Supported types:
// nil, bool, all Go integer kinds (stored as int64), float32/float64, string,
// []byte, []any and map[string]any (recursively). Map entries are written in
// sorted key order so equal maps encode to equal bytes.
func Marshal(v any) ([]byte, error) {
	buf := make([]byte, 2, 64)
	buf[0] = magic
	buf[1] = formatVersion
	buf, err := appendValue(buf, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Unmarshal decodes a blob previously produced by Marshal. Integers come back
// as int64, floats as float64, lists as []any and maps as map[string]any.
func Unmarshal(data []byte) (any, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	if data[0] != magic {
		return nil, fmt.Errorf("%w: bad magic 0x%02x", ErrMalformed, data[0])
	}
	if data[1] != formatVersion {
		return nil, fmt.Errorf("%w: unknown format version %d", ErrMalformed, data[1])
	}
	v, rest, err := readValue(data[2:])
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}
	return v, nil
}

func appendValue(buf []byte, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return append(buf, tagNil), nil
	case bool:
		if x {
			return append(buf, tagTrue), nil
		}
		return append(buf, tagFalse), nil
	case int:
		return appendInt(buf, int64(x)), nil
	case int8:
		return appendInt(buf, int64(x)), nil
	case int16:
		return appendInt(buf, int64(x)), nil
	case int32:
		return appendInt(buf, int64(x)), nil
	case int64:
		return appendInt(buf, x), nil
	case uint8:
		return appendInt(buf, int64(x)), nil
	case uint16:
		return appendInt(buf, int64(x)), nil
	case uint32:
		return appendInt(buf, int64(x)), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, fmt.Errorf("%w: uint value %d overflows int64", ErrUnsupportedType, x)
		}
		return appendInt(buf, int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("%w: uint64 value %d overflows int64", ErrUnsupportedType, x)
		}
		return appendInt(buf, int64(x)), nil
	case float32:
		return appendFloat(buf, float64(x)), nil
	case float64:
		return appendFloat(buf, x), nil
	case string:
		buf = append(buf, tagString)
		return appendLenBytes(buf, []byte(x)), nil
	case []byte:
		buf = append(buf, tagBytes)
		return appendLenBytes(buf, x), nil
	case []any:
		buf = append(buf, tagList)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(x)))
		var err error
		for _, item := range x {
			if buf, err = appendValue(buf, item); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case map[string]any:
		buf = append(buf, tagMap)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(x)))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var err error
		for _, k := range keys {
			buf = appendLenBytes(buf, []byte(k))
			if buf, err = appendValue(buf, x[k]); err != nil {
				return nil, err
			}
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func appendInt(buf []byte, v int64) []byte {
	buf = append(buf, tagInt)
	return binary.BigEndian.AppendUint64(buf, uint64(v))
}

func appendFloat(buf []byte, v float64) []byte {
	buf = append(buf, tagFloat)
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
}

func appendLenBytes(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

func readValue(data []byte) (any, []byte, error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: missing value tag", ErrMalformed)
	}
	tag, rest := data[0], data[1:]
	switch tag {
	case tagNil:
		return nil, rest, nil
	case tagFalse:
		return false, rest, nil
	case tagTrue:
		return true, rest, nil
	case tagInt:
		if len(rest) < 8 {
			return nil, nil, fmt.Errorf("%w: truncated int", ErrMalformed)
		}
		return int64(binary.BigEndian.Uint64(rest)), rest[8:], nil
	case tagFloat:
		if len(rest) < 8 {
			return nil, nil, fmt.Errorf("%w: truncated float", ErrMalformed)
		}
		return math.Float64frombits(binary.BigEndian.Uint64(rest)), rest[8:], nil
	case tagString:
		b, rest, err := readLenBytes(rest)
		if err != nil {
			return nil, nil, err
		}
		return string(b), rest, nil
	case tagBytes:
		b, rest, err := readLenBytes(rest)
		if err != nil {
			return nil, nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, rest, nil
	case tagList:
		n, rest, err := readCount(rest)
		if err != nil {
			return nil, nil, err
		}
		// Every element occupies at least its tag byte, so a count beyond the
		// remaining input is malformed. Checking before the allocation keeps a
		// corrupt blob from requesting gigabytes of backing array.
		if n > len(rest) {
			return nil, nil, fmt.Errorf("%w: list count %d exceeds remaining %d bytes", ErrMalformed, n, len(rest))
		}
		list := make([]any, 0, n)
		for i := 0; i < n; i++ {
			var item any
			if item, rest, err = readValue(rest); err != nil {
				return nil, nil, err
			}
			list = append(list, item)
		}
		return list, rest, nil
	case tagMap:
		n, rest, err := readCount(rest)
		if err != nil {
			return nil, nil, err
		}
		// Each entry needs at least a 4-byte key length plus a value tag.
		if n > len(rest)/5 {
			return nil, nil, fmt.Errorf("%w: map count %d exceeds remaining %d bytes", ErrMalformed, n, len(rest))
		}
		m := make(map[string]any, n)
		for i := 0; i < n; i++ {
			var kb []byte
			if kb, rest, err = readLenBytes(rest); err != nil {
				return nil, nil, err
			}
			var val any
			if val, rest, err = readValue(rest); err != nil {
				return nil, nil, err
			}
			m[string(kb)] = val
		}
		return m, rest, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrMalformed, tag)
	}
}

func readLenBytes(data []byte) ([]byte, []byte, error) {
	n, rest, err := readCount(data)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) < n {
		return nil, nil, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrMalformed, n, len(rest))
	}
	return rest[:n], rest[n:], nil
}

func readCount(data []byte) (int, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("%w: truncated length", ErrMalformed)
	}
	return int(binary.BigEndian.Uint32(data)), data[4:], nil
}
