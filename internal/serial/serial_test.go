package serial

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestRoundTripScalars(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"true", true, true},
		{"false", false, false},
		{"int", 42, int64(42)},
		{"negative int64", int64(-7), int64(-7)},
		{"uint32", uint32(9000), int64(9000)},
		{"float", 3.25, 3.25},
		{"string", "hello", "hello"},
		{"empty string", "", ""},
		{"bytes", []byte{0, 1, 2, 255}, []byte{0, 1, 2, 255}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blob, err := Marshal(tc.in)
			if err != nil {
				t.Fatalf("Marshal(%v): %v", tc.in, err)
			}
			got, err := Unmarshal(blob)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("round trip mismatch: got %#v want %#v", got, tc.want)
			}
		})
	}
}

func TestRoundTripComposite(t *testing.T) {
	in := map[string]any{
		"name":    "udp.header",
		"offsets": []any{int64(0), int64(8), int64(16)},
		"color":   "#ff0000",
		"raw":     []byte{0xde, 0xad},
		"nested":  map[string]any{"show": "1234", "valid": true},
		"missing": nil,
	}
	blob, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, in)
	}
}

func TestMarshalDeterministicMapOrder(t *testing.T) {
	m := map[string]any{"b": int64(2), "a": int64(1), "c": int64(3)}
	first, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(m)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic across calls")
		}
	}
}

func TestMarshalRejectsUnsupported(t *testing.T) {
	if _, err := Marshal(struct{}{}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := Marshal(uint64(math.MaxUint64)); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected overflow error, got %v", err)
	}
	// unsupported element inside a composite
	if _, err := Marshal([]any{1, make(chan int)}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType for nested chan, got %v", err)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"short header", []byte{magic}},
		{"bad magic", []byte{0x00, formatVersion, tagNil}},
		{"bad version", []byte{magic, 99, tagNil}},
		{"missing value", []byte{magic, formatVersion}},
		{"unknown tag", []byte{magic, formatVersion, 0x7f}},
		{"truncated int", []byte{magic, formatVersion, tagInt, 1, 2}},
		{"truncated string", []byte{magic, formatVersion, tagString, 0, 0, 0, 9, 'x'}},
		{"trailing garbage", []byte{magic, formatVersion, tagNil, 0xAA}},
		{"list count exceeds input", []byte{magic, formatVersion, tagList, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"list count one past input", []byte{magic, formatVersion, tagList, 0, 0, 0, 2, tagNil}},
		{"map count exceeds input", []byte{magic, formatVersion, tagMap, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"map count one past input", []byte{magic, formatVersion, tagMap, 0, 0, 0, 2, 0, 0, 0, 1, 'k', tagNil}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Unmarshal(tc.in); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}
