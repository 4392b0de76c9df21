package session

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	in := Values{
		KeyUser:        map[string]any{"username": "david"},
		KeyLastRequest: int64(123),
		KeyRemember:    true,
		KeyFlash:       "Welcome",
		"cart":         "3 items",
	}

	blob, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if blob[0] != formatVersionCurrent {
		t.Fatalf("version byte = %d", blob[0])
	}

	out, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ts, ok := out.Int64(KeyLastRequest); !ok || ts != 123 {
		t.Fatalf("last_request = %v, %v", ts, ok)
	}
	if r, ok := out.Bool(KeyRemember); !ok || !r {
		t.Fatalf("remember = %v, %v", r, ok)
	}
	if f, _ := out.String(KeyFlash); f != "Welcome" {
		t.Fatalf("flash = %q", f)
	}
	user, ok := out[KeyUser].(map[string]any)
	if !ok || user["username"] != "david" {
		t.Fatalf("user = %#v", out[KeyUser])
	}
}

func TestDecodeRejectsCorruptBlobs(t *testing.T) {
	cases := map[string][]byte{
		"empty":           nil,
		"version only":    {formatVersionCurrent},
		"unknown version": append([]byte{9}, []byte(`{"a":1}`)...),
		"bad json":        append([]byte{formatVersionCurrent}, []byte(`{"a":`)...),
		"not an object":   append([]byte{formatVersionCurrent}, []byte(`[1,2]`)...),
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(blob); !errors.Is(err, ErrCorruptSession) {
				t.Fatalf("expected ErrCorruptSession, got %v", err)
			}
		})
	}
}

func TestValuesInt64(t *testing.T) {
	v := Values{
		"i64":     int64(5),
		"int":     6,
		"float":   float64(7),
		"frac":    7.5,
		"number":  json.Number("8"),
		"badnum":  json.Number("x"),
		"string":  "9",
		"missing": nil,
	}
	tests := []struct {
		key  string
		want int64
		ok   bool
	}{
		{"i64", 5, true},
		{"int", 6, true},
		{"float", 7, true},
		{"frac", 0, false},
		{"number", 8, true},
		{"badnum", 0, false},
		{"string", 0, false},
		{"missing", 0, false},
		{"absent", 0, false},
	}
	for _, tt := range tests {
		got, ok := v.Int64(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Int64(%q) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCloneIsShallowCopy(t *testing.T) {
	if Values(nil).Clone() != nil {
		t.Fatal("expected nil clone of nil")
	}
	src := Values{"a": 1}
	dst := src.Clone()
	dst["a"] = 2
	if src["a"] != 1 {
		t.Fatal("clone aliases source")
	}
}
