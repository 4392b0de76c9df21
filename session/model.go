package session

import (
	"encoding/json"
	"math"
)

// Well-known keys written by the engine. Any other key belongs to the
// application and is carried through untouched.
const (
	KeyUser        = "user"
	KeyLastRequest = "last_request"
	KeyRemember    = "remember"
	KeyFlash       = "flash"
)

// Values is a session's key/value state. A nil Values means "no session"
// on load and "leave the session alone" on save; an empty, non-nil Values
// clears it.
type Values map[string]any

// Clone returns a shallow copy of v. Cloning nil yields nil.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Int64 reads key as an integer. Decoded sessions hold numbers as
// json.Number or float64; both are accepted when they are whole.
func (v Values) Int64(key string) (int64, bool) {
	switch n := v[key].(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Bool reads key as a boolean.
func (v Values) Bool(key string) (bool, bool) {
	b, ok := v[key].(bool)
	return b, ok
}

// String reads key as a string.
func (v Values) String(key string) (string, bool) {
	s, ok := v[key].(string)
	return s, ok
}
