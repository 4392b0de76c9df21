package session

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Blobs start with a format version byte so the payload encoding can change
// without breaking sessions already in the store.
const (
	formatVersionCurrent = 1
	formatVersionV1      = 1
)

// ErrCorruptSession is returned by Decode for blobs it cannot read.
var ErrCorruptSession = errors.New("session blob corrupt")

// Encode serializes v into a versioned blob.
func Encode(v Values) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(formatVersionCurrent)

	if v == nil {
		v = Values{}
	}
	if err := json.NewEncoder(&buf).Encode(map[string]any(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a blob written by Encode. Numbers come back as json.Number;
// use [Values.Int64] to read them.
func Decode(data []byte) (Values, error) {
	if len(data) < 2 {
		return nil, ErrCorruptSession
	}

	switch data[0] {
	case formatVersionV1:
		dec := json.NewDecoder(bytes.NewReader(data[1:]))
		dec.UseNumber()

		out := Values{}
		if err := dec.Decode(&out); err != nil {
			return nil, errors.Join(ErrCorruptSession, err)
		}
		return out, nil
	default:
		return nil, ErrCorruptSession
	}
}
