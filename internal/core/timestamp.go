package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is an instant persisted as epoch milliseconds. Records written
// with an RFC 3339 string are read too, and come back out as milliseconds.
type Timestamp struct {
	time.Time
}

// TimestampOf truncates t to the millisecond so a stored value compares
// equal to the one it was built from.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{t.Truncate(time.Millisecond)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UnixMilli())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*t = Timestamp{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		*t = Timestamp{parsed}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("timestamp %s: want epoch milliseconds or RFC 3339", b)
	}
	ms, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("timestamp %s: %w", b, ferr)
		}
		ms = int64(f)
	}
	*t = Timestamp{time.UnixMilli(ms)}
	return nil
}
