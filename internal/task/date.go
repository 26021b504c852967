package task

import (
	"bytes"
	"encoding/json"
	"time"
)

// DateLayout is the ISO calendar-day format used on the wire and in SQLite.
const DateLayout = "2006-01-02"

// Date is a nullable calendar day at midnight UTC.
//
// A Date can be absent (null or empty on the wire) or present but
// unparsable. Both report Valid() == false; Raw keeps the original text of
// an unparsable value so it can be shown or written back.
type Date struct {
	t     time.Time
	valid bool
	raw   string
}

// NewDate returns a valid Date for the calendar day of t.
func NewDate(t time.Time) Date {
	return Date{t: Day(t), valid: true}
}

// ParseDate parses an ISO day. Empty input yields a null Date; anything
// unparsable yields an invalid Date carrying the raw text. It never fails.
func ParseDate(s string) Date {
	if s == "" {
		return Date{}
	}
	if len(s) > len(DateLayout) {
		// Accept full timestamps by keeping the day part.
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return NewDate(t)
		}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{raw: s}
	}
	return Date{t: t, valid: true}
}

// MustDate parses s and panics if it is not a valid day. Intended for tests
// and constants.
func MustDate(s string) Date {
	d := ParseDate(s)
	if !d.Valid() {
		panic("task: invalid date " + s)
	}
	return d
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (d Date) Valid() bool     { return d.valid }
func (d Date) Time() time.Time { return d.t }

// IsNull reports whether the date was absent rather than malformed.
func (d Date) IsNull() bool { return !d.valid && d.raw == "" }

func (d Date) String() string {
	if d.valid {
		return d.t.Format(DateLayout)
	}
	return d.raw
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Not a string at all; keep it as malformed instead of failing the
		// whole record.
		*d = Date{raw: string(data)}
		return nil
	}
	*d = ParseDate(s)
	return nil
}
