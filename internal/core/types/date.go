package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the short date form accepted next to RFC3339.
const DateLayout = "2006-01-02"

// Date is a timestamp that unmarshals from RFC3339 or YYYY-MM-DD.
// It always marshals as RFC3339 in UTC.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t.UTC()}
}

// ParseDate parses RFC3339 or YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected RFC3339 or %s", s, DateLayout)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

// Ptr returns nil for the zero date, which lets DTOs keep "omitted" semantics.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.Time.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
