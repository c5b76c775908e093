package model

import (
	"fmt"
	"time"
)

// LocalTime formats as "YYYY-MM-DD HH:MM:SS" in UTC. Used by usage responses and CSV exports.
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// String returns the formatted time.
func (t LocalTime) String() string {
	return time.Time(t).UTC().Format(timeFormat)
}

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.String())), nil
}
