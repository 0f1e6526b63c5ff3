package domain

import (
	"fmt"
	"time"
)

// Wall-clock layouts accepted for event start and end values. A wall-clock
// value carries no offset; it only becomes an instant once interpreted in a
// timezone.
var wallClockLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// LoadZone validates name as an IANA zone identifier and returns its
// Location. An empty or unknown name is a ValidationError.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, NewValidationError("timezone is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("unknown timezone %q", name))
	}
	return loc, nil
}

// ParseWallClock interprets a wall-clock value in loc and returns the
// absolute instant in UTC. Values carrying their own offset (RFC 3339) are
// accepted as-is.
func ParseWallClock(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, NewValidationError("date/time value is required")
	}
	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, NewValidationError(fmt.Sprintf("invalid date/time value %q", value))
}
