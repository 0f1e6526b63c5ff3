package domain

import "time"

// TextChange records the old and new value of a text field.
type TextChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// TimeChange records the old and new value of an instant field.
type TimeChange struct {
	Old time.Time `json:"old"`
	New time.Time `json:"new"`
}

// NamesChange records the old and new assignment set as profile display
// names, captured at diff time. Names, not identifiers, are the durable
// audit artifact: the entry stays legible after a profile is renamed or
// removed.
type NamesChange struct {
	Old []string `json:"old"`
	New []string `json:"new"`
}

// ChangeSet is the field-level diff recorded by one update. It is a closed
// set of fields rather than an open map so rendering and tests are
// exhaustive by construction. A nil field means the field did not change in
// that transaction; the JSON form is a {field: {old, new}} object holding
// only changed fields.
type ChangeSet struct {
	Title       *TextChange  `json:"title,omitempty"`
	Description *TextChange  `json:"description,omitempty"`
	Profiles    *NamesChange `json:"profiles,omitempty"`
	Timezone    *TextChange  `json:"timezone,omitempty"`
	StartsAt    *TimeChange  `json:"starts_at,omitempty"`
	EndsAt      *TimeChange  `json:"ends_at,omitempty"`
}

// IsEmpty reports whether no tracked field changed.
func (c ChangeSet) IsEmpty() bool {
	return c.Title == nil &&
		c.Description == nil &&
		c.Profiles == nil &&
		c.Timezone == nil &&
		c.StartsAt == nil &&
		c.EndsAt == nil
}

// FieldNames returns the names of the changed fields in a fixed order.
func (c ChangeSet) FieldNames() []string {
	var names []string
	if c.Title != nil {
		names = append(names, "title")
	}
	if c.Description != nil {
		names = append(names, "description")
	}
	if c.Profiles != nil {
		names = append(names, "profiles")
	}
	if c.Timezone != nil {
		names = append(names, "timezone")
	}
	if c.StartsAt != nil {
		names = append(names, "starts_at")
	}
	if c.EndsAt != nil {
		names = append(names, "ends_at")
	}
	return names
}
