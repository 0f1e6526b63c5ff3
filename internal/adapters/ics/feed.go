package ics

import (
	ical "github.com/arran4/golang-ical"

	"teamcal/internal/domain"
)

const productID = "-//teamcal//calendar feed//EN"

// Feed renders the given events as an iCalendar VCALENDAR document. Event
// instants are absolute, so they are emitted as UTC; consuming clients apply
// their own display zone.
func Feed(events []*domain.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, event := range events {
		ve := cal.AddEvent(event.ID)
		ve.SetCreatedTime(event.CreatedAt)
		ve.SetDtStampTime(event.UpdatedAt)
		ve.SetModifiedAt(event.UpdatedAt)
		ve.SetStartAt(event.StartsAt)
		ve.SetEndAt(event.EndsAt)
		ve.SetSummary(event.Title)
		if event.Description != "" {
			ve.SetDescription(event.Description)
		}
	}
	return cal.Serialize()
}
