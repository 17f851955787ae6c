// Package ics renders appointments as an iCalendar (RFC 5545) feed.
package ics

import (
	"agenda/cmd/internal/scheduling"

	ical "github.com/arran4/golang-ical"
)

const (
	ProductID = "-//agenda//appointments//EN"
	uidDomain = "@agenda"
)

// Export builds a VCALENDAR with one VEVENT per appointment. Instances of a
// series are exported individually since each one is stored and edited on
// its own; they are tied together with RELATED-TO.
func Export(appts []*scheduling.Appointment) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, appt := range appts {
		ev := cal.AddEvent(appt.ID + uidDomain)
		ev.SetCreatedTime(appt.CreatedAt)
		ev.SetDtStampTime(appt.UpdatedAt)
		ev.SetModifiedAt(appt.UpdatedAt)
		ev.SetStartAt(appt.Range.Start())
		ev.SetEndAt(appt.Range.End())
		ev.SetSummary(appt.Title)
		if appt.Description != "" {
			ev.SetDescription(appt.Description)
		}
		if appt.Location != "" {
			ev.SetLocation(appt.Location)
		}
		if appt.SeriesID != "" {
			ev.AddProperty(ical.ComponentPropertyRelatedTo, appt.SeriesID+uidDomain)
		}
	}
	return cal.Serialize()
}
