// Package notify renders calendar invitations and emails them to session participants.
package notify

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/liveclass/backend/internal/models"
)

const (
	productID = "-//Live Classes//EN"
	uidDomain = "live-classes"
)

// PlaceholderICS renders the "not yet scheduled" event sent when participants are invited
// before a meeting exists. It starts at now and lasts one meeting length.
func PlaceholderICS(s *models.Session, now time.Time) string {
	cal := newCalendar()
	ev := cal.AddEvent(s.ID + "@" + uidDomain)
	ev.SetDtStampTime(now.UTC())
	ev.SetStartAt(now.UTC())
	ev.SetEndAt(now.UTC().Add(models.MeetingDuration))
	ev.SetSummary(s.Title + " (not yet scheduled)")
	if d := s.DescriptionText(); d != "" {
		ev.SetDescription(d)
	}
	return cal.Serialize()
}

// MeetingICS renders the event for a scheduled meeting with its join URL as LOCATION.
func MeetingICS(s *models.Session, m *models.Meeting, now time.Time) string {
	cal := newCalendar()
	ev := cal.AddEvent(m.ID + "@" + uidDomain)
	ev.SetDtStampTime(now.UTC())
	ev.SetStartAt(m.ScheduledFor.UTC())
	ev.SetEndAt(m.EndsAt().UTC())
	ev.SetSummary(s.Title)
	ev.SetDescription("Join Meeting: " + m.JoinURL + "\n\n" + s.DescriptionText())
	ev.SetLocation(m.JoinURL)
	ev.SetURL(m.JoinURL)
	return cal.Serialize()
}

func newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodRequest)
	return cal
}
