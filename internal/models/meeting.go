package models

import (
	"time"
)

// MeetingDuration is the fixed length of every scheduled meeting.
const MeetingDuration = time.Hour

// Meeting is a provider meeting scheduled against a session.
type Meeting struct {
	ID           string    `json:"id" db:"id"` // provider-assigned
	UUID         string    `json:"uuid,omitempty" db:"uuid"`
	SessionID    string    `json:"session_id" db:"session_id"`
	JoinURL      string    `json:"join_url" db:"join_url"`
	ScheduledFor time.Time `json:"scheduled_for" db:"scheduled_for"`
}

// EndsAt returns the end of the meeting under the fixed-duration policy.
func (m Meeting) EndsAt() time.Time {
	return m.ScheduledFor.Add(MeetingDuration)
}

// LatestMeeting returns the meeting with the greatest ScheduledFor, or nil for an empty list.
func LatestMeeting(ms []Meeting) *Meeting {
	var latest *Meeting
	for i := range ms {
		if latest == nil || ms[i].ScheduledFor.After(latest.ScheduledFor) {
			latest = &ms[i]
		}
	}
	return latest
}
