package models

import (
	"time"
)

// Session is one class session: the organizing unit participants are invited to.
type Session struct {
	ID           string        `json:"id" db:"id"`
	Title        string        `json:"title" db:"title"`
	Description  *string       `json:"description" db:"description"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	Participants []Participant `json:"participants" db:"-"`
	Meetings     []Meeting     `json:"meetings" db:"-"`
}

// DescriptionText returns the description or "" when unset.
func (s *Session) DescriptionText() string {
	if s.Description == nil {
		return ""
	}
	return *s.Description
}
