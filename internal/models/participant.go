package models

// DefaultParticipantRole is applied when an invite does not name a role.
const DefaultParticipantRole = "student"

// Participant is an invited email address under a session.
type Participant struct {
	ID        string `json:"id" db:"id"`
	SessionID string `json:"session_id" db:"session_id"`
	Email     string `json:"email" db:"email"`
	Role      string `json:"role" db:"role"`
}

// Emails returns the addresses of ps in order.
func Emails(ps []Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Email)
	}
	return out
}
