package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/liveclass/backend/internal/metrics"
	"github.com/liveclass/backend/internal/models"
)

// CalendarContentType is the MIME type of invitation attachments.
const CalendarContentType = `text/calendar; method=REQUEST; charset="UTF-8"`

// Invites builds and sends session and meeting invitations.
type Invites struct {
	mailer Mailer
	now    func() time.Time
	logger *zap.Logger
}

// NewInvites returns an Invites over mailer. now may be nil.
func NewInvites(mailer Mailer, now func() time.Time, logger *zap.Logger) *Invites {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Invites{mailer: mailer, now: now, logger: logger}
}

// SendPlaceholder emails a "not yet scheduled" invite for s to emails.
func (i *Invites) SendPlaceholder(ctx context.Context, s *models.Session, emails []string) error {
	msg := Message{
		To:      emails,
		Subject: "Invited to session: " + s.Title,
		Body:    "You are invited to " + s.Title,
		Attachments: []Attachment{{
			Filename:    "session_invite.ics",
			ContentType: CalendarContentType,
			Data:        []byte(PlaceholderICS(s, i.now())),
		}},
	}
	return i.send(ctx, "placeholder", msg)
}

// SendMeeting emails the invite for meeting m of s to emails.
func (i *Invites) SendMeeting(ctx context.Context, s *models.Session, m *models.Meeting, emails []string) error {
	msg := Message{
		To:      emails,
		Subject: "Class scheduled: " + s.Title,
		Body: fmt.Sprintf("%s is scheduled for %s.\nJoin: %s",
			s.Title, m.ScheduledFor.UTC().Format("Mon, 02 Jan 2006 15:04 MST"), m.JoinURL),
		Attachments: []Attachment{{
			Filename:    "meeting_invite.ics",
			ContentType: CalendarContentType,
			Data:        []byte(MeetingICS(s, m, i.now())),
		}},
	}
	return i.send(ctx, "meeting", msg)
}

func (i *Invites) send(ctx context.Context, kind string, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	if err := i.mailer.Send(ctx, msg); err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "failed").Inc()
		return err
	}
	metrics.EmailsSent.WithLabelValues(kind, "sent").Inc()
	return nil
}
