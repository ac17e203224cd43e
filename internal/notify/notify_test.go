package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveclass/backend/internal/apperr"
	"github.com/liveclass/backend/internal/models"
)

var fixedNow = time.Date(2025, 1, 5, 8, 30, 0, 0, time.UTC)

func algebra() *models.Session {
	desc := "Linear equations"
	return &models.Session{ID: "S1", Title: "Algebra", Description: &desc}
}

func TestPlaceholderICS(t *testing.T) {
	out := PlaceholderICS(algebra(), fixedNow)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:-//Live Classes//EN")
	assert.Contains(t, out, "METHOD:REQUEST")
	assert.Contains(t, out, "UID:S1@live-classes")
	assert.Contains(t, out, "SUMMARY:Algebra (not yet scheduled)")
	assert.Contains(t, out, "DTSTART:20250105T083000Z")
	assert.Contains(t, out, "DTEND:20250105T093000Z")
	assert.NotContains(t, out, "LOCATION:")
}

func TestMeetingICS(t *testing.T) {
	m := &models.Meeting{ID: "42", SessionID: "S1", JoinURL: "https://provider/j/42",
		ScheduledFor: time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)}
	out := MeetingICS(algebra(), m, fixedNow)

	assert.Contains(t, out, "UID:42@live-classes")
	assert.Contains(t, out, "SUMMARY:Algebra")
	assert.Contains(t, out, "DTSTART:20250110T100000Z")
	assert.Contains(t, out, "DTEND:20250110T110000Z")
	assert.Contains(t, out, "LOCATION:https://provider/j/42")
	assert.Contains(t, out, "Join Meeting: https://provider/j/42")
}

type recordingMailer struct {
	sent []Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestInvitesSendPlaceholder(t *testing.T) {
	m := &recordingMailer{}
	inv := NewInvites(m, func() time.Time { return fixedNow }, nil)

	require.NoError(t, inv.SendPlaceholder(context.Background(), algebra(), []string{"a@x.com", "b@x.com"}))
	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, msg.To)
	assert.Equal(t, "Invited to session: Algebra", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "session_invite.ics", msg.Attachments[0].Filename)
	assert.Equal(t, CalendarContentType, msg.Attachments[0].ContentType)
	assert.Contains(t, string(msg.Attachments[0].Data), "UID:S1@live-classes")
}

func TestInvitesSkipEmptyRecipients(t *testing.T) {
	m := &recordingMailer{}
	inv := NewInvites(m, nil, nil)
	require.NoError(t, inv.SendPlaceholder(context.Background(), algebra(), nil))
	assert.Empty(t, m.sent)
}

func TestInvitesPropagateDeliveryError(t *testing.T) {
	m := &recordingMailer{err: fmt.Errorf("%w: dial tcp: refused", apperr.ErrDelivery)}
	inv := NewInvites(m, nil, nil)
	meeting := &models.Meeting{ID: "42", JoinURL: "https://provider/j/42", ScheduledFor: fixedNow}

	err := inv.SendMeeting(context.Background(), algebra(), meeting, []string{"a@x.com"})
	assert.True(t, errors.Is(err, apperr.ErrDelivery))
}

func TestBuildMessageAttachesCalendar(t *testing.T) {
	gm := buildMessage("noreply@example.com", "Live Classes", Message{
		To:      []string{"a@x.com"},
		Subject: "Class scheduled: Algebra",
		Body:    "Algebra is scheduled",
		Attachments: []Attachment{{
			Filename:    "meeting_invite.ics",
			ContentType: CalendarContentType,
			Data:        []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"),
		}},
	})
	var buf bytes.Buffer
	_, err := gm.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Subject: Class scheduled: Algebra")
	assert.Contains(t, raw, "text/calendar; method=REQUEST")
	assert.Contains(t, raw, `filename="meeting_invite.ics"`)
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	mailer := &SMTPMailer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := mailer.Send(ctx, Message{To: []string{"a@x.com"}})
	assert.True(t, errors.Is(err, apperr.ErrDelivery))
}
