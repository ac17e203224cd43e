// Package meetings schedules provider meetings against class sessions and sends their invitations.
package meetings

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/liveclass/backend/internal/apperr"
	"github.com/liveclass/backend/internal/models"
	"github.com/liveclass/backend/internal/provider"
	"github.com/liveclass/backend/internal/sessions"
)

// MeetingInviter sends the invitation for a scheduled meeting.
type MeetingInviter interface {
	SendMeeting(ctx context.Context, s *models.Session, m *models.Meeting, emails []string) error
}

// Service creates and reschedules meetings through the provider and keeps the local copy in step.
type Service struct {
	store    sessions.Store
	provider provider.Client
	invites  MeetingInviter
	logger   *zap.Logger
}

// NewService creates a meeting service.
func NewService(store sessions.Store, p provider.Client, invites MeetingInviter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, provider: p, invites: invites, logger: logger}
}

// Schedule creates a one-hour provider meeting starting at scheduledFor and stores it.
// When the session already has participants they are invited; a send failure is only logged.
func (s *Service) Schedule(ctx context.Context, sessionID string, scheduledFor time.Time) (*models.Meeting, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	start := scheduledFor.UTC()
	created, err := s.provider.CreateMeeting(ctx, provider.MeetingRequest{
		Subject: sess.Title,
		Start:   start,
		End:     start.Add(models.MeetingDuration),
	})
	if err != nil {
		return nil, err
	}

	m := &models.Meeting{
		ID:           created.ID,
		UUID:         created.UUID,
		SessionID:    sessionID,
		JoinURL:      created.JoinURL,
		ScheduledFor: start,
	}
	if err := s.store.CreateMeeting(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("meeting scheduled",
		zap.String("session_id", sessionID),
		zap.String("meeting_id", m.ID),
		zap.String("provider", s.provider.Name()),
		zap.Time("scheduled_for", start),
	)

	if len(sess.Participants) > 0 && s.invites != nil {
		if err := s.invites.SendMeeting(ctx, sess, m, models.Emails(sess.Participants)); err != nil {
			s.logger.Warn("meeting invite not sent", zap.String("meeting_id", m.ID), zap.Error(err))
		}
	}
	return m, nil
}

// Reschedule moves a meeting to newStart. The provider is patched first and the local row is
// only updated when that succeeds. The join URL is kept.
func (s *Service) Reschedule(ctx context.Context, sessionID, meetingID string, newStart time.Time) (*models.Meeting, error) {
	m, err := s.store.GetMeeting(ctx, sessionID, meetingID)
	if err != nil {
		return nil, err
	}
	start := newStart.UTC()
	if err := s.provider.UpdateMeeting(ctx, meetingID, start, start.Add(models.MeetingDuration)); err != nil {
		return nil, err
	}
	if err := s.store.UpdateMeetingSchedule(ctx, sessionID, meetingID, start); err != nil {
		return nil, err
	}
	m.ScheduledFor = start
	s.logger.Info("meeting rescheduled", zap.String("meeting_id", meetingID), zap.Time("scheduled_for", start))
	return m, nil
}

func (s *Service) List(ctx context.Context, sessionID string) ([]models.Meeting, error) {
	return s.store.ListMeetings(ctx, sessionID)
}

func (s *Service) Get(ctx context.Context, sessionID, meetingID string) (*models.Meeting, error) {
	return s.store.GetMeeting(ctx, sessionID, meetingID)
}

// SendInvites emails the latest meeting (greatest ScheduledFor) to every participant and returns
// the number of recipients. Unlike the invitations sent on create, a delivery failure is returned.
func (s *Service) SendInvites(ctx context.Context, sessionID string) (int, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	latest := models.LatestMeeting(sess.Meetings)
	if latest == nil {
		return 0, apperr.ErrNoMeeting
	}
	if len(sess.Participants) == 0 {
		return 0, apperr.ErrNoParticipants
	}
	emails := models.Emails(sess.Participants)
	if err := s.invites.SendMeeting(ctx, sess, latest, emails); err != nil {
		return 0, err
	}
	s.logger.Info("invites sent", zap.String("session_id", sessionID), zap.String("meeting_id", latest.ID), zap.Int("recipients", len(emails)))
	return len(emails), nil
}
