// Package sessions manages class sessions and their invited participants.
package sessions

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/liveclass/backend/internal/models"
)

// PlaceholderInviter sends the "not yet scheduled" invitation to new participants.
type PlaceholderInviter interface {
	SendPlaceholder(ctx context.Context, s *models.Session, emails []string) error
}

// Service implements session and participant operations over a Store.
type Service struct {
	store   Store
	invites PlaceholderInviter
	logger  *zap.Logger
}

// NewService creates a session service. invites may be nil to skip invitations.
func NewService(store Store, invites PlaceholderInviter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, invites: invites, logger: logger}
}

// Create stores a new session with a fresh id.
func (s *Service) Create(ctx context.Context, title string, description *string) (*models.Session, error) {
	sess := &models.Session{Title: title, Description: description}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	sess.Participants = []models.Participant{}
	sess.Meetings = []models.Meeting{}
	s.logger.Info("session created", zap.String("session_id", sess.ID))
	return sess, nil
}

func (s *Service) List(ctx context.Context) ([]models.Session, error) {
	return s.store.ListSessions(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.store.GetSession(ctx, id)
}

// Delete removes the session together with its participants and meetings.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session_id", id))
	return nil
}

// AddParticipants invites emails to the session, one participant per address (duplicates included).
// The placeholder invitation is best effort: a send failure is logged and the participants are returned.
func (s *Service) AddParticipants(ctx context.Context, sessionID string, emails []string, role string) ([]models.Participant, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(role) == "" {
		role = models.DefaultParticipantRole
	}
	created, err := s.store.AddParticipants(ctx, sessionID, emails, role)
	if err != nil {
		return nil, err
	}

	if s.invites != nil && len(created) > 0 {
		if err := s.invites.SendPlaceholder(ctx, sess, models.Emails(created)); err != nil {
			s.logger.Warn("placeholder invite not sent",
				zap.String("session_id", sessionID),
				zap.Int("recipients", len(created)),
				zap.Error(err),
			)
		}
	}
	return created, nil
}

func (s *Service) ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	return s.store.ListParticipants(ctx, sessionID)
}

func (s *Service) RemoveParticipant(ctx context.Context, sessionID, participantID string) error {
	return s.store.DeleteParticipant(ctx, sessionID, participantID)
}
