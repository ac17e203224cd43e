// Package sessionstest provides an in-memory sessions.Store for tests in other packages.
package sessionstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liveclass/backend/internal/apperr"
	"github.com/liveclass/backend/internal/models"
	"github.com/liveclass/backend/internal/sessions"
)

var _ sessions.Store = (*MemoryStore)(nil)

// MemoryStore is a test-only sessions.Store with the same not-found, ordering and upsert
// behaviour as sessions.Repository.
type MemoryStore struct {
	mu           sync.Mutex
	sessions     map[string]*models.Session
	order        []string
	participants map[string][]models.Participant
	meetings     map[string][]models.Meeting
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     map[string]*models.Session{},
		participants: map[string][]models.Participant{},
		meetings:     map[string][]models.Meeting{},
	}
}

func (m *MemoryStore) CreateSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UTC()
	cp := *s
	cp.Participants, cp.Meetings = nil, nil
	m.sessions[s.ID] = &cp
	m.order = append(m.order, s.ID)
	return nil
}

func (m *MemoryStore) ListSessions(ctx context.Context) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Session{}
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session")
	}
	cp := *s
	cp.Participants = append([]models.Participant{}, m.participants[id]...)
	cp.Meetings = append([]models.Meeting{}, m.meetings[id]...)
	return &cp, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return apperr.NotFound("session")
	}
	delete(m.sessions, id)
	delete(m.participants, id)
	delete(m.meetings, id)
	return nil
}

func (m *MemoryStore) AddParticipants(ctx context.Context, sessionID string, emails []string, role string) ([]models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, apperr.NotFound("session")
	}
	created := make([]models.Participant, 0, len(emails))
	for _, email := range emails {
		created = append(created, models.Participant{ID: uuid.NewString(), SessionID: sessionID, Email: email, Role: role})
	}
	m.participants[sessionID] = append(m.participants[sessionID], created...)
	return created, nil
}

func (m *MemoryStore) ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, apperr.NotFound("session")
	}
	return append([]models.Participant{}, m.participants[sessionID]...), nil
}

func (m *MemoryStore) DeleteParticipant(ctx context.Context, sessionID, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.participants[sessionID]
	for i, p := range list {
		if p.ID == participantID {
			m.participants[sessionID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("participant")
}

// CreateMeeting upserts on the provider id, like sessions.Repository.
func (m *MemoryStore) CreateMeeting(ctx context.Context, mt *models.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[mt.SessionID]; !ok {
		return apperr.NotFound("session")
	}
	for sid, list := range m.meetings {
		for i := range list {
			if list[i].ID == mt.ID {
				m.meetings[sid] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	m.meetings[mt.SessionID] = append(m.meetings[mt.SessionID], *mt)
	return nil
}

func (m *MemoryStore) GetMeeting(ctx context.Context, sessionID, meetingID string) (*models.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mt := range m.meetings[sessionID] {
		if mt.ID == meetingID {
			cp := mt
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("meeting")
}

func (m *MemoryStore) ListMeetings(ctx context.Context, sessionID string) ([]models.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil, apperr.NotFound("session")
	}
	return append([]models.Meeting{}, m.meetings[sessionID]...), nil
}

func (m *MemoryStore) UpdateMeetingSchedule(ctx context.Context, sessionID, meetingID string, scheduledFor time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.meetings[sessionID]
	for i := range list {
		if list[i].ID == meetingID {
			list[i].ScheduledFor = scheduledFor.UTC()
			return nil
		}
	}
	return apperr.NotFound("meeting")
}

// SessionIDs returns the stored session ids sorted, for assertions.
func (m *MemoryStore) SessionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
