package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liveclass/backend/internal/apperr"
	"github.com/liveclass/backend/internal/models"
)

// Store persists sessions, participants and meetings. Missing rows are reported as apperr.ErrNotFound.
type Store interface {
	CreateSession(ctx context.Context, s *models.Session) error
	ListSessions(ctx context.Context) ([]models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error

	AddParticipants(ctx context.Context, sessionID string, emails []string, role string) ([]models.Participant, error)
	ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error)
	DeleteParticipant(ctx context.Context, sessionID, participantID string) error

	CreateMeeting(ctx context.Context, m *models.Meeting) error
	GetMeeting(ctx context.Context, sessionID, meetingID string) (*models.Meeting, error)
	ListMeetings(ctx context.Context, sessionID string) ([]models.Meeting, error)
	UpdateMeetingSchedule(ctx context.Context, sessionID, meetingID string, scheduledFor time.Time) error
}

// Repository is the PostgreSQL Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// newID returns a time-ordered UUID so that id order follows insertion order.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CreateSession inserts s, assigning its ID and CreatedAt.
func (r *Repository) CreateSession(ctx context.Context, s *models.Session) error {
	const q = `INSERT INTO class_sessions (id, title, description) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, newID(), s.Title, s.Description).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListSessions returns all sessions without their children, oldest first.
func (r *Repository) ListSessions(ctx context.Context) ([]models.Session, error) {
	const q = `SELECT id, title, description, created_at FROM class_sessions ORDER BY created_at, id`
	list := []models.Session{}
	if err := pgxscan.Select(ctx, r.pool, &list, q); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

// GetSession returns the session with its participants and meetings.
func (r *Repository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	const q = `SELECT id, title, description, created_at FROM class_sessions WHERE id = $1`
	var s models.Session
	if err := pgxscan.Get(ctx, r.pool, &s, q, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperr.NotFound("session")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var err error
	if s.Participants, err = r.listParticipants(ctx, r.pool, id); err != nil {
		return nil, err
	}
	if s.Meetings, err = r.listMeetings(ctx, r.pool, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes a session; participants and meetings cascade.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM class_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("session")
	}
	return nil
}

// AddParticipants inserts one participant per email in a single transaction.
func (r *Repository) AddParticipants(ctx context.Context, sessionID string, emails []string, role string) ([]models.Participant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := sessionExists(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	const q = `INSERT INTO participants (id, session_id, email, role) VALUES ($1, $2, $3, $4)`
	created := make([]models.Participant, 0, len(emails))
	for _, email := range emails {
		p := models.Participant{ID: newID(), SessionID: sessionID, Email: email, Role: role}
		if _, err := tx.Exec(ctx, q, p.ID, p.SessionID, p.Email, p.Role); err != nil {
			return nil, fmt.Errorf("insert participant: %w", err)
		}
		created = append(created, p)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit participants: %w", err)
	}
	return created, nil
}

// ListParticipants returns the session's participants in insertion order.
func (r *Repository) ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	if err := sessionExists(ctx, r.pool, sessionID); err != nil {
		return nil, err
	}
	return r.listParticipants(ctx, r.pool, sessionID)
}

// DeleteParticipant removes one participant of the session.
func (r *Repository) DeleteParticipant(ctx context.Context, sessionID, participantID string) error {
	const q = `DELETE FROM participants WHERE id = $1 AND session_id = $2`
	tag, err := r.pool.Exec(ctx, q, participantID, sessionID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("participant")
	}
	return nil
}

// CreateMeeting stores m keyed by its provider id. A provider id seen again overwrites the row.
func (r *Repository) CreateMeeting(ctx context.Context, m *models.Meeting) error {
	const q = `INSERT INTO meetings (id, uuid, session_id, join_url, scheduled_for)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			uuid = EXCLUDED.uuid,
			session_id = EXCLUDED.session_id,
			join_url = EXCLUDED.join_url,
			scheduled_for = EXCLUDED.scheduled_for`
	if _, err := r.pool.Exec(ctx, q, m.ID, m.UUID, m.SessionID, m.JoinURL, m.ScheduledFor.UTC()); err != nil {
		return fmt.Errorf("upsert meeting: %w", err)
	}
	return nil
}

// GetMeeting returns one meeting of the session.
func (r *Repository) GetMeeting(ctx context.Context, sessionID, meetingID string) (*models.Meeting, error) {
	const q = `SELECT id, uuid, session_id, join_url, scheduled_for FROM meetings WHERE id = $1 AND session_id = $2`
	var m models.Meeting
	if err := pgxscan.Get(ctx, r.pool, &m, q, meetingID, sessionID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperr.NotFound("meeting")
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	return &m, nil
}

// ListMeetings returns the session's meetings in stored order.
func (r *Repository) ListMeetings(ctx context.Context, sessionID string) ([]models.Meeting, error) {
	if err := sessionExists(ctx, r.pool, sessionID); err != nil {
		return nil, err
	}
	return r.listMeetings(ctx, r.pool, sessionID)
}

// UpdateMeetingSchedule changes only the scheduled start of a meeting.
func (r *Repository) UpdateMeetingSchedule(ctx context.Context, sessionID, meetingID string, scheduledFor time.Time) error {
	const q = `UPDATE meetings SET scheduled_for = $1 WHERE id = $2 AND session_id = $3`
	tag, err := r.pool.Exec(ctx, q, scheduledFor.UTC(), meetingID, sessionID)
	if err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("meeting")
	}
	return nil
}

func (r *Repository) listParticipants(ctx context.Context, db pgxscan.Querier, sessionID string) ([]models.Participant, error) {
	const q = `SELECT id, session_id, email, role FROM participants WHERE session_id = $1 ORDER BY id`
	list := []models.Participant{}
	if err := pgxscan.Select(ctx, db, &list, q, sessionID); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return list, nil
}

func (r *Repository) listMeetings(ctx context.Context, db pgxscan.Querier, sessionID string) ([]models.Meeting, error) {
	const q = `SELECT id, uuid, session_id, join_url, scheduled_for FROM meetings WHERE session_id = $1 ORDER BY created_at, id`
	list := []models.Meeting{}
	if err := pgxscan.Select(ctx, db, &list, q, sessionID); err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return list, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sessionExists(ctx context.Context, db rowQuerier, id string) error {
	var one int
	err := db.QueryRow(ctx, `SELECT 1 FROM class_sessions WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("session")
	}
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	return nil
}
