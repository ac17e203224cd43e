package sessions

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveclass/backend/internal/apperr"
	"github.com/liveclass/backend/internal/models"
	"github.com/liveclass/backend/pkg/database"
)

// newTestRepository connects to TEST_DATABASE_URL and applies migrations; the test is skipped without it.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool))
	return NewRepository(pool)
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	s := &models.Session{Title: "Algebra"}
	require.NoError(t, repo.CreateSession(ctx, s))
	t.Cleanup(func() { _ = repo.DeleteSession(ctx, s.ID) })
	assert.NotEmpty(t, s.ID)
	assert.Nil(t, s.Description)

	ps, err := repo.AddParticipants(ctx, s.ID, []string{"a@x.com", "b@x.com"}, "student")
	require.NoError(t, err)
	require.Len(t, ps, 2)

	start := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	m := &models.Meeting{ID: "42-" + s.ID, SessionID: s.ID, JoinURL: "https://provider/j/42", ScheduledFor: start}
	require.NoError(t, repo.CreateMeeting(ctx, m))

	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, models.Emails(got.Participants))
	require.Len(t, got.Meetings, 1)
	assert.True(t, got.Meetings[0].ScheduledFor.Equal(start))

	moved := start.Add(24 * time.Hour)
	require.NoError(t, repo.UpdateMeetingSchedule(ctx, s.ID, m.ID, moved))
	gm, err := repo.GetMeeting(ctx, s.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, gm.ScheduledFor.Equal(moved))
	assert.Equal(t, "https://provider/j/42", gm.JoinURL)

	require.NoError(t, repo.DeleteParticipant(ctx, s.ID, ps[0].ID))
	err = repo.DeleteParticipant(ctx, s.ID, ps[0].ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, repo.DeleteSession(ctx, s.ID))
	_, err = repo.GetMeeting(ctx, s.ID, m.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "meetings cascade with the session")
}

func TestRepositoryAddParticipantsUnknownSession(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.AddParticipants(context.Background(), "missing", []string{"a@x.com"}, "student")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
