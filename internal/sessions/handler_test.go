package sessions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveclass/backend/internal/models"
	"github.com/liveclass/backend/internal/sessions"
	"github.com/liveclass/backend/internal/sessions/sessionstest"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeInviter struct {
	calls [][]string
	err   error
}

func (f *fakeInviter) SendPlaceholder(ctx context.Context, s *models.Session, emails []string) error {
	f.calls = append(f.calls, emails)
	return f.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func newTestRouter(store sessions.Store, inv sessions.PlaceholderInviter) *gin.Engine {
	r := gin.New()
	sessions.NewHandler(sessions.NewService(store, inv, nil)).Register(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestSessionLifecycle(t *testing.T) {
	store := sessionstest.NewMemoryStore()
	r := newTestRouter(store, nil)

	w, env := do(t, r, http.MethodPost, "/sessions", map[string]string{"title": "Algebra", "description": "Linear equations"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Session
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Algebra", created.Title)
	require.NotNil(t, created.Description)
	assert.Equal(t, "Linear equations", *created.Description)
	assert.False(t, created.CreatedAt.IsZero())

	w, env = do(t, r, http.MethodGet, "/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Session
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Empty(t, got.Participants)
	assert.Empty(t, got.Meetings)

	w, env = do(t, r, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Session
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	w, _ = do(t, r, http.MethodDelete, "/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.SessionIDs())

	w, env = do(t, r, http.MethodGet, "/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Code)

	w, _ = do(t, r, http.MethodDelete, "/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSessionRequiresTitle(t *testing.T) {
	r := newTestRouter(sessionstest.NewMemoryStore(), nil)
	w, env := do(t, r, http.MethodPost, "/sessions", map[string]string{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestAddParticipantsSendsPlaceholder(t *testing.T) {
	store := sessionstest.NewMemoryStore()
	s := &models.Session{Title: "Algebra"}
	require.NoError(t, store.CreateSession(context.Background(), s))
	inv := &fakeInviter{}
	r := newTestRouter(store, inv)

	w, env := do(t, r, http.MethodPost, "/sessions/"+s.ID+"/participants",
		map[string]interface{}{"emails": []string{"a@x.com", "a@x.com"}})
	require.Equal(t, http.StatusOK, w.Code)
	var created []models.Participant
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created, 2, "duplicate addresses each get a participant")
	assert.Equal(t, models.DefaultParticipantRole, created[0].Role)
	assert.NotEqual(t, created[0].ID, created[1].ID)

	require.Len(t, inv.calls, 1)
	assert.Equal(t, []string{"a@x.com", "a@x.com"}, inv.calls[0])
}

func TestAddParticipantsInviteFailureIsNotFatal(t *testing.T) {
	store := sessionstest.NewMemoryStore()
	s := &models.Session{Title: "Algebra"}
	require.NoError(t, store.CreateSession(context.Background(), s))
	inv := &fakeInviter{err: errors.New("smtp down")}
	svc := sessions.NewService(store, inv, nil)

	created, err := svc.AddParticipants(context.Background(), s.ID, []string{"a@x.com"}, "teacher")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "teacher", created[0].Role)

	list, err := svc.ListParticipants(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddParticipantsUnknownSession(t *testing.T) {
	inv := &fakeInviter{}
	r := newTestRouter(sessionstest.NewMemoryStore(), inv)
	w, _ := do(t, r, http.MethodPost, "/sessions/missing/participants",
		map[string]interface{}{"emails": []string{"a@x.com"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, inv.calls)
}

func TestAddParticipantsValidatesEmails(t *testing.T) {
	store := sessionstest.NewMemoryStore()
	s := &models.Session{Title: "Algebra"}
	require.NoError(t, store.CreateSession(context.Background(), s))
	r := newTestRouter(store, nil)

	w, _ := do(t, r, http.MethodPost, "/sessions/"+s.ID+"/participants", map[string]interface{}{"emails": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, r, http.MethodPost, "/sessions/"+s.ID+"/participants", map[string]interface{}{"emails": []string{"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveParticipant(t *testing.T) {
	ctx := context.Background()
	store := sessionstest.NewMemoryStore()
	s := &models.Session{Title: "Algebra"}
	require.NoError(t, store.CreateSession(ctx, s))
	created, err := store.AddParticipants(ctx, s.ID, []string{"a@x.com", "b@x.com"}, "student")
	require.NoError(t, err)
	r := newTestRouter(store, nil)

	w, _ := do(t, r, http.MethodDelete, "/sessions/"+s.ID+"/participants/"+created[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/sessions/"+s.ID+"/participants/"+created[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	left, err := store.ListParticipants(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "b@x.com", left[0].Email)
}
