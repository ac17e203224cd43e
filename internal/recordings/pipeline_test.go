package recordings

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveclass/backend/internal/apperr"
	"github.com/liveclass/backend/internal/models"
	"github.com/liveclass/backend/internal/provider"
	"github.com/liveclass/backend/internal/sessions/sessionstest"
	"github.com/liveclass/backend/pkg/storage"
)

type fakeProvider struct {
	files    map[string][]models.RecordingFile
	listErr  map[string]error
	tokenErr error
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) CreateMeeting(ctx context.Context, req provider.MeetingRequest) (*provider.CreatedMeeting, error) {
	return nil, errors.New("not used")
}
func (f *fakeProvider) UpdateMeeting(ctx context.Context, id string, start, end time.Time) error {
	return errors.New("not used")
}
func (f *fakeProvider) ListRecordings(ctx context.Context, meetingID string) ([]models.RecordingFile, error) {
	if err := f.listErr[meetingID]; err != nil {
		return nil, err
	}
	return f.files[meetingID], nil
}
func (f *fakeProvider) AccessToken(ctx context.Context) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "tok", nil
}

type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failKeys  map[string]bool
	types     map[string]string
	presigned []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, failKeys: map[string]bool{}, types: map[string]string{}}
}

func (b *fakeBlobs) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failKeys[key] {
		return errors.New("access denied")
	}
	b.objects[key] = data
	b.types[key] = contentType
	return nil
}

func (b *fakeBlobs) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []storage.Object
	for k, v := range b.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.Object{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *fakeBlobs) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	b.presigned = append(b.presigned, key)
	return "https://signed/" + key + "?X-Amz-Expires=" + expires.String(), nil
}

// recordingServer serves /f1 to bearer auth only, /f3 to the query token only, /pub without auth
// and answers 403 for /f2 and 200-empty for /empty.
func recordingServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var attempts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts = append(attempts, r.URL.Path+"|"+r.Header.Get("Authorization")+"|"+r.URL.Query().Get("access_token"))
		mu.Unlock()
		switch r.URL.Path {
		case "/f1":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, "video-one")
		case "/f3":
			if r.URL.Query().Get("access_token") != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, "three")
		case "/pub":
			if r.Header.Get("Authorization") != "" || r.URL.Query().Get("access_token") != "" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = io.WriteString(w, "public")
		case "/empty":
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &attempts
}

type pipelineFixture struct {
	store    *sessionstest.MemoryStore
	prov     *fakeProvider
	blobs    *fakeBlobs
	pipeline *Pipeline
	srv      *httptest.Server
	attempts *[]string
}

func newPipelineFixture(t *testing.T, paths ...string) *pipelineFixture {
	t.Helper()
	ctx := context.Background()
	srv, attempts := recordingServer(t)
	store := sessionstest.NewMemoryStore()
	require.NoError(t, store.CreateSession(ctx, &models.Session{ID: "S1", Title: "Algebra"}))
	require.NoError(t, store.CreateMeeting(ctx, &models.Meeting{ID: "42", SessionID: "S1", ScheduledFor: time.Now()}))

	var files []models.RecordingFile
	for i, p := range paths {
		files = append(files, models.RecordingFile{
			MeetingID:   "42",
			ID:          strings.TrimPrefix(p, "/"),
			FileType:    []string{"MP4", "M4A", "TRANSCRIPT"}[i%3],
			DownloadURL: srv.URL + p,
		})
	}
	prov := &fakeProvider{files: map[string][]models.RecordingFile{"42": files}, listErr: map[string]error{}}
	blobs := newFakeBlobs()
	fetcher := NewFetcher(srv.Client(), nil, nil)
	return &pipelineFixture{
		store:    store,
		prov:     prov,
		blobs:    blobs,
		pipeline: NewPipeline(store, prov, fetcher, blobs, t.TempDir(), nil),
		srv:      srv,
		attempts: attempts,
	}
}

func TestStoreSkipsFileWhenEveryStrategyFails(t *testing.T) {
	f := newPipelineFixture(t, "/f1", "/f2", "/f3")
	ctx := context.Background()

	listed, err := f.pipeline.List(ctx, "S1")
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	stored, err := f.pipeline.Store(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.Equal(t, models.StoredFile{MeetingID: "42", FileID: "f1", BlobPath: "S1/42/f1.mp4", FileSize: 9}, stored[0])
	assert.Equal(t, models.StoredFile{MeetingID: "42", FileID: "f3", BlobPath: "S1/42/f3.transcript", FileSize: 5}, stored[1])
	assert.Equal(t, []byte("video-one"), f.blobs.objects["S1/42/f1.mp4"])
	assert.Equal(t, "video/mp4", f.blobs.types["S1/42/f1.mp4"])
	_, ok := f.blobs.objects["S1/42/f2.m4a"]
	assert.False(t, ok)

	again, err := f.pipeline.List(ctx, "S1")
	require.NoError(t, err)
	assert.Len(t, again, 3, "listing is unaffected by skipped files")
}

func TestFetchStrategiesTriedInOrder(t *testing.T) {
	f := newPipelineFixture(t, "/f2")
	_, err := f.pipeline.Store(context.Background(), "S1")
	assert.True(t, errors.Is(err, apperr.ErrNothingUploaded))

	assert.Equal(t, []string{
		"/f2|Bearer tok|",
		"/f2||tok",
		"/f2||",
	}, *f.attempts)
}

func TestFetchStopsAtFirstSuccess(t *testing.T) {
	f := newPipelineFixture(t, "/f1")
	_, err := f.pipeline.Store(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/f1|Bearer tok|"}, *f.attempts)
}

func TestPublicLinkFallsThroughToNoAuth(t *testing.T) {
	f := newPipelineFixture(t, "/pub")
	stored, err := f.pipeline.Store(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Len(t, *f.attempts, 3)
}

func TestEmptyBodyIsAFailedAttempt(t *testing.T) {
	f := newPipelineFixture(t, "/empty")
	_, err := f.pipeline.Store(context.Background(), "S1")
	assert.True(t, errors.Is(err, apperr.ErrNothingUploaded))
	assert.Len(t, *f.attempts, 3)
}

func TestStoreNothingToStore(t *testing.T) {
	f := newPipelineFixture(t)
	_, err := f.pipeline.Store(context.Background(), "S1")
	assert.True(t, errors.Is(err, apperr.ErrNothingToStore))
	assert.False(t, errors.Is(err, apperr.ErrNothingUploaded))
}

func TestStoreUploadFailureSkipsOnlyThatFile(t *testing.T) {
	f := newPipelineFixture(t, "/f1", "/f3")
	f.blobs.failKeys["S1/42/f1.mp4"] = true
	stored, err := f.pipeline.Store(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "f3", stored[0].FileID)
}

func TestListSkipsFailingMeeting(t *testing.T) {
	f := newPipelineFixture(t, "/f1")
	ctx := context.Background()
	require.NoError(t, f.store.CreateMeeting(ctx, &models.Meeting{ID: "43", SessionID: "S1", ScheduledFor: time.Now()}))
	f.prov.listErr["43"] = &apperr.ProviderError{Op: "list recordings", StatusCode: 404, Body: "no recordings"}

	files, err := f.pipeline.List(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "42", files[0].MeetingID)
}

func TestListTokenFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t, "/f1")
	f.prov.tokenErr = &apperr.ProviderError{Op: "token", StatusCode: 401, Body: "invalid_client"}
	_, err := f.pipeline.List(context.Background(), "S1")
	pe, ok := apperr.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, 401, pe.StatusCode)
}

func TestListUnknownSession(t *testing.T) {
	f := newPipelineFixture(t)
	_, err := f.pipeline.List(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestStoreWithoutBlobStore(t *testing.T) {
	f := newPipelineFixture(t, "/f1")
	p := NewPipeline(f.store, f.prov, nil, nil, "", nil)
	_, err := p.Store(context.Background(), "S1")
	assert.True(t, errors.Is(err, apperr.ErrBlobStoreDisabled))
}

func TestStoreWithoutBlobStoreUnknownSession(t *testing.T) {
	f := newPipelineFixture(t, "/f1")
	p := NewPipeline(f.store, f.prov, nil, nil, "", nil)
	_, err := p.Store(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.False(t, errors.Is(err, apperr.ErrBlobStoreDisabled))
}

func TestDownloadLocal(t *testing.T) {
	f := newPipelineFixture(t, "/f1", "/f2", "/f3")
	base := t.TempDir()
	p := NewPipeline(f.store, f.prov, NewFetcher(f.srv.Client(), nil, nil), nil, base, nil)

	paths, err := p.DownloadLocal(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(base, "S1", "42", "f1.mp4"), paths[0])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "video-one", string(data))

	entries, err := os.ReadDir(filepath.Join(base, "S1", "42"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"f1.mp4", "f3.transcript"}, names, "no partial files are left behind")
}

func TestDownloadLocalNothingWritten(t *testing.T) {
	f := newPipelineFixture(t, "/f2")
	_, err := f.pipeline.DownloadLocal(context.Background(), "S1")
	assert.True(t, errors.Is(err, apperr.ErrNothingDownloaded))
}

func TestDownloadLocalNothingListed(t *testing.T) {
	f := newPipelineFixture(t)
	_, err := f.pipeline.DownloadLocal(context.Background(), "S1")
	assert.True(t, errors.Is(err, apperr.ErrNothingToDownload))
	assert.False(t, errors.Is(err, apperr.ErrNothingDownloaded))
}

func TestDownloadLocalRejectsEscapingPaths(t *testing.T) {
	f := newPipelineFixture(t)
	f.prov.files["42"] = []models.RecordingFile{{MeetingID: "42", ID: "../../../evil", FileType: "MP4", DownloadURL: f.srv.URL + "/f1"}}
	_, err := f.pipeline.DownloadLocal(context.Background(), "S1")
	assert.True(t, errors.Is(err, apperr.ErrNothingDownloaded))
}

func TestStreamURLs(t *testing.T) {
	f := newPipelineFixture(t, "/f1", "/f3")
	ctx := context.Background()
	_, err := f.pipeline.Store(ctx, "S1")
	require.NoError(t, err)
	f.blobs.objects["S10/1/x.mp4"] = []byte("other session")

	urls, err := f.pipeline.StreamURLs(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Equal(t, "S1/42/f1.mp4", urls[0].BlobPath)
	assert.Equal(t, 3600, urls[0].ExpiresIn)
	assert.Contains(t, urls[0].StreamURL, "X-Amz-Expires=1h0m0s")

	_, err = f.pipeline.StreamURLs(ctx, "nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
