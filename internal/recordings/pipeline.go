// Package recordings lists provider cloud recordings for a session and copies them into the
// blob store or a local directory, tolerating per-file failures.
package recordings

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liveclass/backend/internal/apperr"
	"github.com/liveclass/backend/internal/metrics"
	"github.com/liveclass/backend/internal/models"
	"github.com/liveclass/backend/internal/provider"
	"github.com/liveclass/backend/internal/sessions"
	"github.com/liveclass/backend/pkg/storage"
)

// StreamURLExpiry is how long stream URLs stay valid.
const StreamURLExpiry = time.Hour

// BlobStore is the part of storage.S3 the pipeline uses.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) error
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Pipeline moves recordings from the provider to storage. Files are handled one at a time.
type Pipeline struct {
	store    sessions.Store
	provider provider.Client
	fetcher  *Fetcher
	blobs    BlobStore
	localDir string
	logger   *zap.Logger
}

// NewPipeline creates a recording pipeline. blobs may be nil when no bucket is configured;
// Store and StreamURLs then fail with apperr.ErrBlobStoreDisabled.
func NewPipeline(store sessions.Store, p provider.Client, fetcher *Fetcher, blobs BlobStore, localDir string, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetcher == nil {
		fetcher = NewFetcher(nil, nil, logger)
	}
	return &Pipeline{store: store, provider: p, fetcher: fetcher, blobs: blobs, localDir: localDir, logger: logger}
}

// List returns the recording files of every meeting of the session. A meeting whose listing
// fails contributes no files. Failing to obtain a provider token fails the whole call.
func (p *Pipeline) List(ctx context.Context, sessionID string) ([]models.RecordingFile, error) {
	files, _, err := p.list(ctx, sessionID)
	return files, err
}

func (p *Pipeline) list(ctx context.Context, sessionID string) ([]models.RecordingFile, string, error) {
	sess, err := p.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	token, err := p.provider.AccessToken(ctx)
	if err != nil {
		return nil, "", err
	}

	files := []models.RecordingFile{}
	for _, m := range sess.Meetings {
		mf, err := p.provider.ListRecordings(ctx, m.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, "", ctxErr
			}
			p.logger.Warn("recording listing failed, skipping meeting",
				zap.String("session_id", sessionID),
				zap.String("meeting_id", m.ID),
				zap.Error(err),
			)
			continue
		}
		files = append(files, mf...)
	}
	return files, token, nil
}

// StoredBlobs returns the keys already stored under the session prefix. Empty without a blob store.
func (p *Pipeline) StoredBlobs(ctx context.Context, sessionID string) ([]string, error) {
	keys := []string{}
	if p.blobs == nil {
		return keys, nil
	}
	objs, err := p.blobs.List(ctx, sessionPrefix(sessionID))
	if err != nil {
		return nil, err
	}
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	return keys, nil
}

// Store copies every listed file into the blob store under {session}/{meeting}/{file}.{ext},
// overwriting existing objects. Files that cannot be downloaded or uploaded are skipped.
func (p *Pipeline) Store(ctx context.Context, sessionID string) ([]models.StoredFile, error) {
	if _, err := p.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if p.blobs == nil {
		return nil, apperr.ErrBlobStoreDisabled
	}
	files, token, err := p.list(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.ErrNothingToStore
	}

	stored := []models.StoredFile{}
	for _, f := range files {
		sf, err := p.storeOne(ctx, sessionID, f, token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			metrics.RecordingFiles.WithLabelValues("blob", "skipped").Inc()
			p.logger.Warn("recording skipped",
				zap.String("meeting_id", f.MeetingID),
				zap.String("file_id", f.ID),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordingFiles.WithLabelValues("blob", "stored").Inc()
		stored = append(stored, *sf)
	}
	if len(stored) == 0 {
		return nil, apperr.ErrNothingUploaded
	}
	p.logger.Info("recordings stored",
		zap.String("session_id", sessionID),
		zap.Int("stored", len(stored)),
		zap.Int("listed", len(files)),
	)
	return stored, nil
}

func (p *Pipeline) storeOne(ctx context.Context, sessionID string, f models.RecordingFile, token string) (*models.StoredFile, error) {
	dl, err := p.fetcher.Open(ctx, f.DownloadURL, token)
	if err != nil {
		return nil, err
	}
	defer dl.Body.Close()

	key := models.RecordingKey(sessionID, f)
	body := &countingReader{r: dl.Body}
	if err := p.blobs.Upload(ctx, key, storage.ContentTypeForExt(f.Ext()), body, dl.Size); err != nil {
		return nil, err
	}
	return &models.StoredFile{
		MeetingID: f.MeetingID,
		FileID:    f.ID,
		BlobPath:  key,
		FileSize:  body.n,
	}, nil
}

// DownloadLocal writes every listed file to <localDir>/<session>/<meeting>/<file>.<ext> and
// returns the written paths. Files that fail are skipped and leave nothing behind.
func (p *Pipeline) DownloadLocal(ctx context.Context, sessionID string) ([]string, error) {
	files, token, err := p.list(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.ErrNothingToDownload
	}

	written := []string{}
	for _, f := range files {
		path, err := p.downloadOne(ctx, sessionID, f, token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			metrics.RecordingFiles.WithLabelValues("local", "skipped").Inc()
			p.logger.Warn("recording download skipped",
				zap.String("meeting_id", f.MeetingID),
				zap.String("file_id", f.ID),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordingFiles.WithLabelValues("local", "stored").Inc()
		written = append(written, path)
	}
	if len(written) == 0 {
		return nil, apperr.ErrNothingDownloaded
	}
	return written, nil
}

func (p *Pipeline) downloadOne(ctx context.Context, sessionID string, f models.RecordingFile, token string) (string, error) {
	dl, err := p.fetcher.Open(ctx, f.DownloadURL, token)
	if err != nil {
		return "", err
	}
	defer dl.Body.Close()

	dest := filepath.Join(p.localDir, filepath.FromSlash(models.RecordingKey(sessionID, f)))
	if rel, err := filepath.Rel(p.localDir, dest); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("recording path %q escapes %s", dest, p.localDir)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(tmp, dl.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", dest, err)
	}
	return dest, nil
}

// StreamURLs returns a signed read URL for every blob stored under the session.
func (p *Pipeline) StreamURLs(ctx context.Context, sessionID string) ([]models.StreamURL, error) {
	if _, err := p.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if p.blobs == nil {
		return nil, apperr.ErrBlobStoreDisabled
	}
	objs, err := p.blobs.List(ctx, sessionPrefix(sessionID))
	if err != nil {
		return nil, err
	}
	out := make([]models.StreamURL, 0, len(objs))
	for _, o := range objs {
		u, err := p.blobs.GeneratePresignedDownloadURL(ctx, o.Key, StreamURLExpiry)
		if err != nil {
			return nil, err
		}
		out = append(out, models.StreamURL{
			BlobPath:  o.Key,
			StreamURL: u,
			ExpiresIn: int(StreamURLExpiry / time.Second),
		})
	}
	return out, nil
}

func sessionPrefix(sessionID string) string {
	return strings.TrimSuffix(sessionID, "/") + "/"
}
