package recordings

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/liveclass/backend/internal/metrics"
)

// FetchStrategy decorates a download request with one way of presenting the provider token.
type FetchStrategy struct {
	Name  string
	Apply func(req *http.Request, token string)
}

// BearerHeader sends the token as "Authorization: Bearer <token>".
var BearerHeader = FetchStrategy{
	Name: "bearer",
	Apply: func(req *http.Request, token string) {
		req.Header.Set("Authorization", "Bearer "+token)
	},
}

// QueryToken appends the token as the access_token query parameter.
var QueryToken = FetchStrategy{
	Name: "query_token",
	Apply: func(req *http.Request, token string) {
		q := req.URL.Query()
		q.Set("access_token", token)
		req.URL.RawQuery = q.Encode()
	},
}

// NoAuth sends the request as is, for links the provider made public.
var NoAuth = FetchStrategy{
	Name:  "none",
	Apply: func(*http.Request, string) {},
}

// DefaultStrategies is the order download auth is tried in.
func DefaultStrategies() []FetchStrategy {
	return []FetchStrategy{BearerHeader, QueryToken, NoAuth}
}

// errDownloadFailed is returned when every strategy failed for a file.
var errDownloadFailed = errors.New("all download attempts failed")

// Download is an open recording body. Size is -1 when the server did not send a length.
type Download struct {
	Body     io.ReadCloser
	Size     int64
	Strategy string
}

// Fetcher opens recording download URLs, trying each strategy in order until one answers
// 200 with a non-empty body.
type Fetcher struct {
	http       *http.Client
	strategies []FetchStrategy
	logger     *zap.Logger
}

// NewFetcher creates a Fetcher. Nil strategies means DefaultStrategies.
func NewFetcher(hc *http.Client, strategies []FetchStrategy, logger *zap.Logger) *Fetcher {
	if hc == nil {
		hc = http.DefaultClient
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{http: hc, strategies: strategies, logger: logger}
}

// Open returns the body of the first successful attempt. The caller closes Download.Body.
func (f *Fetcher) Open(ctx context.Context, rawURL, token string) (*Download, error) {
	var lastErr error
	for _, s := range f.strategies {
		dl, err := f.try(ctx, s, rawURL, token)
		if err == nil {
			metrics.DownloadAttempts.WithLabelValues(s.Name, "ok").Inc()
			return dl, nil
		}
		metrics.DownloadAttempts.WithLabelValues(s.Name, "failed").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Debug("download attempt failed", zap.String("strategy", s.Name), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", errDownloadFailed, lastErr)
}

func (f *Fetcher) try(ctx context.Context, s FetchStrategy, rawURL, token string) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.Apply(req, token)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return nil, fmt.Errorf("download status: %d", resp.StatusCode)
	}
	if resp.ContentLength == 0 {
		drain(resp.Body)
		return nil, errors.New("empty body")
	}

	br := bufio.NewReader(resp.Body)
	if _, err := br.Peek(1); err != nil {
		drain(resp.Body)
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty body")
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Download{
		Body:     readCloser{Reader: br, Closer: resp.Body},
		Size:     resp.ContentLength,
		Strategy: s.Name,
	}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// drain discards a small remainder so the connection can be reused, then closes.
func drain(rc io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, rc, 64<<10)
	_ = rc.Close()
}

// countingReader counts bytes as they stream through.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
