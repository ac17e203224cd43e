package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/liveclass/backend/internal/apperr"
	"github.com/liveclass/backend/internal/metrics"
)

// maxErrorBody caps how much of a failed response is kept in a ProviderError.
const maxErrorBody = 4 << 10

// apiClient is the authenticated JSON transport shared by the Zoom and Teams clients.
type apiClient struct {
	name   string
	http   *http.Client
	tokens oauth2.TokenSource
}

// call sends in as JSON (when non-nil) with a bearer token and decodes a 2xx body into out (when non-nil).
func (a *apiClient) call(ctx context.Context, op, method, url string, in, out interface{}) error {
	token, err := accessToken(a.tokens)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(a.name, op, "error").Inc()
		return fmt.Errorf("%s %s: %w", a.name, op, err)
	}
	defer resp.Body.Close()
	metrics.ProviderRequests.WithLabelValues(a.name, op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apperr.ProviderError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
