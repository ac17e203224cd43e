// Package provider talks to the conferencing provider (Zoom or Microsoft Teams): OAuth tokens,
// meeting create/patch and cloud recording listings.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/liveclass/backend/config"
	"github.com/liveclass/backend/internal/models"
)

// MeetingRequest is a provider-independent meeting window.
type MeetingRequest struct {
	Subject string
	Start   time.Time
	End     time.Time
}

// CreatedMeeting is what the provider returns for a new meeting.
type CreatedMeeting struct {
	ID      string
	UUID    string
	JoinURL string
}

// Client is one conferencing provider. Every non-2xx answer is an *apperr.ProviderError.
type Client interface {
	Name() string
	CreateMeeting(ctx context.Context, req MeetingRequest) (*CreatedMeeting, error)
	UpdateMeeting(ctx context.Context, meetingID string, start, end time.Time) error
	ListRecordings(ctx context.Context, meetingID string) ([]models.RecordingFile, error)
	AccessToken(ctx context.Context) (string, error)
}

// NewHTTPClient returns the traced HTTP client used for provider and download calls.
// A zero timeout leaves the client without a deadline.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// New builds the provider selected in cfg. cache may be nil.
func New(cfg config.ProviderConfig, hc *http.Client, cache TokenCache, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hc == nil {
		hc = NewHTTPClient(cfg.HTTPTimeout)
	}
	switch cfg.Name {
	case config.ProviderZoom:
		ts := CachedTokenSource(cache, "oauth:zoom:"+cfg.Zoom.AccountID, ZoomTokenSource(cfg.Zoom, hc), logger)
		return NewZoom(cfg.Zoom, hc, ts, logger), nil
	case config.ProviderTeams:
		ts := CachedTokenSource(cache, "oauth:teams:"+cfg.Teams.TenantID+":"+cfg.Teams.ClientID, TeamsTokenSource(cfg.Teams, hc), logger)
		return NewTeams(cfg.Teams, hc, ts, logger), nil
	}
	return nil, fmt.Errorf("unsupported provider %q", cfg.Name)
}
