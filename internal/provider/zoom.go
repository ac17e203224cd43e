package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/liveclass/backend/config"
	"github.com/liveclass/backend/internal/models"
)

// zoomTimeLayout is the start_time format Zoom expects alongside an explicit timezone.
const zoomTimeLayout = "2006-01-02T15:04:05Z"

const zoomScheduledMeeting = 2

// Zoom is the Zoom REST v2 client.
type Zoom struct {
	api    apiClient
	cfg    config.ZoomConfig
	logger *zap.Logger
}

// NewZoom builds a Zoom client over hc using ts for bearer tokens.
func NewZoom(cfg config.ZoomConfig, hc *http.Client, ts oauth2.TokenSource, logger *zap.Logger) *Zoom {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Zoom{
		api:    apiClient{name: config.ProviderZoom, http: hc, tokens: ts},
		cfg:    cfg,
		logger: logger,
	}
}

type zoomSchedule struct {
	Topic     string        `json:"topic,omitempty"`
	Type      int           `json:"type,omitempty"`
	StartTime string        `json:"start_time"`
	Duration  int           `json:"duration"`
	Timezone  string        `json:"timezone"`
	Settings  *zoomSettings `json:"settings,omitempty"`
}

type zoomSettings struct {
	AutoRecording string `json:"auto_recording"`
}

type zoomMeeting struct {
	ID      json.Number `json:"id"`
	UUID    string      `json:"uuid"`
	JoinURL string      `json:"join_url"`
}

type zoomRecordingList struct {
	RecordingFiles []zoomRecordingFile `json:"recording_files"`
}

type zoomRecordingFile struct {
	ID             string `json:"id"`
	FileType       string `json:"file_type"`
	FileExtension  string `json:"file_extension"`
	DownloadURL    string `json:"download_url"`
	RecordingStart string `json:"recording_start"`
	RecordingEnd   string `json:"recording_end"`
}

func (z *Zoom) Name() string { return config.ProviderZoom }

func (z *Zoom) AccessToken(ctx context.Context) (string, error) {
	return accessToken(z.api.tokens)
}

func (z *Zoom) CreateMeeting(ctx context.Context, req MeetingRequest) (*CreatedMeeting, error) {
	in := zoomSchedule{
		Topic:     req.Subject,
		Type:      zoomScheduledMeeting,
		StartTime: req.Start.UTC().Format(zoomTimeLayout),
		Duration:  durationMinutes(req.Start, req.End),
		Timezone:  "UTC",
		Settings:  &zoomSettings{AutoRecording: "cloud"},
	}
	var out zoomMeeting
	endpoint := z.url("users", z.cfg.UserID, "meetings")
	if err := z.api.call(ctx, "create meeting", http.MethodPost, endpoint, in, &out); err != nil {
		return nil, err
	}
	z.logger.Info("zoom meeting created", zap.String("meeting_id", out.ID.String()))
	return &CreatedMeeting{ID: out.ID.String(), UUID: out.UUID, JoinURL: out.JoinURL}, nil
}

func (z *Zoom) UpdateMeeting(ctx context.Context, meetingID string, start, end time.Time) error {
	in := zoomSchedule{
		StartTime: start.UTC().Format(zoomTimeLayout),
		Duration:  durationMinutes(start, end),
		Timezone:  "UTC",
	}
	return z.api.call(ctx, "update meeting", http.MethodPatch, z.url("meetings", meetingID), in, nil)
}

func (z *Zoom) ListRecordings(ctx context.Context, meetingID string) ([]models.RecordingFile, error) {
	var out zoomRecordingList
	if err := z.api.call(ctx, "list recordings", http.MethodGet, z.url("meetings", meetingID, "recordings"), nil, &out); err != nil {
		return nil, err
	}
	files := make([]models.RecordingFile, 0, len(out.RecordingFiles))
	for _, rf := range out.RecordingFiles {
		fileType := rf.FileType
		if fileType == "" {
			fileType = rf.FileExtension
		}
		files = append(files, models.RecordingFile{
			MeetingID:      meetingID,
			ID:             rf.ID,
			FileType:       fileType,
			DownloadURL:    rf.DownloadURL,
			RecordingStart: rf.RecordingStart,
			RecordingEnd:   rf.RecordingEnd,
		})
	}
	return files, nil
}

func (z *Zoom) url(segments ...string) string {
	return joinURL(z.cfg.APIBase, segments...)
}

func durationMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

func joinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
