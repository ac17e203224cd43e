package provider

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/liveclass/backend/config"
	"github.com/liveclass/backend/internal/models"
)

// Teams is the Microsoft Graph onlineMeetings client.
type Teams struct {
	api    apiClient
	cfg    config.TeamsConfig
	logger *zap.Logger
}

// NewTeams builds a Graph client over hc using ts for bearer tokens.
func NewTeams(cfg config.TeamsConfig, hc *http.Client, ts oauth2.TokenSource, logger *zap.Logger) *Teams {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Teams{
		api:    apiClient{name: config.ProviderTeams, http: hc, tokens: ts},
		cfg:    cfg,
		logger: logger,
	}
}

type graphMeetingWindow struct {
	Subject       string `json:"subject,omitempty"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
}

type graphOnlineMeeting struct {
	ID                    string `json:"id"`
	JoinWebURL            string `json:"joinWebUrl"`
	JoinMeetingIDSettings *struct {
		JoinMeetingID string `json:"joinMeetingId"`
	} `json:"joinMeetingIdSettings"`
}

type graphRecordingList struct {
	Value []graphRecording `json:"value"`
}

type graphRecording struct {
	ID                  string `json:"id"`
	CreatedDateTime     string `json:"createdDateTime"`
	EndDateTime         string `json:"endDateTime"`
	RecordingContentURL string `json:"recordingContentUrl"`
}

func (t *Teams) Name() string { return config.ProviderTeams }

func (t *Teams) AccessToken(ctx context.Context) (string, error) {
	return accessToken(t.api.tokens)
}

func (t *Teams) CreateMeeting(ctx context.Context, req MeetingRequest) (*CreatedMeeting, error) {
	in := graphMeetingWindow{
		Subject:       req.Subject,
		StartDateTime: req.Start.UTC().Format(time.RFC3339),
		EndDateTime:   req.End.UTC().Format(time.RFC3339),
	}
	var out graphOnlineMeeting
	if err := t.api.call(ctx, "create meeting", http.MethodPost, t.url(), in, &out); err != nil {
		return nil, err
	}
	m := &CreatedMeeting{ID: out.ID, JoinURL: out.JoinWebURL}
	if out.JoinMeetingIDSettings != nil {
		m.UUID = out.JoinMeetingIDSettings.JoinMeetingID
	}
	t.logger.Info("teams meeting created", zap.String("meeting_id", out.ID))
	return m, nil
}

func (t *Teams) UpdateMeeting(ctx context.Context, meetingID string, start, end time.Time) error {
	in := graphMeetingWindow{
		StartDateTime: start.UTC().Format(time.RFC3339),
		EndDateTime:   end.UTC().Format(time.RFC3339),
	}
	return t.api.call(ctx, "update meeting", http.MethodPatch, t.url(meetingID), in, nil)
}

// ListRecordings returns Graph meeting recordings. Graph only produces MP4 recordings.
func (t *Teams) ListRecordings(ctx context.Context, meetingID string) ([]models.RecordingFile, error) {
	var out graphRecordingList
	if err := t.api.call(ctx, "list recordings", http.MethodGet, t.url(meetingID, "recordings"), nil, &out); err != nil {
		return nil, err
	}
	files := make([]models.RecordingFile, 0, len(out.Value))
	for _, r := range out.Value {
		files = append(files, models.RecordingFile{
			MeetingID:      meetingID,
			ID:             r.ID,
			FileType:       "MP4",
			DownloadURL:    r.RecordingContentURL,
			RecordingStart: r.CreatedDateTime,
			RecordingEnd:   r.EndDateTime,
		})
	}
	return files, nil
}

func (t *Teams) url(segments ...string) string {
	return joinURL(t.cfg.GraphBase, append([]string{"users", t.cfg.UserID, "onlineMeetings"}, segments...)...)
}
