package models

import (
	"path"
	"strings"
)

// RecordingFile is one cloud recording file reported by the provider. Never persisted.
type RecordingFile struct {
	MeetingID      string `json:"meeting_id"`
	ID             string `json:"id"`
	FileType       string `json:"file_type"`
	DownloadURL    string `json:"download_url"`
	RecordingStart string `json:"recording_start,omitempty"`
	RecordingEnd   string `json:"recording_end,omitempty"`
}

// Ext returns the lowercased file type used as the stored file extension.
func (f RecordingFile) Ext() string {
	return strings.ToLower(f.FileType)
}

// RecordingKey returns the blob key: {session_id}/{meeting_id}/{file_id}.{ext}.
func RecordingKey(sessionID string, f RecordingFile) string {
	return path.Join(sessionID, f.MeetingID, f.ID+"."+f.Ext())
}

// StoredFile is a recording file copied into the blob store.
type StoredFile struct {
	MeetingID string `json:"meeting_id"`
	FileID    string `json:"file_id"`
	BlobPath  string `json:"blob_path"`
	FileSize  int64  `json:"file_size"`
}

// StreamURL is a stored blob with a signed, expiring read URL.
type StreamURL struct {
	BlobPath  string `json:"blob_path"`
	StreamURL string `json:"stream_url"`
	ExpiresIn int    `json:"expires_in"`
}
