package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestMeeting(t *testing.T) {
	assert.Nil(t, LatestMeeting(nil))

	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	ms := []Meeting{
		{ID: "a", ScheduledFor: base},
		{ID: "b", ScheduledFor: base.Add(48 * time.Hour)},
		{ID: "c", ScheduledFor: base.Add(24 * time.Hour)},
	}
	latest := LatestMeeting(ms)
	require.NotNil(t, latest)
	assert.Equal(t, "b", latest.ID)
}

func TestMeetingEndsAt(t *testing.T) {
	start := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	m := Meeting{ScheduledFor: start}
	assert.Equal(t, start.Add(time.Hour), m.EndsAt())
}

func TestRecordingKey(t *testing.T) {
	f := RecordingFile{MeetingID: "42", ID: "file-1", FileType: "MP4"}
	assert.Equal(t, "S1/42/file-1.mp4", RecordingKey("S1", f))
	assert.Equal(t, "mp4", f.Ext())
}
