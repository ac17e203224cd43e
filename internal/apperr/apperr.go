// Package apperr holds the error taxonomy shared by the stores, provider clients and handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing session, participant or meeting.
	ErrNotFound = errors.New("not found")
	// ErrDelivery marks an email that could not be sent.
	ErrDelivery = errors.New("email delivery failed")
	// ErrNoMeeting is returned by send-invites when the session has no meeting yet.
	ErrNoMeeting = errors.New("no meeting scheduled for this session")
	// ErrNoParticipants is returned by send-invites when nobody has been invited.
	ErrNoParticipants = errors.New("no participants to invite")
	// ErrNothingToStore means the provider listed no recording files at all.
	ErrNothingToStore = errors.New("no recordings to upload")
	// ErrNothingUploaded means files were listed but none reached the blob store.
	ErrNothingUploaded = errors.New("no recordings were uploaded")
	// ErrNothingToDownload means the provider listed no recording files for a local download.
	ErrNothingToDownload = errors.New("no recordings to download")
	// ErrNothingDownloaded means files were listed but none were written locally.
	ErrNothingDownloaded = errors.New("no recordings were downloaded")
	// ErrBlobStoreDisabled is returned when no blob store is configured.
	ErrBlobStoreDisabled = errors.New("blob store not configured")
)

// NotFound wraps ErrNotFound with an identifying message, e.g. NotFound("session").
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// ProviderError is a non-2xx answer from the conferencing provider.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed (%d): %s", e.Op, e.StatusCode, e.Body)
}

// AsProviderError unwraps err into a *ProviderError if it is one.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
