package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liveclass/backend/internal/apperr"
)

// Error codes carried in Body.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeNotFound          = "not_found"
	CodeProvider          = "provider_error"
	CodeDelivery          = "delivery_failed"
	CodeNoMeeting         = "no_meeting"
	CodeNoParticipants    = "no_participants"
	CodeNothingToStore    = "nothing_to_store"
	CodeNothingUploaded   = "nothing_uploaded"
	CodeNothingDownloaded = "nothing_downloaded"
	CodeNothingToDownload = "nothing_to_download"
	CodeUnavailable       = "unavailable"
	CodeInternal          = "internal"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	Fail(c, http.StatusBadRequest, CodeBadRequest, err)
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	Fail(c, http.StatusUnauthorized, CodeUnauthorized, err)
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	Fail(c, http.StatusNotFound, CodeNotFound, err)
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	Fail(c, http.StatusServiceUnavailable, CodeUnavailable, err)
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	Fail(c, http.StatusInternalServerError, CodeInternal, err)
}

// Fail sends an error envelope with an explicit status and code.
func Fail(c *gin.Context, status int, code, err string) {
	c.JSON(status, Body{Success: false, Error: err, Code: code})
}

// Error maps a domain error to its status code and writes the envelope.
func Error(c *gin.Context, err error) {
	status, code := Classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && code == CodeInternal {
		msg = "internal server error"
	}
	Fail(c, status, code, msg)
}

// Classify returns the HTTP status and error code for err.
func Classify(err error) (int, string) {
	if pe, ok := apperr.AsProviderError(err); ok {
		status := pe.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return status, CodeProvider
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, apperr.ErrNoMeeting):
		return http.StatusBadRequest, CodeNoMeeting
	case errors.Is(err, apperr.ErrNoParticipants):
		return http.StatusBadRequest, CodeNoParticipants
	case errors.Is(err, apperr.ErrDelivery):
		return http.StatusInternalServerError, CodeDelivery
	case errors.Is(err, apperr.ErrNothingToStore):
		return http.StatusNotFound, CodeNothingToStore
	case errors.Is(err, apperr.ErrNothingUploaded):
		return http.StatusBadGateway, CodeNothingUploaded
	case errors.Is(err, apperr.ErrNothingToDownload):
		return http.StatusNotFound, CodeNothingToDownload
	case errors.Is(err, apperr.ErrNothingDownloaded):
		return http.StatusInternalServerError, CodeNothingDownloaded
	case errors.Is(err, apperr.ErrBlobStoreDisabled):
		return http.StatusServiceUnavailable, CodeUnavailable
	}
	return http.StatusInternalServerError, CodeInternal
}
