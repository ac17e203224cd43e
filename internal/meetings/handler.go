package meetings

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liveclass/backend/pkg/response"
)

// ScheduleRequest is the body for POST /sessions/:id/meetings and PATCH /sessions/:id/meetings/:mid.
type ScheduleRequest struct {
	ScheduledFor string `json:"scheduled_for" binding:"required"`
}

// timestamps without an offset are taken as UTC.
var scheduleLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func parseScheduledFor(s string) (time.Time, error) {
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid scheduled_for %q", s)
}

// Handler handles meeting HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a meeting handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the meeting routes on rg.
func (h *Handler) Register(rg gin.IRoutes) {
	rg.POST("/sessions/:id/meetings", h.Schedule)
	rg.GET("/sessions/:id/meetings", h.List)
	rg.GET("/sessions/:id/meetings/:mid", h.Get)
	rg.PATCH("/sessions/:id/meetings/:mid", h.Reschedule)
	rg.POST("/sessions/:id/send-invites", h.SendInvites)
}

func bindSchedule(c *gin.Context) (time.Time, bool) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return time.Time{}, false
	}
	t, err := parseScheduledFor(req.ScheduledFor)
	if err != nil {
		response.BadRequest(c, err.Error())
		return time.Time{}, false
	}
	return t, true
}

// Schedule handles POST /sessions/:id/meetings.
func (h *Handler) Schedule(c *gin.Context) {
	at, ok := bindSchedule(c)
	if !ok {
		return
	}
	m, err := h.svc.Schedule(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// Reschedule handles PATCH /sessions/:id/meetings/:mid.
func (h *Handler) Reschedule(c *gin.Context) {
	at, ok := bindSchedule(c)
	if !ok {
		return
	}
	m, err := h.svc.Reschedule(c.Request.Context(), c.Param("id"), c.Param("mid"), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// List handles GET /sessions/:id/meetings.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /sessions/:id/meetings/:mid.
func (h *Handler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"), c.Param("mid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// SendInvites handles POST /sessions/:id/send-invites.
func (h *Handler) SendInvites(c *gin.Context) {
	n, err := h.svc.SendInvites(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"detail": fmt.Sprintf("Invites sent to %d participants", n)})
}
