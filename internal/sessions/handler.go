package sessions

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/liveclass/backend/pkg/response"
)

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
}

// AddParticipantsRequest is the body for POST /sessions/:id/participants.
type AddParticipantsRequest struct {
	Emails []string `json:"emails" binding:"required,min=1,dive,required,email"`
	Role   string   `json:"role"`
}

// Handler handles session and participant HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a session handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the session routes on rg.
func (h *Handler) Register(rg gin.IRoutes) {
	rg.POST("/sessions", h.Create)
	rg.GET("/sessions", h.List)
	rg.GET("/sessions/:id", h.Get)
	rg.DELETE("/sessions/:id", h.Delete)
	rg.POST("/sessions/:id/participants", h.AddParticipants)
	rg.GET("/sessions/:id/participants", h.ListParticipants)
	rg.DELETE("/sessions/:id/participants/:pid", h.RemoveParticipant)
}

// Create handles POST /sessions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		response.BadRequest(c, "title is required")
		return
	}
	s, err := h.svc.Create(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, s)
}

// List handles GET /sessions.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, s)
}

// Delete handles DELETE /sessions/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddParticipants handles POST /sessions/:id/participants.
func (h *Handler) AddParticipants(c *gin.Context) {
	var req AddParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	created, err := h.svc.AddParticipants(c.Request.Context(), c.Param("id"), req.Emails, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, created)
}

// ListParticipants handles GET /sessions/:id/participants.
func (h *Handler) ListParticipants(c *gin.Context) {
	list, err := h.svc.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// RemoveParticipant handles DELETE /sessions/:id/participants/:pid.
func (h *Handler) RemoveParticipant(c *gin.Context) {
	if err := h.svc.RemoveParticipant(c.Request.Context(), c.Param("id"), c.Param("pid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
