package membership

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/response"
)

// Handler handles membership lifecycle HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a membership handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetStatus handles GET /members/:id/status.
func (h *Handler) GetStatus(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	result, err := h.service.Status(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ActivateRequest is the body for POST /members/:id/periods.
type ActivateRequest struct {
	StartDate *time.Time `json:"start_date"`
}

// Activate handles POST /members/:id/periods. Opens a new membership period.
func (h *Handler) Activate(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var body ActivateRequest
	if err := c.ShouldBindJSON(&body); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "invalid body")
		return
	}
	start := time.Time{}
	if body.StartDate != nil {
		start = *body.StartDate
	}
	p, err := h.service.Activate(c.Request.Context(), memberID, start)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// TerminateRequest is the body for DELETE /periods/:id.
type TerminateRequest struct {
	MemberID uuid.UUID        `json:"member_id" binding:"required"`
	Reason   models.EndReason `json:"reason" binding:"required"`
}

// Terminate handles DELETE /periods/:id. Explicit closure of an open period;
// an already-closed period returns 409-equivalent via the error mapping.
func (h *Handler) Terminate(c *gin.Context) {
	periodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid period id")
		return
	}
	var body TerminateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "member_id and reason required")
		return
	}
	if err := h.service.Terminate(c.Request.Context(), periodID, body.MemberID, body.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetHistory handles GET /members/:id/periods.
func (h *Handler) GetHistory(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	history, err := h.service.History(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, history)
}
