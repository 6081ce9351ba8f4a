package statistics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assohub/backend/pkg/response"
)

// Handler handles annual statistics HTTP endpoints.
type Handler struct {
	repo       *Repository
	aggregator *Aggregator
}

// NewHandler creates a statistics handler.
func NewHandler(repo *Repository, aggregator *Aggregator) *Handler {
	return &Handler{repo: repo, aggregator: aggregator}
}

// GetByYear handles GET /members/:id/statistics/:year.
func (h *Handler) GetByYear(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year <= 0 {
		response.BadRequest(c, "invalid year")
		return
	}
	stats, err := h.repo.Get(c.Request.Context(), memberID, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// ListByMember handles GET /members/:id/statistics.
func (h *Handler) ListByMember(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	list, err := h.repo.ListByMember(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Recalculate handles POST /members/:id/statistics. Recomputes every year
// the member has rows for, dropping years that emptied out.
func (h *Handler) Recalculate(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	if err := h.aggregator.CleanupZeroYears(c.Request.Context(), memberID); err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.repo.ListByMember(c.Request.Context(), memberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
