package organizations

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/internal/recognition"
	"github.com/assohub/backend/pkg/response"
)

// Slug must be lowercase alphanumeric and hyphens only, 2-64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Handler handles organization HTTP endpoints, including the lifecycle
// settings that feed the recognition cache and the termination sweep.
type Handler struct {
	repo         *Repository
	settingsRepo *recognition.Repository
	cache        *recognition.SettingsCache
}

// NewHandler creates an organizations handler.
func NewHandler(repo *Repository, settingsRepo *recognition.Repository, cache *recognition.SettingsCache) *Handler {
	return &Handler{repo: repo, settingsRepo: settingsRepo, cache: cache}
}

// CreateRequest is the body for POST /organizations.
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// Create handles POST /organizations.
func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and slug required")
		return
	}
	body.Slug = strings.ToLower(strings.TrimSpace(body.Slug))
	if !slugRegex.MatchString(body.Slug) {
		response.BadRequest(c, "slug must be 2-64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) < 1 || len(body.Name) > 255 {
		response.BadRequest(c, "name must be 1-255 characters")
		return
	}
	org := &models.Organization{Name: body.Name, Slug: body.Slug}
	if err := h.repo.Create(c.Request.Context(), org); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, org)
}

// GetSettings handles GET /organizations/:id/settings. Unset organizations
// see the defaults.
func (h *Handler) GetSettings(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	stored, err := h.settingsRepo.GetSettings(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if stored == nil {
		defaults := models.DefaultOrganizationSettings(orgID)
		response.OK(c, defaults)
		return
	}
	response.OK(c, stored)
}

// UpdateSettingsRequest is the body for PUT /organizations/:id/settings.
type UpdateSettingsRequest struct {
	GracePeriodDays   int `json:"grace_period_days" binding:"min=0"`
	GuidePct          int `json:"guide_pct" binding:"min=0,max=100"`
	AssistantGuidePct int `json:"assistant_guide_pct" binding:"min=0,max=100"`
	DriverPct         int `json:"driver_pct" binding:"min=0,max=100"`
	RegularPct        int `json:"regular_pct" binding:"min=0,max=100"`
}

// UpdateSettings handles PUT /organizations/:id/settings and invalidates the
// settings cache so the new percentages take effect immediately.
func (h *Handler) UpdateSettings(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var body UpdateSettingsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "percentages must be 0-100, grace days non-negative")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), orgID); err != nil {
		response.Error(c, err)
		return
	}
	settings := &models.OrganizationSettings{
		OrganizationID:    orgID,
		GracePeriodDays:   body.GracePeriodDays,
		GuidePct:          body.GuidePct,
		AssistantGuidePct: body.AssistantGuidePct,
		DriverPct:         body.DriverPct,
		RegularPct:        body.RegularPct,
	}
	if err := h.settingsRepo.UpsertSettings(c.Request.Context(), settings); err != nil {
		response.Error(c, err)
		return
	}
	h.cache.Invalidate(orgID)
	response.OK(c, settings)
}
