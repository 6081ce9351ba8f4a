package activities

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assohub/backend/internal/middleware"
	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/internal/statistics"
	"github.com/assohub/backend/pkg/response"
)

// Handler handles activity and participation HTTP endpoints. Every
// participation write triggers a synchronous recompute of the affected
// member-year totals.
type Handler struct {
	repo       *Repository
	aggregator *statistics.Aggregator
	logger     *zap.Logger
}

// NewHandler creates an activities handler.
func NewHandler(repo *Repository, aggregator *statistics.Aggregator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, aggregator: aggregator, logger: logger}
}

// CreateActivityRequest is the body for POST /activities.
type CreateActivityRequest struct {
	Title                 string     `json:"title" binding:"required"`
	Status                string     `json:"status"`
	StartDate             time.Time  `json:"start_date" binding:"required"`
	ActualStartTime       *time.Time `json:"actual_start_time"`
	ActualEndTime         *time.Time `json:"actual_end_time"`
	ManualHours           *float64   `json:"manual_hours"`
	RecognitionPercentage *int       `json:"recognition_percentage"`
}

// CreateActivity handles POST /activities.
func (h *Handler) CreateActivity(c *gin.Context) {
	orgID := c.MustGet(middleware.ContextOrganizationID).(uuid.UUID)
	var body CreateActivityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "title and start_date required")
		return
	}
	status := models.ActivityStatus(body.Status)
	if status == "" {
		status = models.ActivityPlanned
	}
	a := &models.Activity{
		OrganizationID:        orgID,
		Title:                 body.Title,
		Status:                status,
		StartDate:             body.StartDate,
		ActualStartTime:       body.ActualStartTime,
		ActualEndTime:         body.ActualEndTime,
		ManualHours:           body.ManualHours,
		RecognitionPercentage: body.RecognitionPercentage,
	}
	if err := h.repo.CreateActivity(c.Request.Context(), a); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, a)
}

// UpdateActivityRequest is the body for PATCH /activities/:id. Only provided
// fields change.
type UpdateActivityRequest struct {
	Title                 *string    `json:"title"`
	Status                *string    `json:"status"`
	StartDate             *time.Time `json:"start_date"`
	ActualStartTime       *time.Time `json:"actual_start_time"`
	ActualEndTime         *time.Time `json:"actual_end_time"`
	ManualHours           *float64   `json:"manual_hours"`
	RecognitionPercentage *int       `json:"recognition_percentage"`
}

// UpdateActivity handles PATCH /activities/:id. Status or hour changes alter
// recognized totals, so all participants' affected years are recomputed.
func (h *Handler) UpdateActivity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	var body UpdateActivityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	a, err := h.repo.GetActivity(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	prevYear := a.StartDate.Year()
	if body.Title != nil {
		a.Title = *body.Title
	}
	if body.Status != nil {
		a.Status = models.ActivityStatus(*body.Status)
	}
	if body.StartDate != nil {
		a.StartDate = *body.StartDate
	}
	if body.ActualStartTime != nil {
		a.ActualStartTime = body.ActualStartTime
	}
	if body.ActualEndTime != nil {
		a.ActualEndTime = body.ActualEndTime
	}
	if body.ManualHours != nil {
		a.ManualHours = body.ManualHours
	}
	if body.RecognitionPercentage != nil {
		a.RecognitionPercentage = body.RecognitionPercentage
	}
	if err := h.repo.UpdateActivity(c.Request.Context(), a); err != nil {
		response.Error(c, err)
		return
	}
	h.recomputeParticipants(c.Request.Context(), id, prevYear, a.StartDate.Year())
	response.OK(c, a)
}

// ParticipationRequest is the body for creating or updating a participation.
type ParticipationRequest struct {
	MemberID            uuid.UUID                 `json:"member_id" binding:"required"`
	Role                *models.ParticipationRole `json:"role"`
	ManualHours         *float64                  `json:"manual_hours"`
	RecognitionOverride *int                      `json:"recognition_override"`
}

// CreateParticipation handles POST /activities/:id/participations.
func (h *Handler) CreateParticipation(c *gin.Context) {
	activityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	var body ParticipationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "member_id required")
		return
	}
	a, err := h.repo.GetActivity(c.Request.Context(), activityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	p := &models.ActivityParticipation{
		ActivityID:          activityID,
		MemberID:            body.MemberID,
		Role:                body.Role,
		ManualHours:         body.ManualHours,
		RecognitionOverride: body.RecognitionOverride,
	}
	if err := h.repo.CreateParticipation(c.Request.Context(), p); err != nil {
		response.Error(c, err)
		return
	}
	h.recompute(c.Request.Context(), p.MemberID, a.StartDate.Year())
	response.Created(c, p)
}

// UpdateParticipation handles PATCH /participations/:id.
func (h *Handler) UpdateParticipation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participation id")
		return
	}
	var body ParticipationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	p, err := h.repo.GetParticipation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	p.Role = body.Role
	p.ManualHours = body.ManualHours
	p.RecognitionOverride = body.RecognitionOverride
	if err := h.repo.UpdateParticipation(c.Request.Context(), p); err != nil {
		response.Error(c, err)
		return
	}
	if a, err := h.repo.GetActivity(c.Request.Context(), p.ActivityID); err == nil {
		h.recompute(c.Request.Context(), p.MemberID, a.StartDate.Year())
	}
	response.OK(c, p)
}

// DeleteParticipation handles DELETE /participations/:id.
func (h *Handler) DeleteParticipation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participation id")
		return
	}
	p, err := h.repo.GetParticipation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	a, err := h.repo.GetActivity(c.Request.Context(), p.ActivityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repo.DeleteParticipation(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	h.recompute(c.Request.Context(), p.MemberID, a.StartDate.Year())
	response.NoContent(c)
}

func (h *Handler) recompute(ctx context.Context, memberID uuid.UUID, year int) {
	if _, err := h.aggregator.Recompute(ctx, memberID, year); err != nil {
		h.logger.Error("statistics recompute failed",
			zap.String("member_id", memberID.String()), zap.Int("year", year), zap.Error(err))
	}
}

// recomputeParticipants refreshes every participant's totals for the years
// an activity update can touch. Failures are logged per member; the update
// itself already succeeded.
func (h *Handler) recomputeParticipants(ctx context.Context, activityID uuid.UUID, years ...int) {
	ids, err := h.repo.ListParticipantIDs(ctx, activityID)
	if err != nil {
		h.logger.Error("list participants failed",
			zap.String("activity_id", activityID.String()), zap.Error(err))
		return
	}
	seen := make(map[int]bool)
	for _, year := range years {
		if seen[year] {
			continue
		}
		seen[year] = true
		for _, memberID := range ids {
			h.recompute(ctx, memberID, year)
		}
	}
}
