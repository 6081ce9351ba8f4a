package members

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assohub/backend/internal/middleware"
	"github.com/assohub/backend/internal/models"
	"github.com/assohub/backend/pkg/response"
)

// Handler handles member HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a members handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateRequest is the body for POST /members.
type CreateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
}

// Create handles POST /members. Registers a member in the request's
// organization; membership starts later, when a period is opened.
func (h *Handler) Create(c *gin.Context) {
	orgID := c.MustGet(middleware.ContextOrganizationID).(uuid.UUID)
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "valid email and full_name required")
		return
	}
	m := &models.Member{
		OrganizationID: orgID,
		Email:          body.Email,
		FullName:       body.FullName,
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

// GetByID handles GET /members/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// List handles GET /members for the request's organization.
func (h *Handler) List(c *gin.Context) {
	orgID := c.MustGet(middleware.ContextOrganizationID).(uuid.UUID)
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// DetailsRequest is the body for PUT /members/:id/details. This is the
// payment/stamp flow's write path; the lifecycle engine only reads it.
type DetailsRequest struct {
	FeePaymentYear      *int       `json:"fee_payment_year"`
	FeePaymentDate      *time.Time `json:"fee_payment_date"`
	CardNumber          *string    `json:"card_number"`
	CardStampIssued     bool       `json:"card_stamp_issued"`
	NextYearStampIssued bool       `json:"next_year_stamp_issued"`
	ActiveUntil         *time.Time `json:"active_until"`
}

// UpdateDetails handles PUT /members/:id/details.
func (h *Handler) UpdateDetails(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var body DetailsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if body.FeePaymentYear != nil && *body.FeePaymentYear <= 0 {
		response.BadRequest(c, "fee_payment_year must be positive")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	d := &models.MembershipDetails{
		MemberID:            id,
		FeePaymentYear:      body.FeePaymentYear,
		FeePaymentDate:      body.FeePaymentDate,
		CardNumber:          body.CardNumber,
		CardStampIssued:     body.CardStampIssued,
		NextYearStampIssued: body.NextYearStampIssued,
		ActiveUntil:         body.ActiveUntil,
	}
	if err := h.repo.UpsertDetails(c.Request.Context(), d); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}
