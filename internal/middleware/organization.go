package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assohub/backend/pkg/response"
)

// ContextOrganizationID is the context key for the request's organization.
const ContextOrganizationID = "organization_id"

// OrganizationHeader carries the tenant id resolved by the upstream
// auth/tenancy layer. This core treats it as an opaque input.
const OrganizationHeader = "X-Organization-ID"

// RequireOrganization parses the organization header and stores the id on
// the context. Requests without a valid organization id are rejected.
func RequireOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(OrganizationHeader)
		if raw == "" {
			response.BadRequest(c, "missing "+OrganizationHeader+" header")
			c.Abort()
			return
		}
		orgID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, orgID)
		c.Next()
	}
}
