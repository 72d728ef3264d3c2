package onboarding

import (
	"net/http"

	"opsboard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for onboarding milestone tracking.
type Handler struct {
	svc *Service
}

// NewHandler creates a new onboarding handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Breach returns the SLA status of one client's current milestone.
// GET /api/v1/onboarding/:clientId/breach
func (h *Handler) Breach(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	result, err := h.svc.Breach(c.Request.Context(), clientID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListBreaches returns all clients currently over their milestone SLA.
// GET /api/v1/onboarding/breaches
func (h *Handler) ListBreaches(c *gin.Context) {
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	result, err := h.svc.ListBreaches(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result, "total": len(result)})
}

// Advance moves a client one milestone forward.
// POST /api/v1/onboarding/:clientId/advance
func (h *Handler) Advance(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("clientId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	result, err := h.svc.Advance(c.Request.Context(), clientID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
