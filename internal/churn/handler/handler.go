// Package handler exposes the churn workflow endpoints over Gin.
package handler

import (
	"net/http"

	"opsboard_backend/internal/churn/domain"
	"opsboard_backend/internal/churn/service"
	"opsboard_backend/internal/churn/transport"
	"opsboard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for churn workflows.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new churn handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Initiate opens a churn workflow for a client or one of its products.
// POST /api/v1/churn
func (h *Handler) Initiate(c *gin.Context) {
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	var req transport.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	record, err := h.svc.Initiate(c.Request.Context(), service.InitiateParams{
		ClientID:         req.ClientID,
		ProductSlug:      req.ProductSlug,
		HadValidContract: req.HadValidContract,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Advance moves a churn record one step forward on its track.
// POST /api/v1/churn/:id/advance
func (h *Handler) Advance(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid record ID", nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	var req transport.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); httpkit.HandleError(c, err) {
		return
	}

	record, err := h.svc.Advance(c.Request.Context(), recordID, domain.Step(req.ExpectedCurrentStep))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, record)
}

// Finalize closes a churn record at its terminal step and runs the cascade.
// POST /api/v1/churn/:id/finalize
func (h *Handler) Finalize(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid record ID", nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	result, err := h.svc.Finalize(c.Request.Context(), recordID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// List returns open churn records, optionally filtered by step.
// GET /api/v1/churn?step=
func (h *Handler) List(c *gin.Context) {
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	var step *domain.Step
	if raw := c.Query("step"); raw != "" {
		s := domain.Step(raw)
		step = &s
	}

	items, err := h.svc.List(c.Request.Context(), step)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}
