// Package handler exposes the delay notification endpoints over Gin.
package handler

import (
	"context"
	"net/http"

	"opsboard_backend/internal/delaynotice/service"
	"opsboard_backend/internal/delaynotice/transport"
	"opsboard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ScanEnqueuer hands an on-demand scan request to the job queue.
type ScanEnqueuer interface {
	EnqueueScan(ctx context.Context, trigger string) error
}

// Handler handles HTTP requests for delay notifications and justifications.
type Handler struct {
	svc      *service.Service
	enqueuer ScanEnqueuer
}

// NewHandler creates a new delay notification handler. The enqueuer may be
// nil, in which case the on-demand scan endpoint reports unavailable.
func NewHandler(svc *service.Service, enqueuer ScanEnqueuer) *Handler {
	return &Handler{svc: svc, enqueuer: enqueuer}
}

// Pending lists the notifications visible to the caller.
// GET /api/v1/notifications/pending
func (h *Handler) Pending(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.Pending(c.Request.Context(), identity.UserID(), identity.Role())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, transport.NotificationFromRepo(n))
	}
	httpkit.OK(c, gin.H{"items": out, "total": len(out)})
}

// Justify records or replaces the caller's justification for a notification.
// POST /api/v1/notifications/:id/justification
func (h *Handler) Justify(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification ID", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.JustifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	j, err := h.svc.Justify(c.Request.Context(), notificationID, identity.UserID(), identity.Role(), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.JustificationFromRepo(j))
}

// ListJustifications returns the justifications filed for a notification.
// GET /api/v1/notifications/:id/justifications
func (h *Handler) ListJustifications(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification ID", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.ListJustifications(c.Request.Context(), notificationID, identity.UserID(), identity.Role())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.JustificationResponse, 0, len(items))
	for _, j := range items {
		out = append(out, transport.JustificationFromRepo(j))
	}
	httpkit.OK(c, gin.H{"items": out, "total": len(out)})
}

// Archive soft-deletes a justification.
// POST /api/v1/justifications/:id/archive
func (h *Handler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// Restore reverses a soft delete.
// POST /api/v1/justifications/:id/restore
func (h *Handler) Restore(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *Handler) setArchived(c *gin.Context, archived bool) {
	justificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid justification ID", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	apply := h.svc.Restore
	if archived {
		apply = h.svc.Archive
	}
	result, err := apply(c.Request.Context(), justificationID, identity.UserID(), identity.Role())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.JustificationFromRepo(result))
}

// RunScan enqueues an on-demand scan pass.
// POST /api/v1/scan
func (h *Handler) RunScan(c *gin.Context) {
	if httpkit.MustGetIdentity(c) == nil {
		return
	}
	if h.enqueuer == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "scan queue not configured", nil)
		return
	}

	if err := h.enqueuer.EnqueueScan(c.Request.Context(), "on_demand"); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"enqueued": true})
}
