// Package service implements the delay notification use cases: the pending
// feed, justification writes, and the CEO-only archive controls.
package service

import (
	"context"

	"opsboard_backend/internal/delaynotice/repository"
	"opsboard_backend/internal/delaynotice/routing"
	"opsboard_backend/internal/workitem"
	"opsboard_backend/platform/apperr"
	"opsboard_backend/platform/logger"

	"github.com/google/uuid"
)

type notificationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Notification, error)
	ListForViewer(ctx context.Context, viewerID uuid.UUID) ([]repository.NotificationWithStatus, error)
}

type justificationStore interface {
	Upsert(ctx context.Context, notificationID, userID uuid.UUID, userRole, reason string) (repository.Justification, error)
	ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]repository.Justification, error)
	SetArchived(ctx context.Context, id uuid.UUID, archived bool, actorID uuid.UUID) (repository.Justification, error)
}

// Service coordinates notification reads and justification writes.
type Service struct {
	notifications  notificationStore
	justifications justificationStore
	log            *logger.Logger
}

// NewService creates the delay notification service.
func NewService(notifications notificationStore, justifications justificationStore, log *logger.Logger) *Service {
	return &Service{
		notifications:  notifications,
		justifications: justifications,
		log:            log,
	}
}

// Pending returns the notifications the viewer still needs to act on:
// visible per the routing policy and not yet justified by this viewer.
// Justifying removes the item from this viewer's feed only; every other
// eligible viewer keeps seeing it until they justify it themselves.
func (s *Service) Pending(ctx context.Context, viewerID uuid.UUID, viewerRole string) ([]repository.NotificationWithStatus, error) {
	all, err := s.notifications.ListForViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	pending := make([]repository.NotificationWithStatus, 0, len(all))
	for _, n := range all {
		if n.JustifiedByViewer {
			continue
		}
		if routing.VisibleTo(n.OwnerID, n.OwnerRole, viewerID, viewerRole) {
			pending = append(pending, n)
		}
	}
	return pending, nil
}

// Justify records the viewer's explanation for a delayed item. Re-justifying
// the same notification replaces the earlier reason. The viewer must be in
// the notification's audience.
func (s *Service) Justify(ctx context.Context, notificationID, viewerID uuid.UUID, viewerRole, reason string) (repository.Justification, error) {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return repository.Justification{}, err
	}
	if !routing.VisibleTo(notification.OwnerID, notification.OwnerRole, viewerID, viewerRole) {
		return repository.Justification{}, apperr.Forbidden("notification is not visible to you")
	}

	return s.justifications.Upsert(ctx, notificationID, viewerID, viewerRole, reason)
}

// ListJustifications returns all justifications for a notification the
// viewer can see. Archived justifications are only shown to the CEO.
func (s *Service) ListJustifications(ctx context.Context, notificationID, viewerID uuid.UUID, viewerRole string) ([]repository.Justification, error) {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if !routing.VisibleTo(notification.OwnerID, notification.OwnerRole, viewerID, viewerRole) {
		return nil, apperr.Forbidden("notification is not visible to you")
	}

	all, err := s.justifications.ListByNotification(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if viewerRole == workitem.RoleCEO {
		return all, nil
	}

	visible := make([]repository.Justification, 0, len(all))
	for _, j := range all {
		if !j.Archived {
			visible = append(visible, j)
		}
	}
	return visible, nil
}

// Archive soft-deletes a justification. CEO only.
func (s *Service) Archive(ctx context.Context, justificationID, viewerID uuid.UUID, viewerRole string) (repository.Justification, error) {
	return s.setArchived(ctx, justificationID, viewerID, viewerRole, true)
}

// Restore undoes a soft delete. CEO only.
func (s *Service) Restore(ctx context.Context, justificationID, viewerID uuid.UUID, viewerRole string) (repository.Justification, error) {
	return s.setArchived(ctx, justificationID, viewerID, viewerRole, false)
}

func (s *Service) setArchived(ctx context.Context, justificationID, viewerID uuid.UUID, viewerRole string, archived bool) (repository.Justification, error) {
	if viewerRole != workitem.RoleCEO {
		return repository.Justification{}, apperr.Forbidden("only the ceo can archive or restore justifications")
	}
	return s.justifications.SetArchived(ctx, justificationID, archived, viewerID)
}
