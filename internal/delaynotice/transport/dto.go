// Package transport defines the HTTP request and response shapes for the
// delay notification endpoints.
package transport

import (
	"time"

	"opsboard_backend/internal/delaynotice/repository"

	"github.com/google/uuid"
)

// JustifyRequest is the body for POST /notifications/:id/justification.
type JustifyRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

// NotificationResponse is one item in the pending feed.
type NotificationResponse struct {
	ID          uuid.UUID `json:"id"`
	TaskID      string    `json:"taskId"`
	SourceTable string    `json:"sourceTable"`
	OwnerID     uuid.UUID `json:"ownerId"`
	OwnerName   string    `json:"ownerName"`
	OwnerRole   string    `json:"ownerRole"`
	Title       string    `json:"title"`
	DueDate     time.Time `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NotificationFromRepo converts a repository row to the response shape.
func NotificationFromRepo(n repository.NotificationWithStatus) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		TaskID:      n.TaskID,
		SourceTable: string(n.SourceTable),
		OwnerID:     n.OwnerID,
		OwnerName:   n.OwnerName,
		OwnerRole:   n.OwnerRole,
		Title:       n.Title,
		DueDate:     n.DueDate,
		CreatedAt:   n.CreatedAt,
	}
}

// JustificationResponse is one justification row.
type JustificationResponse struct {
	ID             uuid.UUID  `json:"id"`
	NotificationID uuid.UUID  `json:"notificationId"`
	UserID         uuid.UUID  `json:"userId"`
	UserRole       string     `json:"userRole"`
	UserName       string     `json:"userName,omitempty"`
	Reason         string     `json:"reason"`
	Archived       bool       `json:"archived"`
	ArchivedAt     *time.Time `json:"archivedAt,omitempty"`
	ArchivedBy     *uuid.UUID `json:"archivedBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// JustificationFromRepo converts a repository row to the response shape.
func JustificationFromRepo(j repository.Justification) JustificationResponse {
	return JustificationResponse{
		ID:             j.ID,
		NotificationID: j.NotificationID,
		UserID:         j.UserID,
		UserRole:       j.UserRole,
		UserName:       j.UserName,
		Reason:         j.Reason,
		Archived:       j.Archived,
		ArchivedAt:     j.ArchivedAt,
		ArchivedBy:     j.ArchivedBy,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}
