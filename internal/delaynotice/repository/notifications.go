// Package repository provides PostgreSQL persistence for delay notifications
// and their justifications.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opsboard_backend/internal/workitem"
	"opsboard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate        = "delaynotice.repository.create"
	opGetByID       = "delaynotice.repository.get_by_id"
	opListForViewer = "delaynotice.repository.list_for_viewer"
)

// Notification is a persisted delay notification. One row exists per
// (task_id, source_table) pair; the owner snapshot is taken at scan time.
type Notification struct {
	ID          uuid.UUID       `json:"id"`
	TaskID      string          `json:"taskId"`
	SourceTable workitem.Source `json:"sourceTable"`
	OwnerID     uuid.UUID       `json:"ownerId"`
	OwnerName   string          `json:"ownerName"`
	OwnerRole   string          `json:"ownerRole"`
	Title       string          `json:"title"`
	DueDate     time.Time       `json:"dueDate"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NotificationWithStatus is a notification joined with the viewer's
// justification state.
type NotificationWithStatus struct {
	Notification
	JustifiedByViewer bool `json:"justifiedByViewer"`
}

// CreateParams holds the fields for inserting a notification.
type CreateParams struct {
	TaskID      string
	SourceTable workitem.Source
	OwnerID     uuid.UUID
	OwnerName   string
	OwnerRole   string
	Title       string
	DueDate     time.Time
}

// Notifications is the delay notification repository.
type Notifications struct {
	pool *pgxpool.Pool
}

// NewNotifications creates a notification repository.
func NewNotifications(pool *pgxpool.Pool) *Notifications {
	return &Notifications{pool: pool}
}

// Create inserts a notification unless one already exists for the same
// (task_id, source_table) pair. The unique constraint carries the dedup
// guarantee, so concurrent scan passes cannot double-insert. Returns the
// stored row and whether this call created it.
func (r *Notifications) Create(ctx context.Context, params CreateParams) (Notification, bool, error) {
	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO delay_notifications (task_id, source_table, owner_id, owner_name, owner_role, title, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (task_id, source_table) DO NOTHING
		RETURNING id, task_id, source_table, owner_id, owner_name, owner_role, title, due_date, created_at
	`, params.TaskID, params.SourceTable, params.OwnerID, params.OwnerName, params.OwnerRole,
		params.Title, params.DueDate).Scan(
		&n.ID, &n.TaskID, &n.SourceTable, &n.OwnerID, &n.OwnerName, &n.OwnerRole,
		&n.Title, &n.DueDate, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict path: the pair already has a notification.
			return Notification{}, false, nil
		}
		return Notification{}, false, apperr.Internal(fmt.Sprintf("create notification failed: %v", err)).WithOp(opCreate)
	}

	return n, true, nil
}

// GetByID returns a single notification.
func (r *Notifications) GetByID(ctx context.Context, id uuid.UUID) (Notification, error) {
	var n Notification
	err := r.pool.QueryRow(ctx, `
		SELECT id, task_id, source_table, owner_id, owner_name, owner_role, title, due_date, created_at
		FROM delay_notifications
		WHERE id = $1
	`, id).Scan(
		&n.ID, &n.TaskID, &n.SourceTable, &n.OwnerID, &n.OwnerName, &n.OwnerRole,
		&n.Title, &n.DueDate, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, apperr.NotFound("notification not found").WithOp(opGetByID)
		}
		return Notification{}, apperr.Internal(fmt.Sprintf("get notification failed: %v", err)).WithOp(opGetByID)
	}

	return n, nil
}

// ListForViewer returns all notifications, soonest due first, each annotated
// with whether the viewer already filed a justification for it. Archived
// justifications still count; only existence matters for the pending feed.
// Role-based visibility is applied by the service layer, not here.
func (r *Notifications) ListForViewer(ctx context.Context, viewerID uuid.UUID) ([]NotificationWithStatus, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT n.id, n.task_id, n.source_table, n.owner_id, n.owner_name, n.owner_role,
		       n.title, n.due_date, n.created_at,
		       EXISTS (
		           SELECT 1 FROM delay_justifications j
		           WHERE j.notification_id = n.id AND j.user_id = $1
		       ) AS justified
		FROM delay_notifications n
		ORDER BY n.due_date ASC, n.created_at DESC
	`, viewerID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list notifications failed: %v", err)).WithOp(opListForViewer)
	}
	defer rows.Close()

	var items []NotificationWithStatus
	for rows.Next() {
		var n NotificationWithStatus
		if err := rows.Scan(
			&n.ID, &n.TaskID, &n.SourceTable, &n.OwnerID, &n.OwnerName, &n.OwnerRole,
			&n.Title, &n.DueDate, &n.CreatedAt, &n.JustifiedByViewer,
		); err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan notification failed: %v", err)).WithOp(opListForViewer)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", err)).WithOp(opListForViewer)
	}

	return items, nil
}
