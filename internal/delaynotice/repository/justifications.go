package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opsboard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opUpsert             = "delaynotice.justification.upsert"
	opListByNotification = "delaynotice.justification.list_by_notification"
	opSetArchived        = "delaynotice.justification.set_archived"
)

// Justification is a user's explanation for a delayed work item. At most one
// row exists per (notification, user); re-justifying replaces the reason and
// clears the archived flag. Archival is a soft delete and never removes the
// row.
type Justification struct {
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

// Justifications is the justification repository.
type Justifications struct {
	pool *pgxpool.Pool
}

// NewJustifications creates a justification repository.
func NewJustifications(pool *pgxpool.Pool) *Justifications {
	return &Justifications{pool: pool}
}

// Upsert writes the viewer's justification for a notification. A second call
// for the same pair overwrites the reason, un-archives the row, and bumps
// updated_at instead of creating a duplicate.
func (r *Justifications) Upsert(ctx context.Context, notificationID, userID uuid.UUID, userRole, reason string) (Justification, error) {
	var j Justification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO delay_justifications (notification_id, user_id, user_role, reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (notification_id, user_id) DO UPDATE
		SET reason = EXCLUDED.reason, user_role = EXCLUDED.user_role,
		    archived = FALSE, archived_at = NULL, archived_by = NULL, updated_at = NOW()
		RETURNING id, notification_id, user_id, user_role, reason, archived, archived_at, archived_by, created_at, updated_at
	`, notificationID, userID, userRole, reason).Scan(
		&j.ID, &j.NotificationID, &j.UserID, &j.UserRole, &j.Reason,
		&j.Archived, &j.ArchivedAt, &j.ArchivedBy, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Justification{}, apperr.NotFound("notification not found").WithOp(opUpsert)
		}
		return Justification{}, apperr.Internal(fmt.Sprintf("upsert justification failed: %v", err)).WithOp(opUpsert)
	}

	return j, nil
}

// ListByNotification returns all justifications for a notification, joined
// with the author's display name, oldest first. Archived rows are included;
// the service decides whether the viewer may see them.
func (r *Justifications) ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]Justification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT j.id, j.notification_id, j.user_id, j.user_role, COALESCE(u.display_name, ''),
		       j.reason, j.archived, j.archived_at, j.archived_by, j.created_at, j.updated_at
		FROM delay_justifications j
		LEFT JOIN users u ON u.id = j.user_id
		WHERE j.notification_id = $1
		ORDER BY j.created_at ASC
	`, notificationID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list justifications failed: %v", err)).WithOp(opListByNotification)
	}
	defer rows.Close()

	var items []Justification
	for rows.Next() {
		var j Justification
		if err := rows.Scan(
			&j.ID, &j.NotificationID, &j.UserID, &j.UserRole, &j.UserName,
			&j.Reason, &j.Archived, &j.ArchivedAt, &j.ArchivedBy, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan justification failed: %v", err)).WithOp(opListByNotification)
		}
		items = append(items, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate justifications failed: %v", err)).WithOp(opListByNotification)
	}

	return items, nil
}

// SetArchived flips the soft-delete flag on a justification and records who
// flipped it. Restoring clears the archival audit columns.
func (r *Justifications) SetArchived(ctx context.Context, id uuid.UUID, archived bool, actorID uuid.UUID) (Justification, error) {
	var j Justification
	err := r.pool.QueryRow(ctx, `
		UPDATE delay_justifications
		SET archived = $2,
		    archived_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
		    archived_by = CASE WHEN $2 THEN $3::uuid ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, notification_id, user_id, user_role, reason, archived, archived_at, archived_by, created_at, updated_at
	`, id, archived, actorID).Scan(
		&j.ID, &j.NotificationID, &j.UserID, &j.UserRole, &j.Reason,
		&j.Archived, &j.ArchivedAt, &j.ArchivedBy, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Justification{}, apperr.NotFound("justification not found").WithOp(opSetArchived)
		}
		return Justification{}, apperr.Internal(fmt.Sprintf("set archived failed: %v", err)).WithOp(opSetArchived)
	}

	return j, nil
}
