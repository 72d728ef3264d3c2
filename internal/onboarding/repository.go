package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opsboard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opGetState   = "onboarding.repository.get_state"
	opListActive = "onboarding.repository.list_active"
	opSupersede  = "onboarding.repository.supersede"
	opMarkDone   = "onboarding.repository.mark_completed"
)

// ActiveState is an onboarding state joined with the owning client's ads
// manager, as needed to synthesize overdue candidates.
type ActiveState struct {
	State
	AdsManagerID uuid.UUID
	ClientName   string
}

// Repository persists onboarding milestone states.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an onboarding state repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetState returns the live state row for a client.
func (r *Repository) GetState(ctx context.Context, clientID uuid.UUID) (State, error) {
	if r == nil || r.pool == nil {
		return State{}, apperr.Internal("onboarding repository not configured").WithOp(opGetState)
	}

	var s State
	err := r.pool.QueryRow(ctx, `
		SELECT client_id, current_milestone, milestone_started_at, completed
		FROM onboarding_states
		WHERE client_id = $1
	`, clientID).Scan(&s.ClientID, &s.CurrentMilestone, &s.MilestoneStartedAt, &s.Completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return State{}, apperr.NotFound("onboarding state not found").WithOp(opGetState)
		}
		return State{}, apperr.Internal(fmt.Sprintf("get onboarding state failed: %v", err)).WithOp(opGetState)
	}

	return s, nil
}

// ListActiveStates returns incomplete states for unarchived clients still in
// the onboarding status, joined with the ads manager who owns the breach.
func (r *Repository) ListActiveStates(ctx context.Context) ([]ActiveState, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal("onboarding repository not configured").WithOp(opListActive)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT s.client_id, s.current_milestone, s.milestone_started_at, s.completed,
		       c.ads_manager_id, c.name
		FROM onboarding_states s
		JOIN clients c ON c.id = s.client_id
		WHERE s.completed = FALSE
		  AND c.archived = FALSE
		  AND c.status = 'onboarding'
	`)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list active onboarding states failed: %v", err)).WithOp(opListActive)
	}
	defer rows.Close()

	var items []ActiveState
	for rows.Next() {
		var a ActiveState
		if scanErr := rows.Scan(
			&a.ClientID, &a.CurrentMilestone, &a.MilestoneStartedAt, &a.Completed,
			&a.AdsManagerID, &a.ClientName,
		); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan onboarding state failed: %v", scanErr)).WithOp(opListActive)
		}
		items = append(items, a)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate onboarding states failed: %v", rowsErr)).WithOp(opListActive)
	}

	return items, nil
}

// Supersede replaces the client's state row with the next milestone. The
// previous milestone is not accumulated; one live row per client.
func (r *Repository) Supersede(ctx context.Context, clientID uuid.UUID, milestone int, startedAt time.Time) error {
	if r == nil || r.pool == nil {
		return apperr.Internal("onboarding repository not configured").WithOp(opSupersede)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE onboarding_states
		SET current_milestone = $2, milestone_started_at = $3
		WHERE client_id = $1
	`, clientID, milestone, startedAt)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("supersede onboarding state failed: %v", err)).WithOp(opSupersede)
	}

	return nil
}

// MarkCompleted closes the client's onboarding.
func (r *Repository) MarkCompleted(ctx context.Context, clientID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return apperr.Internal("onboarding repository not configured").WithOp(opMarkDone)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE onboarding_states
		SET completed = TRUE
		WHERE client_id = $1
	`, clientID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark onboarding completed failed: %v", err)).WithOp(opMarkDone)
	}

	return nil
}
