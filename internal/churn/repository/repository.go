// Package repository provides PostgreSQL persistence for churn records and
// the transactional unit of work behind initiation and finalization cascades.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opsboard_backend/internal/churn/domain"
	"opsboard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opGetByID    = "churn.repository.get_by_id"
	opListByStep = "churn.repository.list_by_step"
	opInTx       = "churn.repository.in_tx"
)

// Record is a persisted churn workflow record. At most one unarchived record
// exists per (client, product-slug-or-null); the partial unique index
// enforces it.
type Record struct {
	ID               uuid.UUID    `json:"id"`
	Scope            domain.Scope `json:"scope"`
	ClientID         uuid.UUID    `json:"clientId"`
	ProductSlug      *string      `json:"productSlug,omitempty"`
	Step             domain.Step  `json:"step"`
	StepEnteredAt    time.Time    `json:"stepEnteredAt"`
	HadValidContract bool         `json:"hadValidContract"`
	Archived         bool         `json:"archived"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// RecordWithClient joins a record with the client's display name for lists.
type RecordWithClient struct {
	Record
	ClientName string `json:"clientName"`
}

// CreateParams holds the fields for opening a churn record.
type CreateParams struct {
	Scope            domain.Scope
	ClientID         uuid.UUID
	ProductSlug      *string
	Step             domain.Step
	HadValidContract bool
}

// Repository reads churn records and opens transactional units of work for
// the mutations that must not partially apply.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a churn repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, scope, client_id, product_slug, step, step_entered_at, had_valid_contract, archived, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(
		&r.ID, &r.Scope, &r.ClientID, &r.ProductSlug, &r.Step, &r.StepEnteredAt,
		&r.HadValidContract, &r.Archived, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// GetByID returns a single churn record, archived or not.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	record, err := scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM churn_records
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, apperr.NotFound("churn record not found").WithOp(opGetByID)
		}
		return Record{}, apperr.Internal(fmt.Sprintf("get churn record failed: %v", err)).WithOp(opGetByID)
	}
	return record, nil
}

// ListByStep returns unarchived records, optionally filtered to one step,
// joined with the client name, oldest step entry first.
func (r *Repository) ListByStep(ctx context.Context, step *domain.Step) ([]RecordWithClient, error) {
	query := `
		SELECT r.id, r.scope, r.client_id, r.product_slug, r.step, r.step_entered_at,
		       r.had_valid_contract, r.archived, r.created_at, r.updated_at,
		       COALESCE(c.name, '')
		FROM churn_records r
		LEFT JOIN clients c ON c.id = r.client_id
		WHERE r.archived = FALSE
	`
	args := []any{}
	if step != nil {
		query += ` AND r.step = $1`
		args = append(args, *step)
	}
	query += ` ORDER BY r.step_entered_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list churn records failed: %v", err)).WithOp(opListByStep)
	}
	defer rows.Close()

	var items []RecordWithClient
	for rows.Next() {
		var item RecordWithClient
		if err := rows.Scan(
			&item.ID, &item.Scope, &item.ClientID, &item.ProductSlug, &item.Step, &item.StepEnteredAt,
			&item.HadValidContract, &item.Archived, &item.CreatedAt, &item.UpdatedAt,
			&item.ClientName,
		); err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan churn record failed: %v", err)).WithOp(opListByStep)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate churn records failed: %v", err)).WithOp(opListByStep)
	}

	return items, nil
}

// InTx runs fn inside a single database transaction. All writes the churn
// service performs go through the Unit so a failing cascade rolls back as a
// whole.
func (r *Repository) InTx(ctx context.Context, fn func(u Unit) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("begin transaction failed: %v", err)).WithOp(opInTx)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgxUnit{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(fmt.Sprintf("commit transaction failed: %v", err)).WithOp(opInTx)
	}
	return nil
}
