package clients

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
	opGetClient     = "clients.repository.get_client"
	opListProducts  = "clients.repository.list_products"
	opCountProducts = "clients.repository.count_products"
)

// Client statuses mirrored from the dashboard kanban.
const (
	StatusOnboarding = "onboarding"
	StatusActive     = "active"
	StatusChurn      = "churn"
)

// Client is a row from the client collection.
type Client struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	AdsManagerID uuid.UUID `json:"adsManagerId"`
	// ChurnStep mirrors the churn record's step for legacy kanban views.
	ChurnStep *string   `json:"churnStep,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product is one contracted product of a client.
type Product struct {
	ClientID     uuid.UUID `json:"clientId"`
	Slug         string    `json:"slug"`
	ContractedAt time.Time `json:"contractedAt"`
}

// Repository reads the client/product/billing collaborator collections.
// Mutations that belong to churn cascades live on the churn unit of work.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a client repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetClient returns a client by ID, archived or not.
func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (Client, error) {
	if r == nil || r.pool == nil {
		return Client{}, apperr.Internal("client repository not configured").WithOp(opGetClient)
	}

	var c Client
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, status, ads_manager_id, churn_step, archived, created_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Status, &c.AdsManagerID, &c.ChurnStep, &c.Archived, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound("client not found").WithOp(opGetClient)
		}
		return Client{}, apperr.Internal(fmt.Sprintf("get client failed: %v", err)).WithOp(opGetClient)
	}

	return c, nil
}

// ListProducts returns the contracted products of a client.
func (r *Repository) ListProducts(ctx context.Context, clientID uuid.UUID) ([]Product, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal("client repository not configured").WithOp(opListProducts)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT client_id, product_slug, contracted_at
		FROM client_products
		WHERE client_id = $1
		ORDER BY contracted_at
	`, clientID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list products failed: %v", err)).WithOp(opListProducts)
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var p Product
		if scanErr := rows.Scan(&p.ClientID, &p.Slug, &p.ContractedAt); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan product failed: %v", scanErr)).WithOp(opListProducts)
		}
		items = append(items, p)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate products failed: %v", rowsErr)).WithOp(opListProducts)
	}

	return items, nil
}

// HasProduct reports whether the client currently contracts the given product.
func (r *Repository) HasProduct(ctx context.Context, clientID uuid.UUID, slug string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, apperr.Internal("client repository not configured").WithOp(opCountProducts)
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM client_products WHERE client_id = $1 AND product_slug = $2
		)
	`, clientID, slug).Scan(&exists)
	if err != nil {
		return false, apperr.Internal(fmt.Sprintf("check product failed: %v", err)).WithOp(opCountProducts)
	}

	return exists, nil
}
