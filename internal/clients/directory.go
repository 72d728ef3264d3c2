// Package clients provides read/write access to the collaborator record
// collections the lifecycle engine depends on: the user directory, the client
// and contracted-product collections, and the active-billing rows.
package clients

import (
	"context"
	"errors"
	"fmt"

	"opsboard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opGetUser = "clients.directory.get_user"
)

// User is a row from the identity directory. Rows are seeded by the external
// auth service; this backend only reads them.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
}

// Directory resolves user IDs to display names and roles.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory creates a directory backed by the users table.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// GetUser returns the directory entry for the given user.
func (d *Directory) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	if d == nil || d.pool == nil {
		return User{}, apperr.Internal("directory not configured").WithOp(opGetUser)
	}

	var u User
	err := d.pool.QueryRow(ctx, `
		SELECT id, display_name, email, role
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user not found").WithOp(opGetUser)
		}
		return User{}, apperr.Internal(fmt.Sprintf("get user failed: %v", err)).WithOp(opGetUser)
	}

	return u, nil
}
