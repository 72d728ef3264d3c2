package repository

import (
	"context"
	"errors"
	"fmt"

	"opsboard_backend/internal/churn/domain"
	"opsboard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	opCreateRecord  = "churn.unit.create_record"
	opAdvanceRecord = "churn.unit.advance_record"
	opArchiveRecord = "churn.unit.archive_record"
	opRemoveProduct = "churn.unit.remove_product"
	opDeleteBilling = "churn.unit.delete_billing"
	opCountProducts = "churn.unit.count_products"
	opArchiveClient = "churn.unit.archive_client"
	opMirrorClient  = "churn.unit.mirror_client"
)

// Unit is the write surface the churn service uses inside one transaction.
// The service orchestrates the cascade; the unit only touches rows.
type Unit interface {
	// CreateRecord opens a churn record. Returns a conflict error when an
	// unarchived record already exists for the same scope.
	CreateRecord(ctx context.Context, params CreateParams) (Record, error)
	// AdvanceRecord moves a record from expected to next. ok is false when
	// the stored step no longer matches expected or the record is archived.
	AdvanceRecord(ctx context.Context, id uuid.UUID, expected, next domain.Step) (Record, bool, error)
	// ArchiveRecord closes a record. Finalize-only.
	ArchiveRecord(ctx context.Context, id uuid.UUID) error
	// RemoveProduct strips one product from the client's contracted list.
	RemoveProduct(ctx context.Context, clientID uuid.UUID, slug string) error
	// DeleteProductBilling removes the per-product billing row, if any.
	DeleteProductBilling(ctx context.Context, clientID uuid.UUID, slug string) error
	// DeleteClientBilling removes the client-level billing rows, if any.
	DeleteClientBilling(ctx context.Context, clientID uuid.UUID) error
	// CountProducts returns how many contracted products the client has left.
	CountProducts(ctx context.Context, clientID uuid.UUID) (int, error)
	// ArchiveClient archives the client record.
	ArchiveClient(ctx context.Context, clientID uuid.UUID) error
	// MirrorClientChurn writes the legacy status/step pair onto the client
	// row so older kanban views keep working.
	MirrorClientChurn(ctx context.Context, clientID uuid.UUID, status string, step *domain.Step) error
}

type pgxUnit struct {
	tx pgx.Tx
}

func (u *pgxUnit) CreateRecord(ctx context.Context, params CreateParams) (Record, error) {
	record, err := scanRecord(u.tx.QueryRow(ctx, `
		INSERT INTO churn_records (scope, client_id, product_slug, step, had_valid_contract)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+recordColumns+`
	`, params.Scope, params.ClientID, params.ProductSlug, params.Step, params.HadValidContract))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return Record{}, apperr.Conflict("churn already in progress for this scope").WithOp(opCreateRecord)
			case "23503":
				return Record{}, apperr.NotFound("client not found").WithOp(opCreateRecord)
			}
		}
		return Record{}, apperr.Internal(fmt.Sprintf("create churn record failed: %v", err)).WithOp(opCreateRecord)
	}
	return record, nil
}

func (u *pgxUnit) AdvanceRecord(ctx context.Context, id uuid.UUID, expected, next domain.Step) (Record, bool, error) {
	record, err := scanRecord(u.tx.QueryRow(ctx, `
		UPDATE churn_records
		SET step = $3, step_entered_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND step = $2 AND archived = FALSE
		RETURNING `+recordColumns+`
	`, id, expected, next))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, apperr.Internal(fmt.Sprintf("advance churn record failed: %v", err)).WithOp(opAdvanceRecord)
	}
	return record, true, nil
}

func (u *pgxUnit) ArchiveRecord(ctx context.Context, id uuid.UUID) error {
	tag, err := u.tx.Exec(ctx, `
		UPDATE churn_records
		SET archived = TRUE, updated_at = NOW()
		WHERE id = $1 AND archived = FALSE
	`, id)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("archive churn record failed: %v", err)).WithOp(opArchiveRecord)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("churn record not found or already archived").WithOp(opArchiveRecord)
	}
	return nil
}

func (u *pgxUnit) RemoveProduct(ctx context.Context, clientID uuid.UUID, slug string) error {
	_, err := u.tx.Exec(ctx, `
		DELETE FROM client_products
		WHERE client_id = $1 AND product_slug = $2
	`, clientID, slug)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("remove product failed: %v", err)).WithOp(opRemoveProduct)
	}
	return nil
}

func (u *pgxUnit) DeleteProductBilling(ctx context.Context, clientID uuid.UUID, slug string) error {
	_, err := u.tx.Exec(ctx, `
		DELETE FROM active_billing
		WHERE client_id = $1 AND product_slug = $2
	`, clientID, slug)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("delete product billing failed: %v", err)).WithOp(opDeleteBilling)
	}
	return nil
}

func (u *pgxUnit) DeleteClientBilling(ctx context.Context, clientID uuid.UUID) error {
	_, err := u.tx.Exec(ctx, `
		DELETE FROM active_billing
		WHERE client_id = $1
	`, clientID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("delete client billing failed: %v", err)).WithOp(opDeleteBilling)
	}
	return nil
}

func (u *pgxUnit) CountProducts(ctx context.Context, clientID uuid.UUID) (int, error) {
	var count int
	err := u.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM client_products WHERE client_id = $1
	`, clientID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count products failed: %v", err)).WithOp(opCountProducts)
	}
	return count, nil
}

func (u *pgxUnit) ArchiveClient(ctx context.Context, clientID uuid.UUID) error {
	_, err := u.tx.Exec(ctx, `
		UPDATE clients
		SET archived = TRUE
		WHERE id = $1
	`, clientID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("archive client failed: %v", err)).WithOp(opArchiveClient)
	}
	return nil
}

func (u *pgxUnit) MirrorClientChurn(ctx context.Context, clientID uuid.UUID, status string, step *domain.Step) error {
	_, err := u.tx.Exec(ctx, `
		UPDATE clients
		SET status = $2, churn_step = $3
		WHERE id = $1
	`, clientID, status, step)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mirror client churn failed: %v", err)).WithOp(opMirrorClient)
	}
	return nil
}

// Compile-time check.
var _ Unit = (*pgxUnit)(nil)
