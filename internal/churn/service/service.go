// Package service implements the churn workflow: initiation, guarded step
// advancement, and the transactional finalize cascade.
package service

import (
	"context"
	"time"

	"opsboard_backend/internal/churn/domain"
	"opsboard_backend/internal/churn/repository"
	"opsboard_backend/internal/clients"
	"opsboard_backend/internal/events"
	"opsboard_backend/platform/apperr"
	"opsboard_backend/platform/logger"

	"github.com/google/uuid"
)

type recordStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Record, error)
	ListByStep(ctx context.Context, step *domain.Step) ([]repository.RecordWithClient, error)
	InTx(ctx context.Context, fn func(u repository.Unit) error) error
}

type clientReader interface {
	GetClient(ctx context.Context, id uuid.UUID) (clients.Client, error)
	HasProduct(ctx context.Context, clientID uuid.UUID, slug string) (bool, error)
}

// InitiateParams are the inputs for opening a churn workflow. A nil
// ProductSlug means the whole client is churning.
type InitiateParams struct {
	ClientID         uuid.UUID
	ProductSlug      *string
	HadValidContract bool
}

// RecordStatus is a list row with the day count since the step was entered.
type RecordStatus struct {
	repository.RecordWithClient
	DaysInStep int `json:"daysInStep"`
}

// FinalizeResult reports the outcome of a finalize cascade.
type FinalizeResult struct {
	Record            repository.Record `json:"record"`
	RemainingProducts int               `json:"remainingProducts"`
	ClientArchived    bool              `json:"clientArchived"`
}

// Service coordinates the churn workflow.
type Service struct {
	repo    recordStore
	clients clientReader
	bus     events.Bus
	log     *logger.Logger

	now func() time.Time
}

// NewService creates the churn service.
func NewService(repo recordStore, clientReader clientReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		clients: clientReader,
		bus:     bus,
		log:     log,
		now:     time.Now,
	}
}

// Initiate opens a churn record at the track's first step. For client-wide
// churn it also mirrors the legacy status/step pair onto the client row and
// deletes the client's active-billing rows, all in one transaction. Fails
// with a conflict when an unarchived record already covers the same scope.
func (s *Service) Initiate(ctx context.Context, params InitiateParams) (repository.Record, error) {
	client, err := s.clients.GetClient(ctx, params.ClientID)
	if err != nil {
		return repository.Record{}, err
	}
	if client.Archived {
		return repository.Record{}, apperr.Validation("client is archived")
	}

	scope := domain.ScopeClient
	if params.ProductSlug != nil {
		scope = domain.ScopeProduct
		contracted, err := s.clients.HasProduct(ctx, params.ClientID, *params.ProductSlug)
		if err != nil {
			return repository.Record{}, err
		}
		if !contracted {
			return repository.Record{}, apperr.Validation("client does not contract this product")
		}
	}

	var record repository.Record
	err = s.repo.InTx(ctx, func(u repository.Unit) error {
		record, err = u.CreateRecord(ctx, repository.CreateParams{
			Scope:            scope,
			ClientID:         params.ClientID,
			ProductSlug:      params.ProductSlug,
			Step:             domain.FirstStep(),
			HadValidContract: params.HadValidContract,
		})
		if err != nil {
			return err
		}

		if scope == domain.ScopeClient {
			step := record.Step
			if err := u.MirrorClientChurn(ctx, params.ClientID, clients.StatusChurn, &step); err != nil {
				return err
			}
			if err := u.DeleteClientBilling(ctx, params.ClientID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return repository.Record{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ChurnInitiated{
			BaseEvent:   events.NewBaseEvent(),
			RecordID:    record.ID,
			ClientID:    record.ClientID,
			ProductSlug: record.ProductSlug,
			HasContract: record.HadValidContract,
		})
	}

	return record, nil
}

// Advance moves a record one step along its track. The caller supplies the
// step it believes is current; a mismatch means someone else advanced the
// record first and the call is rejected without writing.
func (s *Service) Advance(ctx context.Context, recordID uuid.UUID, expected domain.Step) (repository.Record, error) {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return repository.Record{}, err
	}
	if record.Archived {
		return repository.Record{}, apperr.Validation("churn record is closed")
	}
	if !domain.IsValid(record.HadValidContract, expected) {
		return repository.Record{}, apperr.Validation("step does not belong to this record's track")
	}
	if record.Step != expected {
		return repository.Record{}, apperr.Conflict("churn step changed since it was read").
			WithDetails(map[string]string{"currentStep": string(record.Step)})
	}
	if domain.IsTerminal(record.HadValidContract, record.Step) {
		return repository.Record{}, apperr.Validation("record is at its terminal step, use finalize")
	}

	next, ok := domain.NextStep(record.HadValidContract, record.Step)
	if !ok {
		return repository.Record{}, apperr.Validation("no next step on this track")
	}

	var updated repository.Record
	err = s.repo.InTx(ctx, func(u repository.Unit) error {
		var advanced bool
		updated, advanced, err = u.AdvanceRecord(ctx, recordID, expected, next)
		if err != nil {
			return err
		}
		if !advanced {
			return apperr.Conflict("churn step changed since it was read")
		}

		if updated.Scope == domain.ScopeClient {
			step := updated.Step
			return u.MirrorClientChurn(ctx, updated.ClientID, clients.StatusChurn, &step)
		}
		return nil
	})
	if err != nil {
		return repository.Record{}, err
	}

	return updated, nil
}

// Finalize closes a record sitting at its terminal step and runs the
// cascade: product-scoped records lose the product and its billing row, and
// a client whose last product just left is archived outright. The remaining
// product count tells the caller whether the client survived.
func (s *Service) Finalize(ctx context.Context, recordID uuid.UUID) (FinalizeResult, error) {
	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if record.Archived {
		return FinalizeResult{}, apperr.Validation("churn record is already finalized")
	}
	if !domain.IsTerminal(record.HadValidContract, record.Step) {
		return FinalizeResult{}, apperr.Validation("finalize is only legal at the track's terminal step").
			WithDetails(map[string]string{"currentStep": string(record.Step)})
	}

	result := FinalizeResult{Record: record}
	err = s.repo.InTx(ctx, func(u repository.Unit) error {
		if err := u.ArchiveRecord(ctx, record.ID); err != nil {
			return err
		}

		switch record.Scope {
		case domain.ScopeProduct:
			if err := u.RemoveProduct(ctx, record.ClientID, *record.ProductSlug); err != nil {
				return err
			}
			if err := u.DeleteProductBilling(ctx, record.ClientID, *record.ProductSlug); err != nil {
				return err
			}
			remaining, err := u.CountProducts(ctx, record.ClientID)
			if err != nil {
				return err
			}
			result.RemainingProducts = remaining
			if remaining == 0 {
				result.ClientArchived = true
				if err := u.ArchiveClient(ctx, record.ClientID); err != nil {
					return err
				}
				if err := u.DeleteClientBilling(ctx, record.ClientID); err != nil {
					return err
				}
			}

		case domain.ScopeClient:
			result.ClientArchived = true
			remaining, err := u.CountProducts(ctx, record.ClientID)
			if err != nil {
				return err
			}
			result.RemainingProducts = remaining
			if err := u.ArchiveClient(ctx, record.ClientID); err != nil {
				return err
			}
			if err := u.DeleteClientBilling(ctx, record.ClientID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return FinalizeResult{}, err
	}

	if result.ClientArchived && s.bus != nil {
		s.bus.Publish(ctx, events.ClientArchived{
			BaseEvent: events.NewBaseEvent(),
			ClientID:  record.ClientID,
		})
	}

	return result, nil
}

// List returns unarchived churn records, optionally filtered to one step,
// each with the number of days since the step was entered.
func (s *Service) List(ctx context.Context, step *domain.Step) ([]RecordStatus, error) {
	records, err := s.repo.ListByStep(ctx, step)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]RecordStatus, 0, len(records))
	for _, record := range records {
		items = append(items, RecordStatus{
			RecordWithClient: record,
			DaysInStep:       int(now.Sub(record.StepEnteredAt).Hours() / 24),
		})
	}
	return items, nil
}
