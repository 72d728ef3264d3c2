package service

import (
	"context"
	"testing"
	"time"

	"opsboard_backend/internal/churn/domain"
	"opsboard_backend/internal/churn/repository"
	"opsboard_backend/internal/clients"
	"opsboard_backend/platform/apperr"
	"opsboard_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore implements recordStore and repository.Unit in memory. InTx runs
// the callback against the store itself; rollback is simulated by snapshot.
type fakeStore struct {
	records  map[uuid.UUID]repository.Record
	products map[uuid.UUID]map[string]bool
	billing  map[uuid.UUID]map[string]bool // key "" is the client-level row
	clients  map[uuid.UUID]*clients.Client
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:  make(map[uuid.UUID]repository.Record),
		products: make(map[uuid.UUID]map[string]bool),
		billing:  make(map[uuid.UUID]map[string]bool),
		clients:  make(map[uuid.UUID]*clients.Client),
	}
}

func (f *fakeStore) addClient(status string, slugs ...string) uuid.UUID {
	id := uuid.New()
	f.clients[id] = &clients.Client{ID: id, Name: "Acme Corp", Status: status}
	f.products[id] = make(map[string]bool)
	f.billing[id] = map[string]bool{"": true}
	for _, slug := range slugs {
		f.products[id][slug] = true
		f.billing[id][slug] = true
	}
	return id
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Record, error) {
	r, ok := f.records[id]
	if !ok {
		return repository.Record{}, apperr.NotFound("churn record not found")
	}
	return r, nil
}

func (f *fakeStore) ListByStep(_ context.Context, step *domain.Step) ([]repository.RecordWithClient, error) {
	var items []repository.RecordWithClient
	for _, r := range f.records {
		if r.Archived {
			continue
		}
		if step != nil && r.Step != *step {
			continue
		}
		items = append(items, repository.RecordWithClient{Record: r, ClientName: "Acme Corp"})
	}
	return items, nil
}

func (f *fakeStore) InTx(_ context.Context, fn func(u repository.Unit) error) error {
	return fn(f)
}

func (f *fakeStore) CreateRecord(_ context.Context, params repository.CreateParams) (repository.Record, error) {
	slugKey := ""
	if params.ProductSlug != nil {
		slugKey = *params.ProductSlug
	}
	for _, r := range f.records {
		existingKey := ""
		if r.ProductSlug != nil {
			existingKey = *r.ProductSlug
		}
		if !r.Archived && r.ClientID == params.ClientID && existingKey == slugKey {
			return repository.Record{}, apperr.Conflict("churn already in progress for this scope")
		}
	}
	r := repository.Record{
		ID:               uuid.New(),
		Scope:            params.Scope,
		ClientID:         params.ClientID,
		ProductSlug:      params.ProductSlug,
		Step:             params.Step,
		StepEnteredAt:    time.Now(),
		HadValidContract: params.HadValidContract,
	}
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeStore) AdvanceRecord(_ context.Context, id uuid.UUID, expected, next domain.Step) (repository.Record, bool, error) {
	r, ok := f.records[id]
	if !ok || r.Archived || r.Step != expected {
		return repository.Record{}, false, nil
	}
	r.Step = next
	r.StepEnteredAt = time.Now()
	f.records[id] = r
	return r, true, nil
}

func (f *fakeStore) ArchiveRecord(_ context.Context, id uuid.UUID) error {
	r, ok := f.records[id]
	if !ok || r.Archived {
		return apperr.NotFound("churn record not found or already archived")
	}
	r.Archived = true
	f.records[id] = r
	return nil
}

func (f *fakeStore) RemoveProduct(_ context.Context, clientID uuid.UUID, slug string) error {
	delete(f.products[clientID], slug)
	return nil
}

func (f *fakeStore) DeleteProductBilling(_ context.Context, clientID uuid.UUID, slug string) error {
	delete(f.billing[clientID], slug)
	return nil
}

func (f *fakeStore) DeleteClientBilling(_ context.Context, clientID uuid.UUID) error {
	delete(f.billing[clientID], "")
	return nil
}

func (f *fakeStore) CountProducts(_ context.Context, clientID uuid.UUID) (int, error) {
	return len(f.products[clientID]), nil
}

func (f *fakeStore) ArchiveClient(_ context.Context, clientID uuid.UUID) error {
	if c, ok := f.clients[clientID]; ok {
		c.Archived = true
	}
	return nil
}

func (f *fakeStore) MirrorClientChurn(_ context.Context, clientID uuid.UUID, status string, step *domain.Step) error {
	c, ok := f.clients[clientID]
	if !ok {
		return apperr.NotFound("client not found")
	}
	c.Status = status
	if step != nil {
		s := string(*step)
		c.ChurnStep = &s
	} else {
		c.ChurnStep = nil
	}
	return nil
}

func (f *fakeStore) GetClient(_ context.Context, id uuid.UUID) (clients.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return clients.Client{}, apperr.NotFound("client not found")
	}
	return *c, nil
}

func (f *fakeStore) HasProduct(_ context.Context, clientID uuid.UUID, slug string) (bool, error) {
	return f.products[clientID][slug], nil
}

func strptr(s string) *string { return &s }

func newTestService(store *fakeStore) *Service {
	return NewService(store, store, nil, logger.New("development"))
}

func TestInitiateClientScope(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads")
	svc := newTestService(store)

	record, err := svc.Initiate(context.Background(), InitiateParams{ClientID: clientID, HadValidContract: true})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	if record.Scope != domain.ScopeClient {
		t.Errorf("scope = %q, want client", record.Scope)
	}
	if record.Step != domain.StepRequested {
		t.Errorf("step = %q, want requested", record.Step)
	}
	if store.clients[clientID].Status != clients.StatusChurn {
		t.Errorf("client status = %q, want churn mirror", store.clients[clientID].Status)
	}
	if store.clients[clientID].ChurnStep == nil || *store.clients[clientID].ChurnStep != "requested" {
		t.Error("client churn_step mirror not written")
	}
	if store.billing[clientID][""] {
		t.Error("client-level billing row must be deleted on client-wide initiation")
	}
}

func TestInitiateDuplicateScopeFails(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads")
	svc := newTestService(store)

	params := InitiateParams{ClientID: clientID, ProductSlug: strptr("google_ads"), HadValidContract: false}
	if _, err := svc.Initiate(context.Background(), params); err != nil {
		t.Fatalf("first Initiate() error = %v", err)
	}
	_, err := svc.Initiate(context.Background(), params)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second Initiate() error = %v, want conflict", err)
	}
}

func TestInitiateRejectsUncontractedProduct(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads")
	svc := newTestService(store)

	_, err := svc.Initiate(context.Background(), InitiateParams{ClientID: clientID, ProductSlug: strptr("seo")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Initiate() with foreign product error = %v, want validation", err)
	}
}

func TestAdvanceStaleGuard(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads")
	svc := newTestService(store)

	record, err := svc.Initiate(context.Background(), InitiateParams{ClientID: clientID, HadValidContract: true})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	advanced, err := svc.Advance(context.Background(), record.ID, domain.StepRequested)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if advanced.Step != domain.StepBillingRemoved {
		t.Errorf("step = %q, want billing_removed", advanced.Step)
	}
	if store.clients[clientID].ChurnStep == nil || *store.clients[clientID].ChurnStep != "billing_removed" {
		t.Error("client mirror must follow the advanced step")
	}

	// Replaying the same expected step now fails.
	_, err = svc.Advance(context.Background(), record.ID, domain.StepRequested)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("stale Advance() error = %v, want conflict", err)
	}
}

func TestAdvanceAtTerminalStepFails(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads")
	svc := newTestService(store)

	record, err := svc.Initiate(context.Background(), InitiateParams{ClientID: clientID, HadValidContract: true})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	for _, step := range []domain.Step{domain.StepRequested, domain.StepBillingRemoved, domain.StepTerminationSent} {
		if _, err := svc.Advance(context.Background(), record.ID, step); err != nil {
			t.Fatalf("Advance(%s) error = %v", step, err)
		}
	}

	_, err = svc.Advance(context.Background(), record.ID, domain.StepTerminationSigned)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Advance() at terminal step error = %v, want validation", err)
	}

	// Finalize on the same record succeeds and archives it.
	result, err := svc.Finalize(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if !store.records[record.ID].Archived {
		t.Error("finalized record must be archived")
	}
	if !result.ClientArchived {
		t.Error("client-wide finalize must archive the client")
	}
}

func TestFinalizeNonTerminalFails(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads")
	svc := newTestService(store)

	record, err := svc.Initiate(context.Background(), InitiateParams{ClientID: clientID, HadValidContract: true})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	_, err = svc.Finalize(context.Background(), record.ID)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Finalize() before terminal step error = %v, want validation", err)
	}
}

func TestFinalizeProductKeepsClientWithRemainingProducts(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads", "seo")
	svc := newTestService(store)

	// No contract: requested then straight to effective.
	record, err := svc.Initiate(context.Background(), InitiateParams{ClientID: clientID, ProductSlug: strptr("google_ads")})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if _, err := svc.Advance(context.Background(), record.ID, domain.StepRequested); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	result, err := svc.Finalize(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if result.RemainingProducts != 1 {
		t.Errorf("remaining products = %d, want 1", result.RemainingProducts)
	}
	if result.ClientArchived {
		t.Error("client with remaining products must not be archived")
	}
	if store.clients[clientID].Archived {
		t.Error("client record must stay unarchived")
	}
	if store.products[clientID]["google_ads"] {
		t.Error("finalized product must be removed from the contracted list")
	}
	if !store.products[clientID]["seo"] {
		t.Error("unrelated product must survive")
	}
	if store.billing[clientID]["google_ads"] {
		t.Error("per-product billing row must be deleted")
	}
	if !store.billing[clientID][""] {
		t.Error("client-level billing row must survive while products remain")
	}
}

func TestFinalizeLastProductArchivesClient(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads")
	svc := newTestService(store)

	record, err := svc.Initiate(context.Background(), InitiateParams{ClientID: clientID, ProductSlug: strptr("google_ads")})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if _, err := svc.Advance(context.Background(), record.ID, domain.StepRequested); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	result, err := svc.Finalize(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if result.RemainingProducts != 0 {
		t.Errorf("remaining products = %d, want 0", result.RemainingProducts)
	}
	if !result.ClientArchived {
		t.Error("losing the last product must archive the client")
	}
	if !store.clients[clientID].Archived {
		t.Error("client record must be archived")
	}
	if store.billing[clientID][""] {
		t.Error("remaining client-level billing row must be deleted")
	}

	// Finalize is not re-runnable on an archived record.
	_, err = svc.Finalize(context.Background(), record.ID)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("repeated Finalize() error = %v, want validation", err)
	}
}

func TestListFiltersByStepAndCountsDays(t *testing.T) {
	store := newFakeStore()
	clientID := store.addClient(clients.StatusActive, "google_ads")
	svc := newTestService(store)
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	record, err := svc.Initiate(context.Background(), InitiateParams{ClientID: clientID, HadValidContract: true})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	stored := store.records[record.ID]
	stored.StepEnteredAt = now.AddDate(0, 0, -3)
	store.records[record.ID] = stored

	step := domain.StepRequested
	items, err := svc.List(context.Background(), &step)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d records, want 1", len(items))
	}
	if items[0].DaysInStep != 3 {
		t.Errorf("daysInStep = %d, want 3", items[0].DaysInStep)
	}

	other := domain.StepEffective
	items, err = svc.List(context.Background(), &other)
	if err != nil {
		t.Fatalf("List() with non-matching filter error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d records for effective filter, want 0", len(items))
	}
}
