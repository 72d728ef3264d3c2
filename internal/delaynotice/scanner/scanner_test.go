package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"opsboard_backend/internal/clients"
	"opsboard_backend/internal/delaynotice/repository"
	"opsboard_backend/internal/workitem"
	platformevents "opsboard_backend/platform/events"
	"opsboard_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSource struct {
	source workitem.Source
	items  []workitem.WorkItem
	err    error
}

func (f fakeSource) Source() workitem.Source { return f.source }

func (f fakeSource) ListCandidates(context.Context) ([]workitem.WorkItem, error) {
	return f.items, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	existing map[string]bool
	created  []repository.CreateParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: make(map[string]bool)}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateParams) (repository.Notification, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := params.TaskID + "|" + string(params.SourceTable)
	if f.existing[key] {
		return repository.Notification{}, false, nil
	}
	f.existing[key] = true
	f.created = append(f.created, params)
	return repository.Notification{
		ID:          uuid.New(),
		TaskID:      params.TaskID,
		SourceTable: params.SourceTable,
		OwnerID:     params.OwnerID,
		OwnerName:   params.OwnerName,
		OwnerRole:   params.OwnerRole,
		Title:       params.Title,
		DueDate:     params.DueDate,
	}, true, nil
}

type fakeDirectory struct {
	users map[uuid.UUID]clients.User
}

func (f fakeDirectory) GetUser(_ context.Context, id uuid.UUID) (clients.User, error) {
	user, ok := f.users[id]
	if !ok {
		return clients.User{}, errors.New("user not found")
	}
	return user, nil
}

type capturingBus struct {
	mu     sync.Mutex
	events []platformevents.Event
}

func (b *capturingBus) Publish(_ context.Context, event platformevents.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *capturingBus) PublishSync(ctx context.Context, event platformevents.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *capturingBus) Subscribe(string, platformevents.Handler) {}

func newTestScanner(sources []workitem.Lister, store *fakeStore, dir fakeDirectory, bus *capturingBus, now time.Time) *Scanner {
	s := New(sources, store, dir, bus, time.UTC, logger.New("development"))
	s.now = func() time.Time { return now }
	return s
}

func TestRunCreatesNotificationsForOverdueItems(t *testing.T) {
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	ownerID := uuid.New()

	dir := fakeDirectory{users: map[uuid.UUID]clients.User{
		ownerID: {ID: ownerID, DisplayName: "Jamie Doe", Role: workitem.RoleCustomerSuccess},
	}}

	sources := []workitem.Lister{
		fakeSource{source: workitem.SourceDepartmentTasks, items: []workitem.WorkItem{
			{ID: "42", Source: workitem.SourceDepartmentTasks, OwnerID: ownerID, Title: "Quarterly report", DueDate: now.AddDate(0, 0, -2)},
			{ID: "43", Source: workitem.SourceDepartmentTasks, OwnerID: ownerID, Title: "Due today", DueDate: now},
		}},
	}

	store := newFakeStore()
	bus := &capturingBus{}
	stats, err := newTestScanner(sources, store, dir, bus, now).Run(context.Background(), TriggerTimer)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Scanned != 2 || stats.Overdue != 1 || stats.Created != 1 {
		t.Errorf("stats = %+v, want scanned=2 overdue=1 created=1", stats)
	}
	if len(store.created) != 1 {
		t.Fatalf("got %d created notifications, want 1", len(store.created))
	}
	got := store.created[0]
	if got.TaskID != "42" {
		t.Errorf("created task = %q, want %q", got.TaskID, "42")
	}
	if got.OwnerName != "Jamie Doe" || got.OwnerRole != workitem.RoleCustomerSuccess {
		t.Errorf("owner snapshot = (%q, %q), want directory values", got.OwnerName, got.OwnerRole)
	}
	if len(bus.events) != 1 {
		t.Errorf("got %d published events, want 1", len(bus.events))
	}
}

func TestRunDeduplicatesKnownItems(t *testing.T) {
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	ownerID := uuid.New()

	dir := fakeDirectory{users: map[uuid.UUID]clients.User{
		ownerID: {ID: ownerID, DisplayName: "Jamie Doe", Role: workitem.RoleCustomerSuccess},
	}}
	sources := []workitem.Lister{
		fakeSource{source: workitem.SourceKanbanCards, items: []workitem.WorkItem{
			{ID: "7", Source: workitem.SourceKanbanCards, OwnerID: ownerID, Title: "Redesign", DueDate: now.AddDate(0, 0, -1)},
		}},
	}

	store := newFakeStore()
	bus := &capturingBus{}
	scanner := newTestScanner(sources, store, dir, bus, now)

	if _, err := scanner.Run(context.Background(), TriggerTimer); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	stats, err := scanner.Run(context.Background(), TriggerOnDemand)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if stats.Overdue != 1 {
		t.Errorf("second pass overdue = %d, want 1", stats.Overdue)
	}
	if stats.Created != 0 {
		t.Errorf("second pass created = %d, want 0 (already notified)", stats.Created)
	}
	if len(bus.events) != 1 {
		t.Errorf("got %d published events across both passes, want 1", len(bus.events))
	}
}

func TestRunFallsBackWhenOwnerLookupFails(t *testing.T) {
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)

	sources := []workitem.Lister{
		fakeSource{source: workitem.SourceOnboardingTasks, items: []workitem.WorkItem{
			{ID: "9", Source: workitem.SourceOnboardingTasks, OwnerID: uuid.New(), Title: "Collect access", DueDate: now.AddDate(0, 0, -1)},
		}},
	}

	store := newFakeStore()
	stats, err := newTestScanner(sources, store, fakeDirectory{}, &capturingBus{}, now).Run(context.Background(), TriggerTimer)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Created != 1 {
		t.Fatalf("created = %d, want 1 (lookup failure must not block creation)", stats.Created)
	}
	got := store.created[0]
	if got.OwnerName != "Unknown user" {
		t.Errorf("owner name = %q, want fallback", got.OwnerName)
	}
	if got.OwnerRole != workitem.RoleUnknown {
		t.Errorf("owner role = %q, want fallback", got.OwnerRole)
	}
}

func TestRunSkipsFailedSource(t *testing.T) {
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	ownerID := uuid.New()

	dir := fakeDirectory{users: map[uuid.UUID]clients.User{
		ownerID: {ID: ownerID, DisplayName: "Jamie Doe", Role: workitem.RoleProjectManager},
	}}
	sources := []workitem.Lister{
		fakeSource{source: workitem.SourceAdsTasks, err: errors.New("connection refused")},
		fakeSource{source: workitem.SourceDepartmentTasks, items: []workitem.WorkItem{
			{ID: "1", Source: workitem.SourceDepartmentTasks, OwnerID: ownerID, Title: "Invoice run", DueDate: now.AddDate(0, 0, -3)},
		}},
	}

	store := newFakeStore()
	stats, err := newTestScanner(sources, store, dir, &capturingBus{}, now).Run(context.Background(), TriggerTimer)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Created != 1 {
		t.Errorf("created = %d, want 1 (healthy source must still be processed)", stats.Created)
	}
}

func TestRunKeepsFixedOwnerRole(t *testing.T) {
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	ownerID := uuid.New()

	// Directory says ceo, but the ads source fixes the role.
	dir := fakeDirectory{users: map[uuid.UUID]clients.User{
		ownerID: {ID: ownerID, DisplayName: "Jamie Doe", Role: workitem.RoleCEO},
	}}
	sources := []workitem.Lister{
		fakeSource{source: workitem.SourceAdsTasks, items: []workitem.WorkItem{
			{ID: "3", Source: workitem.SourceAdsTasks, OwnerID: ownerID, OwnerRole: workitem.RoleAdsManager, Title: "Campaign refresh", DueDate: now.AddDate(0, 0, -1)},
		}},
	}

	store := newFakeStore()
	if _, err := newTestScanner(sources, store, dir, &capturingBus{}, now).Run(context.Background(), TriggerTimer); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if store.created[0].OwnerRole != workitem.RoleAdsManager {
		t.Errorf("owner role = %q, want source-fixed %q", store.created[0].OwnerRole, workitem.RoleAdsManager)
	}
}
