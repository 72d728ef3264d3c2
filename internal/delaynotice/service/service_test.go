package service

import (
	"context"
	"testing"
	"time"

	"opsboard_backend/internal/delaynotice/repository"
	"opsboard_backend/internal/workitem"
	"opsboard_backend/platform/apperr"
	"opsboard_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeNotifications struct {
	byID map[uuid.UUID]repository.Notification
	just *fakeJustifications
}

func (f *fakeNotifications) GetByID(_ context.Context, id uuid.UUID) (repository.Notification, error) {
	n, ok := f.byID[id]
	if !ok {
		return repository.Notification{}, apperr.NotFound("notification not found")
	}
	return n, nil
}

func (f *fakeNotifications) ListForViewer(_ context.Context, viewerID uuid.UUID) ([]repository.NotificationWithStatus, error) {
	var items []repository.NotificationWithStatus
	for _, n := range f.byID {
		item := repository.NotificationWithStatus{Notification: n}
		if f.just != nil {
			for _, j := range f.just.rows {
				if j.NotificationID == n.ID && j.UserID == viewerID {
					item.JustifiedByViewer = true
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}

type fakeJustifications struct {
	rows map[uuid.UUID]repository.Justification
}

func newFakeJustifications() *fakeJustifications {
	return &fakeJustifications{rows: make(map[uuid.UUID]repository.Justification)}
}

func (f *fakeJustifications) Upsert(_ context.Context, notificationID, userID uuid.UUID, userRole, reason string) (repository.Justification, error) {
	for id, j := range f.rows {
		if j.NotificationID == notificationID && j.UserID == userID {
			j.Reason = reason
			j.UserRole = userRole
			j.Archived = false
			j.ArchivedAt = nil
			j.ArchivedBy = nil
			j.UpdatedAt = time.Now()
			f.rows[id] = j
			return j, nil
		}
	}
	j := repository.Justification{
		ID:             uuid.New(),
		NotificationID: notificationID,
		UserID:         userID,
		UserRole:       userRole,
		Reason:         reason,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.rows[j.ID] = j
	return j, nil
}

func (f *fakeJustifications) ListByNotification(_ context.Context, notificationID uuid.UUID) ([]repository.Justification, error) {
	var items []repository.Justification
	for _, j := range f.rows {
		if j.NotificationID == notificationID {
			items = append(items, j)
		}
	}
	return items, nil
}

func (f *fakeJustifications) SetArchived(_ context.Context, id uuid.UUID, archived bool, actorID uuid.UUID) (repository.Justification, error) {
	j, ok := f.rows[id]
	if !ok {
		return repository.Justification{}, apperr.NotFound("justification not found")
	}
	j.Archived = archived
	if archived {
		now := time.Now()
		j.ArchivedAt = &now
		j.ArchivedBy = &actorID
	} else {
		j.ArchivedAt = nil
		j.ArchivedBy = nil
	}
	f.rows[id] = j
	return j, nil
}

func newFixture() (*fakeNotifications, *fakeJustifications, *Service) {
	justifications := newFakeJustifications()
	notifications := &fakeNotifications{byID: make(map[uuid.UUID]repository.Notification), just: justifications}
	svc := NewService(notifications, justifications, logger.New("development"))
	return notifications, justifications, svc
}

func notification(ownerID uuid.UUID, ownerRole string) repository.Notification {
	return repository.Notification{
		ID:          uuid.New(),
		TaskID:      "1",
		SourceTable: workitem.SourceDepartmentTasks,
		OwnerID:     ownerID,
		OwnerName:   "Jamie Doe",
		OwnerRole:   ownerRole,
		Title:       "Quarterly report",
		DueDate:     time.Now().AddDate(0, 0, -2),
	}
}

func TestPendingFiltersByAudience(t *testing.T) {
	adsOwner := uuid.New()
	csOwner := uuid.New()

	notifications, _, svc := newFixture()
	adsItem := notification(adsOwner, workitem.RoleAdsManager)
	csItem := notification(csOwner, workitem.RoleCustomerSuccess)
	notifications.byID[adsItem.ID] = adsItem
	notifications.byID[csItem.ID] = csItem

	// Another ads manager sees neither of the two.
	got, err := svc.Pending(context.Background(), uuid.New(), workitem.RoleAdsManager)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("foreign ads manager sees %d notifications, want 0", len(got))
	}

	// The CEO sees both.
	got, err = svc.Pending(context.Background(), uuid.New(), workitem.RoleCEO)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ceo sees %d notifications, want 2", len(got))
	}

	// The owning ads manager sees only their own.
	got, err = svc.Pending(context.Background(), adsOwner, workitem.RoleAdsManager)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(got) != 1 || got[0].OwnerID != adsOwner {
		t.Errorf("owning ads manager sees %d notifications, want exactly their own", len(got))
	}
}

func TestJustifyRemovesFromOwnPendingOnly(t *testing.T) {
	ownerID := uuid.New()
	notifications, _, svc := newFixture()
	n := notification(ownerID, workitem.RoleCustomerSuccess)
	notifications.byID[n.ID] = n

	pmViewer := uuid.New()
	if _, err := svc.Justify(context.Background(), n.ID, pmViewer, workitem.RoleProjectManager, "handled offline"); err != nil {
		t.Fatalf("Justify() error = %v", err)
	}

	pmFeed, err := svc.Pending(context.Background(), pmViewer, workitem.RoleProjectManager)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pmFeed) != 0 {
		t.Errorf("justifier still has %d pending notifications, want 0", len(pmFeed))
	}

	ownerFeed, err := svc.Pending(context.Background(), ownerID, workitem.RoleCustomerSuccess)
	if err != nil {
		t.Fatalf("Pending() for owner error = %v", err)
	}
	if len(ownerFeed) != 1 {
		t.Errorf("owner has %d pending notifications, want 1 (unaffected by another viewer's justification)", len(ownerFeed))
	}
}

func TestJustifyUpsertsPerViewer(t *testing.T) {
	ownerID := uuid.New()
	notifications, justifications, svc := newFixture()
	n := notification(ownerID, workitem.RoleCustomerSuccess)
	notifications.byID[n.ID] = n

	first, err := svc.Justify(context.Background(), n.ID, ownerID, workitem.RoleCustomerSuccess, "waiting on client assets")
	if err != nil {
		t.Fatalf("Justify() error = %v", err)
	}

	second, err := svc.Justify(context.Background(), n.ID, ownerID, workitem.RoleCustomerSuccess, "assets arrived, shipping friday")
	if err != nil {
		t.Fatalf("second Justify() error = %v", err)
	}

	if second.ID != first.ID {
		t.Error("re-justifying must update the existing row, not create a second one")
	}
	if second.Reason != "assets arrived, shipping friday" {
		t.Errorf("reason = %q, want the updated text", second.Reason)
	}
	if len(justifications.rows) != 1 {
		t.Errorf("stored %d rows, want 1", len(justifications.rows))
	}
}

func TestJustifyRejectsViewerOutsideAudience(t *testing.T) {
	notifications, _, svc := newFixture()
	n := notification(uuid.New(), workitem.RoleCustomerSuccess)
	notifications.byID[n.ID] = n

	_, err := svc.Justify(context.Background(), n.ID, uuid.New(), workitem.RoleAdsManager, "not my task")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("Justify() outside audience error = %v, want forbidden", err)
	}
}

func TestListJustificationsHidesArchivedFromNonCEO(t *testing.T) {
	ownerID := uuid.New()
	ceoID := uuid.New()
	notifications, _, svc := newFixture()
	n := notification(ownerID, workitem.RoleCustomerSuccess)
	notifications.byID[n.ID] = n

	j, err := svc.Justify(context.Background(), n.ID, ownerID, workitem.RoleCustomerSuccess, "waiting on approvals")
	if err != nil {
		t.Fatalf("Justify() error = %v", err)
	}
	archived, err := svc.Archive(context.Background(), j.ID, ceoID, workitem.RoleCEO)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if archived.ArchivedBy == nil || *archived.ArchivedBy != ceoID {
		t.Errorf("archivedBy = %v, want the acting ceo", archived.ArchivedBy)
	}

	pmView, err := svc.ListJustifications(context.Background(), n.ID, uuid.New(), workitem.RoleProjectManager)
	if err != nil {
		t.Fatalf("ListJustifications() error = %v", err)
	}
	if len(pmView) != 0 {
		t.Errorf("project manager sees %d justifications, want 0 (archived hidden)", len(pmView))
	}

	ceoView, err := svc.ListJustifications(context.Background(), n.ID, ceoID, workitem.RoleCEO)
	if err != nil {
		t.Fatalf("ListJustifications() as ceo error = %v", err)
	}
	if len(ceoView) != 1 || !ceoView[0].Archived {
		t.Errorf("ceo view = %+v, want the archived row flagged", ceoView)
	}
}

func TestArchiveIsCEOOnly(t *testing.T) {
	_, _, svc := newFixture()

	for _, role := range []string{workitem.RoleAdsManager, workitem.RoleCustomerSuccess, workitem.RoleProjectManager} {
		if _, err := svc.Archive(context.Background(), uuid.New(), uuid.New(), role); !apperr.Is(err, apperr.KindForbidden) {
			t.Errorf("Archive() as %s error = %v, want forbidden", role, err)
		}
		if _, err := svc.Restore(context.Background(), uuid.New(), uuid.New(), role); !apperr.Is(err, apperr.KindForbidden) {
			t.Errorf("Restore() as %s error = %v, want forbidden", role, err)
		}
	}
}

func TestRestoreUnarchives(t *testing.T) {
	ownerID := uuid.New()
	ceoID := uuid.New()
	notifications, _, svc := newFixture()
	n := notification(ownerID, workitem.RoleCustomerSuccess)
	notifications.byID[n.ID] = n

	j, err := svc.Justify(context.Background(), n.ID, ownerID, workitem.RoleCustomerSuccess, "blocked on vendor")
	if err != nil {
		t.Fatalf("Justify() error = %v", err)
	}
	if _, err := svc.Archive(context.Background(), j.ID, ceoID, workitem.RoleCEO); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	restored, err := svc.Restore(context.Background(), j.ID, ceoID, workitem.RoleCEO)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored.Archived {
		t.Error("restored justification must not be archived")
	}
	if restored.ArchivedAt != nil || restored.ArchivedBy != nil {
		t.Error("restore must clear the archival audit columns")
	}
}
