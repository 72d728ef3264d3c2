// Package workitem defines the normalized work-item shape shared by all
// overdue-detection sources. The deadline scanner depends only on this type,
// never on source-specific records.
package workitem

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source identifies the collection a work item came from. The set is closed:
// four task tables plus the synthetic onboarding-milestone source.
type Source string

const (
	SourceAdsTasks             Source = "ads_tasks"
	SourceDepartmentTasks      Source = "department_tasks"
	SourceOnboardingTasks      Source = "onboarding_tasks"
	SourceKanbanCards          Source = "kanban_cards"
	SourceOnboardingMilestones Source = "onboarding_milestones"
)

// Dashboard roles. Task owners outside this set keep whatever role the user
// directory reports for them.
const (
	RoleAdsManager      = "ads_manager"
	RoleCustomerSuccess = "customer_success"
	RoleProjectManager  = "project_manager"
	RoleCEO             = "ceo"
	RoleUnknown         = "unknown"
)

// WorkItem is a due-dated unit of work normalized for overdue detection.
// It is produced by source adapters and never persisted as-is.
type WorkItem struct {
	// ID is the source-local identifier. Synthetic sources use composed keys
	// (e.g. "onboarding_<clientID>_<milestone>").
	ID      string
	Source  Source
	OwnerID uuid.UUID
	// OwnerRole is set only when the source fixes the role (ads tasks and
	// milestone breaches are always owned by the ads manager); otherwise the
	// scanner resolves it from the user directory.
	OwnerRole string
	Title     string
	DueDate   time.Time
	IsDone    bool
}

// Lister is the contract every task source adapter implements: list all
// not-done items that have a due date, with the source's own archival and
// done exclusions already applied.
type Lister interface {
	Source() Source
	ListCandidates(ctx context.Context) ([]WorkItem, error)
}

// StartOfDay truncates t to midnight in the given location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// OverdueAt reports whether the item is overdue relative to the given
// start-of-day instant. The comparison is strict: an item due today is not
// yet overdue.
func (w WorkItem) OverdueAt(startOfDay time.Time) bool {
	if w.IsDone || w.DueDate.IsZero() {
		return false
	}
	return w.DueDate.Before(startOfDay)
}
