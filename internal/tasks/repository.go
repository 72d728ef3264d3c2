// Package tasks adapts the four concrete task collections into the normalized
// work-item contract consumed by the deadline scanner. Each collection has its
// own done/archived semantics; exclusions are applied in the queries, before
// candidates are returned.
package tasks

import (
	"context"
	"fmt"

	"opsboard_backend/internal/workitem"
	"opsboard_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opListAds        = "tasks.repository.list_ads"
	opListDepartment = "tasks.repository.list_department"
	opListOnboarding = "tasks.repository.list_onboarding"
	opListKanban     = "tasks.repository.list_kanban"
)

// Repository reads the task collections.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a task repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAdsTasks returns not-done, unarchived ads-manager tasks with a due date.
// Ads tasks are always owned by the ads manager role, so the role is fixed
// here instead of resolved at scan time.
func (r *Repository) ListAdsTasks(ctx context.Context) ([]workitem.WorkItem, error) {
	return r.list(ctx, opListAds, workitem.SourceAdsTasks, workitem.RoleAdsManager, `
		SELECT id::text, assignee_id, title, due_date, done
		FROM ads_tasks
		WHERE done = FALSE AND archived = FALSE AND due_date IS NOT NULL
	`)
}

// ListDepartmentTasks returns not-done department tasks with a due date.
// Department tasks have no archival concept.
func (r *Repository) ListDepartmentTasks(ctx context.Context) ([]workitem.WorkItem, error) {
	return r.list(ctx, opListDepartment, workitem.SourceDepartmentTasks, "", `
		SELECT id::text, assignee_id, title, due_date, done
		FROM department_tasks
		WHERE done = FALSE AND due_date IS NOT NULL
	`)
}

// ListOnboardingTasks returns not-done, unarchived onboarding step tasks with
// a due date.
func (r *Repository) ListOnboardingTasks(ctx context.Context) ([]workitem.WorkItem, error) {
	return r.list(ctx, opListOnboarding, workitem.SourceOnboardingTasks, "", `
		SELECT id::text, assignee_id, title, due_date, done
		FROM onboarding_tasks
		WHERE done = FALSE AND archived = FALSE AND due_date IS NOT NULL
	`)
}

// ListKanbanCards returns not-done, unarchived kanban cards that have both an
// assignee and a due date. Unassigned or undated cards never become overdue
// candidates.
func (r *Repository) ListKanbanCards(ctx context.Context) ([]workitem.WorkItem, error) {
	return r.list(ctx, opListKanban, workitem.SourceKanbanCards, "", `
		SELECT id::text, assignee_id, title, due_date, done
		FROM kanban_cards
		WHERE done = FALSE AND archived = FALSE
		  AND assignee_id IS NOT NULL AND due_date IS NOT NULL
	`)
}

func (r *Repository) list(ctx context.Context, op string, source workitem.Source, fixedRole, query string) ([]workitem.WorkItem, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal("task repository not configured").WithOp(op)
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list %s failed: %v", source, err)).WithOp(op)
	}
	defer rows.Close()

	items, err := scanWorkItems(rows, source, fixedRole)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("scan %s failed: %v", source, err)).WithOp(op)
	}

	return items, nil
}

func scanWorkItems(rows pgx.Rows, source workitem.Source, fixedRole string) ([]workitem.WorkItem, error) {
	var items []workitem.WorkItem
	for rows.Next() {
		item := workitem.WorkItem{Source: source, OwnerRole: fixedRole}
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.DueDate, &item.IsDone); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
