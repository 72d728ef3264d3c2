package tasks

import (
	"context"

	"opsboard_backend/internal/workitem"
)

// The four concrete task sources, each a thin adapter over the repository so
// the scanner depends only on workitem.Lister.

type AdsSource struct{ repo *Repository }

func NewAdsSource(repo *Repository) *AdsSource { return &AdsSource{repo: repo} }

func (s *AdsSource) Source() workitem.Source { return workitem.SourceAdsTasks }

func (s *AdsSource) ListCandidates(ctx context.Context) ([]workitem.WorkItem, error) {
	return s.repo.ListAdsTasks(ctx)
}

type DepartmentSource struct{ repo *Repository }

func NewDepartmentSource(repo *Repository) *DepartmentSource { return &DepartmentSource{repo: repo} }

func (s *DepartmentSource) Source() workitem.Source { return workitem.SourceDepartmentTasks }

func (s *DepartmentSource) ListCandidates(ctx context.Context) ([]workitem.WorkItem, error) {
	return s.repo.ListDepartmentTasks(ctx)
}

type OnboardingTaskSource struct{ repo *Repository }

func NewOnboardingTaskSource(repo *Repository) *OnboardingTaskSource {
	return &OnboardingTaskSource{repo: repo}
}

func (s *OnboardingTaskSource) Source() workitem.Source { return workitem.SourceOnboardingTasks }

func (s *OnboardingTaskSource) ListCandidates(ctx context.Context) ([]workitem.WorkItem, error) {
	return s.repo.ListOnboardingTasks(ctx)
}

type KanbanSource struct{ repo *Repository }

func NewKanbanSource(repo *Repository) *KanbanSource { return &KanbanSource{repo: repo} }

func (s *KanbanSource) Source() workitem.Source { return workitem.SourceKanbanCards }

func (s *KanbanSource) ListCandidates(ctx context.Context) ([]workitem.WorkItem, error) {
	return s.repo.ListKanbanCards(ctx)
}

// Compile-time checks.
var (
	_ workitem.Lister = (*AdsSource)(nil)
	_ workitem.Lister = (*DepartmentSource)(nil)
	_ workitem.Lister = (*OnboardingTaskSource)(nil)
	_ workitem.Lister = (*KanbanSource)(nil)
)
