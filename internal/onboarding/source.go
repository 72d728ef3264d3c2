package onboarding

import (
	"context"
	"fmt"

	"opsboard_backend/internal/workitem"
)

// stateLister is the slice of the repository the source needs.
type stateLister interface {
	ListActiveStates(ctx context.Context) ([]ActiveState, error)
}

// Source feeds milestone deadlines into the deadline scanner as synthetic
// work items. Every active state yields one candidate with the milestone's
// due date; the scanner's overdue predicate decides whether it breached.
type Source struct {
	repo stateLister
}

// NewSource creates the synthetic onboarding-milestone source.
func NewSource(repo stateLister) *Source {
	return &Source{repo: repo}
}

// Source returns the synthetic source identifier.
func (s *Source) Source() workitem.Source {
	return workitem.SourceOnboardingMilestones
}

// ListCandidates synthesizes one work item per active onboarding state,
// owned by the client's ads manager.
func (s *Source) ListCandidates(ctx context.Context) ([]workitem.WorkItem, error) {
	states, err := s.repo.ListActiveStates(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]workitem.WorkItem, 0, len(states))
	for _, state := range states {
		items = append(items, workitem.WorkItem{
			ID:        CandidateID(state.ClientID, state.CurrentMilestone),
			Source:    workitem.SourceOnboardingMilestones,
			OwnerID:   state.AdsManagerID,
			OwnerRole: workitem.RoleAdsManager,
			Title: fmt.Sprintf("Onboarding overdue: %s stuck at %s",
				state.ClientName, MilestoneLabel(state.CurrentMilestone)),
			DueDate: state.DueDate(),
		})
	}

	return items, nil
}

var _ workitem.Lister = (*Source)(nil)
