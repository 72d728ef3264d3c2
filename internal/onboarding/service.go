package onboarding

import (
	"context"
	"time"

	"opsboard_backend/internal/workitem"
	"opsboard_backend/platform/apperr"
	"opsboard_backend/platform/logger"

	"github.com/google/uuid"
)

// stateStore is the repository surface the service needs.
type stateStore interface {
	stateLister
	GetState(ctx context.Context, clientID uuid.UUID) (State, error)
	Supersede(ctx context.Context, clientID uuid.UUID, milestone int, startedAt time.Time) error
	MarkCompleted(ctx context.Context, clientID uuid.UUID) error
}

// BreachStatus reports how a client's current milestone stands against its SLA.
type BreachStatus struct {
	ClientID         uuid.UUID `json:"clientId"`
	CurrentMilestone int       `json:"currentMilestone"`
	MilestoneLabel   string    `json:"milestoneLabel"`
	SLADays          int       `json:"slaDays"`
	DaysInMilestone  int       `json:"daysInMilestone"`
	DueDate          time.Time `json:"dueDate"`
	Breached         bool      `json:"breached"`
	Completed        bool      `json:"completed"`
}

// Service provides onboarding milestone tracking.
type Service struct {
	repo stateStore
	loc  *time.Location
	log  *logger.Logger
	now  func() time.Time
}

// NewService creates the onboarding service. loc fixes the day boundary used
// for day counting.
func NewService(repo stateStore, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, log: log, now: time.Now}
}

// Breach returns the breach status for one client.
func (s *Service) Breach(ctx context.Context, clientID uuid.UUID) (BreachStatus, error) {
	state, err := s.repo.GetState(ctx, clientID)
	if err != nil {
		return BreachStatus{}, err
	}
	return s.status(state, ""), nil
}

// ListBreaches returns every client currently over its milestone SLA.
func (s *Service) ListBreaches(ctx context.Context) ([]BreachStatus, error) {
	states, err := s.repo.ListActiveStates(ctx)
	if err != nil {
		return nil, err
	}

	breaches := make([]BreachStatus, 0)
	for _, state := range states {
		status := s.status(state.State, state.ClientName)
		if status.Breached {
			breaches = append(breaches, status)
		}
	}
	return breaches, nil
}

// Advance moves the client one milestone forward, resetting the stage clock.
// Completing the last milestone closes onboarding instead.
func (s *Service) Advance(ctx context.Context, clientID uuid.UUID) (BreachStatus, error) {
	state, err := s.repo.GetState(ctx, clientID)
	if err != nil {
		return BreachStatus{}, err
	}
	if state.Completed {
		return BreachStatus{}, apperr.Validation("onboarding already completed")
	}

	if state.CurrentMilestone >= LastMilestone {
		if err := s.repo.MarkCompleted(ctx, clientID); err != nil {
			return BreachStatus{}, err
		}
		state.Completed = true
	} else {
		next := state.CurrentMilestone + 1
		startedAt := s.now()
		if err := s.repo.Supersede(ctx, clientID, next, startedAt); err != nil {
			return BreachStatus{}, err
		}
		state.CurrentMilestone = next
		state.MilestoneStartedAt = startedAt
	}

	s.log.Info("onboarding milestone advanced",
		"clientId", clientID,
		"milestone", state.CurrentMilestone,
		"completed", state.Completed,
	)
	return s.status(state, ""), nil
}

func (s *Service) status(state State, _ string) BreachStatus {
	sla, _ := SLADays(state.CurrentMilestone)
	startOfToday := workitem.StartOfDay(s.now(), s.loc)
	startOfStage := workitem.StartOfDay(state.MilestoneStartedAt, s.loc)
	days := int(startOfToday.Sub(startOfStage).Hours() / 24)

	return BreachStatus{
		ClientID:         state.ClientID,
		CurrentMilestone: state.CurrentMilestone,
		MilestoneLabel:   MilestoneLabel(state.CurrentMilestone),
		SLADays:          sla,
		DaysInMilestone:  days,
		DueDate:          state.DueDate(),
		Breached:         !state.Completed && days > sla,
		Completed:        state.Completed,
	}
}
