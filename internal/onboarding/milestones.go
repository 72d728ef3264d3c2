// Package onboarding tracks per-client onboarding milestones against fixed
// SLAs and turns SLA breaches into synthetic overdue candidates for the
// deadline scanner.
package onboarding

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FirstMilestone and LastMilestone bound the fixed milestone sequence.
const (
	FirstMilestone = 1
	LastMilestone  = 5
)

// slaDays is the maximum allowed days in each milestone. The table is fixed,
// not user-configurable.
var slaDays = map[int]int{
	1: 3,
	2: 4,
	3: 5,
	4: 6,
	5: 10,
}

// milestoneLabels give each stage a display name for notifications.
var milestoneLabels = map[int]string{
	1: "Kickoff",
	2: "Access & Setup",
	3: "Planning",
	4: "Launch",
	5: "First Results Review",
}

// SLADays returns the allowed days for a milestone, or false for an unknown
// milestone number.
func SLADays(milestone int) (int, bool) {
	days, ok := slaDays[milestone]
	return days, ok
}

// MilestoneLabel returns the display name for a milestone.
func MilestoneLabel(milestone int) string {
	if label, ok := milestoneLabels[milestone]; ok {
		return label
	}
	return fmt.Sprintf("Milestone %d", milestone)
}

// CandidateID composes the synthetic work-item key for a milestone breach.
// One key per (client, milestone) keeps notification dedup stable while the
// client sits in the same stage.
func CandidateID(clientID uuid.UUID, milestone int) string {
	return fmt.Sprintf("onboarding_%s_%d", clientID, milestone)
}

// State is the live onboarding position of one client. A client has at most
// one row; the row is superseded in place each time the milestone advances.
type State struct {
	ClientID           uuid.UUID `json:"clientId"`
	CurrentMilestone   int       `json:"currentMilestone"`
	MilestoneStartedAt time.Time `json:"milestoneStartedAt"`
	Completed          bool      `json:"completed"`
}

// DueDate returns the deadline for leaving the current milestone:
// milestoneStartedAt plus the milestone's SLA in days.
func (s State) DueDate() time.Time {
	days, ok := SLADays(s.CurrentMilestone)
	if !ok {
		return s.MilestoneStartedAt
	}
	return s.MilestoneStartedAt.AddDate(0, 0, days)
}
