package world

import (
	"time"
)

// InstanceStatus is the lifecycle state of an experience instance.
// Transitions only move forward: Scheduled → InProgress → Completed, with
// Failed reachable from Scheduled or InProgress. Both Completed and
// Failed are terminal.
type InstanceStatus string

const (
	StatusScheduled  InstanceStatus = "scheduled"
	StatusInProgress InstanceStatus = "in_progress"
	StatusCompleted  InstanceStatus = "completed"
	StatusFailed     InstanceStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s InstanceStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParticipantStatus tracks a player within an instance.
type ParticipantStatus string

const (
	ParticipantActive ParticipantStatus = "active"
	ParticipantLeft   ParticipantStatus = "left"
)

// MilestoneStatus is the per-milestone progression state.
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneActive    MilestoneStatus = "active"
	MilestoneCompleted MilestoneStatus = "completed"
)

// Participant is one player's membership in an experience instance.
type Participant struct {
	PlayerID string            `json:"playerId"`
	JoinedAt time.Time         `json:"joinedAt"`
	Status   ParticipantStatus `json:"status"`
	Progress int               `json:"progress"`

	// Submissions holds what the participant turned in, by phase index.
	Submissions map[int]string `json:"submissions,omitempty"`
}

// ExperienceInstance is a live playthrough of a template. All mutation
// goes through the experience manager; the struct itself only guards the
// transition invariants.
type ExperienceInstance struct {
	ID         string `json:"id"`
	TemplateID string `json:"templateId"`
	ZoneID     string `json:"zoneId,omitempty"`

	Status       InstanceStatus `json:"status"`
	CurrentPhase int            `json:"currentPhase"`

	Participants map[string]*Participant `json:"participants"`

	// Milestone progression, parallel to the template's milestone list.
	// Nil for phase-only templates.
	MilestoneStates []MilestoneStatus `json:"milestoneStates,omitempty"`

	StartedAt   time.Time `json:"startedAt,omitzero"`
	EstimatedBy time.Time `json:"estimatedCompletion,omitzero"`
}

// NewInstance creates a Scheduled instance for the template.
func NewInstance(id string, tpl *ExperienceTemplate, zoneID string) *ExperienceInstance {
	inst := &ExperienceInstance{
		ID:           id,
		TemplateID:   tpl.ID,
		ZoneID:       zoneID,
		Status:       StatusScheduled,
		Participants: make(map[string]*Participant),
	}
	if n := len(tpl.Milestones); n > 0 {
		inst.MilestoneStates = make([]MilestoneStatus, n)
		for i := range inst.MilestoneStates {
			inst.MilestoneStates[i] = MilestonePending
		}
		inst.MilestoneStates[0] = MilestoneActive
	}
	return inst
}

// Start transitions Scheduled → InProgress. Returns false if the
// instance is not Scheduled.
func (i *ExperienceInstance) Start(now, estimatedBy time.Time) bool {
	if i.Status != StatusScheduled {
		return false
	}
	i.Status = StatusInProgress
	i.StartedAt = now
	i.EstimatedBy = estimatedBy
	return true
}

// Complete transitions InProgress → Completed.
func (i *ExperienceInstance) Complete() bool {
	if i.Status != StatusInProgress {
		return false
	}
	i.Status = StatusCompleted
	return true
}

// Fail transitions a non-terminal instance to Failed.
func (i *ExperienceInstance) Fail() bool {
	if i.Status.Terminal() {
		return false
	}
	i.Status = StatusFailed
	return true
}

// ActiveParticipants returns participants still marked active.
func (i *ExperienceInstance) ActiveParticipants() []*Participant {
	var out []*Participant
	for _, p := range i.Participants {
		if p.Status == ParticipantActive {
			out = append(out, p)
		}
	}
	return out
}

// ActiveCount returns the number of active participants.
func (i *ExperienceInstance) ActiveCount() int {
	n := 0
	for _, p := range i.Participants {
		if p.Status == ParticipantActive {
			n++
		}
	}
	return n
}

// OverallProgress sums participant progress, driving milestone
// thresholds.
func (i *ExperienceInstance) OverallProgress() int {
	total := 0
	for _, p := range i.Participants {
		total += p.Progress
	}
	return total
}
