package experience

import (
	"github.com/questline/go-geoquest/internal/world"
)

// EventType enumerates the notifications the state machine emits to
// participants.
type EventType string

const (
	EventJoined             EventType = "experience:joined"
	EventStarted            EventType = "experience:started"
	EventPhaseChanged       EventType = "experience:phaseChanged"
	EventEnded              EventType = "experience:ended"
	EventParticipantLeft    EventType = "experience:participantLeft"
	EventMilestoneActivated EventType = "milestone:activated"
	EventMilestoneCompleted EventType = "milestone:completed"
	EventFinalRewards       EventType = "experience:finalRewards"
)

// Event is one notification destined for a single participant.
type Event struct {
	Type       EventType `json:"type"`
	InstanceID string    `json:"instanceId"`
	TemplateID string    `json:"templateId"`

	// EventStarted / EventPhaseChanged.
	Phase       int      `json:"phase,omitempty"`
	PhasePrompt string   `json:"phasePrompt,omitempty"`
	PhaseTasks  []string `json:"phaseTasks,omitempty"`

	// EventEnded.
	Status world.InstanceStatus `json:"status,omitempty"`

	// EventParticipantLeft.
	PlayerID string `json:"playerId,omitempty"`

	// EventMilestone*.
	MilestoneID string `json:"milestoneId,omitempty"`

	// EventFinalRewards / EventMilestoneCompleted.
	Rewards *world.RewardTable `json:"rewards,omitempty"`
}

// Notifier delivers events to a participant's connection. Implemented by
// the room over the transport publisher.
type Notifier interface {
	Notify(playerID string, ev Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(playerID string, ev Event)

func (f NotifierFunc) Notify(playerID string, ev Event) { f(playerID, ev) }
