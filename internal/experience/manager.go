// Package experience runs the quest instance state machine: participant
// lifecycle, phase progression, milestone completion, timeout-driven
// failure, and reward distribution.
package experience

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/questline/go-geoquest/internal/timers"
	"github.com/questline/go-geoquest/internal/world"
)

// Timer purposes keyed by instance id.
const (
	timerPurposeStart   = "exp-start"
	timerPurposeTimeout = "exp-timeout"
	timerPurposeRemove  = "exp-remove"
)

// Config tunes instance scheduling.
type Config struct {
	// StartDelay is the pause between reaching the participant minimum
	// and the instance actually starting.
	StartDelay time.Duration
	// RemoveGrace is how long a terminal instance lingers before removal.
	RemoveGrace time.Duration
}

// Manager drives every experience instance in a room. Calls are
// serialized by the room.
type Manager struct {
	state    *world.State
	reg      *timers.Registry
	clock    timers.Clock
	notifier Notifier
	cfg      Config
}

// NewManager wires the state machine to a room's state.
func NewManager(state *world.State, reg *timers.Registry, clock timers.Clock, notifier Notifier, cfg Config) *Manager {
	if cfg.StartDelay <= 0 {
		cfg.StartDelay = 3 * time.Second
	}
	if cfg.RemoveGrace <= 0 {
		cfg.RemoveGrace = 30 * time.Second
	}
	return &Manager{
		state:    state,
		reg:      reg,
		clock:    clock,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Join adds the player to an open instance of the template, creating one
// if needed. Reaching the template minimum schedules the auto-start.
func (m *Manager) Join(p *world.Player, templateID string) (*world.ExperienceInstance, error) {
	tpl := m.state.Template(templateID)
	if tpl == nil {
		return nil, world.ErrTemplateNotFound
	}

	if err := m.qualify(p, tpl); err != nil {
		return nil, err
	}

	zoneID := p.ZoneID
	switch tpl.Placement.Mode {
	case world.PlaceZone:
		zoneID = tpl.Placement.ZoneID
		if p.ZoneID != zoneID {
			return nil, world.ErrTooFar
		}
	case world.PlacePoint:
		if p.Pos.Distance(tpl.Placement.Center) > tpl.Placement.Radius {
			return nil, world.ErrTooFar
		}
	}

	inst := m.state.OpenInstance(tpl.ID, zoneID, tpl.MaxParticipants)
	if inst == nil {
		inst = world.NewInstance(uuid.New().String(), tpl, zoneID)
		m.state.AddInstance(inst)
	}

	if existing, ok := inst.Participants[p.ID]; ok && existing.Status == world.ParticipantActive {
		return inst, nil
	}
	inst.Participants[p.ID] = &world.Participant{
		PlayerID: p.ID,
		JoinedAt: m.clock.Now(),
		Status:   world.ParticipantActive,
	}

	m.notifier.Notify(p.ID, Event{
		Type:       EventJoined,
		InstanceID: inst.ID,
		TemplateID: tpl.ID,
	})

	startKey := timers.Key{EntityID: inst.ID, Purpose: timerPurposeStart}
	if inst.Status == world.StatusScheduled &&
		inst.ActiveCount() >= tpl.MinParticipants &&
		!m.reg.Pending(startKey) {
		instID := inst.ID
		m.reg.Schedule(startKey, m.clock.Now().Add(m.cfg.StartDelay), func() {
			m.start(instID)
		})
	}

	return inst, nil
}

func (m *Manager) qualify(p *world.Player, tpl *world.ExperienceTemplate) error {
	if p.Rank < tpl.MinRank {
		return world.ErrNotQualified
	}
	for _, typ := range tpl.RequiredPowerTypes {
		if !p.OwnsType(typ) {
			return world.ErrNotQualified
		}
	}
	return nil
}

// start fires from the auto-start timer. The instance may have emptied or
// failed while the delay ran, so the Scheduled check repeats here.
func (m *Manager) start(instanceID string) {
	inst := m.state.Instance(instanceID)
	if inst == nil {
		return
	}
	tpl := m.state.Template(inst.TemplateID)
	if tpl == nil {
		slog.Warn("starting instance with missing template", "instance", instanceID, "template", inst.TemplateID)
		return
	}

	now := m.clock.Now()
	maxDur := tpl.MaxDurationParsed()
	if !inst.Start(now, now.Add(maxDur)) {
		return
	}

	m.reg.Schedule(
		timers.Key{EntityID: inst.ID, Purpose: timerPurposeTimeout},
		now.Add(maxDur),
		func() { m.timeout(instanceID) },
	)

	first := tpl.Phases[0]
	for _, part := range inst.ActiveParticipants() {
		m.notifier.Notify(part.PlayerID, Event{
			Type:        EventStarted,
			InstanceID:  inst.ID,
			TemplateID:  tpl.ID,
			Phase:       0,
			PhasePrompt: first.Prompt,
			PhaseTasks:  first.Tasks,
		})
	}
}

// CompletePhase records a phase submission. The submitted index must be
// the current phase of an InProgress instance.
func (m *Manager) CompletePhase(p *world.Player, instanceID string, phaseIndex int, submission string) error {
	inst := m.state.Instance(instanceID)
	if inst == nil {
		return world.ErrInstanceNotFound
	}
	part, ok := inst.Participants[p.ID]
	if !ok || part.Status != world.ParticipantActive {
		return world.ErrNotParticipant
	}
	if inst.Status != world.StatusInProgress {
		return world.ErrInstanceTerminal
	}
	if phaseIndex != inst.CurrentPhase {
		return world.ErrWrongPhase
	}
	tpl := m.state.Template(inst.TemplateID)
	if tpl == nil {
		return world.ErrTemplateNotFound
	}

	if part.Submissions == nil {
		part.Submissions = make(map[int]string)
	}
	part.Submissions[phaseIndex] = submission

	part.Progress++
	m.checkMilestones(inst, tpl)

	inst.CurrentPhase++
	if inst.CurrentPhase >= len(tpl.Phases) {
		m.complete(inst, tpl)
		return nil
	}

	next := tpl.Phases[inst.CurrentPhase]
	for _, pt := range inst.ActiveParticipants() {
		m.notifier.Notify(pt.PlayerID, Event{
			Type:        EventPhaseChanged,
			InstanceID:  inst.ID,
			TemplateID:  tpl.ID,
			Phase:       inst.CurrentPhase,
			PhasePrompt: next.Prompt,
			PhaseTasks:  next.Tasks,
		})
	}
	return nil
}

// checkMilestones completes the active milestone when overall progress
// reaches its threshold, paying its reward table to active participants
// and activating the next in order.
func (m *Manager) checkMilestones(inst *world.ExperienceInstance, tpl *world.ExperienceTemplate) {
	if len(inst.MilestoneStates) == 0 {
		return
	}
	progress := inst.OverallProgress()

	for i := range tpl.Milestones {
		if inst.MilestoneStates[i] != world.MilestoneActive {
			continue
		}
		ms := tpl.Milestones[i]
		if progress < ms.Threshold {
			return
		}

		inst.MilestoneStates[i] = world.MilestoneCompleted
		rewards := ms.Rewards
		for _, pt := range inst.ActiveParticipants() {
			if player := m.state.Player(pt.PlayerID); player != nil {
				player.Award(rewards)
			}
			m.notifier.Notify(pt.PlayerID, Event{
				Type:        EventMilestoneCompleted,
				InstanceID:  inst.ID,
				TemplateID:  tpl.ID,
				MilestoneID: ms.ID,
				Rewards:     &rewards,
			})
		}

		if i+1 < len(inst.MilestoneStates) {
			inst.MilestoneStates[i+1] = world.MilestoneActive
			next := tpl.Milestones[i+1]
			for _, pt := range inst.ActiveParticipants() {
				m.notifier.Notify(pt.PlayerID, Event{
					Type:        EventMilestoneActivated,
					InstanceID:  inst.ID,
					TemplateID:  tpl.ID,
					MilestoneID: next.ID,
				})
			}
		}
		return
	}
}

// complete finishes the final phase: terminal transition, timeout
// disarm, flat reward distribution, and delayed removal.
func (m *Manager) complete(inst *world.ExperienceInstance, tpl *world.ExperienceTemplate) {
	if !inst.Complete() {
		return
	}
	m.reg.Cancel(timers.Key{EntityID: inst.ID, Purpose: timerPurposeTimeout})

	rewards := tpl.Rewards
	for _, pt := range inst.ActiveParticipants() {
		if player := m.state.Player(pt.PlayerID); player != nil {
			player.Award(rewards)
		}
		m.notifier.Notify(pt.PlayerID, Event{
			Type:       EventEnded,
			InstanceID: inst.ID,
			TemplateID: tpl.ID,
			Status:     world.StatusCompleted,
		})
		m.notifier.Notify(pt.PlayerID, Event{
			Type:       EventFinalRewards,
			InstanceID: inst.ID,
			TemplateID: tpl.ID,
			Rewards:    &rewards,
		})
	}

	m.scheduleRemoval(inst.ID)
}

// timeout fires from the armed failure timer.
func (m *Manager) timeout(instanceID string) {
	inst := m.state.Instance(instanceID)
	if inst == nil || inst.Status != world.StatusInProgress {
		return
	}
	if !inst.Fail() {
		return
	}

	for _, pt := range inst.ActiveParticipants() {
		m.notifier.Notify(pt.PlayerID, Event{
			Type:       EventEnded,
			InstanceID: inst.ID,
			TemplateID: inst.TemplateID,
			Status:     world.StatusFailed,
		})
	}

	m.scheduleRemoval(inst.ID)
}

// Leave removes the participant. An emptied instance is torn down
// immediately with its timers; otherwise remaining participants of an
// InProgress instance hear about the departure.
func (m *Manager) Leave(p *world.Player, instanceID string) error {
	inst := m.state.Instance(instanceID)
	if inst == nil {
		return world.ErrInstanceNotFound
	}
	part, ok := inst.Participants[p.ID]
	if !ok || part.Status != world.ParticipantActive {
		return world.ErrNotParticipant
	}

	delete(inst.Participants, p.ID)

	if inst.ActiveCount() == 0 {
		m.remove(inst.ID)
		return nil
	}

	if inst.Status == world.StatusInProgress {
		for _, pt := range inst.ActiveParticipants() {
			m.notifier.Notify(pt.PlayerID, Event{
				Type:       EventParticipantLeft,
				InstanceID: inst.ID,
				TemplateID: inst.TemplateID,
				PlayerID:   p.ID,
			})
		}
	}
	return nil
}

// LeaveAll removes the player from every instance they participate in.
// Used by final connection teardown.
func (m *Manager) LeaveAll(p *world.Player) {
	var ids []string
	m.state.ForEachInstance(func(inst *world.ExperienceInstance) {
		if part, ok := inst.Participants[p.ID]; ok && part.Status == world.ParticipantActive {
			ids = append(ids, inst.ID)
		}
	})
	for _, id := range ids {
		if err := m.Leave(p, id); err != nil {
			slog.Warn("leaving instance on teardown", "instance", id, "player", p.ID, "error", err)
		}
	}
}

func (m *Manager) scheduleRemoval(instanceID string) {
	m.reg.Schedule(
		timers.Key{EntityID: instanceID, Purpose: timerPurposeRemove},
		m.clock.Now().Add(m.cfg.RemoveGrace),
		func() { m.remove(instanceID) },
	)
}

// remove tears the instance down and cancels anything still armed for it.
func (m *Manager) remove(instanceID string) {
	m.reg.CancelEntity(instanceID)
	m.state.RemoveInstance(instanceID)
}
