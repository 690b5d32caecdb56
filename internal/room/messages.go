package room

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/questline/go-geoquest/internal/powers"
	"github.com/questline/go-geoquest/internal/world"
)

// Envelope is the wire frame for every message in either direction.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound message types.
const (
	MsgSessionJoin  = "session:join"
	MsgSessionLeave = "session:leave"
	MsgMove         = "move"
	MsgPowerDetail  = "power:interact"
	MsgPowerCapture = "power:capture"
	MsgZoneEnter    = "zone:enter"
	MsgZoneExit     = "zone:exit"
	MsgPlayerStatus = "player:status"
	MsgExpJoin      = "experience:join"
	MsgExpPhase     = "experience:phase"
	MsgExpLeave     = "experience:leave"
	MsgPing         = "ping"
)

// Outbound message types not already covered by experience events.
const (
	MsgWorldVisible  = "world:visible"
	MsgPowerDetails  = "power:details"
	MsgPowerCaptured = "power:captured"
	MsgPowerFailed   = "power:captureFailed"
	MsgZoneEntered   = "zone:entered"
	MsgZoneExited    = "zone:exited"
	MsgSessionReady  = "session:ready"
	MsgPong          = "pong"
	MsgError         = "error"
)

// Inbound payloads.

type sessionJoinMsg struct {
	UserID string          `json:"userId,omitempty"`
	Name   string          `json:"name"`
	Geo    *world.Position `json:"geo,omitempty"`
}

type sessionLeaveMsg struct {
	Consented bool `json:"consented"`
}

type moveMsg struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	State string  `json:"state,omitempty"`
}

type powerMsg struct {
	PowerID string `json:"powerId"`
}

type captureMsg struct {
	PowerID  string          `json:"powerId"`
	Response powers.Response `json:"challengeResponse"`
}

type zoneMsg struct {
	ZoneID string `json:"zoneId"`
}

type statusMsg struct {
	State string `json:"state"`
}

type expJoinMsg struct {
	ExperienceID string `json:"experienceId"`
}

type expPhaseMsg struct {
	InstanceID string `json:"instanceId"`
	PhaseIndex int    `json:"phaseIndex"`
	Submission string `json:"submission,omitempty"`
}

type expLeaveMsg struct {
	InstanceID string `json:"instanceId"`
}

type pingMsg struct {
	Time int64 `json:"time"`
}

// Outbound payloads.

type sessionReadyMsg struct {
	PlayerID string `json:"playerId"`
}

type powerCapturedMsg struct {
	PowerID string `json:"powerId"`
	Reward  int    `json:"reward,omitempty"`
}

type zoneEventMsg struct {
	ZoneID string `json:"zoneId"`
}

type pongMsg struct {
	Time       int64 `json:"time"`
	ServerTime int64 `json:"serverTime"`
}

type visibleWorldMsg struct {
	Players          []*world.Player `json:"players"`
	Powers           []*world.Power  `json:"powers"`
	Zones            []*world.Zone   `json:"zones"`
	Counters         world.Counters  `json:"counters"`
	VisibilityRadius float64         `json:"visibilityRadius"`
}

type errorMsg struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable"`
}

// Error codes reported to clients.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeNoSession      = "NO_SESSION"
	CodeRateLimited    = "RATE_LIMITED"
	CodeMoveInvalid    = "MOVE_INVALID"
	CodePowerNotFound  = "POWER_NOT_FOUND"
	CodePowerNotActive = "POWER_NOT_ACTIVE"
	CodeTooFar         = "TOO_FAR"
	CodeZoneNotFound   = "ZONE_NOT_FOUND"
	CodeZoneFull       = "ZONE_FULL"
	CodeExpNotFound    = "EXPERIENCE_NOT_FOUND"
	CodeExpFull        = "EXPERIENCE_FULL"
	CodeExpEnded       = "EXPERIENCE_ENDED"
	CodeWrongPhase     = "WRONG_PHASE"
	CodeNotQualified   = "NOT_QUALIFIED"
	CodeNotParticipant = "NOT_PARTICIPANT"
	CodeUnknown        = "INTERNAL"
)

// badRequestError marks a malformed payload so it reports as
// BAD_REQUEST instead of an internal failure.
type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(context string, err error) error {
	return &badRequestError{err: fmt.Errorf("%s: %w", context, err)}
}

// codeFor maps domain errors onto wire codes and whether a retry can
// help. Terminal-state preconditions are final for that entity.
func codeFor(err error) (code string, retryable bool) {
	var br *badRequestError
	if errors.As(err, &br) {
		return CodeBadRequest, false
	}
	switch {
	case errors.Is(err, world.ErrPlayerNotFound):
		return CodeNoSession, false
	case errors.Is(err, world.ErrPowerNotFound):
		return CodePowerNotFound, true
	case errors.Is(err, world.ErrPowerNotActive):
		return CodePowerNotActive, false
	case errors.Is(err, world.ErrTooFar):
		return CodeTooFar, true
	case errors.Is(err, world.ErrZoneNotFound):
		return CodeZoneNotFound, true
	case errors.Is(err, world.ErrZoneFull):
		return CodeZoneFull, true
	case errors.Is(err, world.ErrTemplateNotFound), errors.Is(err, world.ErrInstanceNotFound):
		return CodeExpNotFound, true
	case errors.Is(err, world.ErrInstanceFull):
		return CodeExpFull, true
	case errors.Is(err, world.ErrInstanceTerminal):
		return CodeExpEnded, false
	case errors.Is(err, world.ErrWrongPhase):
		return CodeWrongPhase, false
	case errors.Is(err, world.ErrNotQualified):
		return CodeNotQualified, false
	case errors.Is(err, world.ErrNotParticipant):
		return CodeNotParticipant, false
	default:
		return CodeUnknown, false
	}
}
