package world

import "errors"

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")

	ErrPowerNotFound  = errors.New("power not found")
	ErrPowerNotActive = errors.New("power not active")
	ErrTooFar         = errors.New("too far away")

	ErrZoneNotFound = errors.New("zone not found")
	ErrZoneFull     = errors.New("zone at capacity")

	ErrTemplateNotFound = errors.New("experience template not found")
	ErrInstanceNotFound = errors.New("experience instance not found")
	ErrInstanceFull     = errors.New("experience instance at capacity")
	ErrInstanceTerminal = errors.New("experience instance already ended")
	ErrWrongPhase       = errors.New("submitted phase is not the current phase")
	ErrNotQualified     = errors.New("player does not meet experience prerequisites")
	ErrNotParticipant   = errors.New("player is not a participant")
)
