package service

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")

	// Validation failures, rejected before any store access.
	ErrPastSchedule     = errors.New("scheduled time must be in the future")
	ErrInvalidDuration  = errors.New("duration must be at least 15 minutes")
	ErrSameParticipants = errors.New("consumer and creator must be different users")

	// The creator already has a confirmed or in-progress session whose
	// window overlaps the proposal.
	ErrScheduleConflict = errors.New("time slot conflicts with an existing booking")

	// The acting user is neither the consumer nor the creator on a
	// participant-gated transition.
	ErrNotParticipant = errors.New("acting user is not a participant of this session")

	// Creator notes are creator-only; the consumer is a participant but
	// still may not set them.
	ErrNotCreator = errors.New("only the session's creator can set creator notes")

	// The requested status is not reachable from the current one. Wrapped
	// with the concrete pair when raised.
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrRoomProvisioning = errors.New("could not provision meeting room")
)
