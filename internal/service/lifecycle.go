package service

import (
	"booking-service/internal/model"
	"fmt"

	"github.com/google/uuid"
)

// transitionRule describes one edge of the session lifecycle graph.
// participantGated edges require the acting user to be one of the two
// participants; system edges (start/complete) only require the session to
// exist.
type transitionRule struct {
	participantGated bool
}

// Edges absent from this table are invalid, including every transition out
// of the terminal states completed and cancelled.
var transitions = map[model.SessionStatus]map[model.SessionStatus]transitionRule{
	model.SessionStatusPending: {
		model.SessionStatusConfirmed: {participantGated: true},
		model.SessionStatusCancelled: {participantGated: true},
	},
	model.SessionStatusConfirmed: {
		model.SessionStatusCancelled:  {participantGated: true},
		model.SessionStatusInProgress: {participantGated: false},
	},
	model.SessionStatusInProgress: {
		model.SessionStatusCompleted: {participantGated: false},
	},
}

// checkTransition validates the edge and, for participant-gated edges, the
// acting identity. It never mutates anything: all failures happen before the
// first store write.
func checkTransition(session *model.Session, actorID uuid.UUID, target model.SessionStatus) error {
	rule, ok := transitions[session.Status][target]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.Status, target)
	}

	if rule.participantGated && !session.IsParticipant(actorID) {
		return ErrNotParticipant
	}

	return nil
}
