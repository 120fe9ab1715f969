package domain

import "errors"

var (
	ErrRoundInProgress    = errors.New("a round is already active")
	ErrNoActiveRound      = errors.New("no active auction round")
	ErrBidTooLow          = errors.New("bid amount is not above the current bid")
	ErrAssignmentRejected = errors.New("assignment violates team budget or slot capacity")
	ErrAssignmentRequired = errors.New("manual sold finalize requires a team assignment")
	ErrUnknownReason      = errors.New("unknown finalize reason")
)
