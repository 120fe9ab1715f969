package domain

import (
	"time"

	roster "github.com/cortega/playerauction/internal/roster/domain"
	"github.com/google/uuid"
)

// RoundState is the state machine position of the single bidding round.
type RoundState string

const (
	StateIdle       RoundState = "idle"
	StateActive     RoundState = "active"
	StateFinalizing RoundState = "finalizing"
)

// Round holds the one in-flight bidding cycle: the player on the block, the
// current high bid and bidder, and the deadline. It is pure state and
// transition logic; the coordinator owns all locking and I/O around it.
//
// Invariants: currentBid strictly increases per accepted bid; deadline is
// nil exactly when no round is active.
type Round struct {
	state      RoundState
	player     *roster.Player
	currentBid float64
	bidderID   *uuid.UUID
	deadline   *time.Time
}

// Snapshot is an immutable view of the round, safe to hand to observers.
type Snapshot struct {
	Player     *roster.Player
	CurrentBid float64
	BidderID   *uuid.UUID
	Deadline   *time.Time
}

// Result is the immutable outcome captured when finalization begins. A nil
// WinnerID means the round ended unsold; FinalPrice then still carries the
// last bid value but is never persisted.
type Result struct {
	Player     *roster.Player
	FinalPrice float64
	WinnerID   *uuid.UUID
}

// Sold reports whether a live bid produced a winner.
func (r Result) Sold() bool {
	return r.WinnerID != nil
}

func NewRound() *Round {
	return &Round{state: StateIdle}
}

func (r *Round) State() RoundState {
	return r.state
}

// Start opens a round for player at startingBid with a deadline of
// now+timeout. Valid only from idle; at most one round runs at a time.
func (r *Round) Start(player *roster.Player, startingBid float64, timeout time.Duration) error {
	if r.state != StateIdle {
		return ErrRoundInProgress
	}
	deadline := time.Now().Add(timeout)
	r.state = StateActive
	r.player = player
	r.currentBid = startingBid
	r.bidderID = nil
	r.deadline = &deadline
	return nil
}

// Bid accepts amount iff a round is active and amount is strictly above the
// current bid. Acceptance pushes the deadline forward and returns the new
// snapshot; rejection leaves the round untouched.
func (r *Round) Bid(bidderID uuid.UUID, amount float64, timeout time.Duration) (Snapshot, error) {
	if r.state != StateActive {
		return Snapshot{}, ErrNoActiveRound
	}
	if amount <= r.currentBid {
		return Snapshot{}, ErrBidTooLow
	}
	deadline := time.Now().Add(timeout)
	bidder := bidderID
	r.currentBid = amount
	r.bidderID = &bidder
	r.deadline = &deadline
	return r.Snapshot(), nil
}

// BeginFinalize moves an active round into the transient finalizing state
// and captures its result. A round with no accepted bid finalizes unsold
// (nil winner) regardless of the current bid value.
func (r *Round) BeginFinalize() (Result, error) {
	if r.state != StateActive {
		return Result{}, ErrNoActiveRound
	}
	r.state = StateFinalizing
	result := Result{Player: r.player, FinalPrice: r.currentBid}
	if r.bidderID != nil {
		winner := *r.bidderID
		result.WinnerID = &winner
	}
	return result, nil
}

// Complete ends finalization and returns the machine to idle, clearing all
// round fields.
func (r *Round) Complete() {
	r.state = StateIdle
	r.player = nil
	r.currentBid = 0
	r.bidderID = nil
	r.deadline = nil
}

// Abort rolls a finalizing round back to active with a fresh deadline, used
// when an assignment is rejected or persistence fails and the round must
// stay open for a corrected retry.
func (r *Round) Abort(timeout time.Duration) {
	if r.state != StateFinalizing {
		return
	}
	deadline := time.Now().Add(timeout)
	r.state = StateActive
	r.deadline = &deadline
}

// Snapshot returns the current view of the round, valid in any state.
func (r *Round) Snapshot() Snapshot {
	snap := Snapshot{
		Player:     r.player,
		CurrentBid: r.currentBid,
		Deadline:   r.deadline,
	}
	if r.bidderID != nil {
		bidder := *r.bidderID
		snap.BidderID = &bidder
	}
	return snap
}
