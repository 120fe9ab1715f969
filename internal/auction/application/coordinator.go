package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cortega/playerauction/internal/auction/domain"
	roster "github.com/cortega/playerauction/internal/roster/domain"
	"github.com/cortega/playerauction/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// FinalizeReason says what triggered the end of a round.
type FinalizeReason string

const (
	ReasonTimeout      FinalizeReason = "timeout"
	ReasonManualUnsold FinalizeReason = "manual-unsold"
	ReasonManualSold   FinalizeReason = "manual-sold"
)

// Assignment is the operator-supplied winner for a manual-sold finalize,
// independent of whoever held the highest live bid.
type Assignment struct {
	TeamID uuid.UUID
	Amount float64
}

// Coordinator is the sole mutator of the round state machine. Every entry
// point serializes on one mutex held for a single transition, never across
// repository I/O. Events are published inside the critical section into the
// hub's buffered channel, so all observers see the same total order.
//
// Bids are accepted without checking the bidder's budget or slots; the
// authoritative check runs only at finalize time. A team can therefore hold
// the high bid on an amount it cannot afford — known soft-validation gap,
// kept because assignment is the point where the operator confirms.
type Coordinator struct {
	mu         sync.Mutex
	round      *domain.Round
	timer      roundTimer
	generation uint64

	players domain.PlayerStore
	teams   domain.TeamStore
	events  EventPublisher

	bidTimeout time.Duration
}

func NewCoordinator(players domain.PlayerStore, teams domain.TeamStore, events EventPublisher, bidTimeout time.Duration) *Coordinator {
	return &Coordinator{
		round:      domain.NewRound(),
		players:    players,
		teams:      teams,
		events:     events,
		bidTimeout: bidTimeout,
	}
}

// Join returns the snapshot a newly connected observer must receive: the
// live round if one is active, an explicit idle snapshot otherwise.
func (c *Coordinator) Join() SnapshotPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newSnapshotPayload(c.round.Snapshot())
}

// StartRound opens bidding on the given player at its base price. The
// availability check is a repository read and may race with a concurrent
// finalize; a stale read surfaces as ErrPlayerNotAvailable to this caller
// only and is never broadcast.
func (c *Coordinator) StartRound(ctx context.Context, playerID uuid.UUID) error {
	player, err := c.players.GetAvailableByID(ctx, playerID)
	if err != nil {
		log.Warn("Round start rejected",
			zap.String("playerID", playerID.String()),
			zap.Error(err),
		)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.round.Start(player, player.BasePrice, c.bidTimeout); err != nil {
		log.Warn("Round start rejected: round already active",
			zap.String("playerID", playerID.String()),
		)
		return err
	}
	c.generation++
	c.armLocked()

	log.Info("Round started",
		zap.String("playerID", player.ID.String()),
		zap.String("playerName", player.Name),
		zap.Float64("startingBid", player.BasePrice),
	)
	c.events.Publish(Event{
		Name: EventRoundStarted,
		Payload: RoundStartedPayload{
			Item:        NewPlayerView(player),
			StartingBid: player.BasePrice,
		},
	})
	return nil
}

// PlaceBid submits a bid for the active round. First valid higher bid to
// reach the coordinator wins the slot; a rejected bid mutates nothing and
// the error goes only to the submitting client.
func (c *Coordinator) PlaceBid(bidderID uuid.UUID, amount float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.round.Bid(bidderID, amount, c.bidTimeout)
	if err != nil {
		// Expected contention outcome under concurrent bidders.
		log.Debug("Bid rejected",
			zap.String("bidderID", bidderID.String()),
			zap.Float64("amount", amount),
			zap.Error(err),
		)
		return err
	}
	c.armLocked()

	log.Info("Bid accepted",
		zap.String("bidderID", bidderID.String()),
		zap.Float64("amount", amount),
	)
	c.events.Publish(Event{
		Name: EventBidUpdated,
		Payload: BidUpdatedPayload{
			Amount:   snap.CurrentBid,
			BidderID: bidderID,
		},
	})
	return nil
}

// Finalize ends the active round. Manual-sold takes the operator's
// assignment as the winner; timeout and manual-unsold resolve from the live
// bid state (no bidder means unsold). On an invalid assignment or a
// persistence failure the round is restored to active and the error goes
// to the caller; nothing is broadcast.
func (c *Coordinator) Finalize(ctx context.Context, reason FinalizeReason, assignment *Assignment) error {
	switch reason {
	case ReasonTimeout, ReasonManualUnsold:
	case ReasonManualSold:
		if assignment == nil {
			return domain.ErrAssignmentRequired
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownReason, reason)
	}

	c.mu.Lock()
	return c.finalizeLocked(ctx, reason, assignment)
}

// armLocked schedules the deadline timer for the current round generation.
// A fire that arrives after the generation moved on is a no-op.
func (c *Coordinator) armLocked() {
	gen := c.generation
	c.timer.Arm(c.bidTimeout, func() { c.onTimeout(gen) })
}

func (c *Coordinator) onTimeout(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.round.State() != domain.StateActive {
		// Late fire: the round already finalized or a newer one started.
		c.mu.Unlock()
		log.Debug("Stale round timeout ignored", zap.Uint64("generation", gen))
		return
	}
	log.Info("Round deadline reached", zap.Uint64("generation", gen))
	if err := c.finalizeLocked(context.Background(), ReasonTimeout, nil); err != nil {
		log.Warn("Timeout finalize failed, round restored", zap.Error(err))
	}
}

// finalizeLocked is entered with c.mu held and always returns with it
// released. The lock is dropped around repository I/O and reacquired to
// commit or abort the transition.
func (c *Coordinator) finalizeLocked(ctx context.Context, reason FinalizeReason, assignment *Assignment) error {
	result, err := c.round.BeginFinalize()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.timer.Disarm()

	winnerID := result.WinnerID
	finalPrice := result.FinalPrice
	switch reason {
	case ReasonManualSold:
		winner := assignment.TeamID
		winnerID = &winner
		finalPrice = assignment.Amount
	case ReasonManualUnsold:
		winnerID = nil
	}
	sold := winnerID != nil
	player := result.Player
	c.mu.Unlock()

	var team *roster.Team
	if sold {
		team, err = c.teams.GetByID(ctx, *winnerID)
		if err != nil {
			c.abortFinalize()
			return fmt.Errorf("finalize: winning team lookup: %w", err)
		}
		if !team.HasOpenSlot() || !team.CanAfford(finalPrice) {
			log.Warn("Assignment rejected",
				zap.String("teamID", team.ID.String()),
				zap.Float64("amount", finalPrice),
				zap.Int("filledSlots", team.FilledSlots),
				zap.Int("totalSlots", team.TotalSlots),
			)
			c.abortFinalize()
			return domain.ErrAssignmentRejected
		}
	}

	var updated *roster.Player
	if sold {
		updated, err = c.players.UpdateOutcome(ctx, player.ID, roster.StatusSold, winnerID, finalPrice)
		if err != nil {
			c.abortFinalize()
			return fmt.Errorf("finalize: persist player outcome: %w", err)
		}
		remaining := team.RemainingBudget
		if remaining != nil {
			left := *remaining - finalPrice
			remaining = &left
		}
		if _, err = c.teams.ApplyAssignment(ctx, team.ID, team.FilledSlots+1, remaining); err != nil {
			// Undo the player write so it is not stranded as sold against a
			// team that was never charged, then keep the round open.
			if _, revertErr := c.players.UpdateOutcome(ctx, player.ID, roster.StatusAvailable, nil, 0); revertErr != nil {
				log.Error("Failed to revert player outcome after team persistence failure",
					zap.String("playerID", player.ID.String()),
					zap.Error(revertErr),
				)
			}
			c.abortFinalize()
			return fmt.Errorf("finalize: persist team assignment: %w", err)
		}
	} else {
		updated, err = c.players.UpdateOutcome(ctx, player.ID, roster.StatusUnsold, nil, 0)
		if err != nil {
			c.abortFinalize()
			return fmt.Errorf("finalize: persist player outcome: %w", err)
		}
	}

	status := roster.StatusUnsold
	if sold {
		status = roster.StatusSold
	}

	c.mu.Lock()
	c.round.Complete()
	c.generation++
	c.events.Publish(Event{
		Name: EventAuctionComplete,
		Payload: AuctionCompletePayload{
			Item:       NewPlayerView(updated),
			FinalPrice: finalPrice,
			Winner:     winnerID,
			Status:     string(status),
		},
	})
	c.mu.Unlock()

	log.Info("Round finalized",
		zap.String("playerID", player.ID.String()),
		zap.String("reason", string(reason)),
		zap.String("status", string(status)),
		zap.Float64("finalPrice", finalPrice),
	)
	return nil
}

// abortFinalize rolls the finalizing round back to active with a fresh
// deadline so the operator can retry with a corrected assignment.
func (c *Coordinator) abortFinalize() {
	c.mu.Lock()
	c.round.Abort(c.bidTimeout)
	c.armLocked()
	c.mu.Unlock()
}
