package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cortega/playerauction/internal/auction/domain"
	roster "github.com/cortega/playerauction/internal/roster/domain"
	"github.com/google/uuid"
)

type outcomeCall struct {
	playerID   uuid.UUID
	status     roster.PlayerStatus
	teamID     *uuid.UUID
	finalPrice float64
}

type fakePlayerStore struct {
	mu        sync.Mutex
	players   map[uuid.UUID]*roster.Player
	updateErr error
	outcomes  []outcomeCall
}

func newFakePlayerStore(players ...*roster.Player) *fakePlayerStore {
	s := &fakePlayerStore{players: make(map[uuid.UUID]*roster.Player)}
	for _, p := range players {
		s.players[p.ID] = p
	}
	return s
}

func (s *fakePlayerStore) GetAvailableByID(_ context.Context, id uuid.UUID) (*roster.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, roster.ErrPlayerNotFound
	}
	if p.Status != roster.StatusAvailable {
		return nil, roster.ErrPlayerNotAvailable
	}
	return p, nil
}

func (s *fakePlayerStore) UpdateOutcome(_ context.Context, id uuid.UUID, status roster.PlayerStatus, teamID *uuid.UUID, finalPrice float64) (*roster.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	p, ok := s.players[id]
	if !ok {
		return nil, roster.ErrPlayerNotFound
	}
	p.Status = status
	p.WinningTeamID = teamID
	p.FinalPrice = finalPrice
	s.outcomes = append(s.outcomes, outcomeCall{playerID: id, status: status, teamID: teamID, finalPrice: finalPrice})
	return p, nil
}

func (s *fakePlayerStore) outcomeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

type assignmentCall struct {
	teamID          uuid.UUID
	filledSlots     int
	remainingBudget *float64
}

type fakeTeamStore struct {
	mu       sync.Mutex
	teams    map[uuid.UUID]*roster.Team
	applyErr error
	applied  []assignmentCall
}

func newFakeTeamStore(teams ...*roster.Team) *fakeTeamStore {
	s := &fakeTeamStore{teams: make(map[uuid.UUID]*roster.Team)}
	for _, t := range teams {
		s.teams[t.ID] = t
	}
	return s
}

func (s *fakeTeamStore) GetByID(_ context.Context, id uuid.UUID) (*roster.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, roster.ErrTeamNotFound
	}
	return t, nil
}

func (s *fakeTeamStore) ApplyAssignment(_ context.Context, id uuid.UUID, filledSlots int, remainingBudget *float64) (*roster.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	t, ok := s.teams[id]
	if !ok {
		return nil, roster.ErrTeamNotFound
	}
	t.FilledSlots = filledSlots
	t.RemainingBudget = remainingBudget
	s.applied = append(s.applied, assignmentCall{teamID: id, filledSlots: filledSlots, remainingBudget: remainingBudget})
	return t, nil
}

func (s *fakeTeamStore) appliedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) all() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *recordingPublisher) names() []string {
	events := p.all()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

func budget(v float64) *float64 { return &v }

func newTestCoordinator(players *fakePlayerStore, teams *fakeTeamStore, timeout time.Duration) (*Coordinator, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewCoordinator(players, teams, pub, timeout), pub
}

func TestFullRoundSoldToHighestBidder(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "V. Kohli", "batter", 100)
	teamB := roster.NewTeam(uuid.New(), "Thunder", 5, budget(1000))
	players := newFakePlayerStore(player)
	teams := newFakeTeamStore(teamB)
	c, pub := newTestCoordinator(players, teams, time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	bidderA := uuid.New()
	if err := c.PlaceBid(bidderA, 150); err != nil {
		t.Fatalf("bid 150: %v", err)
	}
	if err := c.PlaceBid(teamB.ID, 140); !errors.Is(err, domain.ErrBidTooLow) {
		t.Fatalf("bid 140 returned %v, want ErrBidTooLow", err)
	}
	if err := c.PlaceBid(teamB.ID, 200); err != nil {
		t.Fatalf("bid 200: %v", err)
	}

	if err := c.Finalize(ctx, ReasonTimeout, nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	wantNames := []string{EventRoundStarted, EventBidUpdated, EventBidUpdated, EventAuctionComplete}
	names := pub.names()
	if len(names) != len(wantNames) {
		t.Fatalf("event names = %v, want %v", names, wantNames)
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Fatalf("event[%d] = %s, want %s", i, names[i], wantNames[i])
		}
	}

	complete := pub.all()[3].Payload.(AuctionCompletePayload)
	if complete.Status != string(roster.StatusSold) {
		t.Errorf("status = %s, want sold", complete.Status)
	}
	if complete.Winner == nil || *complete.Winner != teamB.ID {
		t.Errorf("winner = %v, want %s", complete.Winner, teamB.ID)
	}
	if complete.FinalPrice != 200 {
		t.Errorf("finalPrice = %v, want 200", complete.FinalPrice)
	}

	if player.Status != roster.StatusSold || player.FinalPrice != 200 {
		t.Errorf("persisted player = {%s %v}, want {sold 200}", player.Status, player.FinalPrice)
	}
	if teamB.FilledSlots != 1 {
		t.Errorf("filledSlots = %d, want 1", teamB.FilledSlots)
	}
	if teamB.RemainingBudget == nil || *teamB.RemainingBudget != 800 {
		t.Errorf("remainingBudget = %v, want 800", teamB.RemainingBudget)
	}
}

func TestFinalizeWithoutBidsPersistsUnsold(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "J. Bumrah", "bowler", 100)
	players := newFakePlayerStore(player)
	teams := newFakeTeamStore()
	c, pub := newTestCoordinator(players, teams, time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(ctx, ReasonTimeout, nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if player.Status != roster.StatusUnsold {
		t.Errorf("player status = %s, want unsold", player.Status)
	}
	if player.WinningTeamID != nil || player.FinalPrice != 0 {
		t.Errorf("unsold player must carry no winner or price: %+v", player)
	}
	if teams.appliedCount() != 0 {
		t.Error("no team may be mutated on an unsold round")
	}

	complete := pub.all()[len(pub.all())-1].Payload.(AuctionCompletePayload)
	if complete.Winner != nil || complete.Status != string(roster.StatusUnsold) {
		t.Errorf("complete payload = %+v, want unsold with nil winner", complete)
	}
}

func TestSecondStartRoundRejected(t *testing.T) {
	first := roster.NewPlayer(uuid.New(), "A", "batter", 100)
	second := roster.NewPlayer(uuid.New(), "B", "bowler", 50)
	players := newFakePlayerStore(first, second)
	c, pub := newTestCoordinator(players, newFakeTeamStore(), time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.StartRound(ctx, second.ID); !errors.Is(err, domain.ErrRoundInProgress) {
		t.Fatalf("second StartRound returned %v, want ErrRoundInProgress", err)
	}

	// The first round is unaffected and only one round-started went out.
	snap := c.Join()
	if snap.Item == nil || snap.Item.ID != first.ID {
		t.Errorf("active round changed: %+v", snap.Item)
	}
	if got := pub.names(); len(got) != 1 || got[0] != EventRoundStarted {
		t.Errorf("events = %v, want exactly one round-started", got)
	}
}

func TestStartRoundRejectsUnavailablePlayer(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Sold Guy", "batter", 100)
	player.Status = roster.StatusSold
	players := newFakePlayerStore(player)
	c, pub := newTestCoordinator(players, newFakeTeamStore(), time.Minute)

	err := c.StartRound(context.Background(), player.ID)
	if !errors.Is(err, roster.ErrPlayerNotAvailable) {
		t.Fatalf("StartRound returned %v, want ErrPlayerNotAvailable", err)
	}
	if len(pub.names()) != 0 {
		t.Error("a rejected start must not broadcast")
	}
}

func TestAssignmentRejectedOverBudget(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Pricey", "batter", 100)
	team := roster.NewTeam(uuid.New(), "Broke FC", 5, budget(50))
	players := newFakePlayerStore(player)
	teams := newFakeTeamStore(team)
	c, pub := newTestCoordinator(players, teams, time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatal(err)
	}

	err := c.Finalize(ctx, ReasonManualSold, &Assignment{TeamID: team.ID, Amount: 100})
	if !errors.Is(err, domain.ErrAssignmentRejected) {
		t.Fatalf("Finalize returned %v, want ErrAssignmentRejected", err)
	}

	// Round stays active for a corrected assignment; nothing persisted or
	// broadcast beyond the original round-started.
	if snap := c.Join(); snap.Item == nil {
		t.Error("round must remain active after a rejected assignment")
	}
	if players.outcomeCount() != 0 || teams.appliedCount() != 0 {
		t.Error("rejected assignment must not persist anything")
	}
	if names := pub.names(); len(names) != 1 {
		t.Errorf("events = %v, want only round-started", names)
	}

	// A corrected assignment then succeeds.
	if err := c.Finalize(ctx, ReasonManualSold, &Assignment{TeamID: team.ID, Amount: 40}); err != nil {
		t.Fatalf("corrected Finalize: %v", err)
	}
	if team.RemainingBudget == nil || *team.RemainingBudget != 10 {
		t.Errorf("remainingBudget = %v, want 10", team.RemainingBudget)
	}
}

func TestAssignmentRejectedNoOpenSlot(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Late Pick", "bowler", 100)
	team := roster.NewTeam(uuid.New(), "Full House", 1, nil)
	team.FilledSlots = 1
	players := newFakePlayerStore(player)
	teams := newFakeTeamStore(team)
	c, _ := newTestCoordinator(players, teams, time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatal(err)
	}
	err := c.Finalize(ctx, ReasonManualSold, &Assignment{TeamID: team.ID, Amount: 100})
	if !errors.Is(err, domain.ErrAssignmentRejected) {
		t.Fatalf("Finalize returned %v, want ErrAssignmentRejected", err)
	}
}

func TestManualSoldOverridesLiveBidder(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Contested", "batter", 100)
	liveBidder := roster.NewTeam(uuid.New(), "Live", 5, budget(1000))
	override := roster.NewTeam(uuid.New(), "Override", 5, budget(1000))
	players := newFakePlayerStore(player)
	teams := newFakeTeamStore(liveBidder, override)
	c, pub := newTestCoordinator(players, teams, time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.PlaceBid(liveBidder.ID, 150); err != nil {
		t.Fatal(err)
	}

	if err := c.Finalize(ctx, ReasonManualSold, &Assignment{TeamID: override.ID, Amount: 300}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if player.WinningTeamID == nil || *player.WinningTeamID != override.ID {
		t.Errorf("winner = %v, want operator-assigned team %s", player.WinningTeamID, override.ID)
	}
	if override.FilledSlots != 1 || liveBidder.FilledSlots != 0 {
		t.Error("assignment must charge the assigned team, not the live bidder")
	}
	complete := pub.all()[len(pub.all())-1].Payload.(AuctionCompletePayload)
	if complete.FinalPrice != 300 {
		t.Errorf("finalPrice = %v, want the assigned 300", complete.FinalPrice)
	}
}

func TestManualUnsoldIgnoresLiveBids(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Passed In", "bowler", 100)
	team := roster.NewTeam(uuid.New(), "Keen", 5, budget(1000))
	players := newFakePlayerStore(player)
	teams := newFakeTeamStore(team)
	c, _ := newTestCoordinator(players, teams, time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.PlaceBid(team.ID, 150); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(ctx, ReasonManualUnsold, nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if player.Status != roster.StatusUnsold {
		t.Errorf("player status = %s, want unsold", player.Status)
	}
	if teams.appliedCount() != 0 {
		t.Error("manual-unsold must not mutate any team")
	}
}

func TestManualSoldRequiresAssignment(t *testing.T) {
	c, _ := newTestCoordinator(newFakePlayerStore(), newFakeTeamStore(), time.Minute)
	err := c.Finalize(context.Background(), ReasonManualSold, nil)
	if !errors.Is(err, domain.ErrAssignmentRequired) {
		t.Fatalf("Finalize returned %v, want ErrAssignmentRequired", err)
	}
}

func TestFinalizeWithoutRoundFails(t *testing.T) {
	c, _ := newTestCoordinator(newFakePlayerStore(), newFakeTeamStore(), time.Minute)
	err := c.Finalize(context.Background(), ReasonTimeout, nil)
	if !errors.Is(err, domain.ErrNoActiveRound) {
		t.Fatalf("Finalize returned %v, want ErrNoActiveRound", err)
	}
}

func TestPersistenceFailureKeepsRoundForRetry(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Flaky", "batter", 100)
	players := newFakePlayerStore(player)
	players.updateErr = errors.New("connection reset")
	c, pub := newTestCoordinator(players, newFakeTeamStore(), time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(ctx, ReasonManualUnsold, nil); err == nil {
		t.Fatal("Finalize should surface the persistence failure")
	}

	// The round is preserved, not dropped, and nothing extra was broadcast.
	if snap := c.Join(); snap.Item == nil {
		t.Fatal("round lost after persistence failure")
	}
	if names := pub.names(); len(names) != 1 {
		t.Errorf("events = %v, want only round-started", names)
	}

	// Clearing the fault allows a retry to complete the same round.
	players.mu.Lock()
	players.updateErr = nil
	players.mu.Unlock()
	if err := c.Finalize(ctx, ReasonManualUnsold, nil); err != nil {
		t.Fatalf("retry Finalize: %v", err)
	}
	if player.Status != roster.StatusUnsold {
		t.Errorf("player status = %s, want unsold after retry", player.Status)
	}
}

func TestJoinSnapshotMatchesLiveState(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Watched", "batter", 100)
	players := newFakePlayerStore(player)
	c, _ := newTestCoordinator(players, newFakeTeamStore(), time.Minute)

	// Idle snapshot first.
	if snap := c.Join(); snap.Item != nil || snap.CurrentBidderID != nil {
		t.Errorf("idle snapshot = %+v, want empty", snap)
	}

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatal(err)
	}
	bidder := uuid.New()
	if err := c.PlaceBid(bidder, 175); err != nil {
		t.Fatal(err)
	}

	snap := c.Join()
	if snap.Item == nil || snap.Item.ID != player.ID {
		t.Fatalf("snapshot item = %+v, want the live player", snap.Item)
	}
	if snap.CurrentBid != 175 {
		t.Errorf("snapshot currentBid = %v, want 175", snap.CurrentBid)
	}
	if snap.CurrentBidderID == nil || *snap.CurrentBidderID != bidder {
		t.Errorf("snapshot bidder = %v, want %s", snap.CurrentBidderID, bidder)
	}
	if snap.Deadline == nil {
		t.Error("snapshot of an active round must carry a deadline")
	}
}

func TestDeadlineTimeoutFinalizesRound(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Quick", "bowler", 100)
	players := newFakePlayerStore(player)
	c, pub := newTestCoordinator(players, newFakeTeamStore(), 30*time.Millisecond)

	if err := c.StartRound(context.Background(), player.ID); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && players.outcomeCount() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if players.outcomeCount() == 0 {
		t.Fatal("timeout did not finalize the round")
	}
	if player.Status != roster.StatusUnsold {
		t.Fatalf("player status = %s, want unsold", player.Status)
	}
	names := pub.names()
	if names[len(names)-1] != EventAuctionComplete {
		t.Errorf("events = %v, want auction-complete last", names)
	}
	if snap := c.Join(); snap.Item != nil {
		t.Error("round must be idle after the timeout finalize")
	}
}

func TestLateTimerFireIsNoop(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Raced", "batter", 100)
	players := newFakePlayerStore(player)
	c, pub := newTestCoordinator(players, newFakeTeamStore(), time.Minute)

	ctx := context.Background()
	if err := c.StartRound(ctx, player.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(ctx, ReasonManualUnsold, nil); err != nil {
		t.Fatal(err)
	}
	before := len(pub.names())

	// Simulate the armed timer firing after the manual finalize won the race.
	c.onTimeout(1)

	if got := len(pub.names()); got != before {
		t.Errorf("late fire broadcast %d extra events", got-before)
	}
	if players.outcomeCount() != 1 {
		t.Error("late fire must not finalize a second time")
	}
}

func TestConcurrentBidsStayMonotonic(t *testing.T) {
	player := roster.NewPlayer(uuid.New(), "Hot Item", "batter", 100)
	players := newFakePlayerStore(player)
	c, pub := newTestCoordinator(players, newFakeTeamStore(), time.Minute)

	if err := c.StartRound(context.Background(), player.ID); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(amount float64) {
			defer wg.Done()
			// Rejections are a normal contention outcome here.
			_ = c.PlaceBid(uuid.New(), amount)
		}(float64(101 + i*7%97))
	}
	wg.Wait()

	var last float64
	for _, e := range pub.all() {
		if e.Name != EventBidUpdated {
			continue
		}
		payload := e.Payload.(BidUpdatedPayload)
		if payload.Amount <= last {
			t.Fatalf("broadcast bids not strictly increasing: %v after %v", payload.Amount, last)
		}
		last = payload.Amount
	}
	if last <= 100 {
		t.Fatal("expected at least one accepted bid above the base price")
	}
	if snap := c.Join(); snap.CurrentBid != last {
		t.Errorf("snapshot bid %v does not match last broadcast %v", snap.CurrentBid, last)
	}
}
