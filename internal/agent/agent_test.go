package agent

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/danmuck/battleboats/internal/battlefield"
	"github.com/danmuck/battleboats/internal/negotiation"
	"github.com/danmuck/battleboats/internal/protocol"
	"github.com/danmuck/battleboats/internal/testutil/testlog"
)

func newTestAgent(name string, seed int64, strategy negotiation.Strategy) *Agent {
	return New(Config{Name: name, Strategy: strategy, Rand: rand.New(rand.NewSource(seed))})
}

func newHumanAgent(name string, seed int64) *Agent {
	return New(Config{Name: name, Strategy: negotiation.StrategyHonest, Human: true, Rand: rand.New(rand.NewSource(seed))})
}

func ev(t protocol.EventType, params ...uint16) protocol.Event {
	e := protocol.Event{Type: t}
	p := []*uint16{&e.Param0, &e.Param1, &e.Param2}
	for i, v := range params {
		*p[i] = v
	}
	return e
}

func TestStartEmitsChallenge(t *testing.T) {
	testlog.Start(t)
	a := newTestAgent("alpha", 1, negotiation.StrategyHonest)
	msg := a.Step(ev(protocol.EventStart))
	if msg.Type != protocol.MessageChallenge {
		t.Fatalf("unexpected message: %s", msg)
	}
	if a.State() != StateChallenging {
		t.Fatalf("unexpected state: %s", a.State())
	}
	snap := a.Snapshot()
	if snap.Role != RoleChallenger || snap.OwnBoats != battlefield.StatusAll {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestChallengeReceivedEmitsAccept(t *testing.T) {
	testlog.Start(t)
	a := newTestAgent("bravo", 2, negotiation.StrategyHonest)
	msg := a.Step(ev(protocol.EventChallengeReceived, uint16(negotiation.Hash(77))))
	if msg.Type != protocol.MessageAccept {
		t.Fatalf("unexpected message: %s", msg)
	}
	if a.State() != StateAccepting || a.Snapshot().Role != RoleAcceptor {
		t.Fatalf("unexpected state: %s", a.State())
	}
}

func TestRevealFailingVerifyEndsWithoutMessage(t *testing.T) {
	testlog.Start(t)
	a := newTestAgent("bravo", 3, negotiation.StrategyHonest)
	a.Step(ev(protocol.EventChallengeReceived, uint16(negotiation.Hash(5))))
	msg := a.Step(ev(protocol.EventRevealReceived, 6))
	if !msg.IsNone() {
		t.Fatalf("unexpected message: %s", msg)
	}
	if a.State() != StateEndScreen || a.Outcome() != OutcomeAborted {
		t.Fatalf("unexpected end: state=%s outcome=%s", a.State(), a.Outcome())
	}
}

func TestAcceptorRolesFollowCoinFlip(t *testing.T) {
	testlog.Start(t)
	for secretA := uint16(0); secretA < 8; secretA++ {
		a := newTestAgent("bravo", int64(secretA), negotiation.StrategyHonest)
		accept := a.Step(ev(protocol.EventChallengeReceived, uint16(negotiation.Hash(negotiation.Secret(secretA)))))
		flip := negotiation.CoinFlip(negotiation.Secret(secretA), negotiation.Secret(accept.Param0))
		msg := a.Step(ev(protocol.EventRevealReceived, secretA))
		if flip == negotiation.Tails {
			if a.State() != StateAttacking || msg.Type != protocol.MessageShot {
				t.Fatalf("tails should attack: state=%s msg=%s", a.State(), msg)
			}
		} else if a.State() != StateDefending || !msg.IsNone() {
			t.Fatalf("heads should defend: state=%s msg=%s", a.State(), msg)
		}
	}
}

func TestChallengerRolesFollowCoinFlip(t *testing.T) {
	testlog.Start(t)
	for b := uint16(0); b < 8; b++ {
		a := newTestAgent("alpha", 10, negotiation.StrategyHonest)
		a.Step(ev(protocol.EventStart))
		reveal := a.Step(ev(protocol.EventAcceptReceived, b))
		if reveal.Type != protocol.MessageReveal {
			t.Fatalf("unexpected message: %s", reveal)
		}
		flip := negotiation.CoinFlip(negotiation.Secret(reveal.Param0), negotiation.Secret(b))
		want := StateDefending
		if flip == negotiation.Heads {
			want = StateAttacking
		}
		if a.State() != want {
			t.Fatalf("unexpected state for b=%d: %s", b, a.State())
		}
		if want == StateAttacking {
			shot := a.Step(ev(protocol.EventMessageSent))
			if shot.Type != protocol.MessageShot || shot.Param0 != 0 || shot.Param1 != 0 {
				t.Fatalf("expected first shot at origin, got %s", shot)
			}
		}
	}
}

func TestUnmatchedResultIgnored(t *testing.T) {
	testlog.Start(t)
	a := newTestAgent("alpha", 4, negotiation.StrategyHonest)
	a.Step(ev(protocol.EventStart))
	a.SetState(StateWaitingToSend)
	shot := a.Step(ev(protocol.EventMessageSent))
	if shot.Type != protocol.MessageShot {
		t.Fatalf("unexpected message: %s", shot)
	}
	a.Step(ev(protocol.EventResultReceived, shot.Param0+1, shot.Param1, 1))
	if a.State() != StateAttacking || a.Snapshot().PendingShot == nil {
		t.Fatalf("unmatched result changed state: %s", a.State())
	}
	a.Step(ev(protocol.EventResultReceived, shot.Param0, shot.Param1, uint16(battlefield.ResultHit)))
	snap := a.Snapshot()
	if snap.State != StateDefending || snap.Turn != 1 || snap.PendingShot != nil {
		t.Fatalf("unexpected snapshot after result: %+v", snap)
	}
	if snap.Opp.Status(uint8(shot.Param0), uint8(shot.Param1)) != battlefield.SquareHit {
		t.Fatalf("knowledge not updated")
	}
}

func TestDefendingRepliesWithResult(t *testing.T) {
	testlog.Start(t)
	a := newTestAgent("bravo", 5, negotiation.StrategyHonest)
	a.Step(ev(protocol.EventStart))
	a.SetState(StateDefending)
	msg := a.Step(ev(protocol.EventShotReceived, 2, 3))
	if msg.Type != protocol.MessageResult || msg.Param0 != 2 || msg.Param1 != 3 {
		t.Fatalf("unexpected result: %s", msg)
	}
	if a.State() != StateWaitingToSend {
		t.Fatalf("unexpected state: %s", a.State())
	}
	next := a.Step(ev(protocol.EventMessageSent))
	if next.Type != protocol.MessageShot || a.State() != StateAttacking {
		t.Fatalf("expected shot after result sent: %s state=%s", next, a.State())
	}
}

func TestErrorEventsCountedWithoutTransition(t *testing.T) {
	testlog.Start(t)
	a := newTestAgent("alpha", 6, negotiation.StrategyHonest)
	msg := a.Step(protocol.ErrorEvent(protocol.ErrBadChecksum))
	if !msg.IsNone() || a.State() != StateStart {
		t.Fatalf("error event changed state: %s msg=%s", a.State(), msg)
	}
	if snap := a.Snapshot(); snap.ErrorCount != 1 || snap.LastError == "" {
		t.Fatalf("error not recorded: %+v", snap)
	}
}

func TestResetFromAnyState(t *testing.T) {
	testlog.Start(t)
	for s := StateStart; s <= StateSetupBoats; s++ {
		a := newTestAgent("alpha", 7, negotiation.StrategyHonest)
		a.Step(ev(protocol.EventStart))
		a.SetState(s)
		if msg := a.Step(ev(protocol.EventReset)); !msg.IsNone() {
			t.Fatalf("reset emitted message: %s", msg)
		}
		snap := a.Snapshot()
		if snap.State != StateStart || snap.Role != RoleUnassigned || snap.Turn != 0 || snap.OwnBoats != 0 {
			t.Fatalf("reset from %s left state: %+v", s, snap)
		}
	}
}

func TestIrrelevantEventsAreNoOps(t *testing.T) {
	testlog.Start(t)
	a := newTestAgent("alpha", 8, negotiation.StrategyHonest)
	for _, typ := range []protocol.EventType{
		protocol.EventMessageSent,
		protocol.EventShotReceived,
		protocol.EventResultReceived,
		protocol.EventSouth,
		protocol.EventEast,
		protocol.EventSquareChosen,
	} {
		if msg := a.Step(ev(typ)); !msg.IsNone() || a.State() != StateStart {
			t.Fatalf("event %s changed start: state=%s msg=%s", typ, a.State(), msg)
		}
	}
}

func TestUnknownResultCodeAbortsMatch(t *testing.T) {
	testlog.Start(t)
	a := newTestAgent("alpha", 9, negotiation.StrategyHonest)
	a.Step(ev(protocol.EventStart))
	a.SetState(StateWaitingToSend)
	shot := a.Step(ev(protocol.EventMessageSent))
	msg := a.Step(ev(protocol.EventResultReceived, shot.Param0, shot.Param1, uint16(battlefield.ResultHugeSunk)+1))
	if !msg.IsNone() {
		t.Fatalf("unexpected message: %s", msg)
	}
	snap := a.Snapshot()
	if snap.State != StateEndScreen || snap.Outcome != OutcomeAborted || snap.PendingShot != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.LastError != ErrUnknownResult.Error() {
		t.Fatalf("unexpected last error: %q", snap.LastError)
	}
}

func TestHumanSetupBoats(t *testing.T) {
	testlog.Start(t)
	a := newHumanAgent("alpha", 11)
	if a.State() != StateSetupBoats {
		t.Fatalf("human should start in setup: %s", a.State())
	}
	steps := []struct {
		event    protocol.Event
		next     string
		state    State
		rejected error
	}{
		{event: ev(protocol.EventEast, 0, 0), next: "medium", state: StateSetupBoats},
		{event: ev(protocol.EventEast, 0, 8), next: "medium", state: StateSetupBoats, rejected: battlefield.ErrPlacementOutOfBounds},
		{event: ev(protocol.EventSouth, 0, 1), next: "medium", state: StateSetupBoats, rejected: battlefield.ErrPlacementOverlap},
		{event: ev(protocol.EventSouth, 1, 0), next: "large", state: StateSetupBoats},
		{event: ev(protocol.EventSquareChosen, 3, 3), next: "large", state: StateSetupBoats},
		{event: ev(protocol.EventEast, 5, 4), next: "huge", state: StateSetupBoats},
		{event: ev(protocol.EventSouth, 0, 9), state: StateStart},
	}
	for i, step := range steps {
		if msg := a.Step(step.event); !msg.IsNone() {
			t.Fatalf("step %d: unexpected message: %s", i, msg)
		}
		snap := a.Snapshot()
		if snap.State != step.state || snap.NextBoat != step.next {
			t.Fatalf("step %d: state=%s next=%q", i, snap.State, snap.NextBoat)
		}
		if step.rejected != nil && !errors.Is(a.lastErr, step.rejected) {
			t.Fatalf("step %d: expected %v, got %v", i, step.rejected, a.lastErr)
		}
	}

	msg := a.Step(ev(protocol.EventStart))
	if msg.Type != protocol.MessageChallenge || a.State() != StateChallenging {
		t.Fatalf("unexpected start: %s state=%s", msg, a.State())
	}
	snap := a.Snapshot()
	want := map[[2]uint8]battlefield.SquareStatus{
		{0, 0}: battlefield.BoatSmall.Square(),
		{4, 0}: battlefield.BoatMedium.Square(),
		{5, 8}: battlefield.BoatLarge.Square(),
		{5, 9}: battlefield.BoatHuge.Square(),
	}
	for at, sq := range want {
		if got := snap.Own.Status(at[0], at[1]); got != sq {
			t.Fatalf("unexpected square at %v: %s", at, got)
		}
	}
}

func TestHumanChallengeFillsRemainingBoats(t *testing.T) {
	testlog.Start(t)
	a := newHumanAgent("bravo", 12)
	a.Step(ev(protocol.EventSouth, 0, 0))
	msg := a.Step(ev(protocol.EventChallengeReceived, uint16(negotiation.Hash(9))))
	if msg.Type != protocol.MessageAccept || a.State() != StateAccepting {
		t.Fatalf("unexpected reply: %s state=%s", msg, a.State())
	}
	snap := a.Snapshot()
	if snap.OwnBoats != battlefield.StatusAll {
		t.Fatalf("boats missing: %x", snap.OwnBoats)
	}
	for r := uint8(0); r < 3; r++ {
		if snap.Own.Status(r, 0) != battlefield.BoatSmall.Square() {
			t.Fatalf("placed boat moved at row %d", r)
		}
	}
}

func TestHumanChoosesShots(t *testing.T) {
	testlog.Start(t)
	a := newHumanAgent("alpha", 13)
	a.Step(ev(protocol.EventStart))
	a.SetState(StateDefending)
	if msg := a.Step(ev(protocol.EventShotReceived, 2, 3)); msg.Type != protocol.MessageResult {
		t.Fatalf("unexpected reply: %s", msg)
	}

	steps := []struct {
		name  string
		event protocol.Event
		want  protocol.Message
		state State
	}{
		{name: "result still sending", event: ev(protocol.EventSquareChosen, 4, 4), state: StateWaitingToSend},
		{name: "result sent", event: ev(protocol.EventMessageSent), state: StateWaitingToSend},
		{name: "off board", event: ev(protocol.EventSquareChosen, battlefield.Rows, 0), state: StateWaitingToSend},
		{name: "too large", event: ev(protocol.EventSquareChosen, 300, 1), state: StateWaitingToSend},
		{name: "fire", event: ev(protocol.EventSquareChosen, 4, 4), want: protocol.Shot(4, 4), state: StateAttacking},
		{name: "chosen while attacking", event: ev(protocol.EventSquareChosen, 1, 1), state: StateAttacking},
		{name: "result", event: ev(protocol.EventResultReceived, 4, 4, uint16(battlefield.ResultMiss)), state: StateDefending},
	}
	for _, step := range steps {
		msg := a.Step(step.event)
		if msg != step.want || a.State() != step.state {
			t.Fatalf("%s: msg=%s state=%s", step.name, msg, a.State())
		}
	}

	a.SetState(StateWaitingToSend)
	a.Step(ev(protocol.EventMessageSent))
	if msg := a.Step(ev(protocol.EventSquareChosen, 4, 4)); !msg.IsNone() {
		t.Fatalf("repeat square fired: %s", msg)
	}
	if !errors.Is(a.lastErr, ErrInvalidTarget) || a.State() != StateWaitingToSend {
		t.Fatalf("repeat square not refused: err=%v state=%s", a.lastErr, a.State())
	}
}

func TestHumanFirstShotWaitsForChoice(t *testing.T) {
	testlog.Start(t)
	for b := uint16(0); b < 8; b++ {
		a := newHumanAgent("alpha", 14)
		a.Step(ev(protocol.EventStart))
		reveal := a.Step(ev(protocol.EventAcceptReceived, b))
		flip := negotiation.CoinFlip(negotiation.Secret(reveal.Param0), negotiation.Secret(b))
		if flip != negotiation.Heads {
			if a.State() != StateDefending {
				t.Fatalf("b=%d: unexpected state: %s", b, a.State())
			}
			continue
		}
		if a.State() != StateWaitingToSend {
			t.Fatalf("b=%d: unexpected state: %s", b, a.State())
		}
		if msg := a.Step(ev(protocol.EventMessageSent)); !msg.IsNone() {
			t.Fatalf("b=%d: fired without a choice: %s", b, msg)
		}
		if msg := a.Step(ev(protocol.EventSquareChosen, 0, 5)); msg != protocol.Shot(0, 5) {
			t.Fatalf("b=%d: unexpected shot: %s", b, msg)
		}
	}

	for secretA := uint16(0); secretA < 8; secretA++ {
		a := newHumanAgent("bravo", int64(secretA))
		accept := a.Step(ev(protocol.EventChallengeReceived, uint16(negotiation.Hash(negotiation.Secret(secretA)))))
		a.Step(ev(protocol.EventMessageSent))
		flip := negotiation.CoinFlip(negotiation.Secret(secretA), negotiation.Secret(accept.Param0))
		msg := a.Step(ev(protocol.EventRevealReceived, secretA))
		if !msg.IsNone() {
			t.Fatalf("acceptor fired without a choice: %s", msg)
		}
		want := StateDefending
		if flip == negotiation.Tails {
			want = StateWaitingToSend
		}
		if a.State() != want {
			t.Fatalf("secret %d: unexpected state: %s", secretA, a.State())
		}
	}
}

type delivery struct {
	to *Agent
	ev protocol.Event
}

// playMatch relays messages between two agents through the wire codec until
// both reach the end screen.
func playMatch(t *testing.T, alpha, bravo *Agent) {
	t.Helper()
	peers := map[*Agent]*Agent{alpha: bravo, bravo: alpha}
	decoders := map[*Agent]*protocol.Decoder{alpha: protocol.NewDecoder(), bravo: protocol.NewDecoder()}

	var queue []delivery
	send := func(from *Agent, msg protocol.Message) {
		if msg.IsNone() {
			return
		}
		to := peers[from]
		queue = append(queue, delivery{to: from, ev: ev(protocol.EventMessageSent)})
		for _, e := range decoders[to].Feed(protocol.Encode(msg)) {
			queue = append(queue, delivery{to: to, ev: e})
		}
	}

	send(alpha, alpha.Step(ev(protocol.EventStart)))
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 10000 {
			t.Fatalf("match did not terminate")
		}
		d := queue[0]
		queue = queue[1:]
		send(d.to, d.to.Step(d.ev))
	}
}

func TestFullMatchProducesOneWinner(t *testing.T) {
	testlog.Start(t)
	for seed := int64(1); seed <= 10; seed++ {
		alpha := newTestAgent("alpha", seed, negotiation.StrategyHonest)
		bravo := newTestAgent("bravo", seed*100, negotiation.StrategyHonest)
		playMatch(t, alpha, bravo)

		if alpha.State() != StateEndScreen || bravo.State() != StateEndScreen {
			t.Fatalf("seed %d: match not finished: alpha=%s bravo=%s", seed, alpha.State(), bravo.State())
		}
		outcomes := map[GameOutcome]int{alpha.Outcome(): 1}
		outcomes[bravo.Outcome()]++
		if outcomes[OutcomeVictory] != 1 || outcomes[OutcomeDefeat] != 1 {
			t.Fatalf("seed %d: unexpected outcomes alpha=%s bravo=%s", seed, alpha.Outcome(), bravo.Outcome())
		}
		loser := alpha
		if alpha.Outcome() == OutcomeVictory {
			loser = bravo
		}
		if loser.Snapshot().OwnBoats != 0 {
			t.Fatalf("seed %d: loser still has boats", seed)
		}
	}
}

// playHumanMatch is playMatch with bravo driven by SquareChosen events that
// pick the same squares the built-in guesser would.
func playHumanMatch(t *testing.T, alpha, bravo *Agent) {
	t.Helper()
	peers := map[*Agent]*Agent{alpha: bravo, bravo: alpha}
	decoders := map[*Agent]*protocol.Decoder{alpha: protocol.NewDecoder(), bravo: protocol.NewDecoder()}

	var queue []delivery
	send := func(from *Agent, msg protocol.Message) {
		if msg.IsNone() {
			return
		}
		to := peers[from]
		queue = append(queue, delivery{to: from, ev: ev(protocol.EventMessageSent)})
		for _, e := range decoders[to].Feed(protocol.Encode(msg)) {
			queue = append(queue, delivery{to: to, ev: e})
		}
	}

	send(alpha, alpha.Step(ev(protocol.EventStart)))
	for steps := 0; ; steps++ {
		if steps > 10000 {
			t.Fatalf("match did not terminate")
		}
		if len(queue) == 0 {
			snap := bravo.Snapshot()
			if snap.State != StateWaitingToSend {
				return
			}
			g, ok := snap.Opp.AIDecideGuess()
			if !ok {
				t.Fatalf("no square left to choose")
			}
			send(bravo, bravo.Step(ev(protocol.EventSquareChosen, uint16(g.Row), uint16(g.Col))))
			continue
		}
		d := queue[0]
		queue = queue[1:]
		send(d.to, d.to.Step(d.ev))
	}
}

func TestHumanMatchProducesOneWinner(t *testing.T) {
	testlog.Start(t)
	for seed := int64(1); seed <= 10; seed++ {
		alpha := newTestAgent("alpha", seed, negotiation.StrategyHonest)
		bravo := newHumanAgent("bravo", seed*7)
		bravo.Step(ev(protocol.EventEast, 0, 0))
		bravo.Step(ev(protocol.EventSouth, 1, 9))
		playHumanMatch(t, alpha, bravo)

		if alpha.State() != StateEndScreen || bravo.State() != StateEndScreen {
			t.Fatalf("seed %d: match not finished: alpha=%s bravo=%s", seed, alpha.State(), bravo.State())
		}
		if alpha.Outcome() == bravo.Outcome() || alpha.Outcome() == OutcomeAborted || bravo.Outcome() == OutcomeAborted {
			t.Fatalf("seed %d: unexpected outcomes alpha=%s bravo=%s", seed, alpha.Outcome(), bravo.Outcome())
		}
	}
}

func TestCheatingChallengerAttacksFirst(t *testing.T) {
	testlog.Start(t)
	for seed := int64(1); seed <= 10; seed++ {
		alpha := newTestAgent("alpha", seed, negotiation.StrategyCheat)
		bravo := newTestAgent("bravo", seed+50, negotiation.StrategyHonest)

		challenge := alpha.Step(ev(protocol.EventStart))
		accept := bravo.Step(ev(protocol.EventChallengeReceived, challenge.Param0))
		reveal := alpha.Step(ev(protocol.EventAcceptReceived, accept.Param0))
		bravo.Step(ev(protocol.EventRevealReceived, reveal.Param0))

		if bravo.State() == StateEndScreen {
			t.Fatalf("seed %d: cheat reveal failed verification", seed)
		}
		if _, ok := negotiation.CollidingHeads(negotiation.Secret(reveal.Param0), negotiation.Secret(accept.Param0)); !ok {
			continue
		}
		if alpha.State() != StateAttacking || bravo.State() != StateDefending {
			t.Fatalf("seed %d: unexpected roles alpha=%s bravo=%s", seed, alpha.State(), bravo.State())
		}
	}
}
