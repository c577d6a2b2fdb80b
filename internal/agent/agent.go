// Package agent is the turn state machine for one peer.
//
// Ownership boundary:
// - negotiation secrets and the coin flip result
// - own and opponent battlefields
// - the pending shot and turn counter
//
// Transport, timing and rendering stay outside; callers feed events to Step
// and transmit whatever message it returns.
package agent

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/danmuck/battleboats/internal/battlefield"
	"github.com/danmuck/battleboats/internal/negotiation"
	"github.com/danmuck/battleboats/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownResult = errors.New("agent: unknown result code")
	ErrInvalidTarget = errors.New("agent: target square already resolved")
)

type Config struct {
	Name     string
	Strategy negotiation.Strategy
	// Human places boats from South and East events and picks shots from
	// SquareChosen events instead of the built-in guesser.
	Human bool
	// Seed fixes the random source when Rand is nil. Zero seeds from the clock.
	Seed int64
	Rand *rand.Rand
}

func DefaultConfig() Config {
	return Config{Name: "boat", Strategy: negotiation.StrategyHonest}
}

type Agent struct {
	mu sync.RWMutex

	name       string
	human      bool
	rng        *rand.Rand
	negotiator *negotiation.Negotiator

	state   State
	outcome GameOutcome
	role    Role
	flip    negotiation.Outcome
	flipped bool
	turn    uint16

	own *battlefield.Field
	opp *battlefield.Field

	secretA    negotiation.Secret
	secretB    negotiation.Secret
	commitment negotiation.Commitment

	pending     battlefield.Guess
	shotPending bool
	// sending is set while a message this agent returned is on the wire.
	sending bool

	lastEvent protocol.EventType
	lastErr   error
	errCount  uint64
}

func New(cfg Config) *Agent {
	rng := cfg.Rand
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	a := &Agent{
		name:       cfg.Name,
		human:      cfg.Human,
		rng:        rng,
		negotiator: negotiation.NewNegotiator(cfg.Strategy, rng),
		own:        battlefield.NewOwnField(),
		opp:        battlefield.NewOpponentField(),
	}
	a.reset()
	return a
}

func (a *Agent) Name() string {
	return a.name
}

// Reset clears every per-game value and returns to StateStart, or to
// StateSetupBoats for a human player.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *Agent) reset() {
	a.state = StateStart
	if a.human {
		a.state = StateSetupBoats
	}
	a.outcome = OutcomeNone
	a.role = RoleUnassigned
	a.flipped = false
	a.turn = 0
	battlefield.Init(a.own, a.opp)
	a.secretA, a.secretB, a.commitment = 0, 0, 0
	a.pending = battlefield.Guess{}
	a.shotPending = false
	a.sending = false
	a.lastEvent = protocol.EventNone
	a.lastErr = nil
}

func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// SetState forces the current state without touching game data.
func (a *Agent) SetState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

// Step advances the machine by one event and returns the message to
// transmit, which is None when nothing should be sent.
func (a *Agent) Step(ev protocol.Event) protocol.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ev.IsNone() {
		return protocol.Message{}
	}
	a.lastEvent = ev.Type
	from := a.state

	var out protocol.Message
	switch {
	case ev.Type == protocol.EventReset:
		a.reset()
		a.lastEvent = protocol.EventReset
	case ev.Type == protocol.EventError:
		a.errCount++
		a.lastErr = ev.Err
		log.Warn().
			Str("agent", a.name).
			Stringer("state", a.state).
			Err(ev.Err).
			Str("kind", protocol.ErrorKind(ev.Err)).
			Msg("agent.Agent.Step error event")
	default:
		if ev.Type == protocol.EventMessageSent {
			a.sending = false
		}
		out = a.dispatch(ev)
	}
	if !out.IsNone() {
		a.sending = true
	}

	if from != a.state || !out.IsNone() {
		log.Info().
			Str("agent", a.name).
			Stringer("event", ev.Type).
			Stringer("from", from).
			Stringer("to", a.state).
			Str("send", out.String()).
			Msg("agent.Agent.Step")
	}
	return out
}

func (a *Agent) dispatch(ev protocol.Event) protocol.Message {
	switch a.state {
	case StateStart:
		return a.stepStart(ev)
	case StateChallenging:
		return a.stepChallenging(ev)
	case StateAccepting:
		return a.stepAccepting(ev)
	case StateAttacking:
		return a.stepAttacking(ev)
	case StateDefending:
		return a.stepDefending(ev)
	case StateWaitingToSend:
		return a.stepWaitingToSend(ev)
	case StateSetupBoats:
		return a.stepSetupBoats(ev)
	case StateEndScreen:
	}
	return protocol.Message{}
}

// stepSetupBoats places boats one at a time in Boats order. Start or an
// incoming challenge places whatever is left at random and carries on.
func (a *Agent) stepSetupBoats(ev protocol.Event) protocol.Message {
	switch ev.Type {
	case protocol.EventSouth:
		a.placeNext(ev.Param0, ev.Param1, battlefield.DirectionSouth)
	case protocol.EventEast:
		a.placeNext(ev.Param0, ev.Param1, battlefield.DirectionEast)
	case protocol.EventStart, protocol.EventChallengeReceived:
		return a.stepStart(ev)
	}
	return protocol.Message{}
}

func (a *Agent) placeNext(row, col uint16, dir battlefield.Direction) {
	boat, ok := a.own.NextUnplaced()
	if !ok {
		a.state = StateStart
		return
	}
	if row > 0xFF || col > 0xFF {
		a.lastErr = battlefield.ErrPlacementOutOfBounds
		return
	}
	if err := a.own.AddBoat(uint8(row), uint8(col), dir, boat); err != nil {
		log.Warn().
			Str("agent", a.name).
			Stringer("boat", boat).
			Uint16("row", row).
			Uint16("col", col).
			Stringer("dir", dir).
			Err(err).
			Msg("agent.Agent.placeNext rejected")
		a.lastErr = err
		return
	}
	if _, more := a.own.NextUnplaced(); !more {
		a.state = StateStart
	}
}

func (a *Agent) stepWaitingToSend(ev protocol.Event) protocol.Message {
	switch ev.Type {
	case protocol.EventMessageSent:
		if !a.human {
			return a.fire()
		}
	case protocol.EventSquareChosen:
		if !a.human {
			return protocol.Message{}
		}
		if a.sending {
			log.Debug().Str("agent", a.name).Msg("agent.Agent.stepWaitingToSend result still sending")
			return protocol.Message{}
		}
		return a.fireAt(ev.Param0, ev.Param1)
	}
	return protocol.Message{}
}

func (a *Agent) stepStart(ev protocol.Event) protocol.Message {
	switch ev.Type {
	case protocol.EventStart:
		if !a.placeBoats() {
			return protocol.Message{}
		}
		a.role = RoleChallenger
		a.secretA = a.negotiator.ChallengeSecret()
		a.commitment = negotiation.Hash(a.secretA)
		a.state = StateChallenging
		return protocol.Challenge(uint16(a.commitment))
	case protocol.EventChallengeReceived:
		if !a.placeBoats() {
			return protocol.Message{}
		}
		a.role = RoleAcceptor
		a.commitment = negotiation.Commitment(ev.Param0)
		a.secretB = a.negotiator.AcceptSecret(a.commitment)
		a.state = StateAccepting
		return protocol.Accept(uint16(a.secretB))
	}
	return protocol.Message{}
}

// placeBoats fills in every boat not already placed.
func (a *Agent) placeBoats() bool {
	if err := a.own.AIPlaceAllBoats(a.rng); err != nil {
		log.Error().Str("agent", a.name).Err(err).Msg("agent.Agent.placeBoats failed")
		a.end(OutcomeAborted)
		return false
	}
	return true
}

func (a *Agent) stepChallenging(ev protocol.Event) protocol.Message {
	if ev.Type != protocol.EventAcceptReceived {
		return protocol.Message{}
	}
	a.secretB = negotiation.Secret(ev.Param0)
	a.secretA = a.negotiator.RevealSecret(a.secretA, a.secretB)
	a.setFlip(negotiation.CoinFlip(a.secretA, a.secretB))
	switch {
	case negotiation.ChallengerAttacks(a.flip) && a.human:
		a.state = StateWaitingToSend
	case negotiation.ChallengerAttacks(a.flip):
		// First shot goes out once the reveal has been transmitted.
		a.state = StateAttacking
	default:
		a.state = StateDefending
	}
	return protocol.Reveal(uint16(a.secretA))
}

func (a *Agent) stepAccepting(ev protocol.Event) protocol.Message {
	if ev.Type != protocol.EventRevealReceived {
		return protocol.Message{}
	}
	a.secretA = negotiation.Secret(ev.Param0)
	if !negotiation.Verify(a.secretA, a.commitment) {
		log.Warn().
			Str("agent", a.name).
			Uint16("revealed", uint16(a.secretA)).
			Uint16("commitment", uint16(a.commitment)).
			Err(negotiation.ErrVerifyFailed).
			Msg("agent.Agent.stepAccepting")
		a.lastErr = negotiation.ErrVerifyFailed
		a.end(OutcomeAborted)
		return protocol.Message{}
	}
	a.setFlip(negotiation.CoinFlip(a.secretA, a.secretB))
	if negotiation.AcceptorAttacks(a.flip) {
		if a.human {
			a.state = StateWaitingToSend
			return protocol.Message{}
		}
		return a.fire()
	}
	a.state = StateDefending
	return protocol.Message{}
}

func (a *Agent) stepAttacking(ev protocol.Event) protocol.Message {
	switch ev.Type {
	case protocol.EventMessageSent:
		if !a.shotPending {
			return a.fire()
		}
	case protocol.EventResultReceived:
		if !a.shotPending || ev.Param0 != uint16(a.pending.Row) || ev.Param1 != uint16(a.pending.Col) {
			log.Debug().
				Str("agent", a.name).
				Uint16("row", ev.Param0).
				Uint16("col", ev.Param1).
				Msg("agent.Agent.stepAttacking ignoring unmatched result")
			return protocol.Message{}
		}
		if ev.Param2 > uint16(battlefield.ResultHugeSunk) {
			log.Warn().Str("agent", a.name).Uint16("code", ev.Param2).Msg("agent.Agent.stepAttacking unknown result code")
			a.lastErr = ErrUnknownResult
			a.end(OutcomeAborted)
			return protocol.Message{}
		}
		g := a.pending
		g.Result = battlefield.ShotResult(ev.Param2)
		a.opp.UpdateKnowledge(g)
		a.shotPending = false
		a.turn++
		if a.opp.BoatStates() == 0 {
			a.end(OutcomeVictory)
		} else {
			a.state = StateDefending
		}
	}
	return protocol.Message{}
}

func (a *Agent) stepDefending(ev protocol.Event) protocol.Message {
	if ev.Type != protocol.EventShotReceived {
		return protocol.Message{}
	}
	g := battlefield.Guess{Row: uint8(ev.Param0), Col: uint8(ev.Param1)}
	if _, err := a.own.RegisterAttack(&g); errors.Is(err, battlefield.ErrRepeatedAttack) {
		log.Warn().
			Str("agent", a.name).
			Uint8("row", g.Row).
			Uint8("col", g.Col).
			Stringer("result", g.Result).
			Msg("agent.Agent.stepDefending repeated attack")
	}
	if a.own.BoatStates() == 0 {
		a.end(OutcomeDefeat)
	} else {
		a.state = StateWaitingToSend
	}
	return protocol.Result(g.Row, g.Col, uint8(g.Result))
}

// fire picks the next guess and moves to StateAttacking with it pending.
func (a *Agent) fire() protocol.Message {
	g, ok := a.opp.AIDecideGuess()
	if !ok {
		log.Warn().Str("agent", a.name).Msg("agent.Agent.fire no guess left")
		a.end(OutcomeAborted)
		return protocol.Message{}
	}
	return a.shoot(g)
}

// fireAt shoots at a square picked by a human player. Squares already
// resolved or off the board are refused and the agent keeps waiting.
func (a *Agent) fireAt(row, col uint16) protocol.Message {
	if row > 0xFF || col > 0xFF || a.opp.Status(uint8(row), uint8(col)) != battlefield.SquareUnknown {
		log.Warn().
			Str("agent", a.name).
			Uint16("row", row).
			Uint16("col", col).
			Msg("agent.Agent.fireAt refused")
		a.lastErr = ErrInvalidTarget
		return protocol.Message{}
	}
	return a.shoot(battlefield.Guess{Row: uint8(row), Col: uint8(col)})
}

func (a *Agent) shoot(g battlefield.Guess) protocol.Message {
	a.pending = g
	a.shotPending = true
	a.state = StateAttacking
	return protocol.Shot(g.Row, g.Col)
}

func (a *Agent) setFlip(o negotiation.Outcome) {
	a.flip = o
	a.flipped = true
}

func (a *Agent) end(outcome GameOutcome) {
	a.state = StateEndScreen
	a.outcome = outcome
	a.shotPending = false
	log.Info().
		Str("agent", a.name).
		Stringer("outcome", outcome).
		Uint16("turn", a.turn).
		Msg("agent.Agent.end")
}
