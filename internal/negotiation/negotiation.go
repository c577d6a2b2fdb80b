// Package negotiation decides which peer fires first using a commit-reveal
// coin flip.
//
// The challenger commits Hash(a) and the acceptor answers with b in clear.
// Once a is revealed both sides compute CoinFlip(a, b); the challenger
// attacks on Heads and the acceptor attacks on Tails.
package negotiation

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"
)

// PublicKey is the modulus of the commitment hash. It is 9*5431, not prime,
// so Hash is far from injective.
const PublicKey = 0xBEEF

var (
	ErrVerifyFailed    = errors.New("negotiation: revealed secret does not match commitment")
	ErrUnknownStrategy = errors.New("negotiation: unknown strategy")
)

type Secret uint16

type Commitment uint16

type Outcome uint8

const (
	Heads Outcome = iota
	Tails
)

func (o Outcome) String() string {
	if o == Heads {
		return "heads"
	}
	return "tails"
}

// Hash is (s*s) mod PublicKey computed in 32 bits.
func Hash(s Secret) Commitment {
	v := uint32(s)
	return Commitment((v * v) % PublicKey)
}

func Verify(s Secret, c Commitment) bool {
	return Hash(s) == c
}

// CoinFlip is Heads when a XOR b has odd parity. It is symmetric in a and b.
func CoinFlip(a, b Secret) Outcome {
	if bits.OnesCount16(uint16(a^b))%2 == 1 {
		return Heads
	}
	return Tails
}

// ChallengerAttacks reports whether the challenging side fires first.
func ChallengerAttacks(o Outcome) bool {
	return o == Heads
}

// AcceptorAttacks reports whether the accepting side fires first.
func AcceptorAttacks(o Outcome) bool {
	return o == Tails
}

type Strategy uint8

const (
	StrategyHonest Strategy = iota
	StrategyCheat
)

func (s Strategy) String() string {
	switch s {
	case StrategyHonest:
		return "honest"
	case StrategyCheat:
		return "cheat"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

func ParseStrategy(raw string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "honest":
		return StrategyHonest, nil
	case "cheat":
		return StrategyCheat, nil
	default:
		return StrategyHonest, fmt.Errorf("%w: %q", ErrUnknownStrategy, raw)
	}
}

// ForceHeadsAgainst returns the smallest b with CoinFlip(known, b) == Heads.
func ForceHeadsAgainst(known Secret) Secret {
	s, _ := firstSecret(func(b Secret) bool {
		return CoinFlip(known, b) == Heads
	})
	return s
}

// CollidingHeads returns the smallest s that still verifies against
// Hash(own) and flips Heads against peer. ok is false when no such s
// exists, in which case own is returned.
func CollidingHeads(own, peer Secret) (Secret, bool) {
	target := Hash(own)
	s, ok := firstSecret(func(s Secret) bool {
		return Hash(s) == target && CoinFlip(s, peer) == Heads
	})
	if !ok {
		return own, false
	}
	return s, true
}

func firstSecret(match func(Secret) bool) (Secret, bool) {
	for v := uint32(0); v <= 0xFFFF; v++ {
		if match(Secret(v)) {
			return Secret(v), true
		}
	}
	return 0, false
}

// Negotiator picks secrets for one side of the handshake.
type Negotiator struct {
	Strategy Strategy
	Rand     *rand.Rand
}

func NewNegotiator(strategy Strategy, rng *rand.Rand) *Negotiator {
	return &Negotiator{Strategy: strategy, Rand: rng}
}

func (n *Negotiator) random() Secret {
	if n.Rand == nil {
		return Secret(rand.Intn(0x10000))
	}
	return Secret(n.Rand.Intn(0x10000))
}

// ChallengeSecret draws the challenger's committed secret.
func (n *Negotiator) ChallengeSecret() Secret {
	return n.random()
}

// AcceptSecret draws the acceptor's clear secret after seeing c.
func (n *Negotiator) AcceptSecret(c Commitment) Secret {
	if n.Strategy == StrategyCheat {
		return ForceHeadsAgainst(Secret(c))
	}
	return n.random()
}

// RevealSecret picks the secret the challenger reveals once peer is known.
func (n *Negotiator) RevealSecret(own, peer Secret) Secret {
	if n.Strategy == StrategyCheat {
		s, ok := CollidingHeads(own, peer)
		if !ok {
			log.Warn().
				Uint16("own", uint16(own)).
				Uint16("peer", uint16(peer)).
				Msg("negotiation.Negotiator.RevealSecret no colliding heads secret, revealing own")
		}
		return s
	}
	return own
}
