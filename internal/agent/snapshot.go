package agent

import (
	"github.com/danmuck/battleboats/internal/battlefield"
)

// Snapshot is a read-only copy of agent state for status surfaces.
type Snapshot struct {
	Name        string             `json:"name"`
	State       State              `json:"state"`
	Outcome     GameOutcome        `json:"outcome"`
	Role        Role               `json:"role"`
	Human       bool               `json:"human"`
	NextBoat    string             `json:"next_boat,omitempty"`
	CoinFlip    string             `json:"coin_flip,omitempty"`
	Turn        uint16             `json:"turn"`
	OwnBoats    uint8              `json:"own_boats"`
	OppBoats    uint8              `json:"opponent_boats"`
	PendingShot *battlefield.Guess `json:"pending_shot,omitempty"`
	LastEvent   string             `json:"last_event"`
	LastError   string             `json:"last_error,omitempty"`
	ErrorCount  uint64             `json:"error_count"`

	Own battlefield.Field `json:"-"`
	Opp battlefield.Field `json:"-"`
}

func (a *Agent) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Snapshot{
		Name:       a.name,
		State:      a.state,
		Outcome:    a.outcome,
		Role:       a.role,
		Human:      a.human,
		Turn:       a.turn,
		OwnBoats:   a.own.BoatStates(),
		OppBoats:   a.opp.BoatStates(),
		LastEvent:  a.lastEvent.String(),
		ErrorCount: a.errCount,
		Own:        *a.own,
		Opp:        *a.opp,
	}
	if a.flipped {
		s.CoinFlip = a.flip.String()
	}
	if a.state == StateSetupBoats {
		if b, ok := a.own.NextUnplaced(); ok {
			s.NextBoat = b.String()
		}
	}
	if a.shotPending {
		g := a.pending
		s.PendingShot = &g
	}
	if a.lastErr != nil {
		s.LastError = a.lastErr.Error()
	}
	return s
}

// Outcome is the result of the last finished match.
func (a *Agent) Outcome() GameOutcome {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.outcome
}
