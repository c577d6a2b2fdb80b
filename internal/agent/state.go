package agent

import "fmt"

type State uint8

const (
	StateStart State = iota
	StateChallenging
	StateAccepting
	StateAttacking
	StateDefending
	StateWaitingToSend
	StateEndScreen
	// StateSetupBoats is where a human player places boats before a match.
	StateSetupBoats
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateChallenging:
		return "challenging"
	case StateAccepting:
		return "accepting"
	case StateAttacking:
		return "attacking"
	case StateDefending:
		return "defending"
	case StateWaitingToSend:
		return "waiting_to_send"
	case StateEndScreen:
		return "end_screen"
	case StateSetupBoats:
		return "setup_boats"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type GameOutcome uint8

const (
	OutcomeNone GameOutcome = iota
	OutcomeVictory
	OutcomeDefeat
	// OutcomeAborted ends a match without a winner.
	OutcomeAborted
)

func (o GameOutcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	case OutcomeAborted:
		return "aborted"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

func (o GameOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type Role uint8

const (
	RoleUnassigned Role = iota
	RoleChallenger
	RoleAcceptor
)

func (r Role) String() string {
	switch r {
	case RoleChallenger:
		return "challenger"
	case RoleAcceptor:
		return "acceptor"
	default:
		return "unassigned"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
