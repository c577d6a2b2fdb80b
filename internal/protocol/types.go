package protocol

import (
	"fmt"

	"github.com/danmuck/battleboats/internal/protocol/schema"
)

type MessageType uint8

const (
	MessageNone MessageType = iota
	MessageChallenge
	MessageAccept
	MessageReveal
	MessageShot
	MessageResult
	MessageError
)

func (t MessageType) String() string {
	switch t {
	case MessageNone:
		return "none"
	case MessageChallenge:
		return "challenge"
	case MessageAccept:
		return "accept"
	case MessageReveal:
		return "reveal"
	case MessageShot:
		return "shot"
	case MessageResult:
		return "result"
	case MessageError:
		return "error"
	default:
		return fmt.Sprintf("message(%d)", uint8(t))
	}
}

// Tag returns the wire tag for t. None and Error have no wire form.
func (t MessageType) Tag() (schema.Tag, bool) {
	switch t {
	case MessageChallenge:
		return schema.TagChallenge, true
	case MessageAccept:
		return schema.TagAccept, true
	case MessageReveal:
		return schema.TagReveal, true
	case MessageShot:
		return schema.TagShot, true
	case MessageResult:
		return schema.TagResult, true
	default:
		return "", false
	}
}

// Message is one outgoing protocol message. Unused params are zero.
type Message struct {
	Type   MessageType
	Param0 uint16
	Param1 uint16
	Param2 uint16
}

func (m Message) IsNone() bool {
	return m.Type == MessageNone
}

func (m Message) String() string {
	if tag, ok := m.Type.Tag(); ok {
		tpl, _ := schema.Lookup(tag)
		return fmt.Sprintf("%s%v", tag, m.params(len(tpl.Widths)))
	}
	return m.Type.String()
}

func (m Message) params(n int) []uint16 {
	all := []uint16{m.Param0, m.Param1, m.Param2}
	return all[:n]
}

func Challenge(commitment uint16) Message {
	return Message{Type: MessageChallenge, Param0: commitment}
}

func Accept(secret uint16) Message {
	return Message{Type: MessageAccept, Param0: secret}
}

func Reveal(secret uint16) Message {
	return Message{Type: MessageReveal, Param0: secret}
}

func Shot(row, col uint8) Message {
	return Message{Type: MessageShot, Param0: uint16(row), Param1: uint16(col)}
}

func Result(row, col, code uint8) Message {
	return Message{Type: MessageResult, Param0: uint16(row), Param1: uint16(col), Param2: uint16(code)}
}

type EventType uint8

const (
	EventNone EventType = iota
	EventStart
	EventReset
	EventChallengeReceived
	EventAcceptReceived
	EventRevealReceived
	EventShotReceived
	EventResultReceived
	EventMessageSent
	EventError
	// EventSouth and EventEast place the next boat at (Param0, Param1)
	// extending in that direction.
	EventSouth
	EventEast
	// EventSquareChosen fires at (Param0, Param1).
	EventSquareChosen
)

func (t EventType) String() string {
	switch t {
	case EventNone:
		return "none"
	case EventStart:
		return "start"
	case EventReset:
		return "reset"
	case EventChallengeReceived:
		return "challenge_received"
	case EventAcceptReceived:
		return "accept_received"
	case EventRevealReceived:
		return "reveal_received"
	case EventShotReceived:
		return "shot_received"
	case EventResultReceived:
		return "result_received"
	case EventMessageSent:
		return "message_sent"
	case EventError:
		return "error"
	case EventSouth:
		return "south"
	case EventEast:
		return "east"
	case EventSquareChosen:
		return "square_chosen"
	default:
		return fmt.Sprintf("event(%d)", uint8(t))
	}
}

// Event is one input to the turn state machine. Err is set only on EventError.
type Event struct {
	Type   EventType
	Param0 uint16
	Param1 uint16
	Param2 uint16
	Err    error
}

func (e Event) IsNone() bool {
	return e.Type == EventNone
}

func ErrorEvent(err error) Event {
	return Event{Type: EventError, Err: err}
}

func eventForTag(tag schema.Tag) EventType {
	switch tag {
	case schema.TagChallenge:
		return EventChallengeReceived
	case schema.TagAccept:
		return EventAcceptReceived
	case schema.TagReveal:
		return EventRevealReceived
	case schema.TagShot:
		return EventShotReceived
	case schema.TagResult:
		return EventResultReceived
	default:
		return EventNone
	}
}
