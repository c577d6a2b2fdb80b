package protocol

import (
	"fmt"
	"io"

	"github.com/danmuck/battleboats/internal/protocol/fields"
	"github.com/danmuck/battleboats/internal/protocol/frame"
	"github.com/danmuck/battleboats/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

// Encode renders msg as a complete frame. None, Error and messages whose
// params do not fit their template encode to nothing.
func Encode(msg Message) []byte {
	out, err := Marshal(msg)
	if err != nil {
		return nil
	}
	return out
}

// Marshal is Encode with the reason for an empty result.
func Marshal(msg Message) ([]byte, error) {
	payload, err := marshalPayload(msg)
	if err != nil {
		return nil, err
	}
	return frame.Wrap(payload), nil
}

func marshalPayload(msg Message) ([]byte, error) {
	tag, ok := msg.Type.Tag()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotEncodable, msg.Type)
	}
	tpl, _ := schema.Lookup(tag)
	values := msg.params(len(tpl.Widths))
	if err := schema.Validate(tag, values); err != nil {
		return nil, err
	}

	payload := make([]byte, 0, frame.MaxPayloadLen)
	payload = append(payload, string(tag)...)
	payload = append(payload, fields.Separator)
	payload = append(payload, fields.Encode(values...)...)
	return payload, nil
}

// WriteMessage writes msg to w. A None message writes nothing.
func WriteMessage(w io.Writer, msg Message) error {
	if msg.IsNone() {
		return nil
	}
	payload, err := marshalPayload(msg)
	if err != nil {
		log.Error().Err(err).Stringer("type", msg.Type).Msg("protocol.WriteMessage marshal failed")
		return err
	}
	if err := frame.WriteFrame(w, payload, frame.DefaultLimits()); err != nil {
		return fmt.Errorf("protocol: write %s: %w", msg.Type, err)
	}
	log.Debug().Str("msg", msg.String()).Int("payload", len(payload)).Msg("protocol.WriteMessage")
	return nil
}
