package protocol

import (
	"errors"
	"fmt"

	"github.com/danmuck/battleboats/internal/protocol/fields"
	"github.com/danmuck/battleboats/internal/protocol/frame"
	"github.com/danmuck/battleboats/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

// Decoder turns a byte stream into events. It keeps partial frames between
// calls and is not safe for concurrent use; give each link its own.
type Decoder struct {
	scanner *frame.Scanner
}

func NewDecoder() *Decoder {
	return &Decoder{scanner: frame.NewScanner(frame.DefaultLimits())}
}

// DecodeByte consumes one byte and returns None, a typed event once a frame
// completes, or an Error event for a rejected frame.
func (d *Decoder) DecodeByte(b byte) Event {
	f, ok, err := d.scanner.Step(b)
	if err != nil {
		mapped := mapFrameError(err)
		log.Warn().Err(mapped).Msg("protocol.Decoder.DecodeByte frame rejected")
		return ErrorEvent(mapped)
	}
	if !ok {
		return Event{}
	}
	return ParsePayload(string(f.Payload), f.Checksum)
}

// Feed decodes p and returns every non-None event in arrival order.
func (d *Decoder) Feed(p []byte) []Event {
	var out []Event
	for _, b := range p {
		if ev := d.DecodeByte(b); !ev.IsNone() {
			out = append(out, ev)
		}
	}
	return out
}

// Reset drops any partial frame.
func (d *Decoder) Reset() {
	d.scanner.Reset()
}

func mapFrameError(err error) error {
	switch {
	case errors.Is(err, frame.ErrFrameTooLong):
		return fmt.Errorf("%w: %w", ErrPayloadTooLong, err)
	case errors.Is(err, frame.ErrChecksumLength):
		return fmt.Errorf("%w: %w", ErrChecksumLength, err)
	case errors.Is(err, frame.ErrChecksumNotHex):
		return fmt.Errorf("%w: %w", ErrBadChecksum, err)
	default:
		return fmt.Errorf("%w: %w", ErrMessageParseFailure, err)
	}
}

// ParsePayload validates checksum against payload and extracts the tagged
// fields. checksum must be the two uppercase hex characters as transmitted.
func ParsePayload(payload, checksum string) Event {
	want := frame.FormatChecksum(frame.Checksum([]byte(payload)))
	if checksum != want {
		log.Warn().Str("got", checksum).Str("want", want).Msg("protocol.ParsePayload checksum mismatch")
		return ErrorEvent(fmt.Errorf("%w: got %q want %q", ErrBadChecksum, checksum, want))
	}
	if len(payload) < schema.TagLen {
		return ErrorEvent(fmt.Errorf("%w: %q", ErrInvalidMessageTag, payload))
	}
	tag := schema.Tag(payload[:schema.TagLen])
	tpl, ok := schema.Lookup(tag)
	if !ok {
		log.Warn().Str("tag", string(tag)).Msg("protocol.ParsePayload unknown tag")
		return ErrorEvent(fmt.Errorf("%w: %q", ErrInvalidMessageTag, tag))
	}

	rest := payload[schema.TagLen:]
	if len(rest) == 0 || rest[0] != fields.Separator {
		return ErrorEvent(fmt.Errorf("%w: %s missing fields", ErrMessageParseFailure, tag))
	}
	values, err := fields.Decode(rest[1:], tpl.Widths)
	if err != nil {
		log.Warn().Err(err).Str("tag", string(tag)).Msg("protocol.ParsePayload fields rejected")
		return ErrorEvent(fmt.Errorf("%w: %s: %w", ErrMessageParseFailure, tag, err))
	}

	ev := Event{Type: eventForTag(tag)}
	params := []*uint16{&ev.Param0, &ev.Param1, &ev.Param2}
	for i, v := range values {
		*params[i] = v
	}
	log.Debug().Stringer("event", ev.Type).Uints16("params", values).Msg("protocol.ParsePayload")
	return ev
}
