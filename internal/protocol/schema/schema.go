package schema

import (
	"fmt"

	"github.com/danmuck/battleboats/internal/protocol/fields"
	"github.com/rs/zerolog/log"
)

// TagLen is the fixed length of every payload tag.
const TagLen = 3

// Tag is the three-letter payload prefix.
type Tag string

// Tags from the wire contract.
const (
	TagChallenge Tag = "CHA"
	TagAccept    Tag = "ACC"
	TagReveal    Tag = "REV"
	TagShot      Tag = "SHO"
	TagResult    Tag = "RES"
)

// Template is the field layout that follows a tag.
type Template struct {
	Tag    Tag
	Widths []fields.Width
}

type ValidationError struct {
	Tag    Tag
	Field  int
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("schema: tag=%s: %s", e.Tag, e.Reason)
	}
	return fmt.Sprintf("schema: tag=%s field=%d: %s", e.Tag, e.Field, e.Reason)
}

var templates = map[Tag]Template{
	TagChallenge: {TagChallenge, []fields.Width{fields.WidthU16}},
	TagAccept:    {TagAccept, []fields.Width{fields.WidthU16}},
	TagReveal:    {TagReveal, []fields.Width{fields.WidthU16}},
	TagShot:      {TagShot, []fields.Width{fields.WidthU8, fields.WidthU8}},
	TagResult:    {TagResult, []fields.Width{fields.WidthU8, fields.WidthU8, fields.WidthU8}},
}

func Lookup(tag Tag) (Template, bool) {
	t, ok := templates[tag]
	return t, ok
}

// Validate checks an outgoing value list against the tag's template.
func Validate(tag Tag, values []uint16) error {
	tpl, ok := templates[tag]
	if !ok {
		log.Error().Str("tag", string(tag)).Msg("schema.Validate unknown tag")
		return ValidationError{Tag: tag, Field: -1, Reason: "unknown tag"}
	}
	if len(values) != len(tpl.Widths) {
		log.Error().
			Str("tag", string(tag)).
			Int("got", len(values)).
			Int("want", len(tpl.Widths)).
			Msg("schema.Validate field count mismatch")
		return ValidationError{Tag: tag, Field: -1, Reason: "field count mismatch"}
	}
	for i, w := range tpl.Widths {
		if values[i] > w.Max() {
			log.Error().
				Str("tag", string(tag)).
				Int("field", i).
				Uint16("value", values[i]).
				Stringer("width", w).
				Msg("schema.Validate width exceeded")
			return ValidationError{Tag: tag, Field: i, Reason: "value exceeds " + w.String()}
		}
	}
	log.Debug().Str("tag", string(tag)).Msg("schema.Validate ok")
	return nil
}
