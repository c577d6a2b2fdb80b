package schema

import (
	"testing"

	"github.com/danmuck/battleboats/internal/protocol/fields"
	"github.com/danmuck/battleboats/internal/testutil/testlog"
)

func TestLookupKnownTags(t *testing.T) {
	testlog.Start(t)
	want := map[Tag]int{
		TagChallenge: 1,
		TagAccept:    1,
		TagReveal:    1,
		TagShot:      2,
		TagResult:    3,
	}
	for tag, n := range want {
		tpl, ok := Lookup(tag)
		if !ok {
			t.Fatalf("missing template for %s", tag)
		}
		if len(tpl.Widths) != n {
			t.Fatalf("unexpected field count for %s: %d", tag, len(tpl.Widths))
		}
		if len(tag) != TagLen {
			t.Fatalf("unexpected tag length for %s", tag)
		}
	}
	if _, ok := Lookup("XYZ"); ok {
		t.Fatalf("expected unknown tag lookup to fail")
	}
}

func TestShotAndResultFieldsAreBytes(t *testing.T) {
	testlog.Start(t)
	for _, tag := range []Tag{TagShot, TagResult} {
		tpl, _ := Lookup(tag)
		for i, w := range tpl.Widths {
			if w != fields.WidthU8 {
				t.Fatalf("unexpected width for %s field %d: %s", tag, i, w)
			}
		}
	}
}

func TestValidateWidthExceededDeterministic(t *testing.T) {
	testlog.Start(t)
	err := Validate(TagShot, []uint16{3, 300})
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Field != 1 || ve.Tag != TagShot {
		t.Fatalf("unexpected validation error: %+v", ve)
	}
}

func TestValidateCountAndUnknownTag(t *testing.T) {
	testlog.Start(t)
	if err := Validate(TagChallenge, []uint16{65535}); err != nil {
		t.Fatalf("validate challenge: %v", err)
	}
	err := Validate(TagResult, []uint16{1, 2})
	if ve, ok := err.(ValidationError); !ok || ve.Reason != "field count mismatch" {
		t.Fatalf("unexpected error: %v", err)
	}
	err = Validate("BAD", nil)
	if ve, ok := err.(ValidationError); !ok || ve.Reason != "unknown tag" {
		t.Fatalf("unexpected error: %v", err)
	}
}
