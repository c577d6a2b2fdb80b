// Package display renders agent snapshots for a local operator.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/battleboats/internal/agent"
)

// Renderer draws one snapshot. Implementations are called from the peer
// loop goroutine and must not block for long.
type Renderer interface {
	Render(snap agent.Snapshot) error
	Close() error
}

// StatusLine summarizes the match in one line.
func StatusLine(snap agent.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s state=%s role=%s", snap.Name, snap.State, snap.Role)
	if snap.CoinFlip != "" {
		fmt.Fprintf(&b, " flip=%s", snap.CoinFlip)
	}
	fmt.Fprintf(&b, " turn=%d own=%04b opp=%04b", snap.Turn, snap.OwnBoats, snap.OppBoats)
	if snap.Outcome != agent.OutcomeNone {
		fmt.Fprintf(&b, " outcome=%s", snap.Outcome)
	}
	if snap.ErrorCount > 0 {
		fmt.Fprintf(&b, " errors=%d", snap.ErrorCount)
	}
	return b.String()
}

// Boards renders the own and opponent fields under headings.
func Boards(snap agent.Snapshot) string {
	var b strings.Builder
	b.WriteString("own\n")
	b.WriteString(snap.Own.String())
	b.WriteString("\nopponent\n")
	b.WriteString(snap.Opp.String())
	return b.String()
}

// Text writes a status line plus both boards for every snapshot.
type Text struct {
	w io.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Render(snap agent.Snapshot) error {
	_, err := fmt.Fprintf(t.w, "%s\n%s\n", StatusLine(snap), Boards(snap))
	return err
}

func (t *Text) Close() error {
	return nil
}

type nop struct{}

func (nop) Render(agent.Snapshot) error { return nil }
func (nop) Close() error                { return nil }

// Nop discards every snapshot.
func Nop() Renderer {
	return nop{}
}
