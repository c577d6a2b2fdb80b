package display

import (
	"context"
	"fmt"
	"sync"

	"github.com/danmuck/battleboats/internal/agent"
	"github.com/danmuck/battleboats/internal/battlefield"
	"github.com/danmuck/battleboats/internal/protocol"
	"github.com/nsf/termbox-go"
	"github.com/rs/zerolog/log"
)

// Command is an operator key press mapped to a peer action.
type Command int

const (
	CommandNone Command = iota
	CommandStart
	CommandReset
	CommandQuit
	CommandPlaceEast
	CommandPlaceSouth
	CommandFire
)

func (c Command) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandReset:
		return "reset"
	case CommandQuit:
		return "quit"
	case CommandPlaceEast:
		return "place_east"
	case CommandPlaceSouth:
		return "place_south"
	case CommandFire:
		return "fire"
	default:
		return "none"
	}
}

// CommandForKey maps s/r/q (and Esc, Ctrl-C) to commands, plus e/d to
// boat placement and Enter/Space to firing at the cursor.
func CommandForKey(key termbox.Key, ch rune) Command {
	switch key {
	case termbox.KeyEsc, termbox.KeyCtrlC:
		return CommandQuit
	case termbox.KeyEnter, termbox.KeySpace:
		return CommandFire
	}
	switch ch {
	case 's', 'S':
		return CommandStart
	case 'r', 'R':
		return CommandReset
	case 'q', 'Q':
		return CommandQuit
	case 'e', 'E':
		return CommandPlaceEast
	case 'd', 'D':
		return CommandPlaceSouth
	}
	return CommandNone
}

// Cursor is the highlighted board square.
type Cursor struct {
	Row uint8
	Col uint8
}

// Move steps the cursor for an arrow key and reports whether key was one.
// The cursor stops at the board edges.
func (c *Cursor) Move(key termbox.Key) bool {
	switch key {
	case termbox.KeyArrowUp:
		if c.Row > 0 {
			c.Row--
		}
	case termbox.KeyArrowDown:
		if c.Row < battlefield.Rows-1 {
			c.Row++
		}
	case termbox.KeyArrowLeft:
		if c.Col > 0 {
			c.Col--
		}
	case termbox.KeyArrowRight:
		if c.Col < battlefield.Cols-1 {
			c.Col++
		}
	default:
		return false
	}
	return true
}

// Action is a command together with the cursor square it was issued at.
type Action struct {
	Command Command
	Cursor  Cursor
}

// Event converts a peer action into the agent event it drives. Quit and
// None have no event.
func (a Action) Event() (protocol.Event, bool) {
	at := protocol.Event{Param0: uint16(a.Cursor.Row), Param1: uint16(a.Cursor.Col)}
	switch a.Command {
	case CommandStart:
		return protocol.Event{Type: protocol.EventStart}, true
	case CommandReset:
		return protocol.Event{Type: protocol.EventReset}, true
	case CommandPlaceEast:
		at.Type = protocol.EventEast
	case CommandPlaceSouth:
		at.Type = protocol.EventSouth
	case CommandFire:
		at.Type = protocol.EventSquareChosen
	default:
		return protocol.Event{}, false
	}
	return at, true
}

// Legend is the key help shown under the boards.
func Legend(snap agent.Snapshot) string {
	switch {
	case !snap.Human:
		return "s: start  r: reset  q: quit"
	case snap.State == agent.StateSetupBoats:
		return fmt.Sprintf("place %s: arrows move  e: east  d: south  s: start  q: quit", snap.NextBoat)
	default:
		return "arrows: move  enter: fire  s: start  r: reset  q: quit"
	}
}

const (
	boardTop    = 2
	cellWidth   = 2
	boardGap    = 6
	legendLines = 2
)

// Termbox draws both boards side by side in the terminal.
type Termbox struct {
	mu     sync.Mutex
	closed bool
	cursor Cursor
	last   agent.Snapshot
}

func NewTermbox() (*Termbox, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("display: termbox init: %w", err)
	}
	termbox.SetInputMode(termbox.InputEsc)
	return &Termbox{}, nil
}

func (t *Termbox) Render(snap agent.Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = snap
	return t.draw()
}

func (t *Termbox) draw() error {
	if t.closed {
		return nil
	}
	snap := &t.last
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		return err
	}
	drawText(0, 0, StatusLine(*snap), termbox.ColorWhite|termbox.AttrBold)

	left := 0
	right := 3 + battlefield.Cols*cellWidth + boardGap
	drawText(left, boardTop, "own", termbox.ColorDefault)
	drawText(right, boardTop, "opponent", termbox.ColorDefault)
	drawField(left, boardTop+1, &snap.Own)
	drawField(right, boardTop+1, &snap.Opp)
	if snap.Human {
		x := right
		if snap.State == agent.StateSetupBoats {
			x = left
		}
		drawCursor(x, boardTop+1, t.cursor)
	}

	drawText(0, boardTop+battlefield.Rows+legendLines+1, Legend(*snap), termbox.ColorDefault)
	return termbox.Flush()
}

func (t *Termbox) moveCursor(key termbox.Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cursor.Move(key) {
		return false
	}
	if err := t.draw(); err != nil {
		log.Warn().Err(err).Msg("display.Termbox.moveCursor")
	}
	return true
}

func (t *Termbox) action(cmd Command) Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Action{Command: cmd, Cursor: t.cursor}
}

// Poll reads key events until ctx ends or the operator quits. Arrow keys move
// the cursor; handle runs on the polling goroutine for everything else.
func (t *Termbox) Poll(ctx context.Context, handle func(Action)) {
	stop := context.AfterFunc(ctx, termbox.Interrupt)
	defer stop()
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventInterrupt:
			return
		case termbox.EventError:
			log.Warn().Err(ev.Err).Msg("display.Termbox.Poll")
			return
		case termbox.EventKey:
			if t.moveCursor(ev.Key) {
				continue
			}
			cmd := CommandForKey(ev.Key, ev.Ch)
			if cmd == CommandNone {
				continue
			}
			handle(t.action(cmd))
			if cmd == CommandQuit {
				return
			}
		}
	}
}

func (t *Termbox) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		termbox.Close()
	}
	return nil
}

func drawField(x, y int, f *battlefield.Field) {
	for c := 0; c < battlefield.Cols; c++ {
		termbox.SetCell(x+3+c*cellWidth, y, rune('0'+c), termbox.ColorYellow, termbox.ColorDefault)
	}
	grid := f.Grid()
	for r := 0; r < battlefield.Rows; r++ {
		termbox.SetCell(x, y+1+r, rune('0'+r), termbox.ColorYellow, termbox.ColorDefault)
		for c := 0; c < battlefield.Cols; c++ {
			sq := grid[r][c]
			termbox.SetCell(x+3+c*cellWidth, y+1+r, rune(sq.Symbol()), squareColor(sq), termbox.ColorDefault)
		}
	}
}

// drawCursor reverses the cell under c on the board drawn at (x, y).
func drawCursor(x, y int, c Cursor) {
	cx, cy := x+3+int(c.Col)*cellWidth, y+1+int(c.Row)
	w, h := termbox.Size()
	if cx >= w || cy >= h {
		return
	}
	cell := termbox.CellBuffer()[cy*w+cx]
	termbox.SetCell(cx, cy, cell.Ch, cell.Fg|termbox.AttrReverse, cell.Bg)
}

func squareColor(s battlefield.SquareStatus) termbox.Attribute {
	switch s {
	case battlefield.SquareHit:
		return termbox.ColorRed | termbox.AttrBold
	case battlefield.SquareMiss:
		return termbox.ColorBlue
	case battlefield.SquareUnknown, battlefield.SquareEmpty:
		return termbox.ColorDefault
	}
	if _, ok := s.Boat(); ok {
		return termbox.ColorCyan
	}
	return termbox.ColorMagenta
}

func drawText(x, y int, s string, fg termbox.Attribute) {
	for i, ch := range []rune(s) {
		termbox.SetCell(x+i, y, ch, fg, termbox.ColorDefault)
	}
}
