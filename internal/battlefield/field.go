// Package battlefield holds the grid model for one side of a match: the own
// field with placed boats and the knowledge field tracking shots at the
// opponent.
package battlefield

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
)

var (
	ErrPlacementOutOfBounds = errors.New("battlefield: placement out of bounds")
	ErrPlacementOverlap     = errors.New("battlefield: placement overlaps another boat")
	ErrUnknownBoat          = errors.New("battlefield: unknown boat type")
	ErrBoatAlreadyPlaced    = errors.New("battlefield: boat already placed")
	ErrRepeatedAttack       = errors.New("battlefield: square already attacked")
	ErrPlacementExhausted   = errors.New("battlefield: no placement found")
)

// maxPlacementAttempts bounds random placement per boat.
const maxPlacementAttempts = 10000

type Field struct {
	grid   [Rows][Cols]SquareStatus
	lives  [numBoats]uint8
	placed [numBoats]bool
}

// NewOwnField returns an empty field with no boats and zero lives.
func NewOwnField() *Field {
	f := &Field{}
	f.resetOwn()
	return f
}

// NewOpponentField returns an all-Unknown field assuming every boat afloat.
func NewOpponentField() *Field {
	f := &Field{}
	f.resetOpponent()
	return f
}

// Init resets both fields in place.
func Init(own, opp *Field) {
	own.resetOwn()
	opp.resetOpponent()
}

func (f *Field) resetOwn() {
	f.fill(SquareEmpty)
	f.lives = [numBoats]uint8{}
	f.placed = [numBoats]bool{}
}

func (f *Field) resetOpponent() {
	f.fill(SquareUnknown)
	for _, b := range Boats {
		f.lives[b] = b.Size()
		f.placed[b] = true
	}
}

func (f *Field) fill(s SquareStatus) {
	for r := range f.grid {
		for c := range f.grid[r] {
			f.grid[r][c] = s
		}
	}
}

func (f *Field) Status(row, col uint8) SquareStatus {
	if !inBounds(int(row), int(col)) {
		return SquareInvalid
	}
	return f.grid[row][col]
}

// SetStatus writes s and returns the previous value. Out of range writes are
// ignored and return SquareInvalid.
func (f *Field) SetStatus(row, col uint8, s SquareStatus) SquareStatus {
	if !inBounds(int(row), int(col)) {
		return SquareInvalid
	}
	old := f.grid[row][col]
	f.grid[row][col] = s
	return old
}

// Lives is the remaining hit count of boat, zero for unknown boats.
func (f *Field) Lives(boat BoatType) uint8 {
	if !boat.valid() {
		return 0
	}
	return f.lives[boat]
}

func (f *Field) Placed(boat BoatType) bool {
	return boat.valid() && f.placed[boat]
}

// NextUnplaced is the smallest boat not yet on the field.
func (f *Field) NextUnplaced() (BoatType, bool) {
	for _, b := range Boats {
		if !f.placed[b] {
			return b, true
		}
	}
	return 0, false
}

// Grid returns a copy of every cell.
func (f *Field) Grid() [Rows][Cols]SquareStatus {
	return f.grid
}

// AddBoat places boat starting at (row, col) and extending toward dir. The
// field is unchanged unless every cell is in bounds and empty.
func (f *Field) AddBoat(row, col uint8, dir Direction, boat BoatType) error {
	if !boat.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownBoat, uint8(boat))
	}
	if f.placed[boat] {
		return fmt.Errorf("%w: %s", ErrBoatAlreadyPlaced, boat)
	}
	dr, dc := dir.step()
	size := int(boat.Size())
	for i := 0; i < size; i++ {
		r, c := int(row)+dr*i, int(col)+dc*i
		if !inBounds(r, c) {
			return fmt.Errorf("%w: %s at (%d,%d) %s", ErrPlacementOutOfBounds, boat, row, col, dir)
		}
		if f.grid[r][c] != SquareEmpty {
			return fmt.Errorf("%w: %s at (%d,%d)", ErrPlacementOverlap, boat, r, c)
		}
	}
	for i := 0; i < size; i++ {
		f.grid[int(row)+dr*i][int(col)+dc*i] = boat.Square()
	}
	f.lives[boat] = boat.Size()
	f.placed[boat] = true
	return nil
}

// RegisterAttack resolves an incoming shot against the own field, fills
// g.Result and returns the cell's previous status. A shot at a cell already
// resolved to Hit or Miss reports that settled result, changes nothing and
// returns ErrRepeatedAttack.
func (f *Field) RegisterAttack(g *Guess) (SquareStatus, error) {
	if !inBounds(int(g.Row), int(g.Col)) {
		g.Result = ResultMiss
		return SquareInvalid, nil
	}
	current := f.grid[g.Row][g.Col]
	switch current {
	case SquareEmpty:
		f.grid[g.Row][g.Col] = SquareMiss
		g.Result = ResultMiss
		return current, nil
	case SquareHit:
		g.Result = ResultHit
		return current, ErrRepeatedAttack
	case SquareMiss:
		g.Result = ResultMiss
		return current, ErrRepeatedAttack
	}

	boat, ok := current.Boat()
	if !ok {
		g.Result = ResultMiss
		return current, nil
	}
	f.grid[g.Row][g.Col] = SquareHit
	if f.lives[boat] > 0 {
		f.lives[boat]--
	}
	if f.lives[boat] == 0 {
		g.Result = boat.SunkResult()
	} else {
		g.Result = ResultHit
	}
	return current, nil
}

// UpdateKnowledge records the result of our own shot on the opponent field
// and returns the cell's previous status.
func (f *Field) UpdateKnowledge(g Guess) SquareStatus {
	if !inBounds(int(g.Row), int(g.Col)) {
		return SquareInvalid
	}
	old := f.grid[g.Row][g.Col]
	switch g.Result {
	case ResultMiss:
		f.grid[g.Row][g.Col] = SquareEmpty
	case ResultHit:
		f.grid[g.Row][g.Col] = SquareHit
	default:
		if boat, ok := g.Result.Sunk(); ok {
			f.grid[g.Row][g.Col] = SquareHit
			f.lives[boat] = 0
		}
	}
	return old
}

// BoatStates has one StatusBit set per boat with lives remaining.
func (f *Field) BoatStates() uint8 {
	var out uint8
	for _, b := range Boats {
		if f.lives[b] > 0 {
			out |= b.StatusBit()
		}
	}
	return out
}

// AIPlaceAllBoats places every unplaced boat at random origins sampled so the
// boat fits its orientation.
func (f *Field) AIPlaceAllBoats(rng *rand.Rand) error {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	for _, boat := range Boats {
		if f.placed[boat] {
			continue
		}
		size := int(boat.Size())
		placed := false
		for attempt := 0; attempt < maxPlacementAttempts && !placed; attempt++ {
			dir := DirectionEast
			if rng.Intn(2) == 1 {
				dir = DirectionSouth
			}
			rowSpan, colSpan := Rows, Cols
			if dir == DirectionSouth {
				rowSpan = Rows - size + 1
			} else {
				colSpan = Cols - size + 1
			}
			row, col := uint8(rng.Intn(rowSpan)), uint8(rng.Intn(colSpan))
			if err := f.AddBoat(row, col, dir, boat); err == nil {
				placed = true
				log.Debug().
					Stringer("boat", boat).
					Uint8("row", row).
					Uint8("col", col).
					Stringer("dir", dir).
					Int("attempts", attempt+1).
					Msg("battlefield.Field.AIPlaceAllBoats placed")
			}
		}
		if !placed {
			return fmt.Errorf("%w: %s", ErrPlacementExhausted, boat)
		}
	}
	return nil
}

// AIDecideGuess returns the first Unknown cell in row-major order, or
// NoGuess and false when none remain.
func (f *Field) AIDecideGuess() (Guess, bool) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if f.grid[r][c] == SquareUnknown {
				return Guess{Row: uint8(r), Col: uint8(c)}, true
			}
		}
	}
	return NoGuess, false
}

func (f *Field) String() string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', 0)
	fmt.Fprint(tw, "\t")
	for c := 0; c < Cols; c++ {
		fmt.Fprintf(tw, "%d\t", c)
	}
	fmt.Fprintln(tw)
	for r := 0; r < Rows; r++ {
		fmt.Fprintf(tw, "%d\t", r)
		for c := 0; c < Cols; c++ {
			fmt.Fprintf(tw, "%c\t", f.grid[r][c].Symbol())
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	return buf.String()
}
