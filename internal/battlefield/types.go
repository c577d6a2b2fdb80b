package battlefield

import "fmt"

const (
	Rows = 6
	Cols = 10
)

// SquareStatus is the content of one grid cell.
type SquareStatus uint8

const (
	SquareEmpty SquareStatus = iota
	SquareSmallBoat
	SquareMediumBoat
	SquareLargeBoat
	SquareHugeBoat
	SquareUnknown
	SquareHit
	SquareMiss
	SquareInvalid
)

func (s SquareStatus) String() string {
	switch s {
	case SquareEmpty:
		return "empty"
	case SquareSmallBoat:
		return "small_boat"
	case SquareMediumBoat:
		return "medium_boat"
	case SquareLargeBoat:
		return "large_boat"
	case SquareHugeBoat:
		return "huge_boat"
	case SquareUnknown:
		return "unknown"
	case SquareHit:
		return "hit"
	case SquareMiss:
		return "miss"
	case SquareInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("square(%d)", uint8(s))
	}
}

// Symbol is the one-character board glyph for s.
func (s SquareStatus) Symbol() byte {
	switch s {
	case SquareEmpty:
		return '.'
	case SquareSmallBoat:
		return '3'
	case SquareMediumBoat:
		return '4'
	case SquareLargeBoat:
		return '5'
	case SquareHugeBoat:
		return '6'
	case SquareUnknown:
		return '?'
	case SquareHit:
		return 'X'
	case SquareMiss:
		return 'o'
	default:
		return '!'
	}
}

// Boat reports which boat occupies a cell marked s.
func (s SquareStatus) Boat() (BoatType, bool) {
	switch s {
	case SquareSmallBoat:
		return BoatSmall, true
	case SquareMediumBoat:
		return BoatMedium, true
	case SquareLargeBoat:
		return BoatLarge, true
	case SquareHugeBoat:
		return BoatHuge, true
	default:
		return 0, false
	}
}

type BoatType uint8

const (
	BoatSmall BoatType = iota
	BoatMedium
	BoatLarge
	BoatHuge
)

// Boats lists every boat in placement order.
var Boats = [...]BoatType{BoatSmall, BoatMedium, BoatLarge, BoatHuge}

const numBoats = len(Boats)

func (b BoatType) valid() bool {
	return b <= BoatHuge
}

func (b BoatType) Size() uint8 {
	switch b {
	case BoatSmall:
		return 3
	case BoatMedium:
		return 4
	case BoatLarge:
		return 5
	case BoatHuge:
		return 6
	default:
		return 0
	}
}

func (b BoatType) Square() SquareStatus {
	switch b {
	case BoatSmall:
		return SquareSmallBoat
	case BoatMedium:
		return SquareMediumBoat
	case BoatLarge:
		return SquareLargeBoat
	case BoatHuge:
		return SquareHugeBoat
	default:
		return SquareInvalid
	}
}

// StatusBit is the boat's flag in BoatStates.
func (b BoatType) StatusBit() uint8 {
	if !b.valid() {
		return 0
	}
	return 1 << b
}

func (b BoatType) SunkResult() ShotResult {
	switch b {
	case BoatSmall:
		return ResultSmallSunk
	case BoatMedium:
		return ResultMediumSunk
	case BoatLarge:
		return ResultLargeSunk
	default:
		return ResultHugeSunk
	}
}

func (b BoatType) String() string {
	switch b {
	case BoatSmall:
		return "small"
	case BoatMedium:
		return "medium"
	case BoatLarge:
		return "large"
	case BoatHuge:
		return "huge"
	default:
		return fmt.Sprintf("boat(%d)", uint8(b))
	}
}

// Boat status flags returned by BoatStates.
const (
	StatusSmall  uint8 = 0x1
	StatusMedium uint8 = 0x2
	StatusLarge  uint8 = 0x4
	StatusHuge   uint8 = 0x8
	StatusAll          = StatusSmall | StatusMedium | StatusLarge | StatusHuge
)

type Direction uint8

const (
	DirectionEast Direction = iota
	DirectionSouth
)

func (d Direction) String() string {
	if d == DirectionSouth {
		return "south"
	}
	return "east"
}

func (d Direction) step() (dr, dc int) {
	if d == DirectionSouth {
		return 1, 0
	}
	return 0, 1
}

// ShotResult is the wire code reported back for a shot.
type ShotResult uint8

const (
	ResultMiss ShotResult = iota
	ResultHit
	ResultSmallSunk
	ResultMediumSunk
	ResultLargeSunk
	ResultHugeSunk
)

func (r ShotResult) String() string {
	switch r {
	case ResultMiss:
		return "miss"
	case ResultHit:
		return "hit"
	case ResultSmallSunk:
		return "small_sunk"
	case ResultMediumSunk:
		return "medium_sunk"
	case ResultLargeSunk:
		return "large_sunk"
	case ResultHugeSunk:
		return "huge_sunk"
	default:
		return fmt.Sprintf("result(%d)", uint8(r))
	}
}

// Sunk reports which boat a sunk result names.
func (r ShotResult) Sunk() (BoatType, bool) {
	switch r {
	case ResultSmallSunk:
		return BoatSmall, true
	case ResultMediumSunk:
		return BoatMedium, true
	case ResultLargeSunk:
		return BoatLarge, true
	case ResultHugeSunk:
		return BoatHuge, true
	default:
		return 0, false
	}
}

// Guess is one shot and, once resolved, its result.
type Guess struct {
	Row    uint8
	Col    uint8
	Result ShotResult
}

// NoGuess signals that no Unknown cell remains.
var NoGuess = Guess{Row: 0xFF, Col: 0xFF}

func inBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}
