package fields

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const Separator = ','

var (
	ErrFieldCount    = errors.New("fields: field count mismatch")
	ErrEmptyField    = errors.New("fields: empty field")
	ErrNotDecimal    = errors.New("fields: field is not unsigned decimal")
	ErrFieldOverflow = errors.New("fields: field exceeds width")
)

// Width is the storage class of one decimal field.
type Width uint8

const (
	WidthU8  Width = 8
	WidthU16 Width = 16
)

func (w Width) Max() uint16 {
	if w == WidthU8 {
		return 0xFF
	}
	return 0xFFFF
}

func (w Width) String() string {
	switch w {
	case WidthU8:
		return "u8"
	case WidthU16:
		return "u16"
	default:
		return fmt.Sprintf("width(%d)", uint8(w))
	}
}

// Encode renders values as comma separated decimals with no padding.
func Encode(values ...uint16) []byte {
	out := make([]byte, 0, len(values)*6)
	for i, v := range values {
		if i > 0 {
			out = append(out, Separator)
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return out
}

// Decode parses a comma separated list that must hold exactly len(widths)
// fields, each fitting its width.
func Decode(raw string, widths []Width) ([]uint16, error) {
	parts := strings.Split(raw, string(Separator))
	if len(parts) != len(widths) {
		return nil, fmt.Errorf("%w: got %d want %d", ErrFieldCount, len(parts), len(widths))
	}
	out := make([]uint16, len(parts))
	for i, part := range parts {
		v, err := decodeOne(part, widths[i])
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func decodeOne(raw string, w Width) (uint16, error) {
	if raw == "" {
		return 0, ErrEmptyField
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrNotDecimal, raw)
		}
	}
	v, err := strconv.ParseUint(raw, 10, int(w))
	if err != nil {
		return 0, fmt.Errorf("%w: %q as %s", ErrFieldOverflow, raw, w)
	}
	return uint16(v), nil
}
