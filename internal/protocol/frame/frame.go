package frame

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// NMEA-style limits: a frame never exceeds 82 bytes including $, *, the two
// checksum characters and CR LF.
const (
	StartDelimiter    byte = '$'
	ChecksumDelimiter byte = '*'
	CR                byte = '\r'
	LF                byte = '\n'

	MaxFrameLen   = 82
	ChecksumLen   = 2
	MaxPayloadLen = MaxFrameLen - 1 - 1 - ChecksumLen - 1 - 1
)

var (
	ErrFrameTooLong          = errors.New("frame: frame exceeds max length")
	ErrPayloadTooLarge       = errors.New("frame: payload too large")
	ErrMissingChecksumMarker = errors.New("frame: missing checksum delimiter")
	ErrChecksumLength        = errors.New("frame: checksum must be two characters")
	ErrChecksumNotHex        = errors.New("frame: checksum is not hex")
)

// Frame is one complete wire message with its transmitted checksum text.
type Frame struct {
	Payload  []byte
	Checksum string
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxFrameLen int
}

func DefaultLimits() Limits {
	return Limits{MaxFrameLen: MaxFrameLen}
}

func (l Limits) maxPayload() int {
	return l.MaxFrameLen - (MaxFrameLen - MaxPayloadLen)
}

// Checksum is the running XOR of every payload byte.
func Checksum(payload []byte) uint8 {
	var cs uint8
	for _, b := range payload {
		cs ^= b
	}
	return cs
}

// FormatChecksum renders cs as two uppercase hex digits.
func FormatChecksum(cs uint8) string {
	return fmt.Sprintf("%02X", cs)
}

// Wrap renders $<payload>*<CS>\r\n.
func Wrap(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+MaxFrameLen-MaxPayloadLen)
	out = append(out, StartDelimiter)
	out = append(out, payload...)
	out = append(out, ChecksumDelimiter)
	out = append(out, FormatChecksum(Checksum(payload))...)
	out = append(out, CR, LF)
	return out
}

func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) > limits.maxPayload() {
		return ErrPayloadTooLarge
	}
	_, err := w.Write(Wrap(payload))
	return err
}

// Scanner assembles frames one byte at a time. It keeps its buffer between
// calls; each link owns its own Scanner.
type Scanner struct {
	limits    Limits
	buf       []byte
	recording bool
}

func NewScanner(limits Limits) *Scanner {
	if limits.MaxFrameLen <= 0 {
		limits = DefaultLimits()
	}
	return &Scanner{
		limits: limits,
		buf:    make([]byte, 0, limits.MaxFrameLen),
	}
}

func (s *Scanner) Recording() bool {
	return s.recording
}

func (s *Scanner) Reset() {
	s.buf = s.buf[:0]
	s.recording = false
}

// Step consumes b. It reports ok once CR LF closes a well-formed frame, and a
// non-nil error when the bytes since the last $ cannot form one. Either way
// recording stops until the next $.
func (s *Scanner) Step(b byte) (Frame, bool, error) {
	if b == StartDelimiter {
		s.buf = append(s.buf[:0], b)
		s.recording = true
		return Frame{}, false, nil
	}
	if !s.recording {
		return Frame{}, false, nil
	}
	if len(s.buf) >= s.limits.MaxFrameLen {
		s.Reset()
		return Frame{}, false, ErrFrameTooLong
	}
	s.buf = append(s.buf, b)

	n := len(s.buf)
	if b != LF || n < 3 || s.buf[n-2] != CR {
		return Frame{}, false, nil
	}
	s.recording = false

	body := s.buf[1 : n-2]
	star := bytes.LastIndexByte(body, ChecksumDelimiter)
	if star < 0 {
		return Frame{}, false, ErrMissingChecksumMarker
	}
	cs := body[star+1:]
	if len(cs) != ChecksumLen {
		return Frame{}, false, ErrChecksumLength
	}
	if !isHex(cs[0]) || !isHex(cs[1]) {
		return Frame{}, false, ErrChecksumNotHex
	}

	payload := make([]byte, star)
	copy(payload, body[:star])
	return Frame{Payload: payload, Checksum: string(cs)}, true, nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}
