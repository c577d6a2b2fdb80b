package protocol

import "errors"

var (
	ErrBadChecksum         = errors.New("protocol: bad checksum")
	ErrPayloadTooLong      = errors.New("protocol: payload too long")
	ErrChecksumLength      = errors.New("protocol: checksum length invalid")
	ErrInvalidMessageTag   = errors.New("protocol: invalid message tag")
	ErrMessageParseFailure = errors.New("protocol: message parse failure")
	ErrNotEncodable        = errors.New("protocol: message type has no wire form")
)

// ErrorKind maps a decode error onto a short stable label.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrBadChecksum):
		return "bad_checksum"
	case errors.Is(err, ErrPayloadTooLong):
		return "payload_too_long"
	case errors.Is(err, ErrChecksumLength):
		return "checksum_length"
	case errors.Is(err, ErrInvalidMessageTag):
		return "invalid_tag"
	case errors.Is(err, ErrMessageParseFailure):
		return "parse_failure"
	default:
		return "other"
	}
}
