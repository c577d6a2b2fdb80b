package transport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind   = errors.New("transport: unknown kind")
	ErrInvalidConfig = errors.New("transport: invalid config")
)

type Kind string

const (
	KindSerial    Kind = "serial"
	KindTCP       Kind = "tcp"
	KindWebSocket Kind = "websocket"
	KindStdio     Kind = "stdio"
)

type Mode string

const (
	ModeListen Mode = "listen"
	ModeDial   Mode = "dial"
)

// Config selects one transport. Device and BaudRate apply to serial;
// Mode, Address and Path to tcp and websocket.
type Config struct {
	Kind     Kind
	Device   string
	BaudRate int
	Mode     Mode
	Address  string
	Path     string
}

func DefaultConfig() Config {
	return Config{
		Kind:     KindTCP,
		BaudRate: 115200,
		Mode:     ModeListen,
		Address:  "127.0.0.1:7070",
		Path:     "/link",
	}
}

func (c Config) Validate() error {
	switch c.Kind {
	case KindSerial:
		if strings.TrimSpace(c.Device) == "" {
			return fmt.Errorf("%w: serial device is required", ErrInvalidConfig)
		}
		if c.BaudRate <= 0 {
			return fmt.Errorf("%w: baud_rate must be > 0", ErrInvalidConfig)
		}
	case KindTCP, KindWebSocket:
		if c.Mode != ModeListen && c.Mode != ModeDial {
			return fmt.Errorf("%w: mode must be listen or dial, got %q", ErrInvalidConfig, c.Mode)
		}
		if strings.TrimSpace(c.Address) == "" {
			return fmt.Errorf("%w: address is required", ErrInvalidConfig)
		}
		if c.Kind == KindWebSocket && !strings.HasPrefix(c.Path, "/") {
			return fmt.Errorf("%w: websocket path must start with /", ErrInvalidConfig)
		}
	case KindStdio:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
	return nil
}

// Endpoint renders the address a peer dials or listens on.
func (c Config) Endpoint() string {
	switch c.Kind {
	case KindSerial:
		return fmt.Sprintf("%s@%d", c.Device, c.BaudRate)
	case KindWebSocket:
		return "ws://" + c.Address + c.Path
	case KindStdio:
		return "stdio"
	default:
		return c.Address
	}
}
