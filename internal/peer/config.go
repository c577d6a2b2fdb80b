package peer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/battleboats/internal/link"
	"github.com/danmuck/battleboats/internal/negotiation"
	"github.com/danmuck/battleboats/internal/transport"
)

var ErrInvalidConfig = errors.New("peer: invalid config")

// Display modes for the local board view.
const (
	DisplayNone    = "none"
	DisplayText    = "text"
	DisplayTermbox = "termbox"
)

// ServiceConfig configures one peer process.
type ServiceConfig struct {
	Name              string
	Strategy          string
	Human             bool
	Seed              int64
	AutoStart         bool
	HeartbeatInterval time.Duration
	AdminListenAddr   string
	CorsOrigins       []string
	AdminToken        string
	Display           string
	Transport         transport.Config
	Link              link.Config
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:              "boat.local",
		Strategy:          negotiation.StrategyHonest.String(),
		HeartbeatInterval: 10 * time.Second,
		AdminListenAddr:   "127.0.0.1:7080",
		CorsOrigins:       []string{"http://localhost:3000"},
		Display:           DisplayText,
		Transport:         transport.DefaultConfig(),
		Link:              link.DefaultConfig(),
	}
}

func (c ServiceConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if _, err := negotiation.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: heartbeat_interval must be > 0", ErrInvalidConfig)
	}
	switch c.Display {
	case DisplayNone, DisplayText, DisplayTermbox:
	default:
		return fmt.Errorf("%w: unknown display %q", ErrInvalidConfig, c.Display)
	}
	if c.Human && c.Display != DisplayTermbox {
		return fmt.Errorf("%w: human play needs display %q", ErrInvalidConfig, DisplayTermbox)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Link.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
