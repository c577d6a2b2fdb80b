package link

import (
	"errors"
	"time"
)

var ErrInvalidConfig = errors.New("link: invalid config")

// BackoffConfig defines reconnect backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config paces the transmitter and bounds transport setup.
type Config struct {
	TickInterval    time.Duration
	BytesPerTick    int
	DialTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxDialAttempts int
	Backoff         BackoffConfig
}

// DefaultConfig sends one character per millisecond.
func DefaultConfig() Config {
	return Config{
		TickInterval:    time.Millisecond,
		BytesPerTick:    1,
		DialTimeout:     5 * time.Second,
		WriteTimeout:    2 * time.Second,
		MaxDialAttempts: 10,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("tick_interval must be > 0"))
	}
	if c.BytesPerTick <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("bytes_per_tick must be > 0"))
	}
	if c.MaxDialAttempts < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("max_dial_attempts must be >= 0"))
	}
	if c.Backoff.Multiplier < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("backoff multiplier must be >= 0"))
	}
	return nil
}
