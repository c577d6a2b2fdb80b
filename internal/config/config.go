// Package config owns the on-disk TOML shape of a peer config: the template
// written by configgen and the strict loader used to validate it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

var ErrConfigExists = errors.New("config: file already exists")

type PeerConfig struct {
	Name              string          `toml:"name"`
	Strategy          string          `toml:"strategy"`
	Human             bool            `toml:"human"`
	Seed              int64           `toml:"seed"`
	AutoStart         bool            `toml:"auto_start"`
	HeartbeatInterval string          `toml:"heartbeat_interval"`
	AdminAddr         string          `toml:"admin_addr"`
	CorsOrigins       []string        `toml:"cors_origins"`
	AdminToken        string          `toml:"admin_token"`
	Display           string          `toml:"display"`
	Transport         TransportConfig `toml:"transport"`
	Link              LinkConfig      `toml:"link"`
}

type TransportConfig struct {
	Kind     string `toml:"kind"`
	Mode     string `toml:"mode"`
	Address  string `toml:"address"`
	Path     string `toml:"path"`
	Device   string `toml:"device"`
	BaudRate int    `toml:"baud_rate"`
}

type LinkConfig struct {
	TickInterval    string `toml:"tick_interval"`
	BytesPerTick    int    `toml:"bytes_per_tick"`
	DialTimeout     string `toml:"dial_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	MaxDialAttempts int    `toml:"max_dial_attempts"`
}

// LoadPeerConfig decodes path strictly: unknown keys are errors. The result
// is validated by converting it to a service config.
func LoadPeerConfig(path string) (PeerConfig, error) {
	var cfg PeerConfig
	if err := loadToml(path, &cfg); err != nil {
		return PeerConfig{}, err
	}
	if err := ValidatePeerConfig(cfg); err != nil {
		return PeerConfig{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func ValidatePeerConfig(cfg PeerConfig) error {
	_, err := ServiceConfig(cfg)
	return err
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config parse failed (%s): %w\n%s", path, err, strict.String())
		}
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// Template renders the default peer config for name.
func Template(name string) (string, error) {
	cfg := DefaultPeerConfig()
	if name != "" {
		cfg.Name = name
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("config render failed: %w", err)
	}
	return string(out), nil
}

func WriteTemplate(path, name string, overwrite bool) error {
	template, err := Template(name)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
