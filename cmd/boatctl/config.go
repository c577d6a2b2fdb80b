package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/battleboats/internal/config"
	"github.com/danmuck/battleboats/internal/peer"
	"github.com/danmuck/battleboats/internal/transport"
)

// loadServiceConfig overlays every key defined in path onto the service
// defaults. Keys that are absent keep their default.
func loadServiceConfig(path string) (peer.ServiceConfig, error) {
	cfg := peer.DefaultServiceConfig()

	var raw config.PeerConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return peer.ServiceConfig{}, fmt.Errorf("load boatctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return peer.ServiceConfig{}, fmt.Errorf("load boatctl config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("name") {
		if name := strings.TrimSpace(raw.Name); name != "" {
			cfg.Name = name
		}
	}
	if meta.IsDefined("strategy") {
		cfg.Strategy = strings.TrimSpace(raw.Strategy)
	}
	if meta.IsDefined("human") {
		cfg.Human = raw.Human
	}
	if meta.IsDefined("seed") {
		cfg.Seed = raw.Seed
	}
	if meta.IsDefined("auto_start") {
		cfg.AutoStart = raw.AutoStart
	}
	if meta.IsDefined("heartbeat_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HeartbeatInterval))
		if err != nil {
			return peer.ServiceConfig{}, fmt.Errorf("parse heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("display") {
		cfg.Display = strings.ToLower(strings.TrimSpace(raw.Display))
	}

	if meta.IsDefined("transport", "kind") {
		cfg.Transport.Kind = transport.Kind(strings.ToLower(strings.TrimSpace(raw.Transport.Kind)))
	}
	if meta.IsDefined("transport", "mode") {
		cfg.Transport.Mode = transport.Mode(strings.ToLower(strings.TrimSpace(raw.Transport.Mode)))
	}
	if meta.IsDefined("transport", "address") {
		cfg.Transport.Address = strings.TrimSpace(raw.Transport.Address)
	}
	if meta.IsDefined("transport", "path") {
		cfg.Transport.Path = strings.TrimSpace(raw.Transport.Path)
	}
	if meta.IsDefined("transport", "device") {
		cfg.Transport.Device = strings.TrimSpace(raw.Transport.Device)
	}
	if meta.IsDefined("transport", "baud_rate") {
		cfg.Transport.BaudRate = raw.Transport.BaudRate
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{key: "tick_interval", raw: raw.Link.TickInterval, dst: &cfg.Link.TickInterval},
		{key: "dial_timeout", raw: raw.Link.DialTimeout, dst: &cfg.Link.DialTimeout},
		{key: "write_timeout", raw: raw.Link.WriteTimeout, dst: &cfg.Link.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined("link", d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return peer.ServiceConfig{}, fmt.Errorf("parse link.%s: %w", d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("link", "bytes_per_tick") {
		cfg.Link.BytesPerTick = raw.Link.BytesPerTick
	}
	if meta.IsDefined("link", "max_dial_attempts") {
		cfg.Link.MaxDialAttempts = raw.Link.MaxDialAttempts
	}

	if err := cfg.Validate(); err != nil {
		return peer.ServiceConfig{}, fmt.Errorf("load boatctl config (%s): %w", path, err)
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
