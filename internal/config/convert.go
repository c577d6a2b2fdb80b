package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/battleboats/internal/peer"
	"github.com/danmuck/battleboats/internal/transport"
)

// DefaultPeerConfig is the file form of peer.DefaultServiceConfig.
func DefaultPeerConfig() PeerConfig {
	svc := peer.DefaultServiceConfig()
	return PeerConfig{
		Name:              svc.Name,
		Strategy:          svc.Strategy,
		Human:             svc.Human,
		Seed:              svc.Seed,
		AutoStart:         svc.AutoStart,
		HeartbeatInterval: svc.HeartbeatInterval.String(),
		AdminAddr:         svc.AdminListenAddr,
		CorsOrigins:       append([]string(nil), svc.CorsOrigins...),
		AdminToken:        svc.AdminToken,
		Display:           svc.Display,
		Transport: TransportConfig{
			Kind:     string(svc.Transport.Kind),
			Mode:     string(svc.Transport.Mode),
			Address:  svc.Transport.Address,
			Path:     svc.Transport.Path,
			Device:   svc.Transport.Device,
			BaudRate: svc.Transport.BaudRate,
		},
		Link: LinkConfig{
			TickInterval:    svc.Link.TickInterval.String(),
			BytesPerTick:    svc.Link.BytesPerTick,
			DialTimeout:     svc.Link.DialTimeout.String(),
			WriteTimeout:    svc.Link.WriteTimeout.String(),
			MaxDialAttempts: svc.Link.MaxDialAttempts,
		},
	}
}

// ServiceConfig applies every non-empty value in cfg onto the service
// defaults and validates the result.
func ServiceConfig(cfg PeerConfig) (peer.ServiceConfig, error) {
	out := peer.DefaultServiceConfig()

	if v := strings.TrimSpace(cfg.Name); v != "" {
		out.Name = v
	}
	if v := strings.TrimSpace(cfg.Strategy); v != "" {
		out.Strategy = v
	}
	out.Human = cfg.Human
	out.Seed = cfg.Seed
	out.AutoStart = cfg.AutoStart
	if err := parseDuration("heartbeat_interval", cfg.HeartbeatInterval, &out.HeartbeatInterval); err != nil {
		return peer.ServiceConfig{}, err
	}
	if v := strings.TrimSpace(cfg.AdminAddr); v != "" {
		out.AdminListenAddr = v
	}
	if cfg.CorsOrigins != nil {
		out.CorsOrigins = cfg.CorsOrigins
	}
	out.AdminToken = strings.TrimSpace(cfg.AdminToken)
	if v := strings.TrimSpace(cfg.Display); v != "" {
		out.Display = v
	}

	t := cfg.Transport
	if v := strings.TrimSpace(t.Kind); v != "" {
		out.Transport.Kind = transport.Kind(strings.ToLower(v))
	}
	if v := strings.TrimSpace(t.Mode); v != "" {
		out.Transport.Mode = transport.Mode(strings.ToLower(v))
	}
	if v := strings.TrimSpace(t.Address); v != "" {
		out.Transport.Address = v
	}
	if v := strings.TrimSpace(t.Path); v != "" {
		out.Transport.Path = v
	}
	out.Transport.Device = strings.TrimSpace(t.Device)
	if t.BaudRate != 0 {
		out.Transport.BaudRate = t.BaudRate
	}

	l := cfg.Link
	if err := parseDuration("link.tick_interval", l.TickInterval, &out.Link.TickInterval); err != nil {
		return peer.ServiceConfig{}, err
	}
	if l.BytesPerTick != 0 {
		out.Link.BytesPerTick = l.BytesPerTick
	}
	if err := parseDuration("link.dial_timeout", l.DialTimeout, &out.Link.DialTimeout); err != nil {
		return peer.ServiceConfig{}, err
	}
	if err := parseDuration("link.write_timeout", l.WriteTimeout, &out.Link.WriteTimeout); err != nil {
		return peer.ServiceConfig{}, err
	}
	if l.MaxDialAttempts != 0 {
		out.Link.MaxDialAttempts = l.MaxDialAttempts
	}

	if err := out.Validate(); err != nil {
		return peer.ServiceConfig{}, err
	}
	return out, nil
}

func parseDuration(key, raw string, dst *time.Duration) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}
