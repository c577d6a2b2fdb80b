package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/danmuck/battleboats/internal/config"
	"github.com/danmuck/battleboats/internal/peer"
	"github.com/danmuck/battleboats/internal/testutil/testlog"
	"github.com/danmuck/battleboats/internal/transport"
)

func TestLoadServiceConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadServiceConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "boat.alpha" {
		t.Fatalf("unexpected name: %q", cfg.Name)
	}
	if cfg.Human {
		t.Fatalf("unexpected human player")
	}
	if cfg.Seed != 42 || !cfg.AutoStart {
		t.Fatalf("unexpected seed/auto_start: %d %v", cfg.Seed, cfg.AutoStart)
	}
	if cfg.HeartbeatInterval != 5*time.Second {
		t.Fatalf("unexpected heartbeat: %v", cfg.HeartbeatInterval)
	}
	if cfg.AdminListenAddr != "127.0.0.1:7081" {
		t.Fatalf("unexpected admin listen: %q", cfg.AdminListenAddr)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", cfg.CorsOrigins)
	}
	if cfg.AdminToken != "change-me" {
		t.Fatalf("unexpected admin token: %q", cfg.AdminToken)
	}
	if cfg.Display != peer.DisplayNone {
		t.Fatalf("unexpected display: %q", cfg.Display)
	}
	if cfg.Transport.Kind != transport.KindTCP || cfg.Transport.Mode != transport.ModeDial {
		t.Fatalf("unexpected transport: %+v", cfg.Transport)
	}
	if cfg.Transport.Path != "/link" {
		t.Fatalf("expected default path to survive, got %q", cfg.Transport.Path)
	}
	if cfg.Link.TickInterval != 2*time.Millisecond || cfg.Link.BytesPerTick != 2 {
		t.Fatalf("unexpected link pacing: %+v", cfg.Link)
	}
	if cfg.Link.MaxDialAttempts != 0 {
		t.Fatalf("unexpected max dial attempts: %d", cfg.Link.MaxDialAttempts)
	}
	if cfg.Link.WriteTimeout != peer.DefaultServiceConfig().Link.WriteTimeout {
		t.Fatalf("expected default write timeout, got %v", cfg.Link.WriteTimeout)
	}
}

func TestLoadServiceConfigMatchesStrictLoader(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "boat.toml")
	if err := config.WriteTemplate(path, "boat.bravo", false); err != nil {
		t.Fatalf("write template: %v", err)
	}

	got, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	file, err := config.LoadPeerConfig(path)
	if err != nil {
		t.Fatalf("strict load template: %v", err)
	}
	want, err := config.ServiceConfig(file)
	if err != nil {
		t.Fatalf("convert template: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("loaders disagree:\n got=%+v\nwant=%+v", got, want)
	}
}

func TestLoadServiceConfigRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"unknown key": "name = \"boat\"\nturbo = true\n",
		"duration":    "heartbeat_interval = \"later\"\n",
		"link":        "[link]\ntick_interval = \"fast\"\n",
		"strategy":    "strategy = \"sneaky\"\n",
		"human":       "human = true\ndisplay = \"none\"\n",
		"syntax":      "name = \n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "boat.toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := loadServiceConfig(path); err == nil {
			t.Fatalf("expected %s to be rejected", name)
		}
	}
}

func TestLoggingConfigAvoidsLinkStreams(t *testing.T) {
	testlog.Start(t)
	cfg := peer.DefaultServiceConfig()
	cfg.Transport.Kind = transport.KindStdio
	if lc := loggingConfig(cfg); lc.Out != os.Stderr {
		t.Fatalf("expected stdio transport to log to stderr")
	}
	cfg.Display = peer.DisplayTermbox
	if lc := loggingConfig(cfg); lc.Out == os.Stderr || lc.Out == os.Stdout {
		t.Fatalf("expected termbox display to silence console logs")
	}
}
