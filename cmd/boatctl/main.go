package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/battleboats/internal/admin"
	"github.com/danmuck/battleboats/internal/agent"
	"github.com/danmuck/battleboats/internal/display"
	"github.com/danmuck/battleboats/internal/logging"
	"github.com/danmuck/battleboats/internal/peer"
	"github.com/danmuck/battleboats/internal/protocol"
	"github.com/danmuck/battleboats/internal/transport"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "cmd/boatctl/config.toml", "peer config path")
	start := flag.Bool("start", false, "challenge the peer as soon as the link is up")
	listPorts := flag.Bool("list-ports", false, "print the serial devices visible to this host and exit")
	flag.Parse()

	if *listPorts {
		if err := printSerialPorts(os.Stdout, transport.SerialPorts); err != nil {
			fmt.Fprintf(os.Stderr, "boatctl: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadServiceConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boatctl: %v\n", err)
		os.Exit(1)
	}
	if *start {
		cfg.AutoStart = true
	}
	logging.Configure(loggingConfig(cfg))

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("boatctl exited")
		os.Exit(1)
	}
}

// loggingConfig keeps console logs off any stream the peer link or the
// terminal renderer owns.
func loggingConfig(cfg peer.ServiceConfig) logging.Config {
	lc := logging.DefaultConfig(logging.ProfileRuntime)
	lc.App = cfg.Name
	switch {
	case cfg.Display == peer.DisplayTermbox:
		lc.Out = io.Discard
	case cfg.Transport.Kind == transport.KindStdio:
		lc.Out = os.Stderr
	}
	return lc
}

func run(cfg peer.ServiceConfig) error {
	svc, err := peer.NewService(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	defer renderer.Close()
	svc.OnUpdate(func(snap agent.Snapshot) {
		if err := renderer.Render(snap); err != nil {
			log.Warn().Err(err).Msg("boatctl render")
		}
	})
	if tb, ok := renderer.(*display.Termbox); ok {
		_ = tb.Render(svc.Snapshot())
		go tb.Poll(ctx, func(act display.Action) {
			if act.Command == display.CommandQuit {
				cancel()
				return
			}
			if ev, ok := act.Event(); ok {
				triggerOrWarn(svc, ev)
			}
		})
	}

	if cfg.AdminListenAddr != "" {
		srv := admin.NewServer(svc, admin.Config{
			CorsOrigins: cfg.CorsOrigins,
			Token:       cfg.AdminToken,
		})
		go func() {
			if err := srv.Run(ctx, cfg.AdminListenAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.AdminListenAddr).Msg("boatctl admin server")
			}
		}()
	}

	log.Info().
		Str("peer", cfg.Name).
		Str("strategy", cfg.Strategy).
		Bool("human", cfg.Human).
		Str("transport", string(cfg.Transport.Kind)).
		Str("endpoint", cfg.Transport.Endpoint()).
		Msg("boatctl starting")
	err = svc.Run(ctx)
	if errors.Is(err, peer.ErrLinkClosed) {
		log.Info().Str("peer", cfg.Name).Msg("boatctl peer closed the link")
		return nil
	}
	return err
}

func newRenderer(cfg peer.ServiceConfig) (display.Renderer, error) {
	switch cfg.Display {
	case peer.DisplayTermbox:
		tb, err := display.NewTermbox()
		if err != nil {
			return nil, err
		}
		return tb, nil
	case peer.DisplayText:
		if cfg.Transport.Kind == transport.KindStdio {
			return display.NewText(os.Stderr), nil
		}
		return display.NewText(os.Stdout), nil
	default:
		return display.Nop(), nil
	}
}

func triggerOrWarn(svc *peer.Service, ev protocol.Event) {
	if err := svc.Trigger(ev); err != nil {
		log.Warn().Err(err).Stringer("event", ev.Type).Msg("boatctl trigger")
	}
}

// printSerialPorts writes one device per line.
func printSerialPorts(w io.Writer, list func() ([]string, error)) error {
	ports, err := list()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}
	if len(ports) == 0 {
		_, err := fmt.Fprintln(w, "no serial ports found")
		return err
	}
	for _, p := range ports {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}
