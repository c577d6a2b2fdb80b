package transport

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/danmuck/battleboats/internal/link"
	"github.com/rs/zerolog/log"
)

// Acceptor waits for the single remote peer of a listening transport.
type Acceptor interface {
	Addr() string
	Accept(ctx context.Context) (io.ReadWriteCloser, error)
	Close() error
}

// Open establishes the link described by cfg, blocking until a peer is
// connected or ctx ends.
func Open(ctx context.Context, cfg Config, lcfg link.Config) (io.ReadWriteCloser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("kind", string(cfg.Kind)).
		Str("mode", string(cfg.Mode)).
		Str("endpoint", cfg.Endpoint()).
		Msg("transport.Open")

	switch cfg.Kind {
	case KindSerial:
		return OpenSerial(cfg.Device, cfg.BaudRate)
	case KindStdio:
		return Stdio(), nil
	case KindTCP:
		if cfg.Mode == ModeDial {
			return DialTCP(ctx, cfg.Address, lcfg)
		}
		acc, err := ListenTCP(ctx, cfg.Address)
		if err != nil {
			return nil, err
		}
		return acceptOne(ctx, acc)
	case KindWebSocket:
		if cfg.Mode == ModeDial {
			return DialWebSocket(ctx, cfg.Endpoint(), lcfg)
		}
		acc, err := ListenWebSocket(ctx, cfg.Address, cfg.Path, lcfg.WriteTimeout)
		if err != nil {
			return nil, err
		}
		return acceptOne(ctx, acc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

func acceptOne(ctx context.Context, acc Acceptor) (io.ReadWriteCloser, error) {
	defer acc.Close()
	log.Info().Str("addr", acc.Addr()).Msg("transport.acceptOne waiting for peer")
	conn, err := acc.Accept(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Str("addr", acc.Addr()).Msg("transport.acceptOne peer connected")
	return conn, nil
}

// dialWithRetry retries dial with link backoff until it succeeds,
// MaxDialAttempts is reached, or ctx ends. Zero attempts means unlimited.
func dialWithRetry(
	ctx context.Context,
	lcfg link.Config,
	target string,
	dial func(ctx context.Context) (io.ReadWriteCloser, error),
) (io.ReadWriteCloser, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var lastErr error
	for attempt := 1; lcfg.MaxDialAttempts == 0 || attempt <= lcfg.MaxDialAttempts; attempt++ {
		dctx := ctx
		cancel := context.CancelFunc(func() {})
		if lcfg.DialTimeout > 0 {
			dctx, cancel = context.WithTimeout(ctx, lcfg.DialTimeout)
		}
		conn, err := dial(dctx)
		cancel()
		if err == nil {
			log.Info().Str("target", target).Int("attempt", attempt).Msg("transport.dialWithRetry connected")
			return conn, nil
		}
		lastErr = err

		delay := link.NextBackoffDelay(lcfg.Backoff, attempt, rng)
		log.Warn().
			Err(err).
			Str("target", target).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("transport.dialWithRetry failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("transport: dial %s: giving up after %d attempts: %w", target, lcfg.MaxDialAttempts, lastErr)
}

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error {
	return nil
}

// Stdio plays over the process's standard input and output.
func Stdio() io.ReadWriteCloser {
	return stdio{Reader: os.Stdin, Writer: os.Stdout}
}
