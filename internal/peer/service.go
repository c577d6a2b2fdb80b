// Package peer runs one battleboats player against a remote peer.
//
// Ownership boundary:
// - the decoder, agent and transmitter of a single link
// - the cooperative event loop that feeds them
// - trigger injection for admin and CLI surfaces
package peer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/battleboats/internal/agent"
	"github.com/danmuck/battleboats/internal/link"
	"github.com/danmuck/battleboats/internal/negotiation"
	"github.com/danmuck/battleboats/internal/observability"
	"github.com/danmuck/battleboats/internal/protocol"
	"github.com/danmuck/battleboats/internal/transport"
	"github.com/rs/zerolog/log"
)

var (
	ErrTriggerQueueFull = errors.New("peer: trigger queue full")
	ErrLinkClosed       = errors.New("peer: link closed by remote")
)

const (
	triggerQueueSize = 8
	readBufferSize   = 256
	readQueueSize    = 16
)

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Service owns one link. The loop goroutine is the only caller of the
// decoder, agent.Step and the transmitter.
type Service struct {
	cfg      ServiceConfig
	agent    *agent.Agent
	decoder  *protocol.Decoder
	tx       *link.Transmitter
	triggers chan protocol.Event
	linked   atomic.Bool

	obsMu     sync.RWMutex
	observers []func(agent.Snapshot)
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, _ := negotiation.ParseStrategy(cfg.Strategy)
	return &Service{
		cfg: cfg,
		agent: agent.New(agent.Config{
			Name:     cfg.Name,
			Strategy: strategy,
			Human:    cfg.Human,
			Seed:     cfg.Seed,
		}),
		decoder:  protocol.NewDecoder(),
		tx:       link.NewTransmitter(cfg.Link.BytesPerTick),
		triggers: make(chan protocol.Event, triggerQueueSize),
	}, nil
}

func (s *Service) Name() string {
	return s.cfg.Name
}

func (s *Service) Config() ServiceConfig {
	return s.cfg
}

func (s *Service) Snapshot() agent.Snapshot {
	return s.agent.Snapshot()
}

// Linked reports whether a peer link is currently being served.
func (s *Service) Linked() bool {
	return s.linked.Load()
}

// OnUpdate registers fn to receive a snapshot after every processed event
// that changed state or produced a message. fn runs on the loop goroutine.
func (s *Service) OnUpdate(fn func(agent.Snapshot)) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

// Trigger queues a local event such as Start or Reset for the loop.
func (s *Service) Trigger(ev protocol.Event) error {
	select {
	case s.triggers <- ev:
		log.Debug().Str("peer", s.cfg.Name).Stringer("event", ev.Type).Msg("peer.Service.Trigger")
		return nil
	default:
		return ErrTriggerQueueFull
	}
}

// Run opens the configured transport and serves it until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	conn, err := transport.Open(ctx, s.cfg.Transport, s.cfg.Link)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("peer: open transport: %w", err)
	}
	return s.Serve(ctx, conn)
}

// Serve runs the event loop over rw and closes it on return.
func (s *Service) Serve(ctx context.Context, rw io.ReadWriteCloser) error {
	defer rw.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.linked.Store(true)
	defer s.linked.Store(false)

	reads := make(chan []byte, readQueueSize)
	readErr := make(chan error, 1)
	go s.readLoop(ctx, rw, reads, readErr)

	tick := time.NewTicker(s.cfg.Link.TickInterval)
	defer tick.Stop()
	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	log.Info().Str("peer", s.cfg.Name).Bool("auto_start", s.cfg.AutoStart).Msg("peer.Service.Serve linked")
	if s.cfg.AutoStart {
		if err := s.handle(protocol.Event{Type: protocol.EventStart}); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("peer", s.cfg.Name).Msg("peer.Service.Serve shutdown")
			return nil
		case chunk := <-reads:
			for _, b := range chunk {
				ev := s.decoder.DecodeByte(b)
				if ev.IsNone() {
					continue
				}
				s.recordDecoded(ev)
				if err := s.handle(ev); err != nil {
					return err
				}
			}
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrLinkClosed
			}
			return fmt.Errorf("peer: read link: %w", err)
		case ev := <-s.triggers:
			if err := s.handle(ev); err != nil {
				return err
			}
		case <-tick.C:
			if err := s.transmit(rw); err != nil {
				return err
			}
		case <-heartbeat.C:
			snap := s.agent.Snapshot()
			log.Info().
				Str("peer", s.cfg.Name).
				Stringer("state", snap.State).
				Stringer("role", snap.Role).
				Uint16("turn", snap.Turn).
				Uint8("own_boats", snap.OwnBoats).
				Uint8("opp_boats", snap.OppBoats).
				Uint64("errors", snap.ErrorCount).
				Msg("peer.Service.heartbeat")
		}
	}
}

func (s *Service) readLoop(ctx context.Context, r io.Reader, out chan<- []byte, errc chan<- error) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errc <- err
			return
		}
	}
}

func (s *Service) transmit(w io.Writer) error {
	if !s.tx.Busy() {
		return nil
	}
	if wd, ok := w.(writeDeadliner); ok && s.cfg.Link.WriteTimeout > 0 {
		_ = wd.SetWriteDeadline(time.Now().Add(s.cfg.Link.WriteTimeout))
	}
	msg := s.tx.Current()
	sent, err := s.tx.Tick(w)
	if err != nil {
		return err
	}
	if !sent {
		return nil
	}
	observability.RecordMessageSent(s.cfg.Name, msg.Type.String(), len(protocol.Encode(msg)))
	return s.handle(protocol.Event{Type: protocol.EventMessageSent})
}

// handle steps the agent with ev and starts transmitting its reply. A busy
// transmitter is returned as a fatal error.
func (s *Service) handle(ev protocol.Event) error {
	before := s.agent.State()
	msg := s.agent.Step(ev)
	after := s.agent.State()

	if before != after {
		observability.RecordTransition(s.cfg.Name, before.String(), after.String())
		if after == agent.StateEndScreen {
			observability.RecordGameOver(s.cfg.Name, s.agent.Outcome().String())
		}
	}
	if !msg.IsNone() {
		if err := s.tx.Start(msg); err != nil {
			log.Error().Str("peer", s.cfg.Name).Err(err).Msg("peer.Service.handle transmit")
			return err
		}
	}
	if before != after || !msg.IsNone() {
		s.notify()
	}
	return nil
}

func (s *Service) recordDecoded(ev protocol.Event) {
	if ev.Type == protocol.EventError {
		observability.RecordDecodeError(s.cfg.Name, protocol.ErrorKind(ev.Err))
		return
	}
	observability.RecordFrameDecoded(s.cfg.Name, ev.Type.String())
}

func (s *Service) notify() {
	s.obsMu.RLock()
	observers := s.observers
	s.obsMu.RUnlock()
	if len(observers) == 0 {
		return
	}
	snap := s.agent.Snapshot()
	for _, fn := range observers {
		fn(snap)
	}
}
