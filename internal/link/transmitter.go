package link

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/danmuck/battleboats/internal/protocol"
	"github.com/rs/zerolog/log"
)

// ErrTransmitterBusy means a send was started while another was in flight.
// The surrounding service treats it as fatal.
var ErrTransmitterBusy = errors.New("link: transmitter busy")

type TxState uint8

const (
	TxIdle TxState = iota
	TxSending
)

func (s TxState) String() string {
	if s == TxSending {
		return "sending"
	}
	return "idle"
}

// Transmitter holds at most one encoded message and drains it a few bytes
// per tick.
type Transmitter struct {
	mu           sync.Mutex
	bytesPerTick int
	state        TxState
	current      protocol.Message
	buf          []byte
	pos          int
	completed    uint64
}

func NewTransmitter(bytesPerTick int) *Transmitter {
	if bytesPerTick <= 0 {
		bytesPerTick = 1
	}
	return &Transmitter{bytesPerTick: bytesPerTick}
}

// Start queues msg. A None message is ignored.
func (t *Transmitter) Start(msg protocol.Message) error {
	if msg.IsNone() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TxSending {
		log.Error().
			Str("in_flight", t.current.String()).
			Str("rejected", msg.String()).
			Msg("link.Transmitter.Start busy")
		return fmt.Errorf("%w: %s in flight, rejected %s", ErrTransmitterBusy, t.current, msg)
	}
	var out bytes.Buffer
	if err := protocol.WriteMessage(&out, msg); err != nil {
		return err
	}
	t.state = TxSending
	t.current = msg
	t.buf = out.Bytes()
	t.pos = 0
	return nil
}

// Tick writes the next chunk to w. sent is true on the tick that finishes
// the message; the transmitter is idle again afterwards. A write error
// drops the in-flight message.
func (t *Transmitter) Tick(w io.Writer) (sent bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TxSending {
		return false, nil
	}
	end := min(t.pos+t.bytesPerTick, len(t.buf))
	n, err := w.Write(t.buf[t.pos:end])
	t.pos += n
	if err != nil {
		msg := t.current
		t.idle()
		return false, fmt.Errorf("link: write %s: %w", msg, err)
	}
	if t.pos < len(t.buf) {
		return false, nil
	}
	log.Debug().Str("msg", t.current.String()).Int("bytes", len(t.buf)).Msg("link.Transmitter.Tick sent")
	t.completed++
	t.idle()
	return true, nil
}

func (t *Transmitter) idle() {
	t.state = TxIdle
	t.current = protocol.Message{}
	t.buf = nil
	t.pos = 0
}

func (t *Transmitter) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transmitter) Busy() bool {
	return t.State() == TxSending
}

// Current is the in-flight message, None when idle.
func (t *Transmitter) Current() protocol.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Completed counts messages fully written.
func (t *Transmitter) Completed() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}
