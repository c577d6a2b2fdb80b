package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/battleboats/internal/link"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConn carries the character stream as websocket text messages.
type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	wmu sync.Mutex
	r   io.Reader
}

func newWSConn(ws *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{ws: ws, writeTimeout: writeTimeout}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				var ce *websocket.CloseError
				if errors.As(err, &ce) {
					return 0, io.EOF
				}
				return 0, err
			}
			c.r = r
		}
		n, err := c.r.Read(p)
		if errors.Is(err, io.EOF) {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	c.wmu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.ws.Close()
}

type wsAcceptor struct {
	ln           net.Listener
	srv          *http.Server
	conns        chan *websocket.Conn
	writeTimeout time.Duration
}

// ListenWebSocket serves a websocket upgrade on path. Only the first peer is
// kept; later upgrades are closed.
func ListenWebSocket(ctx context.Context, addr, path string, writeTimeout time.Duration) (Acceptor, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	a := &wsAcceptor{
		ln:           ln,
		conns:        make(chan *websocket.Conn, 1),
		writeTimeout: writeTimeout,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, a.handle)
	a.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("transport.wsAcceptor.Serve")
		}
	}()
	return a, nil
}

func (a *wsAcceptor) handle(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("transport.wsAcceptor.handle upgrade failed")
		return
	}
	select {
	case a.conns <- ws:
		log.Info().Str("remote", r.RemoteAddr).Msg("transport.wsAcceptor.handle peer upgraded")
	default:
		log.Warn().Str("remote", r.RemoteAddr).Msg("transport.wsAcceptor.handle peer already connected")
		_ = ws.Close()
	}
}

func (a *wsAcceptor) Addr() string {
	return a.ln.Addr().String()
}

func (a *wsAcceptor) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	select {
	case ws := <-a.conns:
		return newWSConn(ws, a.writeTimeout), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *wsAcceptor) Close() error {
	return a.srv.Close()
}

func DialWebSocket(ctx context.Context, url string, lcfg link.Config) (io.ReadWriteCloser, error) {
	return dialWithRetry(ctx, lcfg, url, func(ctx context.Context) (io.ReadWriteCloser, error) {
		ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			return nil, err
		}
		return newWSConn(ws, lcfg.WriteTimeout), nil
	})
}
