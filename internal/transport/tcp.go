package transport

import (
	"context"
	"io"
	"net"

	"github.com/danmuck/battleboats/internal/link"
)

type tcpAcceptor struct {
	ln net.Listener
}

func ListenTCP(ctx context.Context, addr string) (Acceptor, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &tcpAcceptor{ln: ln}, nil
}

func (a *tcpAcceptor) Addr() string {
	return a.ln.Addr().String()
}

func (a *tcpAcceptor) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := a.ln.Accept()
		done <- result{conn, err}
	}()
	select {
	case r := <-done:
		return r.conn, r.err
	case <-ctx.Done():
		_ = a.ln.Close()
		if r := <-done; r.conn != nil {
			_ = r.conn.Close()
		}
		return nil, ctx.Err()
	}
}

func (a *tcpAcceptor) Close() error {
	return a.ln.Close()
}

func DialTCP(ctx context.Context, addr string, lcfg link.Config) (io.ReadWriteCloser, error) {
	return dialWithRetry(ctx, lcfg, addr, func(ctx context.Context) (io.ReadWriteCloser, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	})
}
