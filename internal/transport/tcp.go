package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const defaultReadSize = 4096

// TCP is a plain or TLS TCP connection.
type TCP struct {
	Timeout  time.Duration
	TLS      *tls.Config // nil for plaintext
	ReadSize int

	mu      sync.Mutex
	conn    net.Conn
	closing bool
}

// NewTCP returns a factory of TCP transports sharing the same settings.
func NewTCP(timeout time.Duration, tlsConfig *tls.Config) func() Transport {
	return func() Transport {
		return &TCP{Timeout: timeout, TLS: tlsConfig}
	}
}

// Open dials addr.
func (t *TCP) Open(ctx context.Context, addr string, sink Sink) error {
	dialer := &net.Dialer{Timeout: t.Timeout}

	var conn net.Conn
	var err error
	if t.TLS != nil {
		td := &tls.Dialer{NetDialer: dialer, Config: t.TLS}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	sink.Connected()
	go t.readLoop(conn, sink)
	return nil
}

func (t *TCP) readLoop(conn net.Conn, sink Sink) {
	size := t.ReadSize
	if size <= 0 {
		size = defaultReadSize
	}
	buf := make([]byte, size)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			sink.Received(buf[:n])
		}
		if err == nil {
			continue
		}

		t.mu.Lock()
		closing := t.closing
		t.mu.Unlock()

		if closing || errors.Is(err, io.EOF) {
			sink.Closed(nil)
			return
		}
		sink.Failed(err)
		sink.Closed(err)
		return
	}
}

// Write sends p on the connection.
func (t *TCP) Write(p []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return 0, net.ErrClosed
	}
	return conn.Write(p)
}

// Close shuts the connection down; the read loop reports Closed.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || t.closing {
		return nil
	}
	t.closing = true
	return t.conn.Close()
}
