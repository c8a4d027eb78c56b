package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/ibctl/internal/protocol/session"
	"github.com/danmuck/ibctl/internal/testutil/testlog"
)

func fastConfig(attempts int) session.Config {
	cfg := session.DefaultConfig()
	cfg.MaxConnectAttempts = attempts
	cfg.Backoff = session.BackoffConfig{
		InitialDelay: time.Millisecond,
		Multiplier:   1,
		MaxDelay:     time.Millisecond,
	}
	return cfg
}

func TestDialWithRetriesUntilSuccess(t *testing.T) {
	testlog.Start(t)
	var calls int
	client, server := net.Pipe()
	defer server.Close()
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return client, nil
	}

	conn, err := DialWith(context.Background(), dial, "127.0.0.1:4002", fastConfig(5), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !conn.IsOpen() {
		t.Fatalf("expected open conn")
	}
}

func TestDialWithStopsAtMaxAttempts(t *testing.T) {
	testlog.Start(t)
	refused := errors.New("connection refused")
	var calls int
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		calls++
		return nil, refused
	}
	_, err := DialWith(context.Background(), dial, "127.0.0.1:4002", fastConfig(2), nil)
	if !errors.Is(err, refused) {
		t.Fatalf("expected refused, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestDialWithHonorsContext(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		cancel()
		return nil, errors.New("connection refused")
	}
	_, err := DialWith(ctx, dial, "127.0.0.1:4002", fastConfig(0), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDialRealListener(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err == nil {
			_, _ = io.Copy(io.Discard, c)
		}
	}()

	conn, err := Dial(context.Background(), ln.Addr().String(), fastConfig(1), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if conn.RemoteAddr() != ln.Addr().String() {
		t.Fatalf("remote addr=%q", conn.RemoteAddr())
	}
}

func TestConnWriteAndClose(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()
	conn := Wrap(client, time.Second)

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 6)
		_, _ = io.ReadFull(server, buf)
		got <- buf
	}()
	if err := conn.Write([]byte("frame!")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if string(<-got) != "frame!" {
		t.Fatalf("unexpected bytes")
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if conn.IsOpen() {
		t.Fatalf("expected closed")
	}
	if err := conn.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestConnWriteDeadline(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()
	conn := Wrap(client, 20*time.Millisecond)
	defer conn.Close()

	// nobody reads from server, so the pipe write blocks until the deadline
	err := conn.Write([]byte("stuck"))
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("expected timeout, got %v", err)
	}
}
