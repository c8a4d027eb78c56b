// Package fakegw is an in-process gateway for client tests. It answers the
// version handshake, replies to start_api with the bootstrap messages and
// records every inbound frame.
package fakegw

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

const (
	inNextValidID  = "9"
	inManagedAccts = "15"
	inErrMsg       = "4"
	outStartAPI    = "71"
)

const DefaultConnTime = "20240102 15:04:05 EST"

type Options struct {
	Version     int
	MinVersion  int
	ConnTime    string
	NextValidID int64
	Accounts    []string
	// SkipBootstrap suppresses NextValidId and ManagedAccts after start_api.
	SkipBootstrap bool
	// RawHello replaces the handshake reply fields when set.
	RawHello []string
}

func DefaultOptions() Options {
	return Options{
		Version:     187,
		ConnTime:    DefaultConnTime,
		NextValidID: 1,
		Accounts:    []string{"DU1", "DU2"},
	}
}

// Gateway accepts any number of sequential connections on 127.0.0.1.
type Gateway struct {
	opts Options
	ln   net.Listener

	mu       sync.Mutex
	conns    []net.Conn
	hellos   []string
	messages [][]string
	notify   chan struct{}
	wg       sync.WaitGroup
}

// Start listens on an ephemeral port and closes the gateway on cleanup.
func Start(t testing.TB, opts Options) *Gateway {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("fakegw listen: %v", err)
	}
	if opts.ConnTime == "" {
		opts.ConnTime = DefaultConnTime
	}
	g := &Gateway{opts: opts, ln: ln, notify: make(chan struct{}, 1)}
	g.wg.Add(1)
	go g.acceptLoop()
	t.Cleanup(g.Close)
	return g
}

func (g *Gateway) Addr() string {
	return g.ln.Addr().String()
}

// Close stops accepting and drops every open connection.
func (g *Gateway) Close() {
	_ = g.ln.Close()
	g.Drop()
	g.wg.Wait()
}

// Drop closes the open connections without stopping the listener.
func (g *Gateway) Drop() {
	g.mu.Lock()
	conns := g.conns
	g.conns = nil
	g.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// OpenConns counts connections the gateway has not seen close.
func (g *Gateway) OpenConns() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

// Hellos returns the version range text of every handshake received.
func (g *Gateway) Hellos() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.hellos...)
}

// Messages returns every inbound message received after the handshake.
func (g *Gateway) Messages() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]string, len(g.messages))
	copy(out, g.messages)
	return out
}

// WaitMessages blocks until at least n messages arrived or timeout passes.
func (g *Gateway) WaitMessages(n int, timeout time.Duration) ([][]string, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if msgs := g.Messages(); len(msgs) >= n {
			return msgs, true
		}
		select {
		case <-g.notify:
		case <-deadline.C:
			msgs := g.Messages()
			return msgs, len(msgs) >= n
		}
	}
}

// Send writes one message to every open connection.
func (g *Gateway) Send(fields ...string) error {
	b, err := encode(fields)
	if err != nil {
		return err
	}
	g.mu.Lock()
	conns := append([]net.Conn(nil), g.conns...)
	g.mu.Unlock()
	if len(conns) == 0 {
		return errors.New("fakegw: no open connection")
	}
	for _, c := range conns {
		if _, err := c.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// SendError writes an ErrMsg for id with code and text.
func (g *Gateway) SendError(id int64, code int, text string) error {
	return g.Send(inErrMsg, "2", strconv.FormatInt(id, 10), strconv.Itoa(code), text)
}

func (g *Gateway) acceptLoop() {
	defer g.wg.Done()
	for {
		c, err := g.ln.Accept()
		if err != nil {
			return
		}
		g.mu.Lock()
		g.conns = append(g.conns, c)
		g.mu.Unlock()
		g.wg.Add(1)
		go g.serve(c)
	}
}

func (g *Gateway) serve(c net.Conn) {
	defer g.wg.Done()
	defer g.forget(c)
	limits := frame.DefaultLimits()

	prefix := make([]byte, len(frame.HandshakePrefix))
	if _, err := io.ReadFull(c, prefix); err != nil {
		return
	}
	if !bytes.Equal(prefix, frame.HandshakePrefix) {
		log.Warn().Str("remote", c.RemoteAddr().String()).Msg("fakegw.serve bad prefix")
		return
	}
	hello, err := frame.Read(c, limits)
	if err != nil {
		return
	}
	g.mu.Lock()
	g.hellos = append(g.hellos, string(hello))
	g.mu.Unlock()

	if err := g.reply(c); err != nil {
		return
	}

	for {
		fields, err := protocol.ReadMessage(c, limits)
		if err != nil {
			return
		}
		g.mu.Lock()
		g.messages = append(g.messages, fields)
		g.mu.Unlock()
		select {
		case g.notify <- struct{}{}:
		default:
		}
		if len(fields) > 0 && fields[0] == outStartAPI && !g.opts.SkipBootstrap {
			if err := g.bootstrap(c); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) forget(c net.Conn) {
	_ = c.Close()
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, open := range g.conns {
		if open == c {
			g.conns = append(g.conns[:i], g.conns[i+1:]...)
			return
		}
	}
}

func (g *Gateway) reply(c net.Conn) error {
	fields := g.opts.RawHello
	if fields == nil {
		fields = []string{strconv.Itoa(g.opts.Version), g.opts.ConnTime}
		if g.opts.MinVersion > 0 {
			fields = append(fields, strconv.Itoa(g.opts.MinVersion))
		}
	}
	b, err := encode(fields)
	if err != nil {
		return err
	}
	_, err = c.Write(b)
	return err
}

func (g *Gateway) bootstrap(c net.Conn) error {
	for _, msg := range [][]string{
		{inNextValidID, "1", strconv.FormatInt(g.opts.NextValidID, 10)},
		{inManagedAccts, "1", strings.Join(g.opts.Accounts, ",")},
	} {
		b, err := encode(msg)
		if err != nil {
			return err
		}
		if _, err := c.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func encode(fields []string) ([]byte, error) {
	values := make([]protocol.Value, len(fields))
	for i, f := range fields {
		values[i] = protocol.String(f)
	}
	return protocol.EncodeFrame(values)
}
