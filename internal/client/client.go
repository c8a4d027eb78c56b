// Package client is the typed entry point to one gateway connection: it
// dials, negotiates the protocol version, starts the API and exposes one
// method per outbound request.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/ibctl/internal/dispatch"
	"github.com/danmuck/ibctl/internal/observability"
	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/schema"
	"github.com/danmuck/ibctl/internal/protocol/session"
	"github.com/danmuck/ibctl/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultMessageBuffer = 1024

var (
	ErrEndpointRequired = errors.New("client: endpoint required")
	ErrAlreadyConnected = errors.New("client: already connected")
)

type Config struct {
	Endpoint string
	ClientID int64
	Session  session.Config
	// RateLimit and Burst pace outbound messages; zero takes the defaults.
	RateLimit  float64
	Burst      int
	LedgerSize int
	// OptionalCapabilities is sent with start_api when the server supports it.
	OptionalCapabilities string
	MessageBuffer        int
	Catalog              *schema.Catalog
	Dial                 transport.DialFunc
}

func DefaultConfig() Config {
	return Config{
		Session:       session.DefaultConfig(),
		RateLimit:     dispatch.DefaultRateLimit,
		Burst:         dispatch.DefaultBurst,
		LedgerSize:    dispatch.DefaultLedgerSize,
		MessageBuffer: DefaultMessageBuffer,
	}
}

// Message is one raw inbound frame.
type Message struct {
	Fields     []string
	ReceivedAt time.Time
}

// Type is the leading message id, or "" for an empty frame.
func (m Message) Type() string {
	if len(m.Fields) == 0 {
		return ""
	}
	return m.Fields[0]
}

type Client struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	rng        *rand.Rand

	connectMu sync.Mutex
	mu        sync.Mutex
	link      *link
}

// link is the state of one connection attempt. A new link is built for
// every Connect and discarded when its session ends.
type link struct {
	sess     *session.Session
	conn     *transport.Conn
	hello    session.ServerHello
	messages chan Message
	stop     chan struct{}
	done     chan struct{}
	closing  atomic.Bool
	logger   zerolog.Logger

	stopOnce  sync.Once
	seeded    atomic.Bool
	accounts  atomic.Bool
	bootOnce  sync.Once
	bootstrap chan struct{}
}

func New(cfg Config) (*Client, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if cfg.ClientID < 0 {
		return nil, &protocol.ParameterError{Op: "connect", Field: "client_id", Reason: "must be >= 0"}
	}
	cfg.Session = cfg.Session.WithDefaults()
	if cfg.MessageBuffer <= 0 {
		cfg.MessageBuffer = DefaultMessageBuffer
	}
	if cfg.Catalog == nil {
		catalog, err := schema.Default()
		if err != nil {
			return nil, err
		}
		cfg.Catalog = catalog
	}
	return &Client{
		cfg: cfg,
		dispatcher: dispatch.New(cfg.Catalog, dispatch.Config{
			RateLimit:  cfg.RateLimit,
			Burst:      cfg.Burst,
			LedgerSize: cfg.LedgerSize,
		}),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Connect opens a new session. It returns once the session is Ready and
// start_api has been written; the order id seed and managed accounts
// arrive asynchronously (see AwaitBootstrap).
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if old := c.current(); old != nil {
		if old.sess.Status().State != session.StateDisconnected {
			return ErrAlreadyConnected
		}
		// A faulted link may still hold its socket; the gateway would
		// reject a second session under the same client id.
		c.shutdown(old)
		<-old.done
	}

	sess := session.New()
	sess.OnTransition(func(from, to session.State, err error) {
		observability.RecordTransition(from.String(), to.String(), err != nil)
	})
	if err := sess.Begin(c.cfg.Endpoint, c.cfg.ClientID); err != nil {
		return err
	}
	logger := observability.SessionLogger(c.cfg.Endpoint, c.cfg.ClientID)

	dial := c.cfg.Dial
	if dial == nil {
		dial = transport.TCPDialer(c.cfg.Session)
	}
	conn, err := transport.DialWith(ctx, dial, c.cfg.Endpoint, c.cfg.Session, c.rng)
	if err != nil {
		if ctx.Err() == nil {
			err = &protocol.TransportError{Op: "dial", Err: err}
		}
		sess.Fail(err)
		return err
	}
	if err := sess.Opened(); err != nil {
		_ = conn.Close()
		return err
	}

	rw, clearDeadline := conn.Handshake(c.cfg.Session.HandshakeTimeout)
	hello, err := sess.Handshake(rw, c.cfg.Session)
	clearDeadline()
	if err != nil {
		_ = conn.Close()
		return err
	}

	l := &link{
		sess:      sess,
		conn:      conn,
		hello:     hello,
		messages:  make(chan Message, c.cfg.MessageBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger,
		bootstrap: make(chan struct{}),
	}
	sess.OnTransition(func(_, to session.State, _ error) {
		if to == session.StateDisconnected {
			c.release(l)
		}
	})
	c.dispatcher.Ledger().Reset()
	c.mu.Lock()
	c.link = l
	c.mu.Unlock()
	go c.readLoop(l)

	args := schema.Args{
		"client_id":             protocol.Int(c.cfg.ClientID),
		"optional_capabilities": protocol.String(c.cfg.OptionalCapabilities),
	}
	if _, err := c.dispatcher.Send(ctx, sess, conn, schema.StartAPI, args); err != nil {
		c.shutdown(l)
		return fmt.Errorf("client: start api: %w", err)
	}
	l.logger.Info().
		Int("version", sess.Version()).
		Str("conn_time", hello.RawConnTime).
		Msg("client.Connect ready")
	return nil
}

// Disconnect closes the current session and its connection. It is a no-op
// when nothing is connected.
func (c *Client) Disconnect() {
	l := c.current()
	if l == nil {
		return
	}
	c.shutdown(l)
	<-l.done
}

func (c *Client) shutdown(l *link) {
	c.release(l)
	l.sess.Close()
}

// release closes the link's socket and stops its reader. It runs on every
// transition to Disconnected, so a fault on the write path cannot leave
// the socket open.
func (c *Client) release(l *link) {
	l.closing.Store(true)
	l.stopOnce.Do(func() { close(l.stop) })
	if err := l.conn.Close(); err != nil {
		log.Debug().Err(err).Msg("client.release close")
	}
}

func (c *Client) current() *link {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link
}

// Status reports the current session, Disconnected when none exists.
func (c *Client) Status() session.Status {
	l := c.current()
	if l == nil {
		return session.Status{State: session.StateDisconnected}
	}
	return l.sess.Status()
}

// ServerVersion is the negotiated protocol version, 0 before negotiation.
func (c *Client) ServerVersion() int {
	l := c.current()
	if l == nil {
		return 0
	}
	return l.sess.Version()
}

// ConnectionTime is the gateway's timestamp from the handshake reply.
func (c *Client) ConnectionTime() time.Time {
	l := c.current()
	if l == nil {
		return time.Time{}
	}
	return l.hello.ConnTime
}

// ManagedAccounts returns the accounts the gateway reported, sorted.
func (c *Client) ManagedAccounts() []string {
	l := c.current()
	if l == nil {
		return nil
	}
	return l.sess.ManagedAccounts()
}

// Messages delivers inbound frames of the current connection. The channel
// is closed when that connection ends; call again after reconnecting.
func (c *Client) Messages() <-chan Message {
	l := c.current()
	if l == nil {
		ch := make(chan Message)
		close(ch)
		return ch
	}
	return l.messages
}

// AwaitBootstrap blocks until the gateway has sent both the next valid order
// id and the managed accounts, or the connection ends.
func (c *Client) AwaitBootstrap(ctx context.Context) error {
	l := c.current()
	if l == nil {
		return fmt.Errorf("%w: no session", protocol.ErrNotConnected)
	}
	select {
	case <-l.bootstrap:
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	st := l.sess.Status()
	if st.State == session.StateReady {
		return nil
	}
	if st.Err != nil {
		return st.Err
	}
	return fmt.Errorf("%w: state=%s", protocol.ErrNotConnected, st)
}

// Ledger exposes the requests still awaiting attribution.
func (c *Client) Ledger() *dispatch.Ledger {
	return c.dispatcher.Ledger()
}

func (c *Client) Catalog() *schema.Catalog {
	return c.cfg.Catalog
}

// Send is the generic request entry point. An id supplied in args is sent
// unchanged; otherwise one is allocated when the operation takes one.
func (c *Client) Send(ctx context.Context, code schema.Opcode, args schema.Args) (dispatch.Receipt, error) {
	l := c.current()
	if l == nil {
		return dispatch.Receipt{Opcode: code, Name: code.String()}, fmt.Errorf("%w: no session", protocol.ErrNotConnected)
	}
	return c.dispatcher.Send(ctx, l.sess, l.conn, code, args)
}

// SendNamed resolves an operation by its snake_case name.
func (c *Client) SendNamed(ctx context.Context, name string, args schema.Args) (dispatch.Receipt, error) {
	o, ok := c.cfg.Catalog.LookupName(name)
	if !ok {
		return dispatch.Receipt{Name: name}, &protocol.EncodingError{Index: -1, Reason: "unknown operation " + name}
	}
	return c.Send(ctx, o.Opcode, args)
}
