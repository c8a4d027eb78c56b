package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

var ErrOrderIDUnavailable = errors.New("session: no valid order id received")

// Session is one logical gateway connection. A new Session is created for
// every connect; it is never reused after reaching Disconnected.
type Session struct {
	mu sync.Mutex

	state    State
	fault    error
	begun    bool
	endpoint string
	clientID int64
	version  int

	nextReqID   int64
	nextOrderID int64
	orderSeeded bool
	accounts    map[string]struct{}

	observers []Observer
}

// Snapshot is a consistent read of the fields request building depends on.
type Snapshot struct {
	Status   Status
	Version  int
	ClientID int64
	Accounts map[string]struct{}
}

func New() *Session {
	return &Session{}
}

// OnTransition registers fn for every later transition.
func (s *Session) OnTransition(fn Observer) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, Err: s.fault}
}

func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Session) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

func (s *Session) ClientID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var accounts map[string]struct{}
	if s.accounts != nil {
		accounts = make(map[string]struct{}, len(s.accounts))
		for a := range s.accounts {
			accounts[a] = struct{}{}
		}
	}
	return Snapshot{
		Status:   Status{State: s.state, Err: s.fault},
		Version:  s.version,
		ClientID: s.clientID,
		Accounts: accounts,
	}
}

// Begin records the target and moves Disconnected -> Connecting.
func (s *Session) Begin(endpoint string, clientID int64) error {
	s.mu.Lock()
	if s.state != StateDisconnected || s.begun {
		from := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, from)
	}
	s.begun = true
	s.endpoint = strings.TrimSpace(endpoint)
	s.clientID = clientID
	tr := s.transitionLocked(StateConnecting, nil)
	s.mu.Unlock()
	s.notify(tr)
	return nil
}

// Opened moves Connecting -> Negotiating once a byte stream exists.
func (s *Session) Opened() error {
	return s.move(StateNegotiating)
}

// Negotiated fixes the protocol version and moves Negotiating -> Ready.
func (s *Session) Negotiated(version int) error {
	if version <= 0 {
		return fmt.Errorf("%w: non-positive version %d", ErrInvalidTransition, version)
	}
	s.mu.Lock()
	if !legal(s.state, StateReady) {
		from := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StateReady)
	}
	s.version = version
	tr := s.transitionLocked(StateReady, nil)
	s.mu.Unlock()
	s.notify(tr)
	return nil
}

// Close is a caller-initiated disconnect; it records no fault.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	tr := s.transitionLocked(StateDisconnected, nil)
	s.mu.Unlock()
	s.notify(tr)
}

// Fail ends the session because of a protocol or transport fault. It is safe
// to call from the reader while a writer holds Dispatch.
func (s *Session) Fail(err error) {
	if err == nil {
		err = protocol.ErrTransportFailure
	}
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	tr := s.transitionLocked(StateDisconnected, err)
	s.mu.Unlock()
	s.notify(tr)
}

// SeedOrderID advances the order id counter to at least id.
func (s *Session) SeedOrderID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.orderSeeded || id > s.nextOrderID {
		s.nextOrderID = id
	}
	s.orderSeeded = true
}

// SetManagedAccounts replaces the accounts the gateway reported.
func (s *Session) SetManagedAccounts(accounts []string) {
	set := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		if a = strings.TrimSpace(a); a != "" {
			set[a] = struct{}{}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = set
}

// ManagedAccounts returns the sorted managed accounts, or nil if unknown.
func (s *Session) ManagedAccounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accounts == nil {
		return nil
	}
	out := make([]string, 0, len(s.accounts))
	for a := range s.accounts {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs fn under the session lock once the session is Ready. A
// transport failure returned by fn fails the session before the lock is
// released, so no later writer can observe Ready on a broken stream.
func (s *Session) Dispatch(fn func(tx *Tx) error) error {
	s.mu.Lock()
	if s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: state=%s", protocol.ErrNotConnected, state)
	}
	err := fn(&Tx{s: s})
	var tr *transition
	if err != nil && errors.Is(err, protocol.ErrTransportFailure) {
		tr = s.transitionLocked(StateDisconnected, err)
	}
	s.mu.Unlock()
	s.notify(tr)
	return err
}

// Tx exposes lock-held session state to a Dispatch callback.
type Tx struct {
	s *Session
}

func (tx *Tx) Version() int {
	return tx.s.version
}

func (tx *Tx) ClientID() int64 {
	return tx.s.clientID
}

// Accounts returns a copy of the managed account set, or nil when the
// gateway has not reported one.
func (tx *Tx) Accounts() map[string]struct{} {
	if tx.s.accounts == nil {
		return nil
	}
	out := make(map[string]struct{}, len(tx.s.accounts))
	for a := range tx.s.accounts {
		out[a] = struct{}{}
	}
	return out
}

// NextRequestID allocates a request correlation id.
func (tx *Tx) NextRequestID() int64 {
	id := tx.s.nextReqID
	tx.s.nextReqID++
	return id
}

// NextOrderID allocates an order id from the gateway-seeded counter.
func (tx *Tx) NextOrderID() (int64, error) {
	if !tx.s.orderSeeded {
		return 0, ErrOrderIDUnavailable
	}
	id := tx.s.nextOrderID
	tx.s.nextOrderID++
	return id, nil
}

func (s *Session) move(to State) error {
	s.mu.Lock()
	if !legal(s.state, to) {
		from := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	tr := s.transitionLocked(to, nil)
	s.mu.Unlock()
	s.notify(tr)
	return nil
}

func (s *Session) transitionLocked(to State, err error) *transition {
	tr := &transition{from: s.state, to: to, err: err}
	s.state = to
	if err != nil {
		s.fault = err
	}
	return tr
}

func (s *Session) notify(tr *transition) {
	if tr == nil {
		return
	}
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	endpoint := s.endpoint
	s.mu.Unlock()

	if tr.err != nil {
		log.Warn().
			Str("endpoint", endpoint).
			Str("from", tr.from.String()).
			Err(tr.err).
			Msg("session.transition error -> disconnected")
	} else {
		log.Debug().
			Str("endpoint", endpoint).
			Str("from", tr.from.String()).
			Str("to", tr.to.String()).
			Msg("session.transition")
	}
	for _, fn := range observers {
		fn(tr.from, tr.to, tr.err)
	}
}
