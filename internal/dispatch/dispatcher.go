package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/ibctl/internal/observability"
	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/schema"
	"github.com/danmuck/ibctl/internal/protocol/session"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	DefaultRateLimit = 50
	DefaultBurst     = 50
)

var errTransportClosed = errors.New("transport closed")

// Transport is the outbound half of a gateway connection. Write must send
// the whole frame or fail.
type Transport interface {
	Write(frame []byte) error
	IsOpen() bool
}

type Config struct {
	// RateLimit is the sustained outbound message rate per second.
	RateLimit  float64
	Burst      int
	LedgerSize int
}

func DefaultConfig() Config {
	return Config{
		RateLimit:  DefaultRateLimit,
		Burst:      DefaultBurst,
		LedgerSize: DefaultLedgerSize,
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.RateLimit <= 0 {
		c.RateLimit = d.RateLimit
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	if c.LedgerSize <= 0 {
		c.LedgerSize = d.LedgerSize
	}
	return c
}

// Receipt describes one request handed to the transport.
type Receipt struct {
	Opcode schema.Opcode
	Name   string
	ID     int64
	HasID  bool
	Bytes  int
}

// Dispatcher validates, paces and writes requests. It never retries and
// never waits for replies.
type Dispatcher struct {
	catalog *schema.Catalog
	limiter *rate.Limiter
	ledger  *Ledger
	now     func() time.Time
}

func New(catalog *schema.Catalog, cfg Config) *Dispatcher {
	cfg = cfg.WithDefaults()
	return &Dispatcher{
		catalog: catalog,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		ledger:  NewLedger(cfg.LedgerSize),
		now:     time.Now,
	}
}

func (d *Dispatcher) Ledger() *Ledger {
	return d.ledger
}

func (d *Dispatcher) Catalog() *schema.Catalog {
	return d.catalog
}

// Send builds the request for code and writes it as one frame. Requests on a
// session that is not Ready fail before any validation or pacing.
func (d *Dispatcher) Send(
	ctx context.Context,
	sess *session.Session,
	tr Transport,
	code schema.Opcode,
	args schema.Args,
) (rec Receipt, err error) {
	name := code.String()
	ctx, span := observability.Tracer().Start(ctx, "dispatch."+name)
	defer func() {
		outcome := outcomeOf(err)
		observability.RecordDispatch(name, outcome, rec.Bytes)
		span.SetAttributes(
			attribute.Int("ibctl.opcode", int(code)),
			attribute.Int("ibctl.bytes", rec.Bytes),
			attribute.String("result", outcome),
		)
		if rec.HasID {
			span.SetAttributes(attribute.Int64("ibctl.id", rec.ID))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if st := sess.Status(); st.State != session.StateReady {
		return Receipt{Opcode: code, Name: name}, fmt.Errorf("%w: state=%s", protocol.ErrNotConnected, st)
	}

	snap := sess.Snapshot()
	req, err := d.catalog.Build(code, schema.Context{Version: snap.Version, Accounts: snap.Accounts}, args)
	if err != nil {
		return Receipt{Opcode: code, Name: name}, err
	}

	start := d.now()
	if err := d.limiter.Wait(ctx); err != nil {
		return Receipt{Opcode: code, Name: name}, err
	}
	observability.RecordPacingWait(name, d.now().Sub(start))

	rec = Receipt{Opcode: code, Name: name}
	err = sess.Dispatch(func(tx *session.Tx) error {
		if req.NeedsID() {
			id, err := allocate(tx, req)
			if err != nil {
				return err
			}
			if err := req.AssignID(id); err != nil {
				return err
			}
		}
		frame, err := req.Encode()
		if err != nil {
			return err
		}
		if !tr.IsOpen() {
			return &protocol.TransportError{Op: name, Err: errTransportClosed}
		}
		if err := tr.Write(frame); err != nil {
			return &protocol.TransportError{Op: name, Err: err}
		}
		rec.Bytes = len(frame)
		return nil
	})
	if err != nil {
		if errors.Is(err, protocol.ErrTransportFailure) {
			log.Warn().Str("op", name).Err(err).Msg("dispatch.Send transport failure")
		}
		return Receipt{Opcode: code, Name: name}, err
	}

	rec.ID, rec.HasID = req.ID()
	if rec.HasID {
		if req.Cancels() {
			d.ledger.Remove(req.IDKind(), rec.ID)
		} else {
			d.ledger.Record(PendingRequest{
				ID:     rec.ID,
				Kind:   req.IDKind(),
				Opcode: code,
				Name:   name,
				SentAt: d.now(),
			})
		}
	}
	log.Debug().Str("op", name).Int64("id", rec.ID).Int("bytes", rec.Bytes).Msg("dispatch.Send")
	return rec, nil
}

func allocate(tx *session.Tx, req *schema.Request) (int64, error) {
	switch req.IDKind() {
	case schema.IDOrder:
		id, err := tx.NextOrderID()
		if err != nil {
			return 0, &protocol.ParameterError{Op: req.Name, Field: "order_id", Reason: err.Error()}
		}
		return id, nil
	default:
		return tx.NextRequestID(), nil
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, protocol.ErrNotConnected):
		return "not_connected"
	case errors.Is(err, protocol.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, protocol.ErrUnsupportedForServerVersion):
		return "unsupported"
	case errors.Is(err, protocol.ErrEncoding):
		return "encoding"
	case errors.Is(err, protocol.ErrTransportFailure):
		return "transport_failure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
