package client

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/ibctl/internal/observability"
	"github.com/danmuck/ibctl/internal/protocol"
)

// Inbound message ids the client acts on itself.
const (
	inErrMsg       = "4"
	inNextValidID  = "9"
	inManagedAccts = "15"
)

// readLoop is the only reader of l.conn. Every frame is handled for
// session bootstrap and then delivered on l.messages.
func (c *Client) readLoop(l *link) {
	defer close(l.done)
	defer close(l.messages)

	for {
		fields, err := protocol.ReadMessage(l.conn.Reader(), c.cfg.Session.Limits)
		if err != nil {
			c.readFailed(l, err)
			return
		}
		msg := Message{Fields: fields, ReceivedAt: time.Now()}
		observability.RecordInbound(msg.Type())
		c.handle(l, msg)

		select {
		case l.messages <- msg:
		case <-l.stop:
			return
		}
	}
}

func (c *Client) readFailed(l *link, err error) {
	if l.closing.Load() {
		l.sess.Close()
		return
	}
	if !errors.Is(err, protocol.ErrTruncated) && !errors.Is(err, protocol.ErrPayloadTooLarge) {
		err = &protocol.TransportError{Op: "read", Err: err}
	}
	l.sess.Fail(err)
	_ = l.conn.Close()
	l.logger.Warn().Err(err).Msg("client.readLoop ended")
}

func (c *Client) handle(l *link, msg Message) {
	switch msg.Type() {
	case inNextValidID:
		id, ok := intField(msg.Fields, 2)
		if !ok {
			l.logger.Warn().Strs("fields", msg.Fields).Msg("client.readLoop malformed next valid id")
			return
		}
		l.sess.SeedOrderID(id)
		l.seeded.Store(true)
		l.logger.Debug().Int64("order_id", id).Msg("client.readLoop next valid id")
		c.markBootstrap(l)
	case inManagedAccts:
		if len(msg.Fields) < 3 {
			return
		}
		l.sess.SetManagedAccounts(strings.Split(msg.Fields[2], ","))
		l.accounts.Store(true)
		c.markBootstrap(l)
	case inErrMsg:
		c.logGatewayError(l, msg.Fields)
	}
}

func (c *Client) markBootstrap(l *link) {
	if l.seeded.Load() && l.accounts.Load() {
		l.bootOnce.Do(func() { close(l.bootstrap) })
	}
}

// logGatewayError attributes [4, version, id, code, text, ...] to the
// request that carried id, when it is still in the ledger.
func (c *Client) logGatewayError(l *link, fields []string) {
	id, _ := intField(fields, 2)
	code, _ := intField(fields, 3)
	text := ""
	if len(fields) > 4 {
		text = fields[4]
	}
	ev := l.logger.Warn().Int64("id", id).Int64("code", code).Str("text", text)
	pending, other, ok, ambiguous := c.dispatcher.Ledger().Attribute(id, code)
	if ok {
		ev = ev.Str("op", pending.Name).Str("id_kind", pending.Kind.String()).Dur("age", time.Since(pending.SentAt))
	}
	if ambiguous {
		ev = ev.Str("other_op", other.Name).Str("other_id_kind", other.Kind.String())
	}
	ev.Msg("client.readLoop gateway error")
}

func intField(fields []string, i int) (int64, bool) {
	if i >= len(fields) {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
