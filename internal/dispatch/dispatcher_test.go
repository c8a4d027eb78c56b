package dispatch

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/schema"
	"github.com/danmuck/ibctl/internal/protocol/session"
	"github.com/danmuck/ibctl/internal/testutil/recorder"
	"github.com/danmuck/ibctl/internal/testutil/testlog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readySession(t *testing.T, version int) *session.Session {
	t.Helper()
	s := session.New()
	require.NoError(t, s.Begin("127.0.0.1:4002", 1))
	require.NoError(t, s.Opened())
	require.NoError(t, s.Negotiated(version))
	return s
}

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return New(schema.MustDefault(), Config{RateLimit: 10000, Burst: 10000})
}

func aaplArgs() schema.Args {
	c := schema.Contract{Symbol: "AAPL", SecType: "STK", Exchange: "SMART", Currency: "USD"}
	return c.AppendTo(schema.Args{})
}

func TestSendRequiresReadySession(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()

	s := session.New()
	_, err := d.Send(context.Background(), s, tr, schema.ReqCurrentTime, nil)
	require.ErrorIs(t, err, protocol.ErrNotConnected)

	// invalid arguments are not inspected before the readiness check
	_, err = d.Send(context.Background(), s, tr, schema.ReqMatchingSymbols, schema.Args{})
	require.ErrorIs(t, err, protocol.ErrNotConnected)
	assert.Empty(t, tr.Frames())
}

func TestSendWritesOneFrame(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)

	rec, err := d.Send(context.Background(), s, tr, schema.ReqCurrentTime, nil)
	require.NoError(t, err)
	assert.False(t, rec.HasID)
	assert.Equal(t, "req_current_time", rec.Name)

	msgs, err := tr.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"49", "1"}, msgs[0])
	assert.Equal(t, len(tr.Frames()[0]), rec.Bytes)
}

func TestSendAllocatesRequestIDs(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)

	first, err := d.Send(context.Background(), s, tr, schema.ReqMktData, aaplArgs())
	require.NoError(t, err)
	second, err := d.Send(context.Background(), s, tr, schema.ReqMktData, aaplArgs())
	require.NoError(t, err)
	require.True(t, first.HasID)
	assert.Equal(t, first.ID+1, second.ID)

	msgs, err := tr.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []string{"1", "11", "0"}, msgs[0][:3])
	assert.Equal(t, []string{"1", "11", "1"}, msgs[1][:3])
}

func TestSendBuildFailureWritesNothing(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)

	_, err := d.Send(context.Background(), s, tr, schema.ReqMatchingSymbols, schema.Args{})
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)
	assert.Empty(t, tr.Frames())

	_, err = d.Send(context.Background(), s, tr, schema.ReqUserInfo, nil)
	require.NoError(t, err)
	msgs, err := tr.Messages()
	require.NoError(t, err)
	assert.Equal(t, []string{"104", "0"}, msgs[0], "failed build must not consume an id")
}

func TestSendDelimiterInTextKeepsID(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)

	_, err := d.Send(context.Background(), s, tr, schema.ReqMatchingSymbols, schema.Args{"pattern": protocol.String("A\x00")})
	require.ErrorIs(t, err, protocol.ErrEncoding)
	assert.Empty(t, tr.Frames())
	assert.Equal(t, session.StateReady, s.Status().State)

	rec, err := d.Send(context.Background(), s, tr, schema.ReqMatchingSymbols, schema.Args{"pattern": protocol.String("AAPL")})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.ID)
}

func TestSendOrderIDsNeedSeed(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)

	o := schema.NewOrder()
	o.Action = "BUY"
	o.OrderType = "MKT"
	o.TotalQuantity = decimal.NewFromInt(1)
	args := o.AppendTo(aaplArgs(), false)

	_, err := d.Send(context.Background(), s, tr, schema.PlaceOrder, args)
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)
	assert.Equal(t, session.StateReady, s.Status().State)

	s.SeedOrderID(100)
	rec, err := d.Send(context.Background(), s, tr, schema.PlaceOrder, args)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.ID)

	// explicit ids are sent unchanged and do not advance the counter
	rec, err = d.Send(context.Background(), s, tr, schema.PlaceOrder, args.Set("order_id", protocol.Int(55)))
	require.NoError(t, err)
	assert.Equal(t, int64(55), rec.ID)

	pending, ok := d.Ledger().Get(schema.IDOrder, 100)
	require.True(t, ok)
	assert.Equal(t, "place_order", pending.Name)

	_, err = d.Send(context.Background(), s, tr, schema.CancelOrder, schema.Args{"order_id": protocol.Int(100)})
	require.NoError(t, err)
	_, ok = d.Ledger().Get(schema.IDOrder, 100)
	assert.False(t, ok)
}

func TestSendTransportFailureFailsSession(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)

	boom := errors.New("broken pipe")
	tr.FailWith(boom)
	_, err := d.Send(context.Background(), s, tr, schema.ReqCurrentTime, nil)
	require.ErrorIs(t, err, protocol.ErrTransportFailure)
	require.ErrorIs(t, err, boom)

	st := s.Status()
	assert.Equal(t, session.StateDisconnected, st.State)
	assert.True(t, st.Faulted())

	_, err = d.Send(context.Background(), s, tr, schema.ReqCurrentTime, nil)
	require.ErrorIs(t, err, protocol.ErrNotConnected)
}

func TestSendClosedTransport(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)

	tr.Close()
	_, err := d.Send(context.Background(), s, tr, schema.ReqCurrentTime, nil)
	require.ErrorIs(t, err, protocol.ErrTransportFailure)
	assert.True(t, s.Status().Faulted())
}

func TestSendVersionGate(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 150)

	_, err := d.Send(context.Background(), s, tr, schema.ReqUserInfo, nil)
	require.ErrorIs(t, err, protocol.ErrUnsupportedForServerVersion)
	assert.Empty(t, tr.Frames())
	assert.Equal(t, session.StateReady, s.Status().State)
}

func TestSendChecksManagedAccounts(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)
	s.SetManagedAccounts([]string{"DU1"})

	_, err := d.Send(context.Background(), s, tr, schema.ReqPnL, schema.Args{"account": protocol.String("DU2")})
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)
	_, err = d.Send(context.Background(), s, tr, schema.ReqPnL, schema.Args{"account": protocol.String("DU1")})
	require.NoError(t, err)
}

func TestSendConcurrentFramesStayWhole(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(t)
	tr := recorder.New()
	s := readySession(t, 187)

	const workers, each = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_, err := d.Send(context.Background(), s, tr, schema.ReqMktData, aaplArgs())
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	msgs, err := tr.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, workers*each)
	seen := make(map[string]bool, len(msgs))
	for i, m := range msgs {
		require.Equal(t, "1", m[0])
		// ids are handed out in write order
		assert.Equal(t, strconv.Itoa(i), m[2])
		seen[m[2]] = true
	}
	assert.Len(t, seen, workers*each)
}

func TestSendPacingHonorsContext(t *testing.T) {
	testlog.Start(t)
	d := New(schema.MustDefault(), Config{RateLimit: 0.001, Burst: 1})
	tr := recorder.New()
	s := readySession(t, 187)

	_, err := d.Send(context.Background(), s, tr, schema.ReqCurrentTime, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Send(ctx, s, tr, schema.ReqCurrentTime, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, tr.Frames(), 1)
}
