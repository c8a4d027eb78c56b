package schema

import (
	"testing"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagValues(t *testing.T) {
	tags, err := ParseTagValues("a=1; b=x=y;;")
	require.NoError(t, err)
	assert.Equal(t, []TagValue{{Tag: "a", Value: "1"}, {Tag: "b", Value: "x=y"}}, tags)
	assert.Equal(t, "a=1;b=x=y;", EncodeTagValues(tags))

	_, err = ParseTagValues("=1;")
	require.Error(t, err)
}

func TestOrderConditionalGroups(t *testing.T) {
	o := limitBuy(10)
	a := o.AppendTo(Args{}, false)
	for _, k := range []string{"order.hedge", "order.algo", "order.conditions", "order.scale_details", "order.peg_bench", "order.combo_leg_prices"} {
		_, ok := a[k]
		assert.Falsef(t, ok, "%s set for a plain order", k)
	}

	o.HedgeType = "D"
	o.HedgeParam = "0.5"
	o.AlgoStrategy = "Adaptive"
	o.AlgoParams = []TagValue{{Tag: "adaptivePriority", Value: "Normal"}}
	o.Conditions = []OrderCondition{{Type: 1, Conjunction: "a", Fields: []protocol.Value{protocol.Int(8314)}}}
	a = o.AppendTo(Args{}, true)

	hedge, err := protocol.EncodePayload([]protocol.Value{a["order.hedge"]})
	require.NoError(t, err)
	assert.Equal(t, "D\x000.5\x00", string(hedge))

	algo, err := protocol.EncodePayload([]protocol.Value{a["order.algo"]})
	require.NoError(t, err)
	assert.Equal(t, "Adaptive\x001\x00adaptivePriority\x00Normal\x00", string(algo))

	conds, err := protocol.EncodePayload([]protocol.Value{a["order.conditions"]})
	require.NoError(t, err)
	assert.Equal(t, "1\x001\x00a\x008314\x000\x000\x00", string(conds))

	_, ok := a["order.combo_leg_prices"]
	assert.True(t, ok)
}

func TestPlaceOrderDefaultsEmitPlaceholders(t *testing.T) {
	args := limitBuy(1).AppendTo(aapl().AppendTo(Args{}), false)
	r, err := catalog(t).Build(PlaceOrder, Context{Version: latest}, args)
	require.NoError(t, err)
	require.NoError(t, r.AssignID(1))
	got := wire(t, r)

	// transmit follows order_ref
	assert.Equal(t, "1", got[27])
	assert.Equal(t, "0", got[len(got)-1], "professional_customer")
	assert.Equal(t, "", got[len(got)-2], "customer_account")
}

func TestScannerSubscriptionBuild(t *testing.T) {
	s := NewScannerSubscription()
	s.Instrument = "STK"
	s.LocationCode = "STK.US.MAJOR"
	s.ScanCode = "TOP_PERC_GAIN"
	args := s.AppendTo(Args{}).
		Set("scanner_subscription_filter_options", OptionsFromTags(TagValue{Tag: "priceAbove", Value: "5"}).Value())

	r, err := catalog(t).Build(ReqScannerSubscription, Context{Version: latest}, args)
	require.NoError(t, err)
	require.NoError(t, r.AssignID(4))
	got := wire(t, r)
	assert.Equal(t, []string{"22", "4", "", "STK", "STK.US.MAJOR", "TOP_PERC_GAIN"}, got[:6])
	assert.Equal(t, []string{"priceAbove=5;", ""}, got[len(got)-2:])

	_, err = catalog(t).Build(ReqScannerSubscription, Context{Version: 142}, args)
	require.ErrorIs(t, err, protocol.ErrUnsupportedForServerVersion)
}

func TestExecutionFilterBuild(t *testing.T) {
	f := ExecutionFilter{AcctCode: "DU1", Side: "BUY"}
	ctx := Context{Version: latest, Accounts: map[string]struct{}{"DU1": {}}}

	r, err := catalog(t).Build(ReqExecutions, ctx, f.AppendTo(Args{}))
	require.NoError(t, err)
	require.NoError(t, r.AssignID(2))
	assert.Equal(t, []string{"7", "3", "2", "0", "DU1", "", "", "", "", "BUY"}, wire(t, r))

	f.AcctCode = "DU9"
	_, err = catalog(t).Build(ReqExecutions, ctx, f.AppendTo(Args{}))
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)
}
