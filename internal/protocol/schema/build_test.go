package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const latest = 187

func catalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func wire(t *testing.T, r *Request) []string {
	t.Helper()
	payload, err := protocol.EncodePayload(r.Values)
	require.NoError(t, err)
	out, err := protocol.SplitFields(payload)
	require.NoError(t, err)
	return out
}

func aapl() Contract {
	return Contract{Symbol: "AAPL", SecType: "STK", Exchange: "SMART", Currency: "USD"}
}

func limitBuy(qty int64) Order {
	o := NewOrder()
	o.Action = "BUY"
	o.TotalQuantity = decimal.NewFromInt(qty)
	o.OrderType = "LMT"
	o.LmtPrice = 10
	return o
}

func TestDefaultCatalogCoversEveryOpcode(t *testing.T) {
	c := catalog(t)
	for code, name := range OpcodeNames {
		o, ok := c.Lookup(code)
		require.Truef(t, ok, "opcode %d missing", code)
		assert.Equal(t, name, o.Name)
		byName, ok := c.LookupName(name)
		require.True(t, ok)
		assert.Same(t, o, byName)
	}
	assert.Len(t, c.Operations(), len(OpcodeNames))
}

func TestNewCatalogRejectsUnknownFeature(t *testing.T) {
	caps, err := LoadCapabilities(strings.NewReader("[features]\nlinking = 70\n"))
	require.NoError(t, err)
	_, err = NewCatalog(caps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feature")
}

func TestLoadCapabilitiesRejectsEmptyTable(t *testing.T) {
	_, err := LoadCapabilities(strings.NewReader("[features]\n"))
	require.Error(t, err)
	_, err = LoadCapabilities(strings.NewReader("[features]\nlinking = 0\n"))
	require.Error(t, err)
}

func TestBuildMarketDataFieldOrder(t *testing.T) {
	args := aapl().AppendTo(Args{}).
		Set("generic_tick_list", protocol.String("233"))
	r, err := catalog(t).Build(ReqMktData, Context{Version: latest}, args)
	require.NoError(t, err)
	require.True(t, r.NeedsID())
	assert.Equal(t, IDRequest, r.IDKind())
	require.NoError(t, r.AssignID(7))

	assert.Equal(t, []string{
		"1", "11", "7",
		"0", "AAPL", "STK", "", "0", "", "", "SMART", "", "USD", "", "",
		"0", "233", "0", "0", "",
	}, wire(t, r))
}

func TestBuildWithoutVersionField(t *testing.T) {
	args := aapl().AppendTo(Args{}).
		Set("bar_size_setting", protocol.String("1 day")).
		Set("duration_str", protocol.String("1 M")).
		Set("what_to_show", protocol.String("TRADES"))
	r, err := catalog(t).Build(ReqHistoricalData, Context{Version: latest}, args)
	require.NoError(t, err)
	require.NoError(t, r.AssignID(3))
	got := wire(t, r)
	assert.Equal(t, []string{"20", "3", "0", "AAPL"}, got[:4])
	assert.Equal(t, "1", got[len(got)-3], "format_date default")
}

func TestBuildPlaceOrderPrefix(t *testing.T) {
	args := limitBuy(100).AppendTo(aapl().AppendTo(Args{}), false)
	r, err := catalog(t).Build(PlaceOrder, Context{Version: latest}, args)
	require.NoError(t, err)
	assert.Equal(t, IDOrder, r.IDKind())
	require.NoError(t, r.AssignID(42))

	got := wire(t, r)
	assert.Equal(t, []string{
		"3", "42",
		"0", "AAPL", "STK", "", "0", "", "", "SMART", "", "USD", "", "", "", "",
		"BUY", "100", "LMT", "10", "",
	}, got[:21])
}

func TestBuildRequiredFieldMissing(t *testing.T) {
	_, err := catalog(t).Build(ReqMatchingSymbols, Context{Version: latest}, Args{})
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)

	var pe *protocol.ParameterError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "req_matching_symbols", pe.Op)
	assert.Equal(t, "pattern", pe.Field)
}

func TestBuildCancelRequiresID(t *testing.T) {
	_, err := catalog(t).Build(CancelMktData, Context{Version: latest}, Args{})
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)

	r, err := catalog(t).Build(CancelMktData, Context{Version: latest}, Args{"req_id": protocol.Int(5)})
	require.NoError(t, err)
	id, ok := r.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)
	assert.True(t, r.Cancels())
	assert.Equal(t, []string{"2", "2", "5"}, wire(t, r))
}

func TestBuildRejectsNegativeID(t *testing.T) {
	_, err := catalog(t).Build(CancelMktData, Context{Version: latest}, Args{"req_id": protocol.Int(-1)})
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)
}

func TestBuildOperationVersionGate(t *testing.T) {
	_, err := catalog(t).Build(ReqUserInfo, Context{Version: 166}, Args{})
	require.ErrorIs(t, err, protocol.ErrUnsupportedForServerVersion)

	var ve *protocol.VersionError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "req_user_info", ve.Op)
	assert.Equal(t, 167, ve.Required)
	assert.Equal(t, 166, ve.Negotiated)
}

func TestBuildFieldVersionGate(t *testing.T) {
	args := Args{
		"provider_code":        protocol.String("BRFG"),
		"article_id":           protocol.String("BRFG$04fb9da2"),
		"news_article_options": protocol.String("k=v;"),
	}
	_, err := catalog(t).Build(ReqNewsArticle, Context{Version: 120}, args)
	require.ErrorIs(t, err, protocol.ErrUnsupportedForServerVersion)
	var ve *protocol.VersionError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "news_article_options", ve.Field)
	assert.Equal(t, 128, ve.Required)

	delete(args, "news_article_options")
	r, err := catalog(t).Build(ReqNewsArticle, Context{Version: 120}, args)
	require.NoError(t, err)
	require.NoError(t, r.AssignID(1))
	assert.Equal(t, []string{"84", "1", "BRFG", "BRFG$04fb9da2"}, wire(t, r))

	r, err = catalog(t).Build(ReqNewsArticle, Context{Version: 128}, args)
	require.NoError(t, err)
	require.NoError(t, r.AssignID(1))
	assert.Equal(t, []string{"84", "1", "BRFG", "BRFG$04fb9da2", ""}, wire(t, r))
}

func TestBuildFieldCountMonotonicInVersion(t *testing.T) {
	c := catalog(t)
	cases := map[Opcode]Args{
		ReqMktData: aapl().AppendTo(Args{}),
		PlaceOrder: limitBuy(1).AppendTo(aapl().AppendTo(Args{}), false),
		ReqMktDepth: aapl().AppendTo(Args{}).
			Set("num_rows", protocol.Int(5)),
		ReqContractData: aapl().AppendTo(Args{}),
	}
	for code, args := range cases {
		prev := 0
		for v := 100; v <= latest; v++ {
			r, err := c.Build(code, Context{Version: v}, args)
			require.NoErrorf(t, err, "%s at %d", code, v)
			assert.GreaterOrEqualf(t, len(r.Values), prev, "%s shrank at version %d", code, v)
			prev = len(r.Values)
		}
	}
}

func TestBuildOptionShapesEncodeIdentically(t *testing.T) {
	c := catalog(t)
	tags := aapl().AppendTo(Args{}).
		Set("mkt_data_options", OptionsFromTags(TagValue{Tag: "a", Value: "1"}, TagValue{Tag: "b", Value: "2"}).Value())
	raw := aapl().AppendTo(Args{}).
		Set("mkt_data_options", OptionsFromString(" a=1;b=2").Value())

	r1, err := c.Build(ReqMktData, Context{Version: latest}, tags)
	require.NoError(t, err)
	r2, err := c.Build(ReqMktData, Context{Version: latest}, raw)
	require.NoError(t, err)
	require.NoError(t, r1.AssignID(1))
	require.NoError(t, r2.AssignID(1))
	assert.Equal(t, wire(t, r1), wire(t, r2))
	assert.Equal(t, "a=1;b=2;", wire(t, r1)[19])
}

func TestBuildTagListShapesEncodeIdentically(t *testing.T) {
	c := catalog(t)
	a := Args{"tags": TagListOf("NetLiquidation", "BuyingPower").Value()}
	b := Args{"tags": TagListFromString(" NetLiquidation, BuyingPower ,").Value()}

	r1, err := c.Build(ReqAccountSummary, Context{Version: latest}, a)
	require.NoError(t, err)
	r2, err := c.Build(ReqAccountSummary, Context{Version: latest}, b)
	require.NoError(t, err)
	require.NoError(t, r1.AssignID(9))
	require.NoError(t, r2.AssignID(9))
	assert.Equal(t, []string{"62", "1", "9", "All", "NetLiquidation,BuyingPower"}, wire(t, r1))
	assert.Equal(t, wire(t, r1), wire(t, r2))
}

func TestBuildMalformedOptions(t *testing.T) {
	args := aapl().AppendTo(Args{}).Set("mkt_data_options", OptionsFromString("novalue").Value())
	_, err := catalog(t).Build(ReqMktData, Context{Version: latest}, args)
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)
}

func TestBuildCountedOptions(t *testing.T) {
	args := aapl().AppendTo(Args{}).
		Set("option_price", protocol.Float(1.5)).
		Set("under_price", protocol.Float(100)).
		Set("options", OptionsFromString("x=1;y=2").Value())
	r, err := catalog(t).Build(ReqCalcImpliedVolat, Context{Version: latest}, args)
	require.NoError(t, err)
	require.NoError(t, r.AssignID(1))
	got := wire(t, r)
	assert.Equal(t, []string{"1.5", "100", "2", "x=1;y=2;"}, got[len(got)-4:])
}

func TestBuildUndeclaredArgument(t *testing.T) {
	_, err := catalog(t).Build(ReqCurrentTime, Context{Version: latest}, Args{"bogus": protocol.Int(1)})
	require.ErrorIs(t, err, protocol.ErrEncoding)

	// record fields the operation does not read are ignored
	args := aapl().AppendTo(Args{}).Set("contract.sec_id", protocol.String("US0378331005"))
	_, err = catalog(t).Build(ReqMktData, Context{Version: latest}, args)
	require.NoError(t, err)
}

func TestBuildKindMismatch(t *testing.T) {
	args := aapl().AppendTo(Args{}).Set("snapshot", protocol.String("yes"))
	_, err := catalog(t).Build(ReqMktData, Context{Version: latest}, args)
	require.ErrorIs(t, err, protocol.ErrEncoding)
}

func TestBuildUnknownOpcode(t *testing.T) {
	_, err := catalog(t).Build(Opcode(999), Context{Version: latest}, Args{})
	require.ErrorIs(t, err, protocol.ErrEncoding)
}

func TestBuildAccountChecks(t *testing.T) {
	c := catalog(t)
	args := Args{"account": protocol.String("DU2")}

	_, err := c.Build(ReqPnL, Context{Version: latest, Accounts: map[string]struct{}{"DU1": {}}}, args)
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)

	_, err = c.Build(ReqPnL, Context{Version: latest}, args)
	require.NoError(t, err)

	_, err = c.Build(ReqPnL, Context{Version: latest, Accounts: map[string]struct{}{"DU2": {}}}, args)
	require.NoError(t, err)
}

func TestBuildQuirks(t *testing.T) {
	c := catalog(t)
	hist := func() Args {
		return aapl().AppendTo(Args{}).
			Set("bar_size_setting", protocol.String("1 day")).
			Set("duration_str", protocol.String("1 M")).
			Set("what_to_show", protocol.String("TRADES"))
	}
	ticks := func() Args {
		return aapl().AppendTo(Args{}).
			Set("number_of_ticks", protocol.Int(100)).
			Set("what_to_show", protocol.String("TRADES"))
	}
	exercise := func() Args {
		o := aapl()
		o.SecType = "OPT"
		return o.AppendTo(Args{}).
			Set("exercise_action", protocol.Int(1)).
			Set("exercise_quantity", protocol.Int(1))
	}

	tests := []struct {
		name string
		code Opcode
		ver  int
		args Args
		want error
	}{
		{"keep up to date with end", ReqHistoricalData, latest,
			hist().Set("keep_up_to_date", protocol.Bool(true)).Set("end_date_time", protocol.String("20240101 00:00:00")),
			protocol.ErrInvalidParameter},
		{"schedule before support", ReqHistoricalData, 164,
			hist().Set("what_to_show", protocol.String("SCHEDULE")), protocol.ErrUnsupportedForServerVersion},
		{"schedule supported", ReqHistoricalData, 165,
			hist().Set("what_to_show", protocol.String("SCHEDULE")), nil},
		{"ticks with both bounds", ReqHistoricalTicks, latest,
			ticks().Set("start_date_time", protocol.String("a")).Set("end_date_time", protocol.String("b")),
			protocol.ErrInvalidParameter},
		{"ticks with no bound", ReqHistoricalTicks, latest, ticks(), protocol.ErrInvalidParameter},
		{"ticks count too large", ReqHistoricalTicks, latest,
			ticks().Set("start_date_time", protocol.String("a")).Set("number_of_ticks", protocol.Int(1001)),
			protocol.ErrInvalidParameter},
		{"ticks ok", ReqHistoricalTicks, latest, ticks().Set("end_date_time", protocol.String("b")), nil},
		{"real time bar size", ReqRealTimeBars, latest,
			aapl().AppendTo(Args{}).Set("bar_size", protocol.Int(10)).Set("what_to_show", protocol.String("TRADES")),
			protocol.ErrInvalidParameter},
		{"implied volatility defaults", ReqCalcImpliedVolat, latest, aapl().AppendTo(Args{}), nil},
		{"exercise bad action", ExerciseOptions, latest,
			exercise().Set("exercise_action", protocol.Int(3)), protocol.ErrInvalidParameter},
		{"exercise zero quantity", ExerciseOptions, latest,
			exercise().Set("exercise_quantity", protocol.Int(0)), protocol.ErrInvalidParameter},
		{"exercise ok", ExerciseOptions, latest, exercise(), nil},
		{"market data type", ReqMarketDataType, latest,
			Args{"market_data_type": protocol.Int(5)}, protocol.ErrInvalidParameter},
		{"log level", SetServerLogLevel, latest, Args{"log_level": protocol.Int(0)}, protocol.ErrInvalidParameter},
		{"tick by tick type", ReqTickByTickData, latest,
			aapl().AppendTo(Args{}).Set("tick_type", protocol.String("Foo")), protocol.ErrInvalidParameter},
		{"wsh needs con id or filter", ReqWshEventData, latest, Args{}, protocol.ErrInvalidParameter},
		{"wsh con id", ReqWshEventData, latest, Args{"con_id": protocol.Int(8314)}, nil},
		{"bad action", PlaceOrder, latest,
			limitBuy(1).AppendTo(aapl().AppendTo(Args{}), false).Set("order.action", protocol.String("HOLD")),
			protocol.ErrInvalidParameter},
		{"no quantity", PlaceOrder, latest,
			limitBuy(0).AppendTo(aapl().AppendTo(Args{}), false), protocol.ErrInvalidParameter},
		{"cash quantity", PlaceOrder, latest,
			limitBuy(0).AppendTo(aapl().AppendTo(Args{}), false).Set("order.cash_qty", protocol.Float(500)), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Build(tc.code, Context{Version: tc.ver}, tc.args)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBuildFractionalQuantity(t *testing.T) {
	c := catalog(t)
	o := limitBuy(0)
	o.TotalQuantity = decimal.RequireFromString("0.5")
	args := o.AppendTo(aapl().AppendTo(Args{}), false)

	_, err := c.Build(PlaceOrder, Context{Version: 162}, args)
	require.ErrorIs(t, err, protocol.ErrUnsupportedForServerVersion)

	r, err := c.Build(PlaceOrder, Context{Version: 163}, args)
	require.NoError(t, err)
	require.NoError(t, r.AssignID(1))
	assert.Equal(t, "0.5", wire(t, r)[17])
}

func TestBuildIntegerQuantityIsChecked(t *testing.T) {
	c := catalog(t)
	args := limitBuy(1).AppendTo(aapl().AppendTo(Args{}), false)

	args["order.total_quantity"] = protocol.Int(-5)
	_, err := c.Build(PlaceOrder, Context{Version: latest}, args)
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)

	args["order.total_quantity"] = protocol.Int(0)
	_, err = c.Build(PlaceOrder, Context{Version: latest}, args)
	require.ErrorIs(t, err, protocol.ErrInvalidParameter)

	args["order.total_quantity"] = protocol.Int(5)
	r, err := c.Build(PlaceOrder, Context{Version: latest}, args)
	require.NoError(t, err)
	require.NoError(t, r.AssignID(1))
	assert.Equal(t, "5", wire(t, r)[17])
}

func TestBuildRejectsDelimiterInText(t *testing.T) {
	c := catalog(t)
	_, err := c.Build(ReqMatchingSymbols, Context{Version: latest}, Args{"pattern": protocol.String("AA\x00PL")})
	require.ErrorIs(t, err, protocol.ErrEncoding)

	leg := ComboLeg{ConID: 1, Ratio: 1, Action: "BUY", Exchange: "SM\x00ART"}
	bag := Contract{Symbol: "SPY", SecType: "BAG", Exchange: "SMART", Currency: "USD", ComboLegs: []ComboLeg{leg}}
	_, err = c.Build(ReqMktData, Context{Version: latest}, bag.AppendTo(Args{}))
	require.ErrorIs(t, err, protocol.ErrEncoding)
}

func TestBuildComboLegs(t *testing.T) {
	bag := Contract{
		Symbol:   "SPY",
		SecType:  "BAG",
		Exchange: "SMART",
		Currency: "USD",
		ComboLegs: []ComboLeg{
			{ConID: 1, Ratio: 1, Action: "BUY", Exchange: "SMART"},
			{ConID: 2, Ratio: 1, Action: "SELL", Exchange: "SMART"},
		},
	}
	r, err := catalog(t).Build(ReqMktData, Context{Version: latest}, bag.AppendTo(Args{}))
	require.NoError(t, err)
	require.NoError(t, r.AssignID(1))
	got := wire(t, r)
	assert.Equal(t, []string{"2", "1", "1", "BUY", "SMART", "2", "1", "SELL", "SMART"}, got[15:24])

	r, err = catalog(t).Build(ReqMktData, Context{Version: latest}, aapl().AppendTo(Args{}))
	require.NoError(t, err)
	assert.Len(t, r.Values, 20, "no legs for non-combo contracts")
}

func TestRequestIDLifecycle(t *testing.T) {
	r, err := catalog(t).Build(ReqUserInfo, Context{Version: latest}, Args{})
	require.NoError(t, err)

	_, err = r.Encode()
	require.ErrorIs(t, err, protocol.ErrEncoding)

	require.NoError(t, r.AssignID(11))
	require.Error(t, r.AssignID(12))

	frame, err := r.Encode()
	require.NoError(t, err)
	fields, err := protocol.DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, []string{"104", "11"}, fields)

	r, err = catalog(t).Build(ReqCurrentTime, Context{Version: latest}, Args{})
	require.NoError(t, err)
	assert.False(t, r.NeedsID())
	require.Error(t, r.AssignID(1))
}

func TestBuildGatedIDField(t *testing.T) {
	args := Args{"fa_data_type": protocol.Int(1), "cxml": protocol.String("<xml/>")}
	r, err := catalog(t).Build(ReplaceFA, Context{Version: 156}, args)
	require.NoError(t, err)
	assert.False(t, r.NeedsID())

	r, err = catalog(t).Build(ReplaceFA, Context{Version: 157}, args)
	require.NoError(t, err)
	assert.True(t, r.NeedsID())
}
