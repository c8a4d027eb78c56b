package schema

import "github.com/danmuck/ibctl/internal/protocol"

var tickByTickTypes = []string{"Last", "AllLast", "BidAsk", "MidPoint"}

func marketOperations() []*Operation {
	return []*Operation{
		op(ReqMktData,
			fs(Version(11), ReqID()),
			contractFields(shapeFull, "req_mkt_data_conid"),
			comboLegFields(),
			fs(
				deltaNeutralField(),
				Str("generic_tick_list").Normalize(canonicalTagList),
				Flag("snapshot"),
				Flag("regulatory_snapshot").Since("req_smart_components"),
				Str("mkt_data_options").Since("linking").Normalize(canonicalOptions),
			),
		),
		op(CancelMktData, fs(Version(2), ReqID().Require())).cancel(),

		op(ReqMktDepth,
			fs(Version(5), ReqID()),
			gated(contractFields(shapeFull, "trading_class"), "contract.primary_exchange", "mkt_depth_prim_exchange"),
			fs(
				Num("num_rows").Validate(positive),
				Flag("is_smart_depth").Since("smart_depth"),
				Str("mkt_depth_options").Since("linking").Normalize(canonicalOptions),
			),
		),
		op(CancelMktDepth, fs(
			Version(1),
			ReqID().Require(),
			Flag("is_smart_depth").Since("smart_depth"),
		)).cancel(),

		op(ReqRealTimeBars,
			fs(Version(3), ReqID()),
			contractFields(shapeFull, "trading_class"),
			fs(
				Num("bar_size").Default(protocol.Int(5)).Validate(between(5, 5)),
				Str("what_to_show").Require().Validate(oneOf("TRADES", "MIDPOINT", "BID", "ASK")),
				Flag("use_rth"),
				Str("real_time_bars_options").Since("linking").Normalize(canonicalOptions),
			),
		),
		op(CancelRealTimeBars, fs(Version(1), ReqID().Require())).cancel(),

		op(ReqMarketDataType, fs(
			Version(1),
			Num("market_data_type").Require().Validate(between(1, 4)),
		)).since("req_market_data_type"),

		op(ReqMktDepthExchanges).since("req_mkt_depth_exchanges"),

		op(ReqSmartComponents, fs(
			ReqID(),
			Str("bbo_exchange").Require(),
		)).since("req_smart_components"),

		op(ReqMarketRule, fs(
			Num("market_rule_id").Require().Validate(nonNegative),
		)).since("market_rules"),

		op(ReqTickByTickData,
			fs(ReqID()),
			contractFields(shapeFull, ""),
			fs(
				Str("tick_type").Require().Validate(oneOf(tickByTickTypes...)),
				Num("number_of_ticks").Since("tick_by_tick_ignore_size").Validate(nonNegative),
				Flag("ignore_size").Since("tick_by_tick_ignore_size"),
			),
		).since("tick_by_tick"),
		op(CancelTickByTickData, fs(ReqID().Require())).since("tick_by_tick").cancel(),

		op(ReqCalcImpliedVolat,
			fs(Version(3), ReqID()),
			contractFields(shapeFull, ""),
			fs(
				Real("option_price").Validate(nonNegative),
				Real("under_price").Validate(nonNegative),
				optionAnalyticsOptions(),
			),
		).since("req_calc_implied_volat"),
		op(CancelCalcImpliedVolat, fs(Version(1), ReqID().Require())).since("req_calc_implied_volat").cancel(),

		op(ReqCalcOptionPrice,
			fs(Version(3), ReqID()),
			contractFields(shapeFull, ""),
			fs(
				Real("volatility").Validate(nonNegative),
				Real("under_price").Validate(nonNegative),
				optionAnalyticsOptions(),
			),
		).since("req_calc_option_price"),
		op(CancelCalcOptionPrice, fs(Version(1), ReqID().Require())).since("req_calc_option_price").cancel(),

		op(ReqFundamentalData, fs(
			Version(2),
			ReqID(),
			Num("contract.con_id").Since("fundamental_data").Validate(nonNegative),
			Str("contract.symbol"),
			Str("contract.sec_type"),
			Str("contract.exchange"),
			Str("contract.primary_exchange"),
			Str("contract.currency"),
			Str("contract.local_symbol"),
			Str("report_type").Require(),
			Str("fundamental_data_options").Since("linking").Normalize(canonicalOptions),
		)),
		op(CancelFundamentalData, fs(Version(1), ReqID().Require())).since("fundamental_data").cancel(),
	}
}

func optionAnalyticsOptions() FieldSpec {
	return Str("options").
		Since("linking").
		Normalize(countedOptions).
		Default(protocol.Group(protocol.Int(0), protocol.String("")))
}
