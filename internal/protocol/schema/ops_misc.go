package schema

import "github.com/danmuck/ibctl/internal/protocol"

func miscOperations() []*Operation {
	return []*Operation{
		// session
		op(SetServerLogLevel, fs(
			Version(1),
			Num("log_level").Require().Validate(between(1, 5)),
		)),
		op(ReqCurrentTime, fs(Version(1))),
		op(StartAPI, fs(
			Version(2),
			Num("client_id").Validate(nonNegative),
			Str("optional_capabilities").Since("optional_capabilities"),
		)),

		// contracts
		op(ReqContractData,
			fs(Version(8), ReqID()),
			contractFields(shapeLookup, ""),
		),
		op(ReqSecDefOptParams, fs(
			ReqID(),
			Str("underlying_symbol").Require(),
			Str("fut_fop_exchange"),
			Str("underlying_sec_type").Require(),
			Num("underlying_con_id").Validate(nonNegative),
		)).since("sec_def_opt_params_req"),
		op(ReqMatchingSymbols, fs(
			ReqID(),
			Str("pattern").Require(),
		)).since("req_matching_symbols"),

		// news
		op(ReqNewsBulletins, fs(Version(1), Flag("all_msgs"))),
		op(CancelNewsBulletins, fs(Version(1))),
		op(ReqNewsArticle, fs(
			ReqID(),
			Str("provider_code").Require(),
			Str("article_id").Require(),
			Str("news_article_options").Since("news_query_origins").Normalize(canonicalOptions),
		)).since("req_news_article"),
		op(ReqNewsProviders).since("req_news_providers"),
		op(ReqHistoricalNews, fs(
			ReqID(),
			Num("con_id").Require().Validate(positive),
			Str("provider_codes").Require(),
			Str("start_date_time"),
			Str("end_date_time"),
			Num("total_results").Validate(between(1, 300)),
			Str("historical_news_options").Since("news_query_origins").Normalize(canonicalOptions),
		)).since("req_historical_news"),

		// scanner
		op(ReqScannerSubscription,
			fs(ReqID()),
			scannerFields(),
			fs(
				Str("scanner_subscription_filter_options").Normalize(canonicalOptions),
				Str("scanner_subscription_options").Since("linking").Normalize(canonicalOptions),
			),
		).since("scanner_generic_opts"),
		op(CancelScannerSubscription, fs(Version(1), ReqID().Require())).cancel(),
		op(ReqScannerParameters, fs(Version(1))),

		// display groups and api verification
		op(VerifyRequest, fs(
			Version(1),
			Str("api_name").Require(),
			Str("api_version").Require(),
		)).since("linking"),
		op(VerifyMessage, fs(Version(1), Str("api_data").Require())).since("linking"),
		op(VerifyAndAuthRequest, fs(
			Version(1),
			Str("api_name").Require(),
			Str("api_version").Require(),
			Str("opaque_isv_key").Require(),
		)).since("linking_auth"),
		op(VerifyAndAuthMessage, fs(
			Version(1),
			Str("api_data").Require(),
			Str("xyz_response").Require(),
		)).since("linking_auth"),
		op(QueryDisplayGroups, fs(Version(1), ReqID())).since("linking"),
		op(SubscribeToGroupEvents, fs(
			Version(1),
			ReqID(),
			Num("group_id").Require().Validate(positive),
		)).since("linking"),
		op(UpdateDisplayGroup, fs(
			Version(1),
			ReqID().Require(),
			Str("contract_info"),
		)).since("linking"),
		op(UnsubscribeFromGroupEvts, fs(Version(1), ReqID().Require())).since("linking").cancel(),

		// wall street horizon
		op(ReqWshMetaData, fs(ReqID())).since("wshe_calendar"),
		op(CancelWshMetaData, fs(ReqID().Require())).since("wshe_calendar").cancel(),
		op(ReqWshEventData, fs(
			ReqID(),
			Num("con_id"),
			Str("filter").Since("wsh_event_data_filters"),
			Flag("fill_watchlist").Since("wsh_event_data_filters"),
			Flag("fill_portfolio").Since("wsh_event_data_filters"),
			Flag("fill_competitors").Since("wsh_event_data_filters"),
			Str("start_date").Since("wsh_event_data_filters_date"),
			Str("end_date").Since("wsh_event_data_filters_date"),
			Num("total_limit").Since("wsh_event_data_filters_date"),
		)).since("wshe_calendar").checked(checkWshEventData),
		op(CancelWshEventData, fs(ReqID().Require())).since("wshe_calendar").cancel(),
	}
}

func checkWshEventData(args Args, _ Context) error {
	conID, ok := args.Integer("con_id")
	hasConID := ok && conID > 0 && conID != protocol.UnsetInt
	if !hasConID && args.Text("filter") == "" {
		return invalid("con_id", "con_id or filter required")
	}
	return nil
}
