package schema

import "strconv"

// Opcode is the leading field of every outbound message.
type Opcode int

const (
	ReqMktData                Opcode = 1
	CancelMktData             Opcode = 2
	PlaceOrder                Opcode = 3
	CancelOrder               Opcode = 4
	ReqOpenOrders             Opcode = 5
	ReqAcctData               Opcode = 6
	ReqExecutions             Opcode = 7
	ReqIDs                    Opcode = 8
	ReqContractData           Opcode = 9
	ReqMktDepth               Opcode = 10
	CancelMktDepth            Opcode = 11
	ReqNewsBulletins          Opcode = 12
	CancelNewsBulletins       Opcode = 13
	SetServerLogLevel         Opcode = 14
	ReqAutoOpenOrders         Opcode = 15
	ReqAllOpenOrders          Opcode = 16
	ReqManagedAccts           Opcode = 17
	RequestFA                 Opcode = 18
	ReplaceFA                 Opcode = 19
	ReqHistoricalData         Opcode = 20
	ExerciseOptions           Opcode = 21
	ReqScannerSubscription    Opcode = 22
	CancelScannerSubscription Opcode = 23
	ReqScannerParameters      Opcode = 24
	CancelHistoricalData      Opcode = 25
	ReqCurrentTime            Opcode = 49
	ReqRealTimeBars           Opcode = 50
	CancelRealTimeBars        Opcode = 51
	ReqFundamentalData        Opcode = 52
	CancelFundamentalData     Opcode = 53
	ReqCalcImpliedVolat       Opcode = 54
	ReqCalcOptionPrice        Opcode = 55
	CancelCalcImpliedVolat    Opcode = 56
	CancelCalcOptionPrice     Opcode = 57
	ReqGlobalCancel           Opcode = 58
	ReqMarketDataType         Opcode = 59
	ReqPositions              Opcode = 61
	ReqAccountSummary         Opcode = 62
	CancelAccountSummary      Opcode = 63
	CancelPositions           Opcode = 64
	VerifyRequest             Opcode = 65
	VerifyMessage             Opcode = 66
	QueryDisplayGroups        Opcode = 67
	SubscribeToGroupEvents    Opcode = 68
	UpdateDisplayGroup        Opcode = 69
	UnsubscribeFromGroupEvts  Opcode = 70
	StartAPI                  Opcode = 71
	VerifyAndAuthRequest      Opcode = 72
	VerifyAndAuthMessage      Opcode = 73
	ReqPositionsMulti         Opcode = 74
	CancelPositionsMulti      Opcode = 75
	ReqAccountUpdatesMulti    Opcode = 76
	CancelAccountUpdatesMulti Opcode = 77
	ReqSecDefOptParams        Opcode = 78
	ReqSoftDollarTiers        Opcode = 79
	ReqFamilyCodes            Opcode = 80
	ReqMatchingSymbols        Opcode = 81
	ReqMktDepthExchanges      Opcode = 82
	ReqSmartComponents        Opcode = 83
	ReqNewsArticle            Opcode = 84
	ReqNewsProviders          Opcode = 85
	ReqHistoricalNews         Opcode = 86
	ReqHeadTimestamp          Opcode = 87
	ReqHistogramData          Opcode = 88
	CancelHistogramData       Opcode = 89
	CancelHeadTimestamp       Opcode = 90
	ReqMarketRule             Opcode = 91
	ReqPnL                    Opcode = 92
	CancelPnL                 Opcode = 93
	ReqPnLSingle              Opcode = 94
	CancelPnLSingle           Opcode = 95
	ReqHistoricalTicks        Opcode = 96
	ReqTickByTickData         Opcode = 97
	CancelTickByTickData      Opcode = 98
	ReqCompletedOrders        Opcode = 99
	ReqWshMetaData            Opcode = 100
	CancelWshMetaData         Opcode = 101
	ReqWshEventData           Opcode = 102
	CancelWshEventData        Opcode = 103
	ReqUserInfo               Opcode = 104
)

// OpcodeNames maps each opcode to its stable snake_case name.
var OpcodeNames = map[Opcode]string{
	ReqMktData:                "req_mkt_data",
	CancelMktData:             "cancel_mkt_data",
	PlaceOrder:                "place_order",
	CancelOrder:               "cancel_order",
	ReqOpenOrders:             "req_open_orders",
	ReqAcctData:               "req_acct_data",
	ReqExecutions:             "req_executions",
	ReqIDs:                    "req_ids",
	ReqContractData:           "req_contract_data",
	ReqMktDepth:               "req_mkt_depth",
	CancelMktDepth:            "cancel_mkt_depth",
	ReqNewsBulletins:          "req_news_bulletins",
	CancelNewsBulletins:       "cancel_news_bulletins",
	SetServerLogLevel:         "set_server_loglevel",
	ReqAutoOpenOrders:         "req_auto_open_orders",
	ReqAllOpenOrders:          "req_all_open_orders",
	ReqManagedAccts:           "req_managed_accts",
	RequestFA:                 "request_fa",
	ReplaceFA:                 "replace_fa",
	ReqHistoricalData:         "req_historical_data",
	ExerciseOptions:           "exercise_options",
	ReqScannerSubscription:    "req_scanner_subscription",
	CancelScannerSubscription: "cancel_scanner_subscription",
	ReqScannerParameters:      "req_scanner_parameters",
	CancelHistoricalData:      "cancel_historical_data",
	ReqCurrentTime:            "req_current_time",
	ReqRealTimeBars:           "req_real_time_bars",
	CancelRealTimeBars:        "cancel_real_time_bars",
	ReqFundamentalData:        "req_fundamental_data",
	CancelFundamentalData:     "cancel_fundamental_data",
	ReqCalcImpliedVolat:       "req_calc_implied_volat",
	ReqCalcOptionPrice:        "req_calc_option_price",
	CancelCalcImpliedVolat:    "cancel_calc_implied_volat",
	CancelCalcOptionPrice:     "cancel_calc_option_price",
	ReqGlobalCancel:           "req_global_cancel",
	ReqMarketDataType:         "req_market_data_type",
	ReqPositions:              "req_positions",
	ReqAccountSummary:         "req_account_summary",
	CancelAccountSummary:      "cancel_account_summary",
	CancelPositions:           "cancel_positions",
	VerifyRequest:             "verify_request",
	VerifyMessage:             "verify_message",
	QueryDisplayGroups:        "query_display_groups",
	SubscribeToGroupEvents:    "subscribe_to_group_events",
	UpdateDisplayGroup:        "update_display_group",
	UnsubscribeFromGroupEvts:  "unsubscribe_from_group_events",
	StartAPI:                  "start_api",
	VerifyAndAuthRequest:      "verify_and_auth_request",
	VerifyAndAuthMessage:      "verify_and_auth_message",
	ReqPositionsMulti:         "req_positions_multi",
	CancelPositionsMulti:      "cancel_positions_multi",
	ReqAccountUpdatesMulti:    "req_account_updates_multi",
	CancelAccountUpdatesMulti: "cancel_account_updates_multi",
	ReqSecDefOptParams:        "req_sec_def_opt_params",
	ReqSoftDollarTiers:        "req_soft_dollar_tiers",
	ReqFamilyCodes:            "req_family_codes",
	ReqMatchingSymbols:        "req_matching_symbols",
	ReqMktDepthExchanges:      "req_mkt_depth_exchanges",
	ReqSmartComponents:        "req_smart_components",
	ReqNewsArticle:            "req_news_article",
	ReqNewsProviders:          "req_news_providers",
	ReqHistoricalNews:         "req_historical_news",
	ReqHeadTimestamp:          "req_head_timestamp",
	ReqHistogramData:          "req_histogram_data",
	CancelHistogramData:       "cancel_histogram_data",
	CancelHeadTimestamp:       "cancel_head_timestamp",
	ReqMarketRule:             "req_market_rule",
	ReqPnL:                    "req_pnl",
	CancelPnL:                 "cancel_pnl",
	ReqPnLSingle:              "req_pnl_single",
	CancelPnLSingle:           "cancel_pnl_single",
	ReqHistoricalTicks:        "req_historical_ticks",
	ReqTickByTickData:         "req_tick_by_tick_data",
	CancelTickByTickData:      "cancel_tick_by_tick_data",
	ReqCompletedOrders:        "req_completed_orders",
	ReqWshMetaData:            "req_wsh_meta_data",
	CancelWshMetaData:         "cancel_wsh_meta_data",
	ReqWshEventData:           "req_wsh_event_data",
	CancelWshEventData:        "cancel_wsh_event_data",
	ReqUserInfo:               "req_user_info",
}

func (o Opcode) String() string {
	if name, ok := OpcodeNames[o]; ok {
		return name
	}
	return "opcode(" + strconv.Itoa(int(o)) + ")"
}
