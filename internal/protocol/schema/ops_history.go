package schema

import "github.com/danmuck/ibctl/internal/protocol"

const maxHistoricalTicks = 1000

func historyOperations() []*Operation {
	return []*Operation{
		op(ReqHistoricalData,
			fs(ReqID()),
			contractFields(shapeFull|withIncludeExpired, "trading_class"),
			fs(
				Str("end_date_time"),
				Str("bar_size_setting").Require(),
				Str("duration_str").Require(),
				Flag("use_rth"),
				Str("what_to_show").Require(),
				Num("format_date").Default(protocol.Int(1)).Validate(between(1, 2)),
			),
			comboLegFields(),
			fs(
				Flag("keep_up_to_date").Since("synt_realtime_bars"),
				Str("chart_options").Since("linking").Normalize(canonicalOptions),
			),
		).checked(checkHistoricalData),
		op(CancelHistoricalData, fs(Version(1), ReqID().Require())).cancel(),

		op(ReqHeadTimestamp,
			fs(ReqID()),
			contractFields(shapeFull|withIncludeExpired, ""),
			fs(
				Flag("use_rth"),
				Str("what_to_show").Require(),
				Num("format_date").Default(protocol.Int(1)).Validate(between(1, 2)),
			),
		).since("req_head_timestamp"),
		op(CancelHeadTimestamp, fs(ReqID().Require())).since("cancel_headtimestamp").cancel(),

		op(ReqHistogramData,
			fs(ReqID()),
			contractFields(shapeFull|withIncludeExpired, ""),
			fs(
				Flag("use_rth"),
				Str("time_period").Require(),
			),
		).since("req_histogram"),
		op(CancelHistogramData, fs(ReqID().Require())).since("req_histogram").cancel(),

		op(ReqHistoricalTicks,
			fs(ReqID()),
			contractFields(shapeFull|withIncludeExpired, ""),
			fs(
				Str("start_date_time"),
				Str("end_date_time"),
				Num("number_of_ticks").Require().Validate(between(1, maxHistoricalTicks)),
				Str("what_to_show").Require().Validate(oneOf("TRADES", "MIDPOINT", "BID_ASK")),
				Flag("use_rth"),
				Flag("ignore_size"),
				Str("misc_options").Normalize(canonicalOptions),
			),
		).since("historical_ticks").checked(checkHistoricalTicks),
	}
}

func checkHistoricalData(args Args, ctx Context) error {
	if args.Truthy("keep_up_to_date") && args.Text("end_date_time") != "" {
		return invalid("end_date_time", "must be empty when keep_up_to_date is set")
	}
	if args.Text("what_to_show") == "SCHEDULE" && !ctx.supports("historical_schedule") {
		v, _ := ctx.minVersion("historical_schedule")
		return needsVersion("what_to_show", v, ctx.Version)
	}
	return nil
}

func checkHistoricalTicks(args Args, _ Context) error {
	start, end := args.Text("start_date_time") != "", args.Text("end_date_time") != ""
	if start == end {
		return invalid("start_date_time", "exactly one of start_date_time and end_date_time must be set")
	}
	return nil
}
