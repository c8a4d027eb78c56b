package schema

import "github.com/danmuck/ibctl/internal/protocol"

func orderOperations() []*Operation {
	return []*Operation{
		op(PlaceOrder,
			fs(OrderID()),
			contractFields(withConID|withPrimaryExchange|withTradingClass|withSecID, "place_order_conid"),
			orderFields(),
		).checked(checkPlaceOrder),
		op(CancelOrder, fs(
			Version(1),
			OrderID().Require(),
			Str("manual_order_cancel_time").Since("manual_order_time"),
		)).cancel(),

		op(ReqOpenOrders, fs(Version(1))),
		op(ReqAutoOpenOrders, fs(Version(1), Flag("auto_bind"))),
		op(ReqAllOpenOrders, fs(Version(1))),
		op(ReqIDs, fs(
			Version(1),
			Num("num_ids").Default(protocol.Int(1)).Validate(positive),
		)),
		op(ReqGlobalCancel, fs(Version(1))).since("req_global_cancel"),
		op(ReqCompletedOrders, fs(Flag("api_only"))).since("completed_orders"),

		op(ExerciseOptions,
			fs(Version(2), ReqID()),
			contractFields(withConID|withTradingClass, "trading_class"),
			fs(
				Num("exercise_action").Require().Validate(between(1, 2)),
				Num("exercise_quantity").Require().Validate(positive),
				Str("account").Account(),
				Num("override").Validate(between(0, 1)),
				Str("manual_order_time").Since("manual_order_time_exercise_options"),
				Str("customer_account").Since("customer_account"),
				Flag("professional_customer").Since("professional_customer"),
			),
		),
	}
}
