package schema

import (
	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/shopspring/decimal"
)

// Order describes an order ticket. Use NewOrder for gateway defaults; float
// and integer fields holding protocol.UnsetFloat or protocol.UnsetInt are
// sent as empty fields.
type Order struct {
	Action        string
	TotalQuantity decimal.Decimal
	OrderType     string
	LmtPrice      float64
	AuxPrice      float64
	TIF           string
	OCAGroup      string
	Account       string
	OpenClose     string
	Origin        int64
	OrderRef      string
	Transmit      bool
	ParentID      int64
	BlockOrder    bool
	SweepToFill   bool
	DisplaySize   int64
	TriggerMethod int64
	OutsideRTH    bool
	Hidden        bool

	ComboLegPrices          []float64
	SmartComboRoutingParams []TagValue

	DiscretionaryAmt float64
	GoodAfterTime    string
	GoodTillDate     string
	FAGroup          string
	FAMethod         string
	FAPercentage     string
	ModelCode        string

	ShortSaleSlot      int64
	DesignatedLocation string
	ExemptCode         int64

	OCAType                       int64
	Rule80A                       string
	SettlingFirm                  string
	AllOrNone                     bool
	MinQty                        int64
	PercentOffset                 float64
	ETradeOnly                    bool
	FirmQuoteOnly                 bool
	NBBOPriceCap                  float64
	AuctionStrategy               int64
	StartingPrice                 float64
	StockRefPrice                 float64
	Delta                         float64
	StockRangeLower               float64
	StockRangeUpper               float64
	OverridePercentageConstraints bool

	Volatility            float64
	VolatilityType        int64
	DeltaNeutralOrderType string
	DeltaNeutralAuxPrice  float64
	DeltaNeutral          OrderDeltaNeutral
	ContinuousUpdate      bool
	ReferencePriceType    int64
	TrailStopPrice        float64
	TrailingPercent       float64

	ScaleInitLevelSize  int64
	ScaleSubsLevelSize  int64
	ScalePriceIncrement float64
	Scale               OrderScale
	ScaleTable          string
	ActiveStartTime     string
	ActiveStopTime      string

	HedgeType          string
	HedgeParam         string
	OptOutSmartRouting bool
	ClearingAccount    string
	ClearingIntent     string
	NotHeld            bool

	AlgoStrategy string
	AlgoParams   []TagValue
	AlgoID       string

	WhatIf         bool
	MiscOptions    Options
	Solicited      bool
	RandomizeSize  bool
	RandomizePrice bool

	ReferenceContractID          int64
	IsPeggedChangeAmountDecrease bool
	PeggedChangeAmount           float64
	ReferenceChangeAmount        float64
	ReferenceExchangeID          string

	Conditions            []OrderCondition
	ConditionsIgnoreRTH   bool
	ConditionsCancelOrder bool

	AdjustedOrderType      string
	TriggerPrice           float64
	LmtPriceOffset         float64
	AdjustedStopPrice      float64
	AdjustedStopLimitPrice float64
	AdjustedTrailingAmount float64
	AdjustableTrailingUnit int64

	ExtOperator    string
	SoftDollarTier SoftDollarTier
	CashQty        float64

	Mifid2DecisionMaker   string
	Mifid2DecisionAlgo    string
	Mifid2ExecutionTrader string
	Mifid2ExecutionAlgo   string

	DontUseAutoPriceForHedge    bool
	IsOMSContainer              bool
	DiscretionaryUpToLimitPrice bool
	UsePriceMgmtAlgo            *bool
	Duration                    int64
	PostToATS                   int64
	AutoCancelParent            bool
	AdvancedErrorOverride       string
	ManualOrderTime             string

	MinTradeQty              int64
	MinCompeteSize           int64
	CompeteAgainstBestOffset float64
	MidOffsetAtWhole         float64
	MidOffsetAtHalf          float64

	CustomerAccount      string
	ProfessionalCustomer bool
}

// OrderDeltaNeutral carries the hedge leg of a volatility order.
type OrderDeltaNeutral struct {
	ConID              int64
	SettlingFirm       string
	ClearingAccount    string
	ClearingIntent     string
	OpenClose          string
	ShortSale          bool
	ShortSaleSlot      int64
	DesignatedLocation string
}

// OrderScale carries the scale-order extension sent when a price increment is set.
type OrderScale struct {
	PriceAdjustValue    float64
	PriceAdjustInterval int64
	ProfitOffset        float64
	AutoReset           bool
	InitPosition        int64
	InitFillQty         int64
	RandomPercent       bool
}

// OrderCondition is one pre-encoded order condition.
type OrderCondition struct {
	Type        int64
	Conjunction string
	Fields      []protocol.Value
}

type SoftDollarTier struct {
	Name  string
	Value string
}

// NewOrder returns an order with the gateway's unset defaults.
func NewOrder() Order {
	return Order{
		LmtPrice:               protocol.UnsetFloat,
		AuxPrice:               protocol.UnsetFloat,
		Transmit:               true,
		ExemptCode:             -1,
		MinQty:                 protocol.UnsetInt,
		PercentOffset:          protocol.UnsetFloat,
		NBBOPriceCap:           protocol.UnsetFloat,
		StartingPrice:          protocol.UnsetFloat,
		StockRefPrice:          protocol.UnsetFloat,
		Delta:                  protocol.UnsetFloat,
		StockRangeLower:        protocol.UnsetFloat,
		StockRangeUpper:        protocol.UnsetFloat,
		Volatility:             protocol.UnsetFloat,
		VolatilityType:         protocol.UnsetInt,
		DeltaNeutralAuxPrice:   protocol.UnsetFloat,
		ReferencePriceType:     protocol.UnsetInt,
		TrailStopPrice:         protocol.UnsetFloat,
		TrailingPercent:        protocol.UnsetFloat,
		ScaleInitLevelSize:     protocol.UnsetInt,
		ScaleSubsLevelSize:     protocol.UnsetInt,
		ScalePriceIncrement:    protocol.UnsetFloat,
		TriggerPrice:           protocol.UnsetFloat,
		LmtPriceOffset:         protocol.UnsetFloat,
		AdjustedStopPrice:      protocol.UnsetFloat,
		AdjustedStopLimitPrice: protocol.UnsetFloat,
		AdjustedTrailingAmount: protocol.UnsetFloat,
		CashQty:                protocol.UnsetFloat,
		Duration:               protocol.UnsetInt,
		PostToATS:              protocol.UnsetInt,

		MinTradeQty:              protocol.UnsetInt,
		MinCompeteSize:           protocol.UnsetInt,
		CompeteAgainstBestOffset: protocol.UnsetFloat,
		MidOffsetAtWhole:         protocol.UnsetFloat,
		MidOffsetAtHalf:          protocol.UnsetFloat,
	}
}

func (o Order) scaleSet() bool {
	return o.ScalePriceIncrement > 0 && o.ScalePriceIncrement != protocol.UnsetFloat
}

func (o Order) pegBestSet() bool {
	return o.MinTradeQty != protocol.UnsetInt ||
		o.MinCompeteSize != protocol.UnsetInt ||
		o.CompeteAgainstBestOffset != protocol.UnsetFloat ||
		o.MidOffsetAtWhole != protocol.UnsetFloat ||
		o.MidOffsetAtHalf != protocol.UnsetFloat
}

// AppendTo flattens o into a under the "order." prefix. Combo extensions are
// emitted only when combo is true.
func (o Order) AppendTo(a Args, combo bool) Args {
	set := func(name string, v protocol.Value) { a["order."+name] = v }

	set("action", protocol.String(o.Action))
	set("total_quantity", protocol.Decimal(o.TotalQuantity))
	set("order_type", protocol.String(o.OrderType))
	set("lmt_price", protocol.MaxFloat(o.LmtPrice))
	set("aux_price", protocol.MaxFloat(o.AuxPrice))
	set("tif", protocol.String(o.TIF))
	set("oca_group", protocol.String(o.OCAGroup))
	set("account", protocol.String(o.Account))
	set("open_close", protocol.String(o.OpenClose))
	set("origin", protocol.Int(o.Origin))
	set("order_ref", protocol.String(o.OrderRef))
	set("transmit", protocol.Bool(o.Transmit))
	set("parent_id", protocol.Int(o.ParentID))
	set("block_order", protocol.Bool(o.BlockOrder))
	set("sweep_to_fill", protocol.Bool(o.SweepToFill))
	set("display_size", protocol.Int(o.DisplaySize))
	set("trigger_method", protocol.Int(o.TriggerMethod))
	set("outside_rth", protocol.Bool(o.OutsideRTH))
	set("hidden", protocol.Bool(o.Hidden))

	if combo {
		prices := make([]protocol.Value, len(o.ComboLegPrices))
		for i, p := range o.ComboLegPrices {
			prices[i] = protocol.MaxFloat(p)
		}
		set("combo_leg_prices", protocol.Counted(len(prices), prices...))
		set("smart_combo_routing_params", tagValueGroup(o.SmartComboRoutingParams))
	}

	set("discretionary_amt", protocol.Float(o.DiscretionaryAmt))
	set("good_after_time", protocol.String(o.GoodAfterTime))
	set("good_till_date", protocol.String(o.GoodTillDate))
	set("fa_group", protocol.String(o.FAGroup))
	set("fa_method", protocol.String(o.FAMethod))
	set("fa_percentage", protocol.String(o.FAPercentage))
	set("model_code", protocol.String(o.ModelCode))
	set("short_sale_slot", protocol.Int(o.ShortSaleSlot))
	set("designated_location", protocol.String(o.DesignatedLocation))
	set("exempt_code", protocol.Int(o.ExemptCode))
	set("oca_type", protocol.Int(o.OCAType))
	set("rule80a", protocol.String(o.Rule80A))
	set("settling_firm", protocol.String(o.SettlingFirm))
	set("all_or_none", protocol.Bool(o.AllOrNone))
	set("min_qty", protocol.MaxInt(o.MinQty))
	set("percent_offset", protocol.MaxFloat(o.PercentOffset))
	set("e_trade_only", protocol.Bool(o.ETradeOnly))
	set("firm_quote_only", protocol.Bool(o.FirmQuoteOnly))
	set("nbbo_price_cap", protocol.MaxFloat(o.NBBOPriceCap))
	set("auction_strategy", protocol.Int(o.AuctionStrategy))
	set("starting_price", protocol.MaxFloat(o.StartingPrice))
	set("stock_ref_price", protocol.MaxFloat(o.StockRefPrice))
	set("delta", protocol.MaxFloat(o.Delta))
	set("stock_range_lower", protocol.MaxFloat(o.StockRangeLower))
	set("stock_range_upper", protocol.MaxFloat(o.StockRangeUpper))
	set("override_percentage_constraints", protocol.Bool(o.OverridePercentageConstraints))
	set("volatility", protocol.MaxFloat(o.Volatility))
	set("volatility_type", protocol.MaxInt(o.VolatilityType))
	set("delta_neutral_order_type", protocol.String(o.DeltaNeutralOrderType))
	set("delta_neutral_aux_price", protocol.MaxFloat(o.DeltaNeutralAuxPrice))
	if o.DeltaNeutralOrderType != "" {
		dn := o.DeltaNeutral
		set("delta_neutral_details", protocol.Group(
			protocol.Int(dn.ConID),
			protocol.String(dn.SettlingFirm),
			protocol.String(dn.ClearingAccount),
			protocol.String(dn.ClearingIntent),
			protocol.String(dn.OpenClose),
			protocol.Bool(dn.ShortSale),
			protocol.Int(dn.ShortSaleSlot),
			protocol.String(dn.DesignatedLocation),
		))
	}
	set("continuous_update", protocol.Bool(o.ContinuousUpdate))
	set("reference_price_type", protocol.MaxInt(o.ReferencePriceType))
	set("trail_stop_price", protocol.MaxFloat(o.TrailStopPrice))
	set("trailing_percent", protocol.MaxFloat(o.TrailingPercent))
	set("scale_init_level_size", protocol.MaxInt(o.ScaleInitLevelSize))
	set("scale_subs_level_size", protocol.MaxInt(o.ScaleSubsLevelSize))
	set("scale_price_increment", protocol.MaxFloat(o.ScalePriceIncrement))
	if o.scaleSet() {
		sc := o.Scale
		set("scale_details", protocol.Group(
			protocol.MaxFloat(sc.PriceAdjustValue),
			protocol.MaxInt(sc.PriceAdjustInterval),
			protocol.MaxFloat(sc.ProfitOffset),
			protocol.Bool(sc.AutoReset),
			protocol.MaxInt(sc.InitPosition),
			protocol.MaxInt(sc.InitFillQty),
			protocol.Bool(sc.RandomPercent),
		))
	}
	set("scale_table", protocol.String(o.ScaleTable))
	set("active_start_time", protocol.String(o.ActiveStartTime))
	set("active_stop_time", protocol.String(o.ActiveStopTime))
	if o.HedgeType != "" {
		set("hedge", protocol.Group(protocol.String(o.HedgeType), protocol.String(o.HedgeParam)))
	}
	set("opt_out_smart_routing", protocol.Bool(o.OptOutSmartRouting))
	set("clearing_account", protocol.String(o.ClearingAccount))
	set("clearing_intent", protocol.String(o.ClearingIntent))
	set("not_held", protocol.Bool(o.NotHeld))
	if o.AlgoStrategy != "" {
		set("algo", protocol.Group(protocol.String(o.AlgoStrategy), tagValueGroup(o.AlgoParams)))
	}
	set("algo_id", protocol.String(o.AlgoID))
	set("what_if", protocol.Bool(o.WhatIf))
	set("misc_options", o.MiscOptions.Value())
	set("solicited", protocol.Bool(o.Solicited))
	set("randomize_size", protocol.Bool(o.RandomizeSize))
	set("randomize_price", protocol.Bool(o.RandomizePrice))
	if o.OrderType == "PEG BENCH" {
		set("peg_bench", protocol.Group(
			protocol.Int(o.ReferenceContractID),
			protocol.Bool(o.IsPeggedChangeAmountDecrease),
			protocol.Float(o.PeggedChangeAmount),
			protocol.Float(o.ReferenceChangeAmount),
			protocol.String(o.ReferenceExchangeID),
		))
	}
	if len(o.Conditions) > 0 {
		vs := make([]protocol.Value, 0, 4*len(o.Conditions)+2)
		for _, c := range o.Conditions {
			vs = append(vs, protocol.Int(c.Type), protocol.String(c.Conjunction))
			vs = append(vs, c.Fields...)
		}
		vs = append(vs, protocol.Bool(o.ConditionsIgnoreRTH), protocol.Bool(o.ConditionsCancelOrder))
		set("conditions", protocol.Counted(len(o.Conditions), vs...))
	}
	set("adjusted_order_type", protocol.String(o.AdjustedOrderType))
	set("trigger_price", protocol.MaxFloat(o.TriggerPrice))
	set("lmt_price_offset", protocol.MaxFloat(o.LmtPriceOffset))
	set("adjusted_stop_price", protocol.MaxFloat(o.AdjustedStopPrice))
	set("adjusted_stop_limit_price", protocol.MaxFloat(o.AdjustedStopLimitPrice))
	set("adjusted_trailing_amount", protocol.MaxFloat(o.AdjustedTrailingAmount))
	set("adjustable_trailing_unit", protocol.Int(o.AdjustableTrailingUnit))
	set("ext_operator", protocol.String(o.ExtOperator))
	if o.SoftDollarTier != (SoftDollarTier{}) {
		set("soft_dollar_tier", protocol.Group(
			protocol.String(o.SoftDollarTier.Name),
			protocol.String(o.SoftDollarTier.Value),
		))
	}
	set("cash_qty", protocol.MaxFloat(o.CashQty))
	set("mifid2_decision_maker", protocol.String(o.Mifid2DecisionMaker))
	set("mifid2_decision_algo", protocol.String(o.Mifid2DecisionAlgo))
	set("mifid2_execution_trader", protocol.String(o.Mifid2ExecutionTrader))
	set("mifid2_execution_algo", protocol.String(o.Mifid2ExecutionAlgo))
	set("dont_use_auto_price_for_hedge", protocol.Bool(o.DontUseAutoPriceForHedge))
	set("is_oms_container", protocol.Bool(o.IsOMSContainer))
	set("discretionary_up_to_limit_price", protocol.Bool(o.DiscretionaryUpToLimitPrice))
	if o.UsePriceMgmtAlgo != nil {
		set("use_price_mgmt_algo", protocol.Bool(*o.UsePriceMgmtAlgo))
	}
	set("duration", protocol.MaxInt(o.Duration))
	set("post_to_ats", protocol.MaxInt(o.PostToATS))
	set("auto_cancel_parent", protocol.Bool(o.AutoCancelParent))
	set("advanced_error_override", protocol.String(o.AdvancedErrorOverride))
	set("manual_order_time", protocol.String(o.ManualOrderTime))
	if o.pegBestSet() {
		set("peg_best_peg_mid", protocol.Group(
			protocol.MaxInt(o.MinTradeQty),
			protocol.MaxInt(o.MinCompeteSize),
			protocol.MaxFloat(o.CompeteAgainstBestOffset),
			protocol.MaxFloat(o.MidOffsetAtWhole),
			protocol.MaxFloat(o.MidOffsetAtHalf),
		))
	}
	set("customer_account", protocol.String(o.CustomerAccount))
	set("professional_customer", protocol.Bool(o.ProfessionalCustomer))
	return a
}

// orderFields declares the order body of place_order after the contract.
func orderFields() []FieldSpec {
	return fs(
		Str("order.action").Require().Validate(oneOf("BUY", "SELL", "SSHORT", "SLONG")),
		Qty("order.total_quantity"),
		Str("order.order_type").Require(),
		Real("order.lmt_price"),
		Real("order.aux_price"),
		Str("order.tif"),
		Str("order.oca_group"),
		Str("order.account").Account(),
		Str("order.open_close"),
		Num("order.origin").Validate(between(0, 1)),
		Str("order.order_ref"),
		Flag("order.transmit").Default(protocol.Bool(true)),
		Num("order.parent_id").Validate(nonNegative),
		Flag("order.block_order"),
		Flag("order.sweep_to_fill"),
		Num("order.display_size"),
		Num("order.trigger_method"),
		Flag("order.outside_rth"),
		Flag("order.hidden"),
		Nested("contract.combo_legs_full").Omit(),
		Nested("order.combo_leg_prices").Omit().Since("order_combo_legs_price"),
		Nested("order.smart_combo_routing_params").Omit().Since("smart_combo_routing_params"),
		Blank("order.shares_allocation"),
		Real("order.discretionary_amt"),
		Str("order.good_after_time"),
		Str("order.good_till_date"),
		Str("order.fa_group"),
		Str("order.fa_method"),
		Str("order.fa_percentage"),
		Str("order.model_code").Since("models_support"),
		Num("order.short_sale_slot"),
		Str("order.designated_location"),
		Num("order.exempt_code").Since("sshortx_old").Default(protocol.Int(-1)),
		Num("order.oca_type"),
		Str("order.rule80a"),
		Str("order.settling_firm"),
		Flag("order.all_or_none"),
		Num("order.min_qty"),
		Real("order.percent_offset"),
		Flag("order.e_trade_only"),
		Flag("order.firm_quote_only"),
		Real("order.nbbo_price_cap"),
		Num("order.auction_strategy"),
		Real("order.starting_price"),
		Real("order.stock_ref_price"),
		Real("order.delta"),
		Real("order.stock_range_lower"),
		Real("order.stock_range_upper"),
		Flag("order.override_percentage_constraints"),
		Real("order.volatility"),
		Num("order.volatility_type"),
		Str("order.delta_neutral_order_type"),
		Real("order.delta_neutral_aux_price"),
		Nested("order.delta_neutral_details").Omit().Since("delta_neutral_conid"),
		Flag("order.continuous_update"),
		Num("order.reference_price_type"),
		Real("order.trail_stop_price"),
		Real("order.trailing_percent").Since("trailing_percent"),
		Num("order.scale_init_level_size"),
		Num("order.scale_subs_level_size"),
		Real("order.scale_price_increment"),
		Nested("order.scale_details").Omit().Since("scale_orders3"),
		Str("order.scale_table").Since("scale_table"),
		Str("order.active_start_time").Since("scale_table"),
		Str("order.active_stop_time").Since("scale_table"),
		Nested("order.hedge").Since("hedge_orders").Default(protocol.Group(protocol.String(""))),
		Flag("order.opt_out_smart_routing").Since("opt_out_smart_routing"),
		Str("order.clearing_account").Since("pta_orders"),
		Str("order.clearing_intent").Since("pta_orders"),
		Flag("order.not_held").Since("not_held"),
		deltaNeutralField(),
		Nested("order.algo").Since("algo_orders").Default(protocol.Group(protocol.String(""))),
		Str("order.algo_id").Since("algo_id"),
		Flag("order.what_if"),
		Str("order.misc_options").Since("linking").Normalize(canonicalOptions),
		Flag("order.solicited").Since("order_solicited"),
		Flag("order.randomize_size").Since("randomize_size_and_price"),
		Flag("order.randomize_price").Since("randomize_size_and_price"),
		Nested("order.peg_bench").Omit().Since("pegged_to_benchmark"),
		Nested("order.conditions").Since("pegged_to_benchmark").Default(protocol.Counted(0)),
		Str("order.adjusted_order_type").Since("pegged_to_benchmark"),
		Real("order.trigger_price").Since("pegged_to_benchmark"),
		Real("order.lmt_price_offset").Since("pegged_to_benchmark"),
		Real("order.adjusted_stop_price").Since("pegged_to_benchmark"),
		Real("order.adjusted_stop_limit_price").Since("pegged_to_benchmark"),
		Real("order.adjusted_trailing_amount").Since("pegged_to_benchmark"),
		Num("order.adjustable_trailing_unit").Since("pegged_to_benchmark"),
		Str("order.ext_operator").Since("ext_operator"),
		Nested("order.soft_dollar_tier").Since("soft_dollar_tier").
			Default(protocol.Group(protocol.String(""), protocol.String(""))),
		Real("order.cash_qty").Since("cash_qty"),
		Str("order.mifid2_decision_maker").Since("decision_maker"),
		Str("order.mifid2_decision_algo").Since("decision_maker"),
		Str("order.mifid2_execution_trader").Since("mifid_execution"),
		Str("order.mifid2_execution_algo").Since("mifid_execution"),
		Flag("order.dont_use_auto_price_for_hedge").Since("auto_price_for_hedge"),
		Flag("order.is_oms_container").Since("order_container"),
		Flag("order.discretionary_up_to_limit_price").Since("d_peg_orders"),
		Flag("order.use_price_mgmt_algo").Since("price_mgmt_algo"),
		Num("order.duration").Since("duration"),
		Num("order.post_to_ats").Since("post_to_ats"),
		Flag("order.auto_cancel_parent").Since("auto_cancel_parent"),
		Str("order.advanced_error_override").Since("advanced_order_reject"),
		Str("order.manual_order_time").Since("manual_order_time"),
		Nested("order.peg_best_peg_mid").Omit().Since("pegbest_pegmid_offsets"),
		Str("order.customer_account").Since("customer_account"),
		Flag("order.professional_customer").Since("professional_customer"),
	)
}

// checkPlaceOrder enforces quantity rules that depend on the version.
func checkPlaceOrder(args Args, ctx Context) error {
	qty := args["order.total_quantity"]
	if qty.Kind() == protocol.KindInt {
		qty = protocol.Decimal(decimal.NewFromInt(qty.Int()))
	}
	if qty.Kind() == protocol.KindDecimal {
		if qty.Decimal().IsNegative() {
			return invalid("order.total_quantity", "must be non-negative")
		}
		if !qty.Decimal().Equal(qty.Decimal().Truncate(0)) {
			if v, ok := ctx.minVersion("fractional_size_support"); ok && ctx.Version < v {
				return needsVersion("order.total_quantity", v, ctx.Version)
			}
		}
	}
	if qty.IsZero() && !args.Has("order.cash_qty") {
		return invalid("order.total_quantity", "quantity or cash_qty required")
	}
	return nil
}
