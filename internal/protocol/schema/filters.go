package schema

import "github.com/danmuck/ibctl/internal/protocol"

// ExecutionFilter narrows the executions returned by req_executions.
type ExecutionFilter struct {
	ClientID int64
	AcctCode string
	Time     string
	Symbol   string
	SecType  string
	Exchange string
	Side     string
}

// AppendTo flattens f into a under the "filter." prefix.
func (f ExecutionFilter) AppendTo(a Args) Args {
	a["filter.client_id"] = protocol.Int(f.ClientID)
	a["filter.acct_code"] = protocol.String(f.AcctCode)
	a["filter.time"] = protocol.String(f.Time)
	a["filter.symbol"] = protocol.String(f.Symbol)
	a["filter.sec_type"] = protocol.String(f.SecType)
	a["filter.exchange"] = protocol.String(f.Exchange)
	a["filter.side"] = protocol.String(f.Side)
	return a
}

func executionFilterFields() []FieldSpec {
	return fs(
		Num("filter.client_id"),
		Str("filter.acct_code").Account(),
		Str("filter.time"),
		Str("filter.symbol"),
		Str("filter.sec_type"),
		Str("filter.exchange"),
		Str("filter.side").Validate(oneOf("", "BUY", "SELL")),
	)
}

// ScannerSubscription selects the instruments of a market scan. Use
// NewScannerSubscription for unset numeric bounds.
type ScannerSubscription struct {
	NumberOfRows             int64
	Instrument               string
	LocationCode             string
	ScanCode                 string
	AbovePrice               float64
	BelowPrice               float64
	AboveVolume              int64
	MarketCapAbove           float64
	MarketCapBelow           float64
	MoodyRatingAbove         string
	MoodyRatingBelow         string
	SPRatingAbove            string
	SPRatingBelow            string
	MaturityDateAbove        string
	MaturityDateBelow        string
	CouponRateAbove          float64
	CouponRateBelow          float64
	ExcludeConvertible       bool
	AverageOptionVolumeAbove int64
	ScannerSettingPairs      string
	StockTypeFilter          string
}

func NewScannerSubscription() ScannerSubscription {
	return ScannerSubscription{
		NumberOfRows:             -1,
		AbovePrice:               protocol.UnsetFloat,
		BelowPrice:               protocol.UnsetFloat,
		AboveVolume:              protocol.UnsetInt,
		MarketCapAbove:           protocol.UnsetFloat,
		MarketCapBelow:           protocol.UnsetFloat,
		CouponRateAbove:          protocol.UnsetFloat,
		CouponRateBelow:          protocol.UnsetFloat,
		AverageOptionVolumeAbove: protocol.UnsetInt,
	}
}

// AppendTo flattens s into a under the "scanner." prefix.
func (s ScannerSubscription) AppendTo(a Args) Args {
	rows := protocol.Int(s.NumberOfRows)
	if s.NumberOfRows == -1 || s.NumberOfRows == protocol.UnsetInt {
		rows = protocol.Empty()
	}
	a["scanner.number_of_rows"] = rows
	a["scanner.instrument"] = protocol.String(s.Instrument)
	a["scanner.location_code"] = protocol.String(s.LocationCode)
	a["scanner.scan_code"] = protocol.String(s.ScanCode)
	a["scanner.above_price"] = protocol.MaxFloat(s.AbovePrice)
	a["scanner.below_price"] = protocol.MaxFloat(s.BelowPrice)
	a["scanner.above_volume"] = protocol.MaxInt(s.AboveVolume)
	a["scanner.market_cap_above"] = protocol.MaxFloat(s.MarketCapAbove)
	a["scanner.market_cap_below"] = protocol.MaxFloat(s.MarketCapBelow)
	a["scanner.moody_rating_above"] = protocol.String(s.MoodyRatingAbove)
	a["scanner.moody_rating_below"] = protocol.String(s.MoodyRatingBelow)
	a["scanner.sp_rating_above"] = protocol.String(s.SPRatingAbove)
	a["scanner.sp_rating_below"] = protocol.String(s.SPRatingBelow)
	a["scanner.maturity_date_above"] = protocol.String(s.MaturityDateAbove)
	a["scanner.maturity_date_below"] = protocol.String(s.MaturityDateBelow)
	a["scanner.coupon_rate_above"] = protocol.MaxFloat(s.CouponRateAbove)
	a["scanner.coupon_rate_below"] = protocol.MaxFloat(s.CouponRateBelow)
	a["scanner.exclude_convertible"] = protocol.Bool(s.ExcludeConvertible)
	a["scanner.average_option_volume_above"] = protocol.MaxInt(s.AverageOptionVolumeAbove)
	a["scanner.scanner_setting_pairs"] = protocol.String(s.ScannerSettingPairs)
	a["scanner.stock_type_filter"] = protocol.String(s.StockTypeFilter)
	return a
}

func scannerFields() []FieldSpec {
	return fs(
		Num("scanner.number_of_rows"),
		Str("scanner.instrument"),
		Str("scanner.location_code"),
		Str("scanner.scan_code").Require(),
		Real("scanner.above_price"),
		Real("scanner.below_price"),
		Num("scanner.above_volume"),
		Real("scanner.market_cap_above"),
		Real("scanner.market_cap_below"),
		Str("scanner.moody_rating_above"),
		Str("scanner.moody_rating_below"),
		Str("scanner.sp_rating_above"),
		Str("scanner.sp_rating_below"),
		Str("scanner.maturity_date_above"),
		Str("scanner.maturity_date_below"),
		Real("scanner.coupon_rate_above"),
		Real("scanner.coupon_rate_below"),
		Flag("scanner.exclude_convertible"),
		Num("scanner.average_option_volume_above"),
		Str("scanner.scanner_setting_pairs"),
		Str("scanner.stock_type_filter"),
	)
}
