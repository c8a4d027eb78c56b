package schema

import "github.com/danmuck/ibctl/internal/protocol"

// Contract describes an instrument. The builder reads only the fields an
// operation declares.
type Contract struct {
	ConID           int64
	Symbol          string
	SecType         string
	LastTradeDate   string
	Strike          float64
	Right           string
	Multiplier      string
	Exchange        string
	PrimaryExchange string
	Currency        string
	LocalSymbol     string
	TradingClass    string
	IncludeExpired  bool
	SecIDType       string
	SecID           string
	IssuerID        string
	ComboLegs       []ComboLeg
	DeltaNeutral    *DeltaNeutralContract
}

// ComboLeg is one leg of a BAG contract.
type ComboLeg struct {
	ConID              int64
	Ratio              int64
	Action             string
	Exchange           string
	OpenClose          int64
	ShortSaleSlot      int64
	DesignatedLocation string
	ExemptCode         int64
}

type DeltaNeutralContract struct {
	ConID int64
	Delta float64
	Price float64
}

// IsCombo reports whether the contract carries legs on the wire.
func (c Contract) IsCombo() bool {
	return c.SecType == "BAG"
}

// AppendTo flattens c into a under the "contract." prefix.
func (c Contract) AppendTo(a Args) Args {
	a["contract.con_id"] = protocol.Int(c.ConID)
	a["contract.symbol"] = protocol.String(c.Symbol)
	a["contract.sec_type"] = protocol.String(c.SecType)
	a["contract.last_trade_date"] = protocol.String(c.LastTradeDate)
	a["contract.strike"] = protocol.Float(c.Strike)
	a["contract.right"] = protocol.String(c.Right)
	a["contract.multiplier"] = protocol.String(c.Multiplier)
	a["contract.exchange"] = protocol.String(c.Exchange)
	a["contract.primary_exchange"] = protocol.String(c.PrimaryExchange)
	a["contract.currency"] = protocol.String(c.Currency)
	a["contract.local_symbol"] = protocol.String(c.LocalSymbol)
	a["contract.trading_class"] = protocol.String(c.TradingClass)
	a["contract.include_expired"] = protocol.Bool(c.IncludeExpired)
	a["contract.sec_id_type"] = protocol.String(c.SecIDType)
	a["contract.sec_id"] = protocol.String(c.SecID)
	a["contract.issuer_id"] = protocol.String(c.IssuerID)
	if c.IsCombo() {
		short := make([]protocol.Value, 0, 4*len(c.ComboLegs))
		full := make([]protocol.Value, 0, 8*len(c.ComboLegs))
		for _, leg := range c.ComboLegs {
			head := []protocol.Value{
				protocol.Int(leg.ConID),
				protocol.Int(leg.Ratio),
				protocol.String(leg.Action),
				protocol.String(leg.Exchange),
			}
			short = append(short, head...)
			full = append(full, head...)
			full = append(full,
				protocol.Int(leg.OpenClose),
				protocol.Int(leg.ShortSaleSlot),
				protocol.String(leg.DesignatedLocation),
				protocol.Int(leg.ExemptCode),
			)
		}
		a["contract.combo_legs"] = protocol.Counted(len(c.ComboLegs), short...)
		a["contract.combo_legs_full"] = protocol.Counted(len(c.ComboLegs), full...)
	}
	if dn := c.DeltaNeutral; dn != nil {
		a["contract.delta_neutral"] = protocol.Group(
			protocol.Bool(true),
			protocol.Int(dn.ConID),
			protocol.Float(dn.Delta),
			protocol.Float(dn.Price),
		)
	}
	return a
}

type contractShape uint16

const (
	withConID contractShape = 1 << iota
	withPrimaryExchange
	withTradingClass
	withIncludeExpired
	withSecID
	withIssuerID
	withoutRight
)

const (
	shapeFull   = withConID | withPrimaryExchange | withTradingClass
	shapeLookup = shapeFull | withIncludeExpired | withSecID | withIssuerID
)

// contractFields declares the contract prefix of an operation. conIDFeature
// gates con_id for operations older than con_id support.
func contractFields(shape contractShape, conIDFeature string) []FieldSpec {
	out := make([]FieldSpec, 0, 16)
	if shape&withConID != 0 {
		f := Num("contract.con_id").Validate(nonNegative)
		if conIDFeature != "" {
			f = f.Since(conIDFeature)
		}
		out = append(out, f)
	}
	out = append(out,
		Str("contract.symbol"),
		Str("contract.sec_type"),
		Str("contract.last_trade_date"),
		Real("contract.strike"),
	)
	if shape&withoutRight == 0 {
		out = append(out, Str("contract.right"))
	}
	out = append(out,
		Str("contract.multiplier"),
		Str("contract.exchange"),
	)
	if shape&withPrimaryExchange != 0 {
		out = append(out, Str("contract.primary_exchange"))
	}
	out = append(out,
		Str("contract.currency"),
		Str("contract.local_symbol"),
	)
	if shape&withTradingClass != 0 {
		out = append(out, Str("contract.trading_class").Since("trading_class"))
	}
	if shape&withIncludeExpired != 0 {
		out = append(out, Flag("contract.include_expired"))
	}
	if shape&withSecID != 0 {
		out = append(out,
			Str("contract.sec_id_type").Since("sec_id_type"),
			Str("contract.sec_id").Since("sec_id_type"),
		)
	}
	if shape&withIssuerID != 0 {
		out = append(out, Str("contract.issuer_id").Since("bond_issuerid"))
	}
	return out
}

// comboLegFields emits legs only for BAG contracts.
func comboLegFields() []FieldSpec {
	return fs(Nested("contract.combo_legs").Omit())
}

func deltaNeutralField() FieldSpec {
	return Nested("contract.delta_neutral").
		Since("delta_neutral").
		Default(protocol.Group(protocol.Bool(false)))
}

// gated sets the feature gate of the named field in fields.
func gated(fields []FieldSpec, name, feature string) []FieldSpec {
	for i := range fields {
		if fields[i].name == name {
			fields[i] = fields[i].Since(feature)
		}
	}
	return fields
}
