package protocol

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind tags the representation carried by a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindDecimal
	KindGroup
)

// Sentinels the gateway treats as "not set"; both encode as an empty field.
const (
	UnsetInt   int64   = math.MaxInt32
	UnsetFloat float64 = math.MaxFloat64
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDecimal:
		return "decimal"
	case KindGroup:
		return "group"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one typed field prior to text encoding.
type Value struct {
	kind  Kind
	s     string
	i     int64
	f     float64
	b     bool
	d     decimal.Decimal
	group []Value
}

// Empty is an explicit empty field.
func Empty() Value { return Value{kind: KindEmpty} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }

// Group nests values that are flattened in place on encode.
func Group(vs ...Value) Value {
	g := make([]Value, len(vs))
	copy(g, vs)
	return Value{kind: KindGroup, group: g}
}

// Counted builds a group led by its element count.
func Counted(n int, vs ...Value) Value {
	g := make([]Value, 0, len(vs)+1)
	g = append(g, Int(int64(n)))
	g = append(g, vs...)
	return Value{kind: KindGroup, group: g}
}

// MaxInt maps UnsetInt to an empty field.
func MaxInt(i int64) Value {
	if i == UnsetInt {
		return Empty()
	}
	return Int(i)
}

// MaxFloat maps UnsetFloat to an empty field.
func MaxFloat(f float64) Value {
	if f == UnsetFloat {
		return Empty()
	}
	return Float(f)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() string { return v.s }

func (v Value) Int() int64 { return v.i }

func (v Value) Float() float64 { return v.f }

func (v Value) Bool() bool { return v.b }

func (v Value) Decimal() decimal.Decimal { return v.d }

func (v Value) Items() []Value { return v.group }

// IsZero reports whether v holds its kind's default.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindEmpty:
		return true
	case KindString:
		return v.s == ""
	case KindInt:
		return v.i == 0
	case KindFloat:
		return v.f == 0
	case KindBool:
		return !v.b
	case KindDecimal:
		return v.d.IsZero()
	case KindGroup:
		return v.group == nil
	default:
		return false
	}
}

// Text returns the wire text for a scalar value.
func (v Value) Text() (string, error) {
	switch v.kind {
	case KindEmpty:
		return "", nil
	case KindString:
		return v.s, nil
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return "", &EncodingError{Index: -1, Kind: v.kind, Reason: "non-finite float"}
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64), nil
	case KindBool:
		if v.b {
			return "1", nil
		}
		return "0", nil
	case KindDecimal:
		return v.d.String(), nil
	case KindGroup:
		return "", &EncodingError{Index: -1, Kind: v.kind, Reason: "group has no scalar text"}
	default:
		return "", &EncodingError{Index: -1, Kind: v.kind, Reason: "unknown kind"}
	}
}

// Flatten expands groups into a scalar sequence.
func Flatten(values []Value) []Value {
	out := make([]Value, 0, len(values))
	for _, v := range values {
		if v.kind == KindGroup {
			out = append(out, Flatten(v.group)...)
			continue
		}
		out = append(out, v)
	}
	return out
}
