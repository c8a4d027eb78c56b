package schema

import (
	"strings"

	"github.com/danmuck/ibctl/internal/protocol"
)

// IDKind selects which session counter fills a correlation id slot.
type IDKind uint8

const (
	IDNone IDKind = iota
	IDRequest
	IDOrder
)

func (k IDKind) String() string {
	switch k {
	case IDRequest:
		return "request"
	case IDOrder:
		return "order"
	default:
		return "none"
	}
}

// Check validates one supplied value; the returned error becomes the reason
// of a ParameterError.
type Check func(v protocol.Value) error

// Transform rewrites a supplied value into its canonical wire form.
type Transform func(v protocol.Value) (protocol.Value, error)

// OpCheck validates cross-field rules. It may return a ParameterError or
// VersionError directly.
type OpCheck func(args Args, ctx Context) error

// FieldSpec declares one position in an operation's field list.
type FieldSpec struct {
	name       string
	kind       protocol.Kind
	constant   bool
	value      protocol.Value
	required   bool
	feature    string
	minVersion int
	omitZero   bool
	hasDefault bool
	def        protocol.Value
	check      Check
	transform  Transform
	id         IDKind
	account    bool
}

func spec(name string, kind protocol.Kind) FieldSpec {
	return FieldSpec{name: name, kind: kind}
}

// Str declares a text field.
func Str(name string) FieldSpec { return spec(name, protocol.KindString) }

// Num declares an integer field.
func Num(name string) FieldSpec { return spec(name, protocol.KindInt) }

// Real declares a floating-point field.
func Real(name string) FieldSpec { return spec(name, protocol.KindFloat) }

// Flag declares a boolean field.
func Flag(name string) FieldSpec { return spec(name, protocol.KindBool) }

// Qty declares a decimal quantity field.
func Qty(name string) FieldSpec { return spec(name, protocol.KindDecimal) }

// Nested declares a group field flattened in place.
func Nested(name string) FieldSpec { return spec(name, protocol.KindGroup) }

// Version declares the constant message version that follows the opcode.
func Version(n int64) FieldSpec {
	return FieldSpec{name: "version", kind: protocol.KindInt, constant: true, value: protocol.Int(n)}
}

// Blank declares a constant empty field kept for wire compatibility.
func Blank(name string) FieldSpec {
	return FieldSpec{name: name, kind: protocol.KindEmpty, constant: true, value: protocol.Empty()}
}

// ReqID declares an auto-allocated request id.
func ReqID() FieldSpec {
	return FieldSpec{name: "req_id", kind: protocol.KindInt, id: IDRequest}
}

// OrderID declares an auto-allocated order id.
func OrderID() FieldSpec {
	return FieldSpec{name: "order_id", kind: protocol.KindInt, id: IDOrder}
}

// Require makes the field mandatory. For id fields it disables allocation.
func (f FieldSpec) Require() FieldSpec {
	f.required = true
	return f
}

// Since gates the field on a capability feature.
func (f FieldSpec) Since(feature string) FieldSpec {
	f.feature = feature
	return f
}

// Omit drops the field from the wire when its value is zero.
func (f FieldSpec) Omit() FieldSpec {
	f.omitZero = true
	return f
}

// Default supplies the value used when the caller passes none.
func (f FieldSpec) Default(v protocol.Value) FieldSpec {
	f.hasDefault = true
	f.def = v
	return f
}

// Validate attaches a value check.
func (f FieldSpec) Validate(fn Check) FieldSpec {
	f.check = fn
	return f
}

// Normalize attaches a canonicalizing transform.
func (f FieldSpec) Normalize(fn Transform) FieldSpec {
	f.transform = fn
	return f
}

// Account checks non-empty values against the managed accounts.
func (f FieldSpec) Account() FieldSpec {
	f.account = true
	return f
}

func (f FieldSpec) Name() string { return f.name }

func (f FieldSpec) Kind() protocol.Kind { return f.kind }

func (f FieldSpec) Feature() string { return f.feature }

// MinVersion is the resolved version gate; 0 means always eligible.
func (f FieldSpec) MinVersion() int { return f.minVersion }

func (f FieldSpec) Required() bool { return f.required }

func (f FieldSpec) OmitsZero() bool { return f.omitZero }

func (f FieldSpec) IsConst() bool { return f.constant }

func (f FieldSpec) ID() IDKind { return f.id }

// Operation describes one outbound request kind.
type Operation struct {
	Opcode     Opcode
	Name       string
	Fields     []FieldSpec
	feature    string
	minVersion int
	check      OpCheck
	cancels    bool
	groups     []string
}

// MinVersion is the version introducing the operation; 0 means always.
func (o *Operation) MinVersion() int { return o.minVersion }

func (o *Operation) Feature() string { return o.feature }

// Cancels reports whether the operation ends the request named by its id.
func (o *Operation) Cancels() bool { return o.cancels }

// IDField returns the correlation id field, if any.
func (o *Operation) IDField() (FieldSpec, bool) {
	for _, f := range o.Fields {
		if f.id != IDNone {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func (o *Operation) field(name string) (FieldSpec, bool) {
	for _, f := range o.Fields {
		if f.name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// inGroup reports whether name belongs to a payload record this operation
// reads only partially.
func (o *Operation) inGroup(name string) bool {
	for _, prefix := range o.groups {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func op(code Opcode, parts ...[]FieldSpec) *Operation {
	o := &Operation{Opcode: code, Name: code.String()}
	for _, p := range parts {
		o.Fields = append(o.Fields, p...)
	}
	for _, f := range o.Fields {
		prefix, _, ok := strings.Cut(f.name, ".")
		if !ok {
			continue
		}
		group := prefix + "."
		known := false
		for _, g := range o.groups {
			known = known || g == group
		}
		if !known {
			o.groups = append(o.groups, group)
		}
	}
	return o
}

func fs(specs ...FieldSpec) []FieldSpec {
	return specs
}

func (o *Operation) since(feature string) *Operation {
	o.feature = feature
	return o
}

func (o *Operation) checked(fn OpCheck) *Operation {
	o.check = fn
	return o
}

func (o *Operation) cancel() *Operation {
	o.cancels = true
	return o
}
