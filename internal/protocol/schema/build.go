package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/shopspring/decimal"
)

// Context is the per-call view of the session a request is built against.
type Context struct {
	Version int
	// Accounts is the managed account set; nil skips account checks.
	Accounts map[string]struct{}

	caps Capabilities
}

func (c Context) minVersion(feature string) (int, bool) {
	return c.caps.MinVersion(feature)
}

// supports reports whether the negotiated version carries feature.
func (c Context) supports(feature string) bool {
	v, ok := c.minVersion(feature)
	return ok && c.Version >= v
}

// Request is a validated, ordered field list ready for framing. When the
// operation carries a correlation id the dispatcher fills it with AssignID.
type Request struct {
	Opcode Opcode
	Name   string
	Values []protocol.Value

	idKind  IDKind
	idSlot  int
	id      int64
	hasID   bool
	cancels bool
}

// NeedsID reports whether an id slot is still open.
func (r *Request) NeedsID() bool {
	return r.idKind != IDNone && !r.hasID
}

func (r *Request) IDKind() IDKind { return r.idKind }

// ID returns the correlation id and whether the request carries one.
func (r *Request) ID() (int64, bool) { return r.id, r.hasID }

// Cancels reports whether the request ends the request named by its id.
func (r *Request) Cancels() bool { return r.cancels }

// AssignID fills the open id slot.
func (r *Request) AssignID(id int64) error {
	if r.idKind == IDNone {
		return fmt.Errorf("%w: op=%s has no id field", protocol.ErrEncoding, r.Name)
	}
	if r.hasID {
		return fmt.Errorf("%w: op=%s id already assigned", protocol.ErrEncoding, r.Name)
	}
	r.Values[r.idSlot] = protocol.Int(id)
	r.id = id
	r.hasID = true
	return nil
}

// Encode returns the framed request.
func (r *Request) Encode() ([]byte, error) {
	if r.NeedsID() {
		return nil, &protocol.EncodingError{Index: r.idSlot, Kind: protocol.KindInt, Reason: "correlation id not assigned"}
	}
	return protocol.EncodeFrame(r.Values)
}

// Build validates args against the operation for code and returns the
// ordered field list. Nothing is written before Build succeeds.
func (c *Catalog) Build(code Opcode, ctx Context, args Args) (*Request, error) {
	o, ok := c.byCode[code]
	if !ok {
		return nil, &protocol.EncodingError{Index: -1, Kind: protocol.KindInt, Reason: fmt.Sprintf("unknown opcode %d", code)}
	}
	ctx.caps = c.caps
	if o.minVersion > ctx.Version {
		return nil, &protocol.VersionError{Op: o.Name, Required: o.minVersion, Negotiated: ctx.Version}
	}
	for name := range args {
		if _, declared := o.field(name); declared || o.inGroup(name) {
			continue
		}
		return nil, &protocol.EncodingError{Index: -1, Kind: args[name].Kind(), Reason: fmt.Sprintf("op %s: undeclared argument %q", o.Name, name)}
	}

	r := &Request{Opcode: o.Opcode, Name: o.Name, cancels: o.cancels}
	r.Values = make([]protocol.Value, 0, len(o.Fields)+1)
	r.Values = append(r.Values, protocol.Int(int64(o.Opcode)))

	for _, f := range o.Fields {
		if f.constant {
			r.Values = append(r.Values, f.value)
			continue
		}
		v, present := args[f.name]
		if present {
			var err error
			if v, err = coerce(f, v); err != nil {
				return nil, err
			}
		}
		if f.id != IDNone {
			if err := r.bindID(o, f, v, present, ctx); err != nil {
				return nil, err
			}
			continue
		}
		if !present {
			v = protocol.Empty()
			if f.hasDefault {
				v = f.def
			}
		}
		v, err := validate(o, f, v, present, ctx)
		if err != nil {
			return nil, err
		}
		if f.minVersion > ctx.Version {
			if present && !v.IsZero() {
				return nil, &protocol.VersionError{Op: o.Name, Field: f.name, Required: f.minVersion, Negotiated: ctx.Version}
			}
			continue
		}
		if f.omitZero && v.IsZero() {
			continue
		}
		if err := delimiterFree(o, f, v); err != nil {
			return nil, err
		}
		r.Values = append(r.Values, v)
	}

	if o.check != nil {
		if err := o.check(args, ctx); err != nil {
			return nil, withOp(err, o.Name)
		}
	}
	return r, nil
}

func (r *Request) bindID(o *Operation, f FieldSpec, v protocol.Value, present bool, ctx Context) error {
	if present && v.Kind() == protocol.KindEmpty {
		present = false
	}
	if f.minVersion > ctx.Version {
		if present {
			return &protocol.VersionError{Op: o.Name, Field: f.name, Required: f.minVersion, Negotiated: ctx.Version}
		}
		return nil
	}
	r.idKind = f.id
	r.idSlot = len(r.Values)
	if !present {
		if f.required {
			return &protocol.ParameterError{Op: o.Name, Field: f.name, Reason: "id required"}
		}
		r.Values = append(r.Values, protocol.Int(0))
		return nil
	}
	if v.Int() < 0 {
		return &protocol.ParameterError{Op: o.Name, Field: f.name, Reason: errNegative.Error()}
	}
	r.Values = append(r.Values, v)
	r.id = v.Int()
	r.hasID = true
	return nil
}

// delimiterFree rejects text that would split the field on the wire. It
// runs in Build so the call fails before an id is allocated.
func delimiterFree(o *Operation, f FieldSpec, v protocol.Value) error {
	for _, item := range protocol.Flatten([]protocol.Value{v}) {
		if item.Kind() == protocol.KindString && strings.IndexByte(item.Str(), protocol.Delimiter) >= 0 {
			return &protocol.EncodingError{
				Index:  -1,
				Kind:   protocol.KindString,
				Reason: fmt.Sprintf("op %s: field %s contains delimiter", o.Name, f.name),
			}
		}
	}
	return nil
}

// coerce checks v against the declared kind. Empty always passes and
// integers widen into decimal quantities.
func coerce(f FieldSpec, v protocol.Value) (protocol.Value, error) {
	switch {
	case v.Kind() == protocol.KindEmpty, v.Kind() == f.kind:
		return v, nil
	case f.kind == protocol.KindDecimal && v.Kind() == protocol.KindInt:
		return protocol.Decimal(decimal.NewFromInt(v.Int())), nil
	}
	return v, &protocol.EncodingError{
		Index:  -1,
		Kind:   v.Kind(),
		Reason: fmt.Sprintf("field %s expects %s", f.name, f.kind),
	}
}

func validate(o *Operation, f FieldSpec, v protocol.Value, present bool, ctx Context) (protocol.Value, error) {
	fail := func(reason string) error {
		return &protocol.ParameterError{Op: o.Name, Field: f.name, Reason: reason}
	}
	if present && f.transform != nil {
		out, err := f.transform(v)
		if err != nil {
			return v, fail(err.Error())
		}
		v = out
	}
	if f.required && blank(v) {
		return v, fail("required")
	}
	if f.check != nil && v.Kind() != protocol.KindEmpty {
		if err := f.check(v); err != nil {
			return v, fail(err.Error())
		}
	}
	if f.account && ctx.Accounts != nil && v.Kind() == protocol.KindString && v.Str() != "" {
		if _, ok := ctx.Accounts[v.Str()]; !ok {
			return v, fail(fmt.Sprintf("account %q is not managed by this session", v.Str()))
		}
	}
	return v, nil
}

func withOp(err error, name string) error {
	var pe *protocol.ParameterError
	if errors.As(err, &pe) && pe.Op == "" {
		pe.Op = name
	}
	var ve *protocol.VersionError
	if errors.As(err, &ve) && ve.Op == "" {
		ve.Op = name
	}
	return err
}
