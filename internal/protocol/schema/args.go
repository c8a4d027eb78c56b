package schema

import (
	"errors"
	"strings"

	"github.com/danmuck/ibctl/internal/protocol"
)

// Args carries the named inputs of one call. Structured payloads flatten into
// it under a record prefix such as "contract." or "order.".
type Args map[string]protocol.Value

// Set stores v under name and returns a for chaining.
func (a Args) Set(name string, v protocol.Value) Args {
	a[name] = v
	return a
}

// Text returns the string value of name, or "" when absent.
func (a Args) Text(name string) string {
	v, ok := a[name]
	if !ok || v.Kind() != protocol.KindString {
		return ""
	}
	return v.Str()
}

// Integer returns the integer value of name.
func (a Args) Integer(name string) (int64, bool) {
	v, ok := a[name]
	if !ok || v.Kind() != protocol.KindInt {
		return 0, false
	}
	return v.Int(), true
}

// Truthy reports whether name holds a true boolean.
func (a Args) Truthy(name string) bool {
	v, ok := a[name]
	return ok && v.Kind() == protocol.KindBool && v.Bool()
}

// Has reports whether name holds a non-zero value.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && !v.IsZero()
}

// Merge copies every entry of other into a.
func (a Args) Merge(other Args) Args {
	for k, v := range other {
		a[k] = v
	}
	return a
}

func blank(v protocol.Value) bool {
	switch v.Kind() {
	case protocol.KindEmpty:
		return true
	case protocol.KindString:
		return strings.TrimSpace(v.Str()) == ""
	default:
		return false
	}
}

func invalid(field, reason string) error {
	return &protocol.ParameterError{Field: field, Reason: reason}
}

func needsVersion(field string, required, negotiated int) error {
	return &protocol.VersionError{Field: field, Required: required, Negotiated: negotiated}
}

var (
	errNegative    = errors.New("must be non-negative")
	errNotPositive = errors.New("must be positive")
)

func nonNegative(v protocol.Value) error {
	if v.Kind() == protocol.KindInt && v.Int() < 0 {
		return errNegative
	}
	if v.Kind() == protocol.KindFloat && v.Float() < 0 {
		return errNegative
	}
	if v.Kind() == protocol.KindDecimal && v.Decimal().IsNegative() {
		return errNegative
	}
	return nil
}

func positive(v protocol.Value) error {
	if v.Kind() == protocol.KindInt && v.Int() <= 0 {
		return errNotPositive
	}
	return nil
}

func oneOf(allowed ...string) Check {
	return func(v protocol.Value) error {
		if v.Kind() != protocol.KindString {
			return nil
		}
		for _, a := range allowed {
			if v.Str() == a {
				return nil
			}
		}
		return errors.New("must be one of " + strings.Join(allowed, ", "))
	}
}

func between(lo, hi int64) Check {
	return func(v protocol.Value) error {
		if v.Kind() != protocol.KindInt {
			return nil
		}
		if v.Int() < lo || v.Int() > hi {
			return errors.New("out of range")
		}
		return nil
	}
}
