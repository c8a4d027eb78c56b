package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Catalog is the immutable set of outbound operations with every feature
// gate resolved to a server version.
type Catalog struct {
	caps   Capabilities
	byCode map[Opcode]*Operation
	byName map[string]*Operation
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded capability table.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		caps, err := LoadCapabilities(strings.NewReader(defaultCapabilities))
		if err != nil {
			defaultErr = err
			return
		}
		defaultCatalog, defaultErr = NewCatalog(caps)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for callers that treat a broken embedded table as a
// programming error.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog resolves every operation against caps. Unknown feature names
// and duplicate opcodes are errors.
func NewCatalog(caps Capabilities) (*Catalog, error) {
	c := &Catalog{
		caps:   caps,
		byCode: make(map[Opcode]*Operation),
		byName: make(map[string]*Operation),
	}
	for _, o := range operations() {
		if err := c.add(o); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(o *Operation) error {
	if _, dup := c.byCode[o.Opcode]; dup {
		return fmt.Errorf("schema: duplicate opcode %d", o.Opcode)
	}
	if o.feature != "" {
		v, ok := c.caps.MinVersion(o.feature)
		if !ok {
			return fmt.Errorf("schema: op %s: unknown feature %q", o.Name, o.feature)
		}
		o.minVersion = v
	}
	ids := 0
	for i := range o.Fields {
		f := &o.Fields[i]
		if f.id != IDNone {
			ids++
		}
		if f.feature == "" {
			continue
		}
		v, ok := c.caps.MinVersion(f.feature)
		if !ok {
			return fmt.Errorf("schema: op %s field %s: unknown feature %q", o.Name, f.name, f.feature)
		}
		f.minVersion = v
	}
	if ids > 1 {
		return fmt.Errorf("schema: op %s declares %d id fields", o.Name, ids)
	}
	c.byCode[o.Opcode] = o
	c.byName[o.Name] = o
	return nil
}

// Lookup returns the operation for code.
func (c *Catalog) Lookup(code Opcode) (*Operation, bool) {
	o, ok := c.byCode[code]
	return o, ok
}

// LookupName returns the operation with the given snake_case name.
func (c *Catalog) LookupName(name string) (*Operation, bool) {
	o, ok := c.byName[name]
	return o, ok
}

// Operations lists every operation in opcode order.
func (c *Catalog) Operations() []*Operation {
	out := make([]*Operation, 0, len(c.byCode))
	for _, o := range c.byCode {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Opcode < out[j].Opcode })
	return out
}

func (c *Catalog) Capabilities() Capabilities {
	return c.caps
}

func operations() []*Operation {
	var out []*Operation
	out = append(out, marketOperations()...)
	out = append(out, orderOperations()...)
	out = append(out, accountOperations()...)
	out = append(out, historyOperations()...)
	out = append(out, miscOperations()...)
	return out
}
