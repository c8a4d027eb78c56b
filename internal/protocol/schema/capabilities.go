package schema

import (
	_ "embed"
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
)

//go:embed capabilities.toml
var defaultCapabilities string

// Capabilities maps protocol feature names to the minimum server version
// that carries them. It is loaded once and never mutated.
type Capabilities struct {
	features map[string]int
}

type capabilitiesFile struct {
	Features map[string]int `toml:"features"`
}

// LoadCapabilities decodes a capability table from TOML.
func LoadCapabilities(r io.Reader) (Capabilities, error) {
	var raw capabilitiesFile
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return Capabilities{}, fmt.Errorf("schema: decode capabilities: %w", err)
	}
	if len(raw.Features) == 0 {
		return Capabilities{}, fmt.Errorf("schema: capabilities table has no features")
	}
	features := make(map[string]int, len(raw.Features))
	for name, v := range raw.Features {
		if v <= 0 {
			return Capabilities{}, fmt.Errorf("schema: feature %q has non-positive version %d", name, v)
		}
		features[name] = v
	}
	return Capabilities{features: features}, nil
}

// MinVersion returns the version introducing feature.
func (c Capabilities) MinVersion(feature string) (int, bool) {
	v, ok := c.features[feature]
	return v, ok
}

// Features lists feature names in ascending version order.
func (c Capabilities) Features() []string {
	out := make([]string, 0, len(c.features))
	for name := range c.features {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		vi, vj := c.features[out[i]], c.features[out[j]]
		if vi != vj {
			return vi < vj
		}
		return out[i] < out[j]
	})
	return out
}
