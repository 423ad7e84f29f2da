// Package currency holds the currency definitions known to the service.
package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/money"
)

// Currency describes a named currency. Instances are immutable once
// constructed.
type Currency struct {
	ID     string
	Prefix string
	Suffix string
}

// Format renders an amount wrapped in the currency's display affixes.
func (c Currency) Format(amount decimal.Decimal) string {
	return c.Prefix + money.FormatRaw(amount) + c.Suffix
}

// Registry is an explicitly constructed lookup of currency definitions. The
// balance core never consults it; unknown currency identifiers remain valid
// opaque keys there.
type Registry struct {
	byID map[string]Currency
}

// NewRegistry builds a registry from the provided definitions.
func NewRegistry(defs []Currency) (*Registry, error) {
	byID := make(map[string]Currency, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("currency id must not be empty")
		}
		if _, exists := byID[def.ID]; exists {
			return nil, fmt.Errorf("duplicate currency %q", def.ID)
		}
		byID[def.ID] = def
	}
	return &Registry{byID: byID}, nil
}

// Lookup returns the currency definition for id.
func (r *Registry) Lookup(id string) (Currency, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// All returns every registered currency ordered by identifier.
func (r *Registry) All() []Currency {
	out := make([]Currency, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ParseList parses a comma-separated list of currency specs in the form
// id[:prefix[:suffix]], e.g. "gold:$,gems::shards".
func ParseList(spec string) ([]Currency, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	var defs []Currency
	for _, raw := range strings.Split(spec, ",") {
		parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
		def := Currency{ID: parts[0]}
		if def.ID == "" {
			return nil, fmt.Errorf("invalid currency spec %q", raw)
		}
		if len(parts) > 1 {
			def.Prefix = parts[1]
		}
		if len(parts) > 2 {
			def.Suffix = parts[2]
		}
		defs = append(defs, def)
	}
	return defs, nil
}
