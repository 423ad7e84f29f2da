package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseList(t *testing.T) {
	defs, err := ParseList("gold:$,gems::shards, tokens")
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 currencies, got %d", len(defs))
	}
	if defs[0] != (Currency{ID: "gold", Prefix: "$"}) {
		t.Fatalf("unexpected gold definition: %+v", defs[0])
	}
	if defs[1] != (Currency{ID: "gems", Suffix: "shards"}) {
		t.Fatalf("unexpected gems definition: %+v", defs[1])
	}
	if defs[2] != (Currency{ID: "tokens"}) {
		t.Fatalf("unexpected tokens definition: %+v", defs[2])
	}
}

func TestParseListEmpty(t *testing.T) {
	defs, err := ParseList("  ")
	if err != nil {
		t.Fatalf("parse empty list: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected no currencies, got %+v", defs)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Currency{{ID: "gold"}, {ID: "gold"}})
	if err == nil {
		t.Fatal("expected duplicate currency error")
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry([]Currency{{ID: "gold", Prefix: "$"}, {ID: "gems"}})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	gold, ok := reg.Lookup("gold")
	if !ok || gold.Prefix != "$" {
		t.Fatalf("expected gold with $ prefix, got %+v ok=%v", gold, ok)
	}
	if _, ok := reg.Lookup("unknown"); ok {
		t.Fatal("expected unknown currency to be absent")
	}

	all := reg.All()
	if len(all) != 2 || all[0].ID != "gems" || all[1].ID != "gold" {
		t.Fatalf("unexpected ordering: %+v", all)
	}
}

func TestCurrencyFormat(t *testing.T) {
	c := Currency{ID: "gold", Prefix: "$"}
	got := c.Format(decimal.RequireFromString("1234.569"))
	if got != "$1,234.56" {
		t.Fatalf("expected $1,234.56, got %s", got)
	}
}
