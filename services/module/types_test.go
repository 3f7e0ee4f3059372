package module

import "testing"

func TestDefaultOverflow_High(t *testing.T) {
	o := DefaultOverflow(StrictnessHigh)
	if o.Enabled {
		t.Fatal("high strictness should disable overflow")
	}
}

func TestDefaultOverflow_Low(t *testing.T) {
	o := DefaultOverflow(StrictnessLow)
	if !o.Enabled || o.MaxItems != 20 {
		t.Fatalf("low strictness overflow = %+v, want enabled with 20 items", o)
	}
}

func TestDefaultOverflow_Medium(t *testing.T) {
	o := DefaultOverflow(StrictnessMedium)
	if !o.Enabled || o.MaxItems != 5 {
		t.Fatalf("medium strictness overflow = %+v, want enabled with 5 items", o)
	}
}

func TestDefaultEnums(t *testing.T) {
	if DefaultEnums(TierExec).Strategy != "strict" {
		t.Fatal("exec tier should default to strict enums")
	}
	if DefaultEnums(TierDecision).Strategy != "extensible" {
		t.Fatal("decision tier should default to extensible enums")
	}
	if DefaultEnums(TierExploration).Strategy != "extensible" {
		t.Fatal("exploration tier should default to extensible enums")
	}
}

func TestConstraints_Has(t *testing.T) {
	c := Constraints{Operational: map[string]bool{"no_file_write": true}}
	if !c.Has("no_file_write") {
		t.Fatal("expected no_file_write to be set")
	}
	if c.Has("no_external_network") {
		t.Fatal("unset flag should report false, not panic on nil map")
	}
}
