package risk

import "testing"

func TestAggregate_MaxOrdering(t *testing.T) {
	items := []Item{{Risk: "low"}, {Risk: "high"}, {Risk: "none"}}
	if got := Aggregate(RuleMaxChanges, items); got != High {
		t.Fatalf("Aggregate() = %v, want %v", got, High)
	}
}

func TestAggregate_EmptyListIsMedium(t *testing.T) {
	if got := Aggregate(RuleMaxChanges, nil); got != Medium {
		t.Fatalf("Aggregate(nil) = %v, want %v (conservative default)", got, Medium)
	}
}

func TestAggregate_Explicit(t *testing.T) {
	items := []Item{{Risk: "high"}}
	if got := Aggregate(RuleExplicit, items); got != Medium {
		t.Fatalf("Aggregate(explicit) = %v, want %v", got, Medium)
	}
}

func TestAggregate_UnknownContributesMedium(t *testing.T) {
	items := []Item{{Risk: "none"}, {Risk: "catastrophic"}}
	if got := Aggregate(RuleMaxChanges, items); got != Medium {
		t.Fatalf("Aggregate() = %v, want %v", got, Medium)
	}
}

func TestAggregate_WhitespaceAndCase(t *testing.T) {
	items := []Item{{Risk: "  HIGH  "}}
	if got := Aggregate(RuleMaxChanges, items); got != High {
		t.Fatalf("Aggregate() = %v, want %v", got, High)
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, ok := Parse("extreme"); ok {
		t.Fatal("Parse(\"extreme\") should not be a known canonical level")
	}
}

func TestMax(t *testing.T) {
	if Max(Low, None) != Low {
		t.Fatal("Max(Low, None) should be Low")
	}
	if Max(High, Medium) != High {
		t.Fatal("Max(High, Medium) should be High")
	}
}
