package repair

import (
	"strings"
	"testing"

	"github.com/ziel-io/cognitive/services/envelope"
)

func TestClampConfidence_Above1(t *testing.T) {
	e := envelope.Success(envelope.Meta{Confidence: 1.7, Risk: envelope.RiskFromLevel("low"), Explain: "ok"}, nil)
	got := Envelope(e)
	if got.Meta.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", got.Meta.Confidence)
	}
}

func TestClampConfidence_BelowZero(t *testing.T) {
	e := envelope.Success(envelope.Meta{Confidence: -0.3, Risk: envelope.RiskFromLevel("low"), Explain: "ok"}, nil)
	got := Envelope(e)
	if got.Meta.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", got.Meta.Confidence)
	}
}

func TestNormalizeRisk_TrimAndLowercase(t *testing.T) {
	e := envelope.Success(envelope.Meta{Risk: envelope.RiskFromLevel("  HIGH  "), Explain: "ok"}, nil)
	got := Envelope(e)
	if got.Meta.Risk.String() != "high" {
		t.Fatalf("risk = %q, want high", got.Meta.Risk.String())
	}
}

func TestNormalizeRisk_UnknownPreservedNotRewritten(t *testing.T) {
	e := envelope.Success(envelope.Meta{Risk: envelope.RiskFromLevel("  Catastrophic "), Explain: "ok"}, nil)
	got := Envelope(e)
	if got.Meta.Risk.String() != "catastrophic" {
		t.Fatalf("risk = %q, want catastrophic (trimmed/lowercased, not rewritten to a canonical level)", got.Meta.Risk.String())
	}
}

func TestNormalizeRisk_EmptyFillsDefault(t *testing.T) {
	e := envelope.Success(envelope.Meta{Explain: "ok"}, nil)
	got := Envelope(e)
	if got.Meta.Risk.String() != defaultRisk {
		t.Fatalf("risk = %q, want %q", got.Meta.Risk.String(), defaultRisk)
	}
}

func TestNormalizeRisk_ExtendedUntouched(t *testing.T) {
	e := envelope.Success(envelope.Meta{Risk: envelope.Risk{Custom: "compliance-hold", Reason: "  needs review  "}, Explain: "ok"}, nil)
	got := Envelope(e)
	if got.Meta.Risk.Custom != "compliance-hold" {
		t.Fatalf("custom risk tag should be untouched, got %q", got.Meta.Risk.Custom)
	}
	if got.Meta.Risk.Reason != "needs review" {
		t.Fatalf("reason = %q, want trimmed", got.Meta.Risk.Reason)
	}
}

func TestNormalizeExplain_MissingFillsPlaceholder(t *testing.T) {
	e := envelope.Success(envelope.Meta{Risk: envelope.RiskFromLevel("low")}, nil)
	got := Envelope(e)
	if got.Meta.Explain != defaultExplain {
		t.Fatalf("explain = %q, want %q", got.Meta.Explain, defaultExplain)
	}
}

func TestNormalizeExplain_OversizeTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	e := envelope.Success(envelope.Meta{Risk: envelope.RiskFromLevel("low"), Explain: long}, nil)
	got := Envelope(e)
	if len(got.Meta.Explain) != envelope.MaxExplainLen {
		t.Fatalf("len(explain) = %d, want %d", len(got.Meta.Explain), envelope.MaxExplainLen)
	}
	if !strings.HasSuffix(got.Meta.Explain, "...") {
		t.Fatalf("expected truncated explain to end with '...'")
	}
}

func TestRepair_DoesNotTouchDataOrErrorOrOk(t *testing.T) {
	data := map[string]any{"result": "unchanged", "nested": map[string]any{"x": 1}}
	e := envelope.Success(envelope.Meta{Confidence: 2.0, Risk: envelope.RiskFromLevel(" LOW "), Explain: ""}, data)
	got := Envelope(e)
	if !got.Ok {
		t.Fatal("repair must not alter the ok flag")
	}
	if got.Data["result"] != "unchanged" {
		t.Fatal("repair must not touch data contents")
	}

	failure := envelope.Failure("TIMEOUT", "timed out", true, 500, map[string]any{"partial": true})
	failure.Meta.Confidence = 5
	gotFail := Envelope(failure)
	if gotFail.Ok {
		t.Fatal("repair must not alter the ok flag")
	}
	if gotFail.Err.Code != "TIMEOUT" || gotFail.Err.Message != "timed out" {
		t.Fatal("repair must not touch the error object")
	}
	if gotFail.PartialData["partial"] != true {
		t.Fatal("repair must not touch partial_data")
	}
}

func TestRepair_Idempotent(t *testing.T) {
	e := envelope.Success(envelope.Meta{
		Confidence: 1.7,
		Risk:       envelope.RiskFromLevel("  HIGH  "),
		Explain:    strings.Repeat("y", 500),
	}, map[string]any{"k": "v"})

	once := Envelope(e)
	twice := Envelope(once)

	if once.Meta.Confidence != twice.Meta.Confidence {
		t.Fatalf("confidence not idempotent: %v vs %v", once.Meta.Confidence, twice.Meta.Confidence)
	}
	if once.Meta.Risk.String() != twice.Meta.Risk.String() {
		t.Fatalf("risk not idempotent: %v vs %v", once.Meta.Risk, twice.Meta.Risk)
	}
	if once.Meta.Explain != twice.Meta.Explain {
		t.Fatalf("explain not idempotent: %q vs %q", once.Meta.Explain, twice.Meta.Explain)
	}
}
