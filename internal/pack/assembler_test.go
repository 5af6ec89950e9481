package pack

import (
	"strings"
	"testing"
)

func TestAssembleFullSectionOrderAndLabels(t *testing.T) {
	ids := StateIDs{AnchorPackID: "a1", ContextPackID: "c1", DeltaPackID: "d1"}
	out := AssembleFull(ids, "anchor text", "context text", "", "delta text", "do the thing", 100000)

	order := []string{LabelStateIDs, LabelAnchor, LabelContext, LabelDelta, LabelObjective, LabelUserRequest}
	last := -1
	for _, label := range order {
		idx := strings.Index(out, label)
		if idx == -1 {
			t.Fatalf("missing label %q in %q", label, out)
		}
		if idx < last {
			t.Fatalf("label %q out of order", label)
		}
		last = idx
	}
	if strings.Contains(out, LabelPlanContract) {
		t.Fatalf("expected no plan contract section when empty, got %q", out)
	}
	if strings.Count(out, "do the thing") != 1 {
		t.Fatalf("expected prompt to appear exactly once (in the objective line), got %q", out)
	}
	if !strings.HasSuffix(out, LabelUserRequest) {
		t.Fatalf("expected envelope to end with the bare user request label, got %q", out)
	}
}

func TestAssembleFullIncludesPlanContractWhenPresent(t *testing.T) {
	ids := StateIDs{}
	out := AssembleFull(ids, "anchor", "context", "contract text", "delta", "prompt", 100000)
	if !strings.Contains(out, LabelPlanContract+"\ncontract text") {
		t.Fatalf("expected plan contract section, got %q", out)
	}
}

func TestAssembleFullClampsToMaxBytes(t *testing.T) {
	ids := StateIDs{}
	out := AssembleFull(ids, strings.Repeat("x", 5000), "context", "", "delta", "prompt", 500)
	if len(out) > 500 {
		t.Fatalf("expected clamp to 500 bytes, got %d", len(out))
	}
}

func TestStateIDsRenderDefaultsToNone(t *testing.T) {
	out := StateIDs{}.render()
	if !strings.Contains(out, "anchorPackId: none") {
		t.Fatalf("expected none default, got %q", out)
	}
}

func TestAssembleDeltaOnlyOmitsAnchorAndContext(t *testing.T) {
	ids := StateIDs{DeltaPackID: "d1"}
	out := AssembleDeltaOnly(ids, "delta text", "prompt text")
	if strings.Contains(out, LabelAnchor) || strings.Contains(out, LabelContext) {
		t.Fatalf("expected delta-only envelope without anchor/context, got %q", out)
	}
	if !strings.Contains(out, LabelDelta+"\ndelta text") {
		t.Fatalf("expected delta section, got %q", out)
	}
}

func TestComposeCachedEnvelopeAppendsPrompt(t *testing.T) {
	out := ComposeCachedEnvelope("cached pack", "new prompt")
	if out != "cached pack\n\nnew prompt" {
		t.Fatalf("got %q", out)
	}
}
