package descent

import (
	"testing"

	"github.com/workingdoge/premath-sub002/pkg/contenthash"
	"github.com/workingdoge/premath-sub002/pkg/fiber"
)

func sig(id string, edges []fiber.Edge) fiber.FiberSignature {
	return fiber.NewSignature(id, "ctx/root", contenthash.FromString("content-"+id), edges,
		fiber.Phase{Kind: "issue", Status: "open"})
}

func TestEffectiveWhenSharedEdgeKindsMatch(t *testing.T) {
	a := sig("a", []fiber.Edge{{Target: "shared", Kind: fiber.EdgeBlocks}})
	b := sig("b", []fiber.Edge{{Target: "shared", Kind: fiber.EdgeBlocks}})
	d := Assemble("wave-0", "ctx/root", []fiber.FiberSignature{a, b}, fiber.Set)
	if !d.IsEffective() {
		t.Fatalf("matching kinds on shared target must be effective")
	}
	if d.GlueHash() == nil {
		t.Fatalf("effective datum must produce a glue hash")
	}
	if len(d.Overlaps) != 1 {
		t.Fatalf("expected one retained overlap, got %d", len(d.Overlaps))
	}
}

func TestNotEffectiveAtSetButEffectiveAtSInf(t *testing.T) {
	a := sig("a", []fiber.Edge{{Target: "shared", Kind: fiber.EdgeBlocks}})
	b := sig("b", []fiber.Edge{{Target: "shared", Kind: fiber.EdgeRelatesTo}})

	atSet := Assemble("wave-0", "ctx/root", []fiber.FiberSignature{a, b}, fiber.Set)
	if atSet.IsEffective() {
		t.Fatalf("blocks vs relates-to must fail at set")
	}
	if atSet.GlueHash() != nil {
		t.Fatalf("non-effective datum must not produce a glue hash")
	}

	atSInf := Assemble("wave-0", "ctx/root", []fiber.FiberSignature{a, b}, fiber.SInf)
	if !atSInf.IsEffective() {
		t.Fatalf("the identical pair must pass at sinf")
	}
}

func TestGlueHashCoverInvariance(t *testing.T) {
	fibers := []fiber.FiberSignature{
		sig("a", []fiber.Edge{{Target: "shared", Kind: fiber.EdgeBlocks}}),
		sig("b", []fiber.Edge{{Target: "shared", Kind: fiber.EdgeBlocks}}),
	}
	coarse := Assemble("coarse", "ctx/root", fibers, fiber.Set)
	refined := Assemble("refined", "ctx/root", fibers, fiber.Set)
	ch, rh := coarse.GlueHash(), refined.GlueHash()
	if ch == nil || rh == nil {
		t.Fatalf("both assemblies must be effective")
	}
	if *ch != *rh {
		t.Fatalf("glue hash must not depend on the cover id: %s vs %s", *ch, *rh)
	}
}

func TestGlueHashSensitiveToStructure(t *testing.T) {
	a := Assemble("w", "ctx/root", []fiber.FiberSignature{sig("a", nil)}, fiber.Set)
	b := Assemble("w", "ctx/root", []fiber.FiberSignature{
		fiber.NewSignature("a", "ctx/root", contenthash.FromString("other"), nil, fiber.Phase{Kind: "issue", Status: "open"}),
	}, fiber.Set)
	if *a.GlueHash() == *b.GlueHash() {
		t.Fatalf("content change must change the glue hash")
	}
}

func TestDisjointFibersRetainNoOverlap(t *testing.T) {
	d := Assemble("w", "ctx/root", []fiber.FiberSignature{
		sig("a", []fiber.Edge{{Target: "x", Kind: fiber.EdgeBlocks}}),
		sig("b", []fiber.Edge{{Target: "y", Kind: fiber.EdgeBlocks}}),
	}, fiber.Set)
	if len(d.Overlaps) != 0 {
		t.Fatalf("no shared deps and no conflicts must retain nothing, got %d", len(d.Overlaps))
	}
	if !d.IsEffective() {
		t.Fatalf("empty overlap set is vacuously effective")
	}
}

func TestFromWavesContractible(t *testing.T) {
	ok := Assemble("w0", "ctx/root", []fiber.FiberSignature{
		sig("a", []fiber.Edge{{Target: "s", Kind: fiber.EdgeBlocks}}),
		sig("b", []fiber.Edge{{Target: "s", Kind: fiber.EdgeBlocks}}),
	}, fiber.Set)
	res := FromWaves("ctx/root", fiber.Set, []DescentDatum{ok})
	if !res.Contractible {
		t.Fatalf("single effective wave must be contractible")
	}
	if res.GlueHash == nil {
		t.Fatalf("contractible result must carry a global glue hash")
	}
	if len(res.Violations) != 0 {
		t.Fatalf("no conflicts expected, got %v", res.Violations)
	}
}

func TestFromWavesCollectsViolationsPerConflict(t *testing.T) {
	bad := Assemble("w1", "ctx/root", []fiber.FiberSignature{
		sig("a", []fiber.Edge{{Target: "s", Kind: fiber.EdgeBlocks}}),
		sig("b", []fiber.Edge{{Target: "s", Kind: fiber.EdgeRelatesTo}}),
	}, fiber.Set)
	ok := Assemble("w0", "ctx/root", []fiber.FiberSignature{sig("c", nil)}, fiber.Set)
	res := FromWaves("ctx/root", fiber.Set, []DescentDatum{ok, bad})
	if res.Contractible {
		t.Fatalf("a non-effective wave must break contractibility")
	}
	if res.GlueHash != nil {
		t.Fatalf("non-contractible result must not carry a glue hash")
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected one gluing violation, got %d: %v", len(res.Violations), res.Violations)
	}
	v := res.Violations[0]
	if v.Axiom != AxiomGluing || v.Severity != SeverityError || v.Wave != 1 {
		t.Fatalf("unexpected violation: %+v", v)
	}
}

func TestDetectLocalityViolationsExactlyOne(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": nil,
	}
	got := DetectLocalityViolations(0, []string{"a", "b"}, func(id string) []string { return deps[id] })
	if len(got) != 1 {
		t.Fatalf("expected exactly one locality violation, got %d: %v", len(got), got)
	}
	if got[0].Axiom != AxiomLocality || got[0].Wave != 0 {
		t.Fatalf("unexpected violation: %+v", got[0])
	}
}

func TestDetectLocalityIgnoresCrossWaveDeps(t *testing.T) {
	got := DetectLocalityViolations(0, []string{"a"}, func(id string) []string { return []string{"elsewhere"} })
	if len(got) != 0 {
		t.Fatalf("blocking deps outside the wave must not flag: %v", got)
	}
}

func TestCheckRefinementInvariance(t *testing.T) {
	fibers := []fiber.FiberSignature{
		sig("a", []fiber.Edge{{Target: "s", Kind: fiber.EdgeBlocks}}),
		sig("b", []fiber.Edge{{Target: "s", Kind: fiber.EdgeBlocks}}),
	}
	coarse := Assemble("coarse", "ctx/root", fibers, fiber.Set)
	refined := Assemble("refined", "ctx/root", fibers, fiber.Set)
	if err := CheckRefinementInvariance(coarse, refined); err != nil {
		t.Fatalf("equal glue hashes must pass: %v", err)
	}

	broken := Assemble("refined", "ctx/root", []fiber.FiberSignature{
		sig("a", []fiber.Edge{{Target: "s", Kind: fiber.EdgeBlocks}}),
		sig("b", []fiber.Edge{{Target: "s", Kind: fiber.EdgeRelatesTo}}),
	}, fiber.Set)
	err := CheckRefinementInvariance(coarse, broken)
	if err == nil {
		t.Fatalf("non-effective refined datum must fail")
	}
	if _, ok := err.(*RefinementError); !ok {
		t.Fatalf("expected *RefinementError, got %T", err)
	}

	other := Assemble("coarse", "ctx/other", fibers, fiber.Set)
	if err := CheckRefinementInvariance(coarse, other); err == nil {
		t.Fatalf("context mismatch must fail")
	}
}
