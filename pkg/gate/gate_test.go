package gate

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRegistryComplete(t *testing.T) {
	for _, o := range Obligations() {
		class, ok := ClassFor(o)
		if !ok {
			t.Fatalf("obligation %s has no failure class", o)
		}
		law, ok := LawFor(class)
		if !ok {
			t.Fatalf("class %s has no law reference", class)
		}
		if !strings.HasPrefix(law, "GATE-3.") {
			t.Fatalf("unexpected law reference %s for class %s", law, class)
		}
	}
	if len(Obligations()) != 11 {
		t.Fatalf("expected 11 registered obligations, got %d", len(Obligations()))
	}
}

func TestEveryClassHasExactlyOneLaw(t *testing.T) {
	classes := []FailureClass{
		ClassStabilityFailure,
		ClassLocalityFailure,
		ClassDescentFailure,
		ClassGlueNonContractible,
		ClassAdjointTripleCoherenceFailure,
	}
	seen := map[string]FailureClass{}
	for _, c := range classes {
		law, ok := LawFor(c)
		if !ok {
			t.Fatalf("class %s unregistered", c)
		}
		if prev, dup := seen[law]; dup {
			t.Fatalf("law %s claimed by both %s and %s", law, prev, c)
		}
		seen[law] = c
	}
}

func TestNewFailureResolvesLawAndWitnessID(t *testing.T) {
	f, err := NewFailure(ClassStabilityFailure, "drifted", nil, map[string]any{"mask": 1})
	if err != nil {
		t.Fatalf("NewFailure: %v", err)
	}
	if f.LawRef != "GATE-3.1" {
		t.Fatalf("unexpected law ref %s", f.LawRef)
	}
	if f.WitnessID != "w1_l1v24u75j3sudbdnhflh4l6sb29ii02vosfj2cm5m3qh0rg8ab30" {
		t.Fatalf("witness id drifted: %s", f.WitnessID)
	}
	if _, err := NewFailure(FailureClass("made_up"), "", nil, nil); err == nil {
		t.Fatalf("unregistered class must error")
	}
}

func TestRejectedSortsIndependentOfInsertionOrder(t *testing.T) {
	a, err := NewFailure(ClassDescentFailure, "no glue", nil, map[string]any{"mask": 3})
	if err != nil {
		t.Fatalf("NewFailure: %v", err)
	}
	b, err := NewFailure(ClassLocalityFailure, "bad restriction", nil, map[string]any{"mask": 1})
	if err != nil {
		t.Fatalf("NewFailure: %v", err)
	}
	r1 := Rejected("default", []GateFailure{a, b})
	r2 := Rejected("default", []GateFailure{b, a})

	j1, err := json.Marshal(r1)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	j2, err := json.Marshal(r2)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(j1) != string(j2) {
		t.Fatalf("insertion order leaked into serialized result:\n%s\n%s", j1, j2)
	}
	if r1.Failures[0].Class != ClassDescentFailure {
		t.Fatalf("descent_failure sorts before locality_failure: %+v", r1.Failures)
	}
}

func TestAcceptedShape(t *testing.T) {
	r := Accepted("strict")
	if !r.IsAccepted() {
		t.Fatalf("accepted result must report accepted")
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	const want = `{"schema":1,"profile":"strict","result":"accepted","failures":[]}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestRejectedWithNoFailuresDegeneratesToAccepted(t *testing.T) {
	r := Rejected("default", nil)
	if !r.IsAccepted() {
		t.Fatalf("rejected requires non-empty failures")
	}
}

func TestOrderingBreaksTiesByWitnessID(t *testing.T) {
	a, _ := NewFailure(ClassDescentFailure, "m", nil, map[string]any{"mask": 1})
	b, _ := NewFailure(ClassDescentFailure, "m", nil, map[string]any{"mask": 2})
	if !Less(a, b) && !Less(b, a) {
		t.Fatalf("distinct failures must order deterministically")
	}
	if Less(a, b) && Less(b, a) {
		t.Fatalf("ordering must be antisymmetric")
	}
}
