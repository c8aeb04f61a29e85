package witness

import (
	"strings"
	"testing"
)

const goldenID = "w1_l1v24u75j3sudbdnhflh4l6sb29ii02vosfj2cm5m3qh0rg8ab30"

func TestComputeWitnessIDGoldenVector(t *testing.T) {
	id, err := ComputeWitnessID("stability_failure", "GATE-3.1", nil, map[string]any{"mask": 1})
	if err != nil {
		t.Fatalf("ComputeWitnessID: %v", err)
	}
	if id != goldenID {
		t.Fatalf("witness id drifted: got %s want %s", id, goldenID)
	}
}

func TestComputeWitnessIDRepeatable(t *testing.T) {
	tp := "ctx/feature/a"
	ctx := map[string]any{"mask": 3, "leg": 1}
	a, err := ComputeWitnessID("descent_failure", "GATE-3.3", &tp, ctx)
	if err != nil {
		t.Fatalf("ComputeWitnessID #1: %v", err)
	}
	b, err := ComputeWitnessID("descent_failure", "GATE-3.3", &tp, ctx)
	if err != nil {
		t.Fatalf("ComputeWitnessID #2: %v", err)
	}
	if a != b {
		t.Fatalf("ids not repeatable: %s vs %s", a, b)
	}
}

func TestComputeWitnessIDSensitiveToEveryArgument(t *testing.T) {
	tp := "ctx/a"
	base, err := ComputeWitnessID("stability_failure", "GATE-3.1", &tp, map[string]any{"mask": 1})
	if err != nil {
		t.Fatalf("ComputeWitnessID: %v", err)
	}
	tp2 := "ctx/b"
	for name, f := range map[string]func() (string, error){
		"class":   func() (string, error) { return ComputeWitnessID("locality_failure", "GATE-3.1", &tp, map[string]any{"mask": 1}) },
		"lawRef":  func() (string, error) { return ComputeWitnessID("stability_failure", "GATE-3.2", &tp, map[string]any{"mask": 1}) },
		"token":   func() (string, error) { return ComputeWitnessID("stability_failure", "GATE-3.1", &tp2, map[string]any{"mask": 1}) },
		"context": func() (string, error) { return ComputeWitnessID("stability_failure", "GATE-3.1", &tp, map[string]any{"mask": 2}) },
		"nilctx":  func() (string, error) { return ComputeWitnessID("stability_failure", "GATE-3.1", &tp, nil) },
		"niltok":  func() (string, error) { return ComputeWitnessID("stability_failure", "GATE-3.1", nil, map[string]any{"mask": 1}) },
	} {
		id, err := f()
		if err != nil {
			t.Fatalf("variant %s: %v", name, err)
		}
		if id == base {
			t.Fatalf("variant %s did not change the witness id", name)
		}
	}
}

func TestWitnessIDShape(t *testing.T) {
	id, err := ComputeWitnessID("descent_failure", "GATE-3.3", nil, nil)
	if err != nil {
		t.Fatalf("ComputeWitnessID: %v", err)
	}
	if !strings.HasPrefix(id, "w1_") {
		t.Fatalf("missing w1_ prefix: %s", id)
	}
	// 256 bits in 5-bit groups is 52 characters.
	if len(id) != len("w1_")+52 {
		t.Fatalf("unexpected id length %d: %s", len(id), id)
	}
	for _, c := range id[3:] {
		if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuv", c) {
			t.Fatalf("character %q outside base32hex alphabet in %s", c, id)
		}
	}
}
