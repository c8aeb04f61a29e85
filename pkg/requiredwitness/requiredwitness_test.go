package requiredwitness

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/workingdoge/premath-sub002/pkg/gate"
)

const projDigest = "5f70bf18a086007016e948b04aed3b82103a36bea41755b6cddfaf10ace3c6ef"

func acceptedPayload(t *testing.T) (gate.GateResult, []byte) {
	t.Helper()
	res := gate.Accepted("default")
	payload, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return res, payload
}

func TestBuildVerifyRoundTrip(t *testing.T) {
	res, payload := acceptedPayload(t)
	w, err := BuildRequiredWitnessV1(res, BuildOptions{
		CheckID:          "chk_descent_core",
		ProjectionDigest: projDigest,
		IssuedAtUTC:      "2026-08-29T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("BuildRequiredWitnessV1: %v", err)
	}
	out := VerifyRequiredWitnessV1(w, payload)
	if out.Status != StatusVerified {
		t.Fatalf("expected VERIFIED, got %s (%v)", out.Status, out.Details)
	}
}

func TestWitnessRefDeterministic(t *testing.T) {
	res, _ := acceptedPayload(t)
	w, err := BuildRequiredWitnessV1(res, BuildOptions{
		CheckID:          "chk_descent_core",
		ProjectionDigest: projDigest,
		IssuedAtUTC:      "2026-08-29T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("BuildRequiredWitnessV1: %v", err)
	}
	r1, err := ComputeWitnessRef(w)
	if err != nil {
		t.Fatalf("ComputeWitnessRef #1: %v", err)
	}
	r2, err := ComputeWitnessRef(w)
	if err != nil {
		t.Fatalf("ComputeWitnessRef #2: %v", err)
	}
	if r1 != r2 || len(r1) != 64 {
		t.Fatalf("witness ref not deterministic: %s vs %s", r1, r2)
	}
}

func TestVerifyDetectsTamperedPayload(t *testing.T) {
	res, _ := acceptedPayload(t)
	w, err := BuildRequiredWitnessV1(res, BuildOptions{
		CheckID:          "chk_descent_core",
		ProjectionDigest: projDigest,
		IssuedAtUTC:      "2026-08-29T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("BuildRequiredWitnessV1: %v", err)
	}
	tampered, _ := json.Marshal(gate.Accepted("other-profile"))
	out := VerifyRequiredWitnessV1(w, tampered)
	if out.Status != StatusInvalidGateHash {
		t.Fatalf("expected INVALID_GATE_HASH, got %s", out.Status)
	}
}

func TestVerifyHashInsensitiveToKeyOrder(t *testing.T) {
	res, payload := acceptedPayload(t)
	w, err := BuildRequiredWitnessV1(res, BuildOptions{
		CheckID:          "chk_descent_core",
		ProjectionDigest: projDigest,
		IssuedAtUTC:      "2026-08-29T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("BuildRequiredWitnessV1: %v", err)
	}
	// Reserialize through a map, scrambling key order and whitespace.
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	alt, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := VerifyRequiredWitnessV1(w, alt)
	if out.Status != StatusVerified {
		t.Fatalf("canonicalization must absorb re-serialization, got %s", out.Status)
	}
}

func TestVerifyDetectsResultMismatch(t *testing.T) {
	res, payload := acceptedPayload(t)
	w, err := BuildRequiredWitnessV1(res, BuildOptions{
		CheckID:          "chk_descent_core",
		ProjectionDigest: projDigest,
		IssuedAtUTC:      "2026-08-29T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("BuildRequiredWitnessV1: %v", err)
	}
	w.Gate.Result = gate.ResultRejected
	out := VerifyRequiredWitnessV1(w, payload)
	if out.Status != StatusGateRefMismatch {
		t.Fatalf("expected GATE_REF_MISMATCH, got %s", out.Status)
	}
}

func TestBuildRejectsBadInputs(t *testing.T) {
	res, _ := acceptedPayload(t)
	if _, err := BuildRequiredWitnessV1(res, BuildOptions{ProjectionDigest: projDigest}); err == nil {
		t.Fatalf("missing check_id must error")
	}
	if _, err := BuildRequiredWitnessV1(res, BuildOptions{CheckID: "c", ProjectionDigest: "nothex"}); err == nil {
		t.Fatalf("bad projection digest must error")
	}
	if _, err := BuildRequiredWitnessV1(res, BuildOptions{
		CheckID: "c", ProjectionDigest: projDigest, IssuedAtUTC: "yesterday",
	}); err == nil {
		t.Fatalf("bad timestamp must error")
	}
}

func TestDecideV1(t *testing.T) {
	res, payload := acceptedPayload(t)
	w, err := BuildRequiredWitnessV1(res, BuildOptions{
		CheckID:          "chk_descent_core",
		ProjectionDigest: projDigest,
		IssuedAtUTC:      "2026-08-29T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("BuildRequiredWitnessV1: %v", err)
	}
	d := DecideV1(w, payload)
	if !d.Accepted || d.WitnessRef == "" {
		t.Fatalf("verified accepted chain must decide accepted: %+v", d)
	}

	f, err := gate.NewFailure(gate.ClassDescentFailure, "no glue", nil, map[string]any{"mask": 3})
	if err != nil {
		t.Fatalf("NewFailure: %v", err)
	}
	rejected := gate.Rejected("default", []gate.GateFailure{f})
	rejPayload, _ := json.Marshal(rejected)
	wr, err := BuildRequiredWitnessV1(rejected, BuildOptions{
		CheckID:          "chk_descent_core",
		ProjectionDigest: projDigest,
		IssuedAtUTC:      "2026-08-29T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("BuildRequiredWitnessV1: %v", err)
	}
	d = DecideV1(wr, rejPayload)
	if d.Accepted {
		t.Fatalf("rejected gate result must decide rejected")
	}
	if len(d.Reasons) == 0 || !strings.Contains(d.Reasons[0], "rejected") {
		t.Fatalf("decision must carry reasons: %+v", d)
	}
}
