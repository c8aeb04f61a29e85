package requiredwitness

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/workingdoge/premath-sub002/pkg/canonjson"
	"github.com/workingdoge/premath-sub002/pkg/gate"
)

// HashGateResult returns the chain hash of a gate result: SHA-256 over the
// canonical serialization of the full payload, plus the canonical bytes.
func HashGateResult(res gate.GateResult) (string, []byte, error) {
	return canonjson.SumObject(res)
}

// HashGateResultBytes recomputes the chain hash from a serialized payload.
// The payload is normalized through canonical JSON first, so any
// serialization of the same result hashes identically.
func HashGateResultBytes(payload []byte) (string, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return "", fmt.Errorf("invalid gate result payload: %w", err)
	}
	sum, _, err := canonjson.SumObject(v)
	return sum, err
}

type BuildOptions struct {
	CheckID          string
	ProjectionDigest string
	IssuedAtUTC      string
}

// BuildRequiredWitnessV1 binds a gate result into the audit chain.
func BuildRequiredWitnessV1(res gate.GateResult, opts BuildOptions) (RequiredWitnessV1, error) {
	if strings.TrimSpace(opts.CheckID) == "" {
		return RequiredWitnessV1{}, errors.New("check_id is required")
	}
	if !isHex256(opts.ProjectionDigest) {
		return RequiredWitnessV1{}, errors.New("projection_digest must be 64 lowercase hex characters")
	}
	issuedAt := strings.TrimSpace(opts.IssuedAtUTC)
	if issuedAt == "" {
		issuedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if !isRFC3339UTC(issuedAt) {
		return RequiredWitnessV1{}, errors.New("issued_at_utc must be RFC3339 UTC")
	}
	hash, _, err := HashGateResult(res)
	if err != nil {
		return RequiredWitnessV1{}, err
	}
	return RequiredWitnessV1{
		Version:          Version,
		Protocol:         Protocol,
		ProtocolVersion:  ProtocolVersion,
		CheckID:          opts.CheckID,
		ProjectionDigest: opts.ProjectionDigest,
		Gate: GateWitnessRefV1{
			WitnessHash: hash,
			Result:      res.Result,
			Profile:     res.Profile,
		},
		IssuedAtUTC: issuedAt,
	}, nil
}

// ComputeWitnessRef returns the canonical SHA-256 reference of a required
// witness, the hash downstream decisions embed.
func ComputeWitnessRef(w RequiredWitnessV1) (string, error) {
	if err := validateShape(w); err != nil {
		return "", err
	}
	sum, _, err := canonjson.SumObject(w)
	return sum, err
}

// VerifyRequiredWitnessV1 re-derives every hash link of the chain from the
// serialized gate result payload and compares it against the witness. It
// reports a status, never an exception: malformed inputs are verdicts.
func VerifyRequiredWitnessV1(w RequiredWitnessV1, gateResultPayload []byte) Result {
	if err := validateShape(w); err != nil {
		return Result{Status: StatusMalformedWitness, Details: map[string]any{"reason": err.Error()}}
	}
	if w.Version != Version || w.Protocol != Protocol || w.ProtocolVersion != ProtocolVersion {
		return Result{Status: StatusUnsupportedVersion, Details: map[string]any{
			"version": w.Version, "protocol": w.Protocol, "protocol_version": w.ProtocolVersion,
		}}
	}
	computed, err := HashGateResultBytes(gateResultPayload)
	if err != nil {
		return Result{Status: StatusMalformedWitness, Details: map[string]any{"reason": "invalid_gate_payload"}}
	}
	if computed != w.Gate.WitnessHash {
		return Result{Status: StatusInvalidGateHash, Details: map[string]any{
			"expected": w.Gate.WitnessHash, "computed": computed,
		}}
	}
	var res gate.GateResult
	if err := json.Unmarshal(gateResultPayload, &res); err != nil {
		return Result{Status: StatusMalformedWitness, Details: map[string]any{"reason": "invalid_gate_payload"}}
	}
	if res.Result != w.Gate.Result || res.Profile != w.Gate.Profile {
		return Result{Status: StatusGateRefMismatch, Details: map[string]any{
			"witness_result": w.Gate.Result, "payload_result": res.Result,
			"witness_profile": w.Gate.Profile, "payload_profile": res.Profile,
		}}
	}
	return Result{Status: StatusVerified}
}

// DecideV1 is the terminal accept/reject: the chain must verify and the
// embedded gate result must be accepted. All discrepancies are collected;
// decision making never short-circuits.
func DecideV1(w RequiredWitnessV1, gateResultPayload []byte) Decision {
	var reasons []string
	verify := VerifyRequiredWitnessV1(w, gateResultPayload)
	if verify.Status != StatusVerified {
		reasons = append(reasons, "chain verification failed: "+verify.Status)
	}
	var res gate.GateResult
	if err := json.Unmarshal(gateResultPayload, &res); err != nil {
		reasons = append(reasons, "gate result payload unreadable")
	} else if !res.IsAccepted() {
		reasons = append(reasons, fmt.Sprintf("gate result rejected with %d failures", len(res.Failures)))
	}
	d := Decision{Accepted: len(reasons) == 0, Reasons: reasons}
	if ref, err := ComputeWitnessRef(w); err == nil {
		d.WitnessRef = ref
	}
	return d
}

func validateShape(w RequiredWitnessV1) error {
	if strings.TrimSpace(w.Version) == "" ||
		strings.TrimSpace(w.Protocol) == "" ||
		strings.TrimSpace(w.ProtocolVersion) == "" {
		return errors.New("version fields are required")
	}
	if strings.TrimSpace(w.CheckID) == "" {
		return errors.New("check_id is required")
	}
	if !isHex256(w.ProjectionDigest) {
		return errors.New("projection_digest must be 64 lowercase hex characters")
	}
	if !isHex256(w.Gate.WitnessHash) {
		return errors.New("gate.witness_hash must be 64 lowercase hex characters")
	}
	if w.Gate.Result != gate.ResultAccepted && w.Gate.Result != gate.ResultRejected {
		return fmt.Errorf("gate.result must be accepted or rejected, got %q", w.Gate.Result)
	}
	if !isRFC3339UTC(w.IssuedAtUTC) {
		return errors.New("issued_at_utc must be RFC3339 UTC")
	}
	return nil
}

func isHex256(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != sha256.Size {
		return false
	}
	return strings.ToLower(s) == s
}

func isRFC3339UTC(s string) bool {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return false
	}
	return t.Location() == time.UTC || strings.HasSuffix(s, "Z")
}
