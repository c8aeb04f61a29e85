// Package requiredwitness is the audit chain that consumes gate results:
// it binds a projection digest and a gate-result hash into a required
// witness whose reference hash two independent tool runs must reproduce
// byte-for-byte.
package requiredwitness

const (
	Version         = "required-witness-v1"
	Protocol        = "premath"
	ProtocolVersion = "1"
)

// GateWitnessRefV1 embeds a gate result into the chain. WitnessHash is the
// SHA-256 of the full canonical serialized GateResult payload; Result and
// Profile are copied verbatim so a verifier can cross-check them against
// the payload without trusting the producer.
type GateWitnessRefV1 struct {
	WitnessHash string `json:"witness_hash"`
	Result      string `json:"result"`
	Profile     string `json:"profile"`
}

type RequiredWitnessV1 struct {
	Version          string           `json:"version"`
	Protocol         string           `json:"protocol"`
	ProtocolVersion  string           `json:"protocol_version"`
	CheckID          string           `json:"check_id"`
	ProjectionDigest string           `json:"projection_digest"`
	Gate             GateWitnessRefV1 `json:"gate"`
	IssuedAtUTC      string           `json:"issued_at_utc"`
}

type Result struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

const (
	StatusVerified           = "VERIFIED"
	StatusMalformedWitness   = "MALFORMED_WITNESS"
	StatusInvalidGateHash    = "INVALID_GATE_HASH"
	StatusGateRefMismatch    = "GATE_REF_MISMATCH"
	StatusUnsupportedVersion = "UNSUPPORTED_VERSION"
)

// Decision is the chain's terminal verdict.
type Decision struct {
	Accepted   bool     `json:"accepted"`
	WitnessRef string   `json:"witness_ref,omitempty"`
	Reasons    []string `json:"reasons,omitempty"`
}
