// Package gate defines the sorted, byte-reproducible verdict a gate check
// produces: failures carrying deterministic witness ids, wrapped in a
// schema-versioned result that downstream audit chains persist verbatim.
package gate

import (
	"fmt"
	"sort"

	"github.com/workingdoge/premath-sub002/pkg/canonjson"
	"github.com/workingdoge/premath-sub002/pkg/witness"
)

// Schema is the serialized result schema version.
const Schema = 1

const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// GateFailure is one reproducible failure witness.
type GateFailure struct {
	WitnessID string         `json:"witnessId"`
	Class     FailureClass   `json:"class"`
	LawRef    string         `json:"lawRef"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	TokenPath *string        `json:"tokenPath,omitempty"`
	Sources   []string       `json:"sources,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewFailure builds a failure for the given class, resolving the law
// reference through the registry and computing the witness id. This is the
// only constructor; it keeps ids consistent everywhere a class is used.
func NewFailure(class FailureClass, message string, tokenPath *string, context map[string]any) (GateFailure, error) {
	law, ok := LawFor(class)
	if !ok {
		return GateFailure{}, fmt.Errorf("unregistered failure class %q", class)
	}
	id, err := witness.ComputeWitnessID(string(class), law, tokenPath, context)
	if err != nil {
		return GateFailure{}, err
	}
	return GateFailure{
		WitnessID: id,
		Class:     class,
		LawRef:    law,
		Message:   message,
		Context:   context,
		TokenPath: tokenPath,
	}, nil
}

// sortTuple is the canonical failure order: (class, lawRef, tokenPath or
// "", canonical context json or "", witnessId). It is independent of
// insertion order so serialized results are byte-reproducible.
func (f GateFailure) sortTuple() [5]string {
	tp := ""
	if f.TokenPath != nil {
		tp = *f.TokenPath
	}
	ctx := ""
	if f.Context != nil {
		if b, err := canonjson.Marshal(f.Context); err == nil {
			ctx = string(b)
		}
	}
	return [5]string{string(f.Class), f.LawRef, tp, ctx, f.WitnessID}
}

// Less reports the canonical failure ordering.
func Less(a, b GateFailure) bool {
	ta, tb := a.sortTuple(), b.sortTuple()
	for i := range ta {
		if ta[i] != tb[i] {
			return ta[i] < tb[i]
		}
	}
	return false
}

// GateResult is the top-level verdict, the only kernel artifact intended
// for persistence.
type GateResult struct {
	Schema   int           `json:"schema"`
	Profile  string        `json:"profile"`
	Result   string        `json:"result"`
	Failures []GateFailure `json:"failures"`
}

// Accepted returns the accepted verdict for a profile.
func Accepted(profile string) GateResult {
	return GateResult{Schema: Schema, Profile: profile, Result: ResultAccepted, Failures: []GateFailure{}}
}

// Rejected returns the rejected verdict with failures in canonical order.
// An empty failure list degenerates to Accepted: rejected means failures
// are non-empty, by construction.
func Rejected(profile string, failures []GateFailure) GateResult {
	if len(failures) == 0 {
		return Accepted(profile)
	}
	sorted := make([]GateFailure, len(failures))
	copy(sorted, failures)
	sort.SliceStable(sorted, func(i, j int) bool { return Less(sorted[i], sorted[j]) })
	return GateResult{Schema: Schema, Profile: profile, Result: ResultRejected, Failures: sorted}
}

// IsAccepted is a literal comparison on the result string.
func (r GateResult) IsAccepted() bool { return r.Result == ResultAccepted }
