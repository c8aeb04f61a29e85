// Package fiber models the identity snapshot of one definable in one
// context and the compatibility relation between two snapshots under a
// coherence level.
package fiber

import (
	"fmt"
	"sort"

	"github.com/workingdoge/premath-sub002/pkg/contenthash"
)

// CoherenceLevel is the strictness dial for "the same": Set demands exact
// agreement, Gpd tolerates differences that preserve blocking
// classification, SInf tolerates every edge-kind difference.
type CoherenceLevel int

const (
	Set CoherenceLevel = iota
	Gpd
	SInf
)

func (l CoherenceLevel) String() string {
	switch l {
	case Set:
		return "set"
	case Gpd:
		return "gpd"
	case SInf:
		return "sinf"
	}
	return fmt.Sprintf("coherence(%d)", int(l))
}

func ParseCoherenceLevel(s string) (CoherenceLevel, error) {
	switch s {
	case "set":
		return Set, nil
	case "gpd":
		return Gpd, nil
	case "sinf":
		return SInf, nil
	}
	return Set, fmt.Errorf("unknown coherence level %q", s)
}

type EdgeKind string

const (
	EdgeBlocks            EdgeKind = "blocks"
	EdgeParentChild       EdgeKind = "parent-child"
	EdgeConditionalBlocks EdgeKind = "conditional-blocks"
	EdgeRelatesTo         EdgeKind = "relates-to"
	EdgeDiscoveredFrom    EdgeKind = "discovered-from"
)

// IsBlocking is a fixed classification: Blocks, ParentChild, and
// ConditionalBlocks are blocking, everything else is not.
func (k EdgeKind) IsBlocking() bool {
	switch k {
	case EdgeBlocks, EdgeParentChild, EdgeConditionalBlocks:
		return true
	}
	return false
}

type Edge struct {
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Phase is a definable's lifecycle state. Phase must compare equal across
// fibers at every coherence level; a phase mismatch is never tolerated.
type Phase struct {
	Kind      string `json:"kind"`
	Ephemeral bool   `json:"ephemeral"`
	Status    string `json:"status"`
	MolType   string `json:"molType,omitempty"`
}

// FiberSignature is one definable's identity in one context. StructureHash
// is a pure function of ContentHash plus the sorted edge list.
type FiberSignature struct {
	ID            string                  `json:"id"`
	Context       string                  `json:"context"`
	ContentHash   contenthash.ContentHash `json:"contentHash"`
	StructureHash contenthash.ContentHash `json:"structureHash"`
	Edges         []Edge                  `json:"edges"`
	Phase         Phase                   `json:"phase"`
	AgentID       *string                 `json:"agentId,omitempty"`
}

// NewSignature builds a FiberSignature, sorting edges and deriving the
// structure hash. The structure hash feeds "content" then one "edge" field
// per sorted edge, framed as target:kind.
func NewSignature(id, context string, content contenthash.ContentHash, edges []Edge, phase Phase) FiberSignature {
	sorted := make([]Edge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Target != sorted[j].Target {
			return sorted[i].Target < sorted[j].Target
		}
		return sorted[i].Kind < sorted[j].Kind
	})
	b := contenthash.NewBuilder().Field("content", content.String())
	for _, e := range sorted {
		b.Field("edge", e.Target+":"+string(e.Kind))
	}
	return FiberSignature{
		ID:            id,
		Context:       context,
		ContentHash:   content,
		StructureHash: b.Finish(),
		Edges:         sorted,
		Phase:         phase,
	}
}

// WithAgent returns a copy of the signature carrying the given agent id.
// The agent id does not participate in the structure hash.
func (s FiberSignature) WithAgent(agentID string) FiberSignature {
	s.AgentID = &agentID
	return s
}

func (s FiberSignature) edgeKinds() map[string]EdgeKind {
	m := make(map[string]EdgeKind, len(s.Edges))
	for _, e := range s.Edges {
		m[e.Target] = e.Kind
	}
	return m
}

// Compatible compares two signatures under a coherence level and returns
// the complete list of conflicts, nil when compatible. Phase must match
// exactly regardless of level. For every edge target present in both
// fibers: at Set the kinds must match exactly, at Gpd only the blocking
// classification must match, at SInf any kind difference is tolerated.
// Mismatched input shapes produce conflicts, never panics.
func Compatible(a, b FiberSignature, level CoherenceLevel) []string {
	var conflicts []string
	if a.Phase != b.Phase {
		conflicts = append(conflicts, fmt.Sprintf(
			"phase mismatch between %s and %s: %+v vs %+v", a.ID, b.ID, a.Phase, b.Phase))
	}
	ka := a.edgeKinds()
	kb := b.edgeKinds()
	targets := make([]string, 0, len(ka))
	for t := range ka {
		if _, ok := kb[t]; ok {
			targets = append(targets, t)
		}
	}
	sort.Strings(targets)
	for _, t := range targets {
		va, vb := ka[t], kb[t]
		switch level {
		case Set:
			if va != vb {
				conflicts = append(conflicts, fmt.Sprintf(
					"edge kind mismatch on %s: %s vs %s", t, va, vb))
			}
		case Gpd:
			if va.IsBlocking() != vb.IsBlocking() {
				conflicts = append(conflicts, fmt.Sprintf(
					"blocking classification mismatch on %s: %s vs %s", t, va, vb))
			}
		case SInf:
			// Every edge-kind difference is tolerated at S-infinity.
		}
	}
	return conflicts
}

// SharedEdgeTargets returns the sorted intersection of the two fibers' edge
// target sets.
func SharedEdgeTargets(a, b FiberSignature) []string {
	ka := a.edgeKinds()
	var shared []string
	for _, e := range b.Edges {
		if _, ok := ka[e.Target]; ok {
			shared = append(shared, e.Target)
		}
	}
	sort.Strings(shared)
	return dedupeSorted(shared)
}

func dedupeSorted(xs []string) []string {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || xs[i-1] != x {
			out = append(out, x)
		}
	}
	return out
}
