// Package descent assembles fiber signatures over a cover into a descent
// datum and checks the sheaf condition: consistent local data on
// overlapping patches must glue to unique global data. Glue hashes are
// deliberately cover-independent so that two decompositions of the same
// semantic state produce an identical fingerprint.
package descent

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/workingdoge/premath-sub002/pkg/contenthash"
	"github.com/workingdoge/premath-sub002/pkg/fiber"
)

type Axiom string

const (
	AxiomGluing   Axiom = "gluing"
	AxiomLocality Axiom = "locality"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is accumulated evidence, never raised. Callers receive the
// complete set and decide fatal-vs-warn policy themselves.
type Violation struct {
	Axiom       Axiom    `json:"axiom"`
	Severity    Severity `json:"severity"`
	ContextID   string   `json:"contextId,omitempty"`
	Wave        int      `json:"wave"`
	Description string   `json:"description"`
}

// PairKey is an ordered pair of fiber ids with A <= B. Using a struct key
// instead of a joined string keeps ids containing separator characters
// unambiguous.
type PairKey struct {
	A string
	B string
}

func NewPairKey(x, y string) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

// OverlapWitness is the compatibility verdict for one overlap. Witnesses
// are derived by Assemble, never hand-constructed.
type OverlapWitness struct {
	FiberA     string   `json:"fiberA"`
	FiberB     string   `json:"fiberB"`
	SharedDeps []string `json:"sharedDeps"`
	Compatible bool     `json:"compatible"`
	Conflicts  []string `json:"conflicts,omitempty"`
}

// DescentDatum combines the local fiber data of one cover with the overlap
// evidence between every fiber pair.
type DescentDatum struct {
	CoverID   string
	ContextID string
	Fibers    map[string]fiber.FiberSignature
	Overlaps  map[PairKey]OverlapWitness
	Level     fiber.CoherenceLevel
}

// Assemble computes every pairwise overlap witness over the fiber set,
// keeping only witnesses with non-empty shared deps or non-empty conflicts.
func Assemble(coverID, contextID string, fibers []fiber.FiberSignature, level fiber.CoherenceLevel) DescentDatum {
	d := DescentDatum{
		CoverID:   coverID,
		ContextID: contextID,
		Fibers:    make(map[string]fiber.FiberSignature, len(fibers)),
		Overlaps:  make(map[PairKey]OverlapWitness),
		Level:     level,
	}
	for _, f := range fibers {
		d.Fibers[f.ID] = f
	}
	ids := d.sortedIDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := d.Fibers[ids[i]], d.Fibers[ids[j]]
			shared := fiber.SharedEdgeTargets(a, b)
			conflicts := fiber.Compatible(a, b, level)
			if len(shared) == 0 && len(conflicts) == 0 {
				continue
			}
			key := NewPairKey(a.ID, b.ID)
			d.Overlaps[key] = OverlapWitness{
				FiberA:     key.A,
				FiberB:     key.B,
				SharedDeps: shared,
				Compatible: len(conflicts) == 0,
				Conflicts:  conflicts,
			}
		}
	}
	return d
}

func (d DescentDatum) sortedIDs() []string {
	ids := make([]string, 0, len(d.Fibers))
	for id := range d.Fibers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d DescentDatum) sortedOverlapKeys() []PairKey {
	keys := make([]PairKey, 0, len(d.Overlaps))
	for k := range d.Overlaps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	return keys
}

// IsEffective reports the sheaf/descent condition: every retained overlap
// witness is compatible.
func (d DescentDatum) IsEffective() bool {
	for _, w := range d.Overlaps {
		if !w.Compatible {
			return false
		}
	}
	return true
}

// GlueHash returns the fingerprint of the glued global state, nil unless
// the datum is effective. The hash covers the context id and the sorted
// "id:structure_hash" pair per fiber. The cover id is excluded so that two
// decompositions of the same semantic state fingerprint identically.
func (d DescentDatum) GlueHash() *contenthash.ContentHash {
	if !d.IsEffective() {
		return nil
	}
	h := sha256.New()
	h.Write([]byte(d.ContextID))
	h.Write([]byte{'\n'})
	for _, id := range d.sortedIDs() {
		h.Write([]byte(id))
		h.Write([]byte{':'})
		h.Write([]byte(d.Fibers[id].StructureHash))
		h.Write([]byte{'\n'})
	}
	out := contenthash.ContentHash(hex.EncodeToString(h.Sum(nil)))
	return &out
}

// ContractibilityResult is the aggregate verdict over every wave of one
// verification call.
type ContractibilityResult struct {
	ContextID    string                   `json:"contextId"`
	Level        fiber.CoherenceLevel     `json:"level"`
	Contractible bool                     `json:"contractible"`
	GlueHash     *contenthash.ContentHash `json:"glueHash,omitempty"`
	Violations   []Violation              `json:"violations"`
	WaveHashes   []*contenthash.ContentHash
}

// FromWaves aggregates per-wave descent data: contractible iff every wave
// is individually effective. The global glue hash is computed only when
// contractible and chains the context id with the ordered per-wave glue
// hashes. One gluing violation is collected per conflict string across all
// waves.
func FromWaves(contextID string, level fiber.CoherenceLevel, waves []DescentDatum) ContractibilityResult {
	res := ContractibilityResult{
		ContextID:    contextID,
		Level:        level,
		Contractible: true,
	}
	for wi, w := range waves {
		if !w.IsEffective() {
			res.Contractible = false
		}
		for _, key := range w.sortedOverlapKeys() {
			for _, conflict := range w.Overlaps[key].Conflicts {
				res.Violations = append(res.Violations, Violation{
					Axiom:       AxiomGluing,
					Severity:    SeverityError,
					ContextID:   contextID,
					Wave:        wi,
					Description: conflict,
				})
			}
		}
		res.WaveHashes = append(res.WaveHashes, w.GlueHash())
	}
	if res.Contractible {
		h := sha256.New()
		h.Write([]byte(contextID))
		h.Write([]byte{'\n'})
		for _, wh := range res.WaveHashes {
			h.Write([]byte(*wh))
			h.Write([]byte{'\n'})
		}
		glue := contenthash.ContentHash(hex.EncodeToString(h.Sum(nil)))
		res.GlueHash = &glue
	}
	return res
}

// DetectLocalityViolations flags every item with a blocking dependency on
// another item placed in the same wave. Patches must be chosen so blocking
// edges never cross within one cover slice.
func DetectLocalityViolations(wave int, ids []string, blockingDeps func(id string) []string) []Violation {
	inWave := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		inWave[id] = struct{}{}
	}
	var out []Violation
	for _, id := range ids {
		deps := blockingDeps(id)
		sorted := make([]string, len(deps))
		copy(sorted, deps)
		sort.Strings(sorted)
		for _, dep := range sorted {
			if dep == id {
				continue
			}
			if _, ok := inWave[dep]; !ok {
				continue
			}
			out = append(out, Violation{
				Axiom:       AxiomLocality,
				Severity:    SeverityError,
				Wave:        wave,
				Description: fmt.Sprintf("%s has blocking dependency on %s within wave %d", id, dep, wave),
			})
		}
	}
	return out
}

// RefinementError is the only hard error in this kernel, raised solely when
// passing to a finer cover changes observable semantics.
type RefinementError struct {
	Description string
}

func (e *RefinementError) Error() string {
	return "refinement invariance violated: " + e.Description
}

// CheckRefinementInvariance requires both data to describe the same
// context, both to be effective, and their glue hashes to agree.
func CheckRefinementInvariance(coarse, refined DescentDatum) error {
	if coarse.ContextID != refined.ContextID {
		return &RefinementError{Description: fmt.Sprintf(
			"context mismatch: %s vs %s", coarse.ContextID, refined.ContextID)}
	}
	if !coarse.IsEffective() {
		return &RefinementError{Description: fmt.Sprintf(
			"coarse cover %s is not effective", coarse.CoverID)}
	}
	if !refined.IsEffective() {
		return &RefinementError{Description: fmt.Sprintf(
			"refined cover %s is not effective", refined.CoverID)}
	}
	ch, rh := coarse.GlueHash(), refined.GlueHash()
	if *ch != *rh {
		return &RefinementError{Description: fmt.Sprintf(
			"glue hash changed under refinement: %s vs %s", ch.Short(), rh.Short())}
	}
	return nil
}
