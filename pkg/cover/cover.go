// Package cover holds the decomposition bookkeeping: a cover splits a base
// context into patches that need not be disjoint, and overlaps record the
// shared structure between patch pairs.
package cover

import "sort"

// Patch is one slice of a decomposition. Items are the definable ids the
// caller assigned to this slice.
type Patch struct {
	Index   int      `json:"index"`
	Context string   `json:"context"`
	Items   []string `json:"items"`
}

// Cover is a named family of patches over a base context.
type Cover struct {
	Base    string  `json:"base"`
	ID      string  `json:"id"`
	Patches []Patch `json:"patches"`
}

// Morphism is an identity projection from a patch context back to the base.
type Morphism struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Overlap is recorded only when two patches share at least one dependency.
type Overlap struct {
	I          int      `json:"i"`
	J          int      `json:"j"`
	SharedDeps []string `json:"sharedDeps"`
	ProjI      Morphism `json:"projI"`
	ProjJ      Morphism `json:"projJ"`
}

// Overlaps enumerates all unordered patch pairs and keeps the pairs for
// which sharedDeps reports at least one shared dependency. The enumeration
// is O(n^2) in the patch count; callers bound n by their decomposition
// granularity.
func (c Cover) Overlaps(sharedDeps func(a, b Patch) []string) []Overlap {
	var out []Overlap
	for i := 0; i < len(c.Patches); i++ {
		for j := i + 1; j < len(c.Patches); j++ {
			pi, pj := c.Patches[i], c.Patches[j]
			deps := sharedDeps(pi, pj)
			if len(deps) == 0 {
				continue
			}
			sorted := make([]string, len(deps))
			copy(sorted, deps)
			sort.Strings(sorted)
			out = append(out, Overlap{
				I:          pi.Index,
				J:          pj.Index,
				SharedDeps: sorted,
				ProjI:      Morphism{From: pi.Context, To: c.Base},
				ProjJ:      Morphism{From: pj.Context, To: c.Base},
			})
		}
	}
	return out
}

// SharedItems is the default shared-dependency function: the intersection
// of the two patches' item sets.
func SharedItems(a, b Patch) []string {
	set := make(map[string]struct{}, len(a.Items))
	for _, it := range a.Items {
		set[it] = struct{}{}
	}
	var shared []string
	seen := make(map[string]struct{})
	for _, it := range b.Items {
		if _, ok := set[it]; !ok {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		shared = append(shared, it)
	}
	sort.Strings(shared)
	return shared
}

// Refinement records which original patch each refined patch maps into.
// It is bookkeeping only; refinement invariance is proved by comparing glue
// hashes, not by this mapping.
type Refinement struct {
	CoverID  string      `json:"coverId"`
	Original string      `json:"original"`
	PatchMap map[int]int `json:"patchMap"`
}

// OriginalPatch resolves a refined patch index to its original patch index.
func (r Refinement) OriginalPatch(refined int) (int, bool) {
	orig, ok := r.PatchMap[refined]
	return orig, ok
}
