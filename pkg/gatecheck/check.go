package gatecheck

import (
	"fmt"

	"github.com/workingdoge/premath-sub002/pkg/gate"
)

// Check is the sealed variant type of gate checks. The backend set is
// closed at build time, so a variant type replaces trait-object dispatch.
type Check interface {
	isCheck()
}

// LocalityCheck asks whether a is definable at the union of the legs and
// restricts successfully and consistently to each leg.
type LocalityCheck struct {
	GammaMask Mask    `json:"gammaMask"`
	A         Value   `json:"a"`
	Legs      []Mask  `json:"legs"`
	TokenPath *string `json:"tokenPath,omitempty"`
}

func (LocalityCheck) isCheck() {}

// DescentCheck asks whether the local values over the legs glue to a
// unique value at the base. The certified flags assert obligations the
// caller has already discharged elsewhere.
type DescentCheck struct {
	BaseMask              Mask    `json:"baseMask"`
	Legs                  []Mask  `json:"legs"`
	Locals                []Value `json:"locals"`
	OverlapCertified      bool    `json:"overlapCertified"`
	CocycleCertified      bool    `json:"cocycleCertified"`
	ContractibleCertified bool    `json:"contractibleCertified"`
	Glue                  *Value  `json:"glue,omitempty"`
	TokenPath             *string `json:"tokenPath,omitempty"`
}

func (DescentCheck) isCheck() {}

// Run dispatches on the check variant and returns the complete verdict.
// Failure classes and law references come from the gate registry, never
// re-derived here.
func Run(w World, check Check, profile string) gate.GateResult {
	switch c := check.(type) {
	case LocalityCheck:
		return runLocality(w, c, profile)
	case DescentCheck:
		return runDescent(w, c, profile)
	default:
		f := mustFailure(gate.ClassStabilityFailure,
			fmt.Sprintf("unknown gate check variant %T", check), nil, nil)
		return gate.Rejected(profile, []gate.GateFailure{f})
	}
}

func runLocality(w World, c LocalityCheck, profile string) gate.GateResult {
	var failures []gate.GateFailure
	fail := func(msg string) {
		failures = append(failures, mustFailure(gate.ClassLocalityFailure, msg, c.TokenPath,
			map[string]any{"mask": uint64(c.GammaMask)}))
	}

	if len(c.Legs) == 0 {
		fail("locality check has no legs")
		return gate.Rejected(profile, failures)
	}
	union := Union(c.Legs)
	if !w.IsDefinable(union, c.A) {
		fail(fmt.Sprintf("value %s is not definable at the union of legs (mask %d)", c.A, union))
	}

	restricted := make([]Value, len(c.Legs))
	okLeg := make([]bool, len(c.Legs))
	for i, leg := range c.Legs {
		r, ok := w.Restrict(c.A, union, leg)
		if !ok {
			fail(fmt.Sprintf("value %s does not restrict to leg %d (mask %d)", c.A, i, leg))
			continue
		}
		restricted[i] = r
		okLeg[i] = true
	}

	for i := 0; i < len(c.Legs); i++ {
		for j := i + 1; j < len(c.Legs); j++ {
			if !okLeg[i] || !okLeg[j] {
				continue
			}
			ov := w.Overlap(c.Legs[i], c.Legs[j])
			if ov == 0 {
				continue
			}
			ri, ok1 := w.Restrict(restricted[i], c.Legs[i], ov)
			rj, ok2 := w.Restrict(restricted[j], c.Legs[j], ov)
			if !ok1 || !ok2 || !w.Same(ov, ri, rj) {
				fail(fmt.Sprintf("restrictions of %s disagree on overlap of legs %d and %d (mask %d)", c.A, i, j, ov))
			}
		}
	}

	if len(failures) == 0 {
		return gate.Accepted(profile)
	}
	return gate.Rejected(profile, failures)
}

func runDescent(w World, c DescentCheck, profile string) gate.GateResult {
	var failures []gate.GateFailure
	ctx := map[string]any{"mask": uint64(c.BaseMask)}
	failDescent := func(msg string) {
		failures = append(failures, mustFailure(gate.ClassDescentFailure, msg, c.TokenPath, ctx))
	}

	if len(c.Legs) == 0 || len(c.Locals) != len(c.Legs) {
		failDescent(fmt.Sprintf("descent check needs one local per leg: %d legs, %d locals", len(c.Legs), len(c.Locals)))
		return gate.Rejected(profile, failures)
	}
	if !w.IsCover(c.BaseMask, c.Legs) {
		failDescent(fmt.Sprintf("legs do not cover the base (mask %d)", c.BaseMask))
	}

	if !c.OverlapCertified {
		for i := 0; i < len(c.Legs); i++ {
			for j := i + 1; j < len(c.Legs); j++ {
				ov := w.Overlap(c.Legs[i], c.Legs[j])
				if ov == 0 {
					continue
				}
				ri, ok1 := w.Restrict(c.Locals[i], c.Legs[i], ov)
				rj, ok2 := w.Restrict(c.Locals[j], c.Legs[j], ov)
				if !ok1 || !ok2 || !w.Same(ov, ri, rj) {
					failDescent(fmt.Sprintf("locals %d and %d disagree on their overlap (mask %d)", i, j, ov))
				}
			}
		}
	}
	if !c.CocycleCertified {
		for i := 0; i < len(c.Legs); i++ {
			for j := i + 1; j < len(c.Legs); j++ {
				for k := j + 1; k < len(c.Legs); k++ {
					m := c.Legs[i] & c.Legs[j] & c.Legs[k]
					if m == 0 {
						continue
					}
					ri, ok1 := w.Restrict(c.Locals[i], c.Legs[i], m)
					rj, ok2 := w.Restrict(c.Locals[j], c.Legs[j], m)
					rk, ok3 := w.Restrict(c.Locals[k], c.Legs[k], m)
					if !ok1 || !ok2 || !ok3 || !w.Same(m, ri, rj) || !w.Same(m, rj, rk) {
						failDescent(fmt.Sprintf("cocycle fails for locals %d,%d,%d on triple overlap (mask %d)", i, j, k, m))
					}
				}
			}
		}
	}

	// Candidate glues: definable base values restricting to every local,
	// counted up to Same at the base mask.
	var candidates []Value
	for _, v := range w.Enumerate(c.BaseMask) {
		if !w.IsDefinable(c.BaseMask, v) {
			continue
		}
		consistent := true
		for i, leg := range c.Legs {
			r, ok := w.Restrict(v, c.BaseMask, leg)
			if !ok || !w.Same(leg, r, c.Locals[i]) {
				consistent = false
				break
			}
		}
		if !consistent {
			continue
		}
		dup := false
		for _, prev := range candidates {
			if w.Same(c.BaseMask, prev, v) {
				dup = true
				break
			}
		}
		if !dup {
			candidates = append(candidates, v)
		}
	}

	if len(candidates) == 0 {
		failDescent("no value at the base is consistent with all locals")
	}
	if len(candidates) > 1 && !c.ContractibleCertified {
		failures = append(failures, mustFailure(gate.ClassGlueNonContractible,
			fmt.Sprintf("glue exists but is not unique: %d candidates at the base (mask %d)", len(candidates), c.BaseMask),
			c.TokenPath, ctx))
	}
	if c.Glue != nil {
		matched := false
		for _, cand := range candidates {
			if w.Same(c.BaseMask, cand, *c.Glue) {
				matched = true
				break
			}
		}
		if !matched {
			failDescent(fmt.Sprintf("asserted glue %s is not consistent with the locals", *c.Glue))
		}
	}

	if len(failures) == 0 {
		return gate.Accepted(profile)
	}
	return gate.Rejected(profile, failures)
}

// mustFailure builds a failure through the registry constructor. The only
// error paths are an unregistered class or unserializable context, both
// programming errors here.
func mustFailure(class gate.FailureClass, msg string, tokenPath *string, context map[string]any) gate.GateFailure {
	f, err := gate.NewFailure(class, msg, tokenPath, context)
	if err != nil {
		panic(err)
	}
	return f
}
