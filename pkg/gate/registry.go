package gate

// FailureClass names the five reproducible failure categories a gate check
// can emit.
type FailureClass string

const (
	ClassStabilityFailure              FailureClass = "stability_failure"
	ClassLocalityFailure               FailureClass = "locality_failure"
	ClassDescentFailure                FailureClass = "descent_failure"
	ClassGlueNonContractible           FailureClass = "glue_non_contractible"
	ClassAdjointTripleCoherenceFailure FailureClass = "adjoint_triple_coherence_failure"
)

// ObligationKind names a proposal obligation that discharges through the
// gate. The registry below is the single semantic authority for
// classification: all code that classifies a failure consults it instead of
// re-deriving class or law reference, so witness ids stay globally
// consistent.
type ObligationKind string

const (
	ObligationStability            ObligationKind = "stability"
	ObligationLocality             ObligationKind = "locality"
	ObligationDescentExists        ObligationKind = "descent_exists"
	ObligationDescentContractible  ObligationKind = "descent_contractible"
	ObligationAdjointTriangle      ObligationKind = "adjoint_triangle"
	ObligationBeckChevalleySigma   ObligationKind = "beck_chevalley_sigma"
	ObligationBeckChevalleyPi      ObligationKind = "beck_chevalley_pi"
	ObligationRefinementInvariance ObligationKind = "refinement_invariance"
	ObligationAdjointTriple        ObligationKind = "adjoint_triple"
	ObligationExtGap               ObligationKind = "ext_gap"
	ObligationExtAmbiguous         ObligationKind = "ext_ambiguous"
)

var obligationClasses = map[ObligationKind]FailureClass{
	ObligationStability:            ClassStabilityFailure,
	ObligationLocality:             ClassLocalityFailure,
	ObligationDescentExists:        ClassDescentFailure,
	ObligationDescentContractible:  ClassGlueNonContractible,
	ObligationAdjointTriangle:      ClassAdjointTripleCoherenceFailure,
	ObligationBeckChevalleySigma:   ClassAdjointTripleCoherenceFailure,
	ObligationBeckChevalleyPi:      ClassAdjointTripleCoherenceFailure,
	ObligationRefinementInvariance: ClassGlueNonContractible,
	ObligationAdjointTriple:        ClassAdjointTripleCoherenceFailure,
	ObligationExtGap:               ClassDescentFailure,
	ObligationExtAmbiguous:         ClassGlueNonContractible,
}

var classLaws = map[FailureClass]string{
	ClassStabilityFailure:              "GATE-3.1",
	ClassLocalityFailure:               "GATE-3.2",
	ClassDescentFailure:                "GATE-3.3",
	ClassGlueNonContractible:           "GATE-3.4",
	ClassAdjointTripleCoherenceFailure: "GATE-3.5",
}

// Obligations lists every registered obligation kind in canonical order.
func Obligations() []ObligationKind {
	return []ObligationKind{
		ObligationStability,
		ObligationLocality,
		ObligationDescentExists,
		ObligationDescentContractible,
		ObligationAdjointTriangle,
		ObligationBeckChevalleySigma,
		ObligationBeckChevalleyPi,
		ObligationRefinementInvariance,
		ObligationAdjointTriple,
		ObligationExtGap,
		ObligationExtAmbiguous,
	}
}

// ClassFor resolves an obligation kind to its failure class.
func ClassFor(o ObligationKind) (FailureClass, bool) {
	c, ok := obligationClasses[o]
	return c, ok
}

// LawFor resolves a failure class to its law reference.
func LawFor(c FailureClass) (string, bool) {
	law, ok := classLaws[c]
	return law, ok
}
