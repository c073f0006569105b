package match

// Point values are used only for relative ranking within one activity's
// candidate set; only the weight ordering (period ≳ tag ≳ taxId) matters.
const (
	pointsTag         = 10
	pointsPeriod      = 10
	pointsTaxID       = 5
	pointsClientName  = 5
	pointsPeriodExact = 20

	// ScoreUnvalidated is the flat baseline for a candidate accepted
	// without any schema validation, provided its content was retrievable.
	ScoreUnvalidated = 1
)

// ScoreInput carries everything the scorer weighs for one candidate.
type ScoreInput struct {
	Extracted          Extracted
	ClientNameResolved bool
	Target             Target
}

// Score ranks a match by how many independent facts corroborate it. The
// exact-period bonus is what separates a schema-validated match from an
// unvalidated one, since the scorer also runs for documents accepted without
// layout validation.
func Score(in ScoreInput) int {
	score := 0
	if in.Extracted.ObligationTag != "" {
		score += pointsTag
	}
	if in.Extracted.Period != "" {
		score += pointsPeriod
	}
	if in.Extracted.TaxID != "" {
		score += pointsTaxID
	}
	if in.ClientNameResolved {
		score += pointsClientName
	}
	if in.Extracted.Period != "" &&
		in.Extracted.Month == in.Target.Month && in.Extracted.Year == in.Target.Year {
		score += pointsPeriodExact
	}
	return score
}
