// Package match validates extracted document facts against an activity's
// expected obligation and ranks successful matches.
package match

// Extracted bundles the facts pulled out of one candidate's text. It is
// returned even when validation fails, to support diagnosis and audit.
type Extracted struct {
	ObligationTag string
	TaxID         string
	Period        string
	Month         int
	Year          int
}

// Target is the obligation's stored reporting period the candidate must
// corroborate exactly.
type Target struct {
	Month int
	Year  int
}

// Result is the outcome of validating one candidate against one activity.
// Ephemeral: only the winner's facts are ever persisted.
type Result struct {
	Success   bool
	Reason    string
	Extracted Extracted
}

// Failure reasons for the common negative outcomes. These are normal
// results, not system errors.
const (
	ReasonNoDescriptors      = "no validation possible: schema has no field descriptors"
	ReasonInsufficientData   = "insufficient data"
	ReasonUnrecognizedPeriod = "unrecognized period"
)
