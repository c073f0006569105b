// Package reconcile drives obligation-document reconciliation runs: it fans
// out over pending activities, scores candidate documents, and commits the
// best match per activity.
package reconcile

// Status is the terminal state of one activity within a run.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Method records how an activity was closed.
type Method string

const (
	// MethodSchemaValidated means the winner passed field extraction and
	// period validation against the configured schema.
	MethodSchemaValidated Method = "schema_validated"
	// MethodNoValidation means no schema was configured and the first
	// candidate with retrievable content was accepted.
	MethodNoValidation Method = "no_validation"
	// MethodResumed means a previously interrupted commit (content stored,
	// completion missing) was finished without re-examining documents.
	MethodResumed Method = "resumed"
)

// Failure reasons reported in outcomes. These are normal negative results.
const (
	ReasonNoMatchingTitle  = "no matching title"
	ReasonNoValidDocument  = "no valid document found (competency mismatch)"
	ReasonAlreadyCompleted = "activity already completed"
	ReasonRunCancelled     = "run cancelled before completion"
)

// Outcome is the structured result for one activity. Failures are captured
// here and never propagate as errors past the activity boundary.
type Outcome struct {
	ActivityID        string `json:"activity_id"`
	ObligationID      string `json:"obligation_id"`
	Status            Status `json:"status"`
	Reason            string `json:"reason,omitempty"`
	Method            Method `json:"method,omitempty"`
	DocumentsExamined int    `json:"documents_examined"`
	Score             int    `json:"score,omitempty"`
	DocumentTitle     string `json:"document_title,omitempty"`
	ExternalID        string `json:"external_id,omitempty"`
}

// Summary aggregates a whole run. Activity order is not significant.
type Summary struct {
	RunID       string    `json:"run_id"`
	Total       int       `json:"total"`
	Successes   int       `json:"successes"`
	Failures    int       `json:"failures"`
	PerActivity []Outcome `json:"per_activity"`
}

// RunParams scopes one reconciliation run.
type RunParams struct {
	ObligationTypeID string
	TenantID         string
	// ActorID identifies the operator driving the run; recorded in audit
	// notes.
	ActorID string
}
