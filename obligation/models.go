package obligation

import "time"

// Status is the lifecycle state of an obligation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Period is the (month, year) competency an obligation pertains to.
type Period struct {
	Month int
	Year  int
}

// Obligation is one recurring compliance requirement for one client in one
// reporting period. At most one terminal completion exists per
// (client, obligation type, period).
type Obligation struct {
	ID                     string
	ClientID               string
	ObligationTypeID       string
	Period                 Period
	Status                 Status
	CompletedAutomatically bool
	CompletedAt            *time.Time
}

// Activity is one unit of required evidence within an obligation. The
// owning obligation's period and client are embedded so the reconciliation
// engine never re-reads them mid-run.
type Activity struct {
	ID                    string
	ObligationID          string
	ExpectedDocumentTitle string
	ExtractionSchemaID    *string
	Completed             bool
	CompletedAt           *time.Time
	AttachedFilename      *string
	// HasAttachment reports whether content bytes are stored; the bytes
	// themselves are never loaded when listing. Content present while
	// Completed is false marks an interrupted commit, resumable on re-run.
	HasAttachment bool

	ClientID         string
	ObligationTypeID string
	Period           Period
}
