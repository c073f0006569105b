package client

import "time"

// Profile is one client of the firm. TaxID is the formatted CNPJ used both
// for document-repository access and for corroborating extracted tax ids.
type Profile struct {
	ID        string
	TenantID  string
	Name      string
	TaxID     string
	CreatedAt time.Time
}
