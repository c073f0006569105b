package extraction

import "errors"

// FieldKind discriminates the descriptor variants.
type FieldKind string

const (
	FieldKindObligationTag FieldKind = "obligation_tag"
	FieldKindTaxID         FieldKind = "tax_id"
	FieldKindPeriod        FieldKind = "period"
)

var (
	// ErrSchemaNotFound is returned when no schema row exists for the id.
	ErrSchemaNotFound = errors.New("extraction: schema not found")
	// ErrUnknownFieldKind is returned for descriptor rows with an
	// unrecognized kind column.
	ErrUnknownFieldKind = errors.New("extraction: unknown field kind")
)

// FieldDescriptor is one configured extraction rule. Each variant carries
// only the settings relevant to its kind.
type FieldDescriptor interface {
	Kind() FieldKind
}

// ObligationTagField looks for the document's obligation-type tag.
type ObligationTagField struct {
	// ExpectedLiteral is an exact/substring target, e.g. "DAS".
	ExpectedLiteral string
	// ValidationPattern is a regular expression tried per line before the
	// literal and the default vocabulary.
	ValidationPattern string
}

func (ObligationTagField) Kind() FieldKind { return FieldKindObligationTag }

// TaxIDField requests extraction of the client tax identifier. The CNPJ
// format is invariant, so the variant carries no configuration.
type TaxIDField struct{}

func (TaxIDField) Kind() FieldKind { return FieldKindTaxID }

// PeriodField requests extraction of the reporting period (competency).
type PeriodField struct {
	// ApproximateLine is a 1-based hint of where the period usually sits;
	// zero means no hint and every line is searched.
	ApproximateLine int
}

func (PeriodField) Kind() FieldKind { return FieldKindPeriod }

// Schema is a named, ordered set of field descriptors reusable across
// activities of the same obligation type.
type Schema struct {
	ID     string
	Name   string
	Fields []FieldDescriptor
}

// Empty reports whether the schema carries no descriptors at all. An empty
// schema yields a "no validation possible" outcome, never a false success.
func (s Schema) Empty() bool { return len(s.Fields) == 0 }

// TagField returns the first obligation-tag descriptor, if configured.
func (s Schema) TagField() (ObligationTagField, bool) {
	for _, f := range s.Fields {
		if tf, ok := f.(ObligationTagField); ok {
			return tf, true
		}
	}
	return ObligationTagField{}, false
}

// TaxIDField returns the first tax-id descriptor, if configured.
func (s Schema) TaxIDField() (TaxIDField, bool) {
	for _, f := range s.Fields {
		if tf, ok := f.(TaxIDField); ok {
			return tf, true
		}
	}
	return TaxIDField{}, false
}

// PeriodField returns the first period descriptor, if configured.
func (s Schema) PeriodField() (PeriodField, bool) {
	for _, f := range s.Fields {
		if pf, ok := f.(PeriodField); ok {
			return pf, true
		}
	}
	return PeriodField{}, false
}
