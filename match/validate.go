package match

import (
	"fmt"

	"fiscalflow/doctext"
	"fiscalflow/extraction"
)

// Validator cross-checks extracted values against the target obligation.
// The vocabulary is the injected last-resort tag strategy.
type Validator struct {
	vocab extraction.TagVocabulary
}

func NewValidator(vocab extraction.TagVocabulary) *Validator {
	return &Validator{vocab: vocab}
}

// Validate runs the field extractors for the descriptors present in the
// schema and compares the parsed period against the target for exact
// equality. Period equality is the authoritative discriminator: type and tax
// id are usually implied by the client and title already searched, while the
// period is the fact that varies across near-duplicate documents.
func (v *Validator) Validate(doc doctext.Document, schema extraction.Schema, target Target) Result {
	if schema.Empty() {
		return Result{Success: false, Reason: ReasonNoDescriptors}
	}

	var out Extracted

	if tagField, ok := schema.TagField(); ok {
		out.ObligationTag, _ = extraction.ExtractObligationTag(doc.FullText, doc.Lines, tagField, v.vocab)
	}
	if _, ok := schema.TaxIDField(); ok {
		out.TaxID, _ = extraction.ExtractTaxID(doc.FullText)
	}
	if periodField, ok := schema.PeriodField(); ok {
		out.Period, _ = extraction.ExtractPeriod(doc.Lines, periodField)
	}

	if out.ObligationTag == "" || out.TaxID == "" || out.Period == "" {
		return Result{Success: false, Reason: ReasonInsufficientData, Extracted: out}
	}

	month, year, err := extraction.ParsePeriod(out.Period)
	if err != nil {
		return Result{Success: false, Reason: ReasonUnrecognizedPeriod, Extracted: out}
	}
	out.Month, out.Year = month, year

	if month != target.Month || year != target.Year {
		return Result{
			Success: false,
			Reason: fmt.Sprintf("period mismatch: document %02d/%d, obligation %02d/%d",
				month, year, target.Month, target.Year),
			Extracted: out,
		}
	}

	return Result{Success: true, Extracted: out}
}
