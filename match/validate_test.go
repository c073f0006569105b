package match

import (
	"strings"
	"testing"

	"fiscalflow/doctext"
	"fiscalflow/extraction"
)

func dasSchema() extraction.Schema {
	return extraction.Schema{
		ID:   "schema-das",
		Name: "DAS mensal",
		Fields: []extraction.FieldDescriptor{
			extraction.ObligationTagField{ExpectedLiteral: "DAS"},
			extraction.TaxIDField{},
			extraction.PeriodField{},
		},
	}
}

func docFromLines(lines ...string) doctext.Document {
	return doctext.Document{
		FullText: strings.Join(lines, " "),
		Lines:    lines,
	}
}

func TestValidate_Success(t *testing.T) {
	v := NewValidator(extraction.DefaultTagVocabulary())

	doc := docFromLines(
		"DAS - Documento de Arrecadação do Simples Nacional",
		"CNPJ: 12.345.678/0001-90",
		"Competência: 07/2025",
	)

	res := v.Validate(doc, dasSchema(), Target{Month: 7, Year: 2025})
	if !res.Success {
		t.Fatalf("expected success, got reason %q", res.Reason)
	}
	if res.Extracted.ObligationTag != "DAS" {
		t.Fatalf("expected tag DAS, got %q", res.Extracted.ObligationTag)
	}
	if res.Extracted.TaxID != "12.345.678/0001-90" {
		t.Fatalf("unexpected tax id %q", res.Extracted.TaxID)
	}
	if res.Extracted.Period != "07/2025" || res.Extracted.Month != 7 || res.Extracted.Year != 2025 {
		t.Fatalf("unexpected period: %+v", res.Extracted)
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	v := NewValidator(extraction.DefaultTagVocabulary())

	res := v.Validate(docFromLines("qualquer coisa"), extraction.Schema{ID: "s"}, Target{Month: 7, Year: 2025})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Reason != ReasonNoDescriptors {
		t.Fatalf("expected %q, got %q", ReasonNoDescriptors, res.Reason)
	}
}

func TestValidate_InsufficientData(t *testing.T) {
	v := NewValidator(extraction.DefaultTagVocabulary())

	// Tag and period present, tax id missing.
	doc := docFromLines(
		"DAS - Documento de Arrecadação",
		"Competência: 07/2025",
	)

	res := v.Validate(doc, dasSchema(), Target{Month: 7, Year: 2025})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Reason != ReasonInsufficientData {
		t.Fatalf("expected %q, got %q", ReasonInsufficientData, res.Reason)
	}
	if res.Extracted.ObligationTag != "DAS" || res.Extracted.Period != "07/2025" {
		t.Fatalf("partial extraction must be preserved: %+v", res.Extracted)
	}
}

func TestValidate_PeriodMismatch(t *testing.T) {
	v := NewValidator(extraction.DefaultTagVocabulary())

	doc := docFromLines(
		"DAS - Documento de Arrecadação",
		"CNPJ: 12.345.678/0001-90",
		"Competência: 06/2025",
	)

	res := v.Validate(doc, dasSchema(), Target{Month: 7, Year: 2025})
	if res.Success {
		t.Fatal("expected failure")
	}
	want := "period mismatch: document 06/2025, obligation 07/2025"
	if res.Reason != want {
		t.Fatalf("expected %q, got %q", want, res.Reason)
	}
}

func TestValidate_BareYearNeverMatchesMonthlyTarget(t *testing.T) {
	v := NewValidator(extraction.DefaultTagVocabulary())

	doc := docFromLines(
		"DAS - Documento de Arrecadação",
		"CNPJ: 12.345.678/0001-90",
		"Exercício 2025",
	)

	res := v.Validate(doc, dasSchema(), Target{Month: 7, Year: 2025})
	if res.Success {
		t.Fatal("a bare year must not satisfy a monthly obligation")
	}
	if res.Extracted.Month != 0 || res.Extracted.Year != 2025 {
		t.Fatalf("expected month 0 year 2025, got %+v", res.Extracted)
	}
}

func TestValidate_PartialSchemaOnlyRunsConfiguredFields(t *testing.T) {
	v := NewValidator(extraction.DefaultTagVocabulary())

	schema := extraction.Schema{
		ID: "s",
		Fields: []extraction.FieldDescriptor{
			extraction.ObligationTagField{ExpectedLiteral: "DAS"},
		},
	}

	// No tax id or period descriptor configured, so those stay empty and the
	// result is insufficient data rather than a crash or a false success.
	res := v.Validate(docFromLines("DAS competência 07/2025"), schema, Target{Month: 7, Year: 2025})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Reason != ReasonInsufficientData {
		t.Fatalf("expected %q, got %q", ReasonInsufficientData, res.Reason)
	}
}
