package extraction

import (
	"errors"
	"testing"
)

func TestPeriodFromLine_Formats(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"Competência: julho/2025", "julho/2025"},
		{"Competência: 07/2025", "07/2025"},
		{"Período jul-2025", "jul-2025"},
		{"Referente a julho de 2025", "julho de 2025"},
		{"Exercício 2025", "2025"},
		{"Julho 2025", "07/2025"},
		{"mar/2024 apuração", "mar/2024"},
		{"março de 2024", "março de 2024"},
	}

	for _, tc := range cases {
		got, ok := periodFromLine(tc.line)
		if !ok {
			t.Fatalf("%q: expected a period", tc.line)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %q got %q", tc.line, tc.want, got)
		}
	}

	if _, ok := periodFromLine("sem competência nesta linha"); ok {
		t.Fatal("expected no period")
	}
}

func TestExtractPeriod_HintedLineWins(t *testing.T) {
	lines := []string{
		"linha um",
		"Competência: 07/2025",
		"Vencimento: 08/2025",
	}

	got, ok := ExtractPeriod(lines, PeriodField{ApproximateLine: 2})
	if !ok || got != "07/2025" {
		t.Fatalf("expected hinted line hit 07/2025, got %q (ok=%v)", got, ok)
	}
}

func TestExtractPeriod_WindowAroundHint(t *testing.T) {
	lines := []string{
		"linha um",
		"linha dois",
		"linha três",
		"linha quatro",
		"Competência: 07/2025",
	}

	// Hint points at line 3; the period sits two lines below, inside the window.
	got, ok := ExtractPeriod(lines, PeriodField{ApproximateLine: 3})
	if !ok || got != "07/2025" {
		t.Fatalf("expected window hit 07/2025, got %q (ok=%v)", got, ok)
	}
}

func TestExtractPeriod_NoFullScanWithHint(t *testing.T) {
	lines := []string{
		"Competência: 07/2025",
		"linha dois",
		"linha três",
		"linha quatro",
		"linha cinco",
		"linha seis",
	}

	// Hint at line 6: the window covers lines 4 through 6 only, so the
	// period on line 1 must stay invisible.
	if got, ok := ExtractPeriod(lines, PeriodField{ApproximateLine: 6}); ok {
		t.Fatalf("expected no hit outside the window, got %q", got)
	}
}

func TestExtractPeriod_FullScanWithoutHint(t *testing.T) {
	lines := []string{
		"linha um",
		"linha dois",
		"linha três",
		"linha quatro",
		"linha cinco",
		"Competência: 07/2025",
	}

	got, ok := ExtractPeriod(lines, PeriodField{})
	if !ok || got != "07/2025" {
		t.Fatalf("expected full-scan hit 07/2025, got %q (ok=%v)", got, ok)
	}
}

func TestExtractPeriod_HintPastEndStillChecksWindow(t *testing.T) {
	lines := []string{
		"linha um",
		"Competência: 07/2025",
	}

	got, ok := ExtractPeriod(lines, PeriodField{ApproximateLine: 3})
	if !ok || got != "07/2025" {
		t.Fatalf("expected window hit below out-of-range hint, got %q (ok=%v)", got, ok)
	}
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in        string
		month     int
		year      int
	}{
		{"07/2025", 7, 2025},
		{"7/2025", 7, 2025},
		{"julho/2025", 7, 2025},
		{"jul-2025", 7, 2025},
		{"março de 2024", 3, 2024},
		{"maio/2023", 5, 2023},
		{"2025", 0, 2025},
	}

	for _, tc := range cases {
		month, year, err := ParsePeriod(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if month != tc.month || year != tc.year {
			t.Fatalf("%q: expected %02d/%d got %02d/%d", tc.in, tc.month, tc.year, month, year)
		}
	}
}

func TestParsePeriod_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"competência 07/2025", // extra text around the period
		"13/2025",
		"julho",
		"1925-07",
	} {
		if _, _, err := ParsePeriod(in); !errors.Is(err, ErrUnparseablePeriod) {
			t.Fatalf("%q: expected ErrUnparseablePeriod, got %v", in, err)
		}
	}
}
