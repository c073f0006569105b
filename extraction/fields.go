package extraction

import (
	"regexp"
	"strings"
)

// cnpjPattern matches the formatted 14-digit tax identifier
// (NN.NNN.NNN/NNNN-NN). The format is invariant and never configured.
var cnpjPattern = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)

// ExtractObligationTag locates the document's obligation-type tag. Strategies
// fall through in order: the configured validation pattern (case-insensitive,
// per line, first hit wins), the configured literal (verbatim in the full
// text, else the first line containing it case-insensitively), and finally
// the default vocabulary.
func ExtractObligationTag(fullText string, lines []string, field ObligationTagField, vocab TagVocabulary) (string, bool) {
	if field.ValidationPattern != "" {
		if re, err := regexp.Compile("(?i)" + field.ValidationPattern); err == nil {
			for _, line := range lines {
				if m := re.FindString(line); m != "" {
					return m, true
				}
			}
		}
	}

	if field.ExpectedLiteral != "" {
		if strings.Contains(fullText, field.ExpectedLiteral) {
			return field.ExpectedLiteral, true
		}
		lower := strings.ToLower(field.ExpectedLiteral)
		for _, line := range lines {
			if strings.Contains(strings.ToLower(line), lower) {
				return line, true
			}
		}
	}

	return vocab.Lookup(fullText)
}

// ExtractTaxID returns the first formatted tax identifier in the full text.
func ExtractTaxID(fullText string) (string, bool) {
	m := cnpjPattern.FindString(fullText)
	return m, m != ""
}
