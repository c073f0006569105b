package extraction

import "strings"

// TagVocabulary is the last-resort obligation-tag strategy: a fixed list of
// well-known tag keywords checked against the full text in priority order.
// Many documents omit the exact configured literal but still carry one of
// these recognizable substrings.
type TagVocabulary struct {
	keywords []string
}

// DefaultTagVocabulary returns the built-in keyword list.
func DefaultTagVocabulary() TagVocabulary {
	return TagVocabulary{keywords: []string{
		"DAS",
		"DARF",
		"DCTFWEB",
		"DCTF",
		"DEFIS",
		"GPS",
		"FGTS",
		"GFIP",
		"SIMPLES NACIONAL",
		"ICMS",
		"ISS",
	}}
}

// NewTagVocabulary builds a vocabulary from a custom keyword list, checked
// in the given order.
func NewTagVocabulary(keywords []string) TagVocabulary {
	return TagVocabulary{keywords: keywords}
}

// Lookup returns the first keyword present in the text, case-insensitively.
func (v TagVocabulary) Lookup(fullText string) (string, bool) {
	lower := strings.ToLower(fullText)
	for _, kw := range v.keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
