package reconcile

import "fmt"

// buildFilename derives the attachment filename. Combining the expected
// title, extracted tag, extracted period, and external id keeps filenames
// unique and traceable by hand. Unvalidated matches have no extracted facts
// to embed.
func buildFilename(expectedTitle, tag, period, externalID string, validated bool) string {
	if !validated {
		return fmt.Sprintf("%s_%s.pdf", expectedTitle, externalID)
	}
	return fmt.Sprintf("%s_%s_%s_%s.pdf", expectedTitle, tag, period, externalID)
}
