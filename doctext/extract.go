// Package doctext converts raw PDF content into normalized, positionally
// searchable plain text for the field extractors.
package doctext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ErrUnreadable signals corrupt or unsupported document content. Callers
// treat it as a non-match for the candidate, never as a batch failure.
var ErrUnreadable = errors.New("doctext: unreadable document content")

// chunkWidth is the fixed-width fallback used when the decoded text carries
// no usable separators at all.
const chunkWidth = 80

// Document is the normalized view of one candidate's content: trimmed
// non-empty lines plus their space-joined concatenation.
type Document struct {
	FullText string
	Lines    []string
}

// Extract decodes PDF bytes and segments the result into lines.
func Extract(content []byte) (Document, error) {
	raw, err := plainText(content)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	lines := SegmentLines(raw)
	return Document{
		FullText: strings.Join(lines, " "),
		Lines:    lines,
	}, nil
}

// plainText runs the PDF decoder. The decoder panics on some malformed
// inputs, so the recover converts those into ordinary errors.
func plainText(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf decode panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

// SegmentLines splits decoded text into trimmed non-empty lines. Strategies
// are tried in order until one yields more than one line: line breaks,
// whitespace runs, fixed-width chunks. The chunked result is used as-is when
// nothing else produced multiple lines.
func SegmentLines(raw string) []string {
	if lines := trimNonEmpty(strings.Split(raw, "\n")); len(lines) > 1 {
		return lines
	}
	if lines := strings.Fields(raw); len(lines) > 1 {
		return lines
	}
	return trimNonEmpty(chunk(raw, chunkWidth))
}

func trimNonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func chunk(s string, width int) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/width+1)
	for start := 0; start < len(runes); start += width {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
