// Package docstore is the I/O adapter for the external document repository.
package docstore

import "errors"

var (
	// ErrNotFound is returned when the repository has no content for the id.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrNoCredential signals that no repository credential is available
	// for the client. This is a configuration failure: callers abort the
	// whole run instead of treating it as a per-candidate miss.
	ErrNoCredential = errors.New("docstore: no credential available for client")
)

// DocumentMeta is the metadata the repository returns when listing. Content
// is fetched lazily, only for candidates surviving the title pre-filter.
type DocumentMeta struct {
	ExternalID string
	Title      string
	Attributes map[string]string
}

// ListFilters narrows a repository listing. All fields are optional.
type ListFilters struct {
	// Title restricts the listing server-side when supported; the caller
	// still applies its own title pre-filter.
	Title string
}
