// Package domain defines the core domain models for toptube.
package domain

import "errors"

// ErrDocumentNotFound is returned by document stores when an id is absent.
// It is a storage-level signal; services translate it into a DomainError.
var ErrDocumentNotFound = errors.New("document not found")

// Document is a stored JSON document.
type Document struct {
	ID   string
	Data []byte
}

// DocumentQuery selects documents within one collection.
//
// Documents are kept when the top-level string field FilterField equals
// FilterValue (no filter when FilterField is empty), sorted by the
// top-level string field OrderBy, and truncated to Limit (0 = no limit).
type DocumentQuery struct {
	FilterField string
	FilterValue string
	OrderBy     string
	Descending  bool
	Limit       int
}
