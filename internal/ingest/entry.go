package ingest

import (
	"io"

	"github.com/JulienMirval/snag/internal/fetch"
	"github.com/JulienMirval/snag/internal/storage"
)

// Entry describes one file to materialize into the store. Entries move
// through the pipeline by value: each stage returns a new Entry rather than
// mutating shared state.
type Entry struct {
	// FileURL is the source URL for the entry's bytes.
	FileURL string

	// Filename is the explicit target name. When empty it is derived from
	// FileURL.
	Filename string

	// RequestOptions overrides the default GET request issued for
	// FileURL. Only meaningful together with FileURL. Transient: cleared
	// from the returned entry.
	RequestOptions *fetch.RequestOptions

	// FileStream supplies pre-fetched content. Ownership passes to the
	// pipeline, which closes it after storing. Transient: cleared from
	// the returned entry.
	FileStream io.ReadCloser

	// FileDoc is the stored file's record, attached after a successful
	// save. Failed entries come back with a nil FileDoc.
	FileDoc *storage.FileRecord
}

// Eligible reports whether the entry carries anything to save. Ineligible
// entries pass through the pipeline unchanged.
func (e Entry) Eligible() bool {
	return e.FileURL != "" || e.RequestOptions != nil || e.FileStream != nil
}

// sanitized returns a copy with the transient fetch fields cleared. They are
// either not serializable or no longer meaningful once the file is stored.
func (e Entry) sanitized() Entry {
	e.RequestOptions = nil
	e.FileStream = nil
	return e
}

// label identifies the entry in logs: its URL when it has one, otherwise
// its filename.
func (e Entry) label() string {
	if e.FileURL != "" {
		return e.FileURL
	}
	return e.Filename
}
