package ingest

import "errors"

// Common errors.
var (
	// ErrMissingFilename is returned when an entry supplies a byte stream
	// but neither an explicit filename nor a URL to derive one from.
	ErrMissingFilename = errors.New("ingest: entry has a stream but no filename and no url to derive one from")

	// ErrDeadlineExceeded is returned when the batch deadline has passed.
	// Unlike per-entry failures it terminates the whole batch.
	ErrDeadlineExceeded = errors.New("ingest: batch deadline exceeded")
)
