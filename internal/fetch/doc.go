// Package fetch provides the HTTP client used to materialize entry bytes.
//
// The client keeps a shared cookie jar for session continuity, retries
// transient server errors with exponential backoff and jitter, and reports
// definitive failures as typed StatusError values so callers can react to
// specific status codes without string matching.
package fetch
