// Package progress tracks per-entry outcomes of a batch run and formats
// human-readable summaries and byte counts.
package progress
