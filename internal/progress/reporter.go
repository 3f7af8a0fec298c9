package progress

import (
	"fmt"
	"sync/atomic"
)

// Reporter aggregates per-entry outcomes for a batch run. All methods are
// safe for concurrent use by the worker pool.
type Reporter struct {
	created atomic.Int64
	reused  atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
	bytes   atomic.Int64
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// EntryCreated records a newly created file of the given size.
func (r *Reporter) EntryCreated(size int64) {
	r.created.Add(1)
	r.bytes.Add(size)
}

// EntryReused records an entry whose stored file was intact and reused.
func (r *Reporter) EntryReused() {
	r.reused.Add(1)
}

// EntrySkipped records an ineligible entry that passed through unchanged.
func (r *Reporter) EntrySkipped() {
	r.skipped.Add(1)
}

// EntryFailed records an entry whose save attempt failed.
func (r *Reporter) EntryFailed() {
	r.failed.Add(1)
}

// Created returns the number of newly created files.
func (r *Reporter) Created() int64 { return r.created.Load() }

// Reused returns the number of reused stored files.
func (r *Reporter) Reused() int64 { return r.reused.Load() }

// Skipped returns the number of pass-through entries.
func (r *Reporter) Skipped() int64 { return r.skipped.Load() }

// Failed returns the number of failed entries.
func (r *Reporter) Failed() int64 { return r.failed.Load() }

// Bytes returns the total bytes written for created files.
func (r *Reporter) Bytes() int64 { return r.bytes.Load() }

// Total returns the number of entries accounted for.
func (r *Reporter) Total() int64 {
	return r.Created() + r.Reused() + r.Skipped() + r.Failed()
}

// Summary formats a one-line human-readable account of the batch.
func (r *Reporter) Summary() string {
	return fmt.Sprintf("%d entries: %d created (%s) | %d reused | %d skipped | %d failed",
		r.Total(),
		r.Created(),
		formatBytes(r.Bytes()),
		r.Reused(),
		r.Skipped(),
		r.Failed(),
	)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

// ParseBytes parses a human-readable byte string (e.g., "256MB").
func ParseBytes(s string) (int64, error) {
	var multiplier int64 = 1
	s = trimSuffix(s, " ")

	switch {
	case hasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	var value float64
	_, err := fmt.Sscanf(s, "%f", &value)
	if err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func trimSuffix(s, suffix string) string {
	for hasSuffix(s, suffix) {
		s = s[:len(s)-len(suffix)]
	}
	return s
}
