package storage

import (
	"context"
	"errors"
	"io"
)

// Common errors.
var (
	// ErrNotFound is returned by Stat and Trash when no file exists at the
	// given path or id.
	ErrNotFound = errors.New("storage: file not found")

	// ErrQuotaExceeded is returned by Create when writing the file would
	// exceed the store's byte budget. It is the storage-level analogue of
	// an HTTP 413 from a remote file service.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// FileRecord is the store's representation of a stored file.
type FileRecord struct {
	// ID uniquely identifies the file, surviving renames.
	ID string

	// Name is the file's base name within its folder.
	Name string

	// Mime is the declared media type of the stored content.
	Mime string

	// Size is the stored byte size.
	Size int64

	// Path is the full folder-qualified path of the file.
	Path string
}

// CreateOptions describes where and how to store a new file.
type CreateOptions struct {
	// Dir is the target folder path.
	Dir string

	// Name is the file name within Dir.
	Name string

	// ContentType forces the stored media type. Empty lets the store
	// derive one.
	ContentType string
}

// Store is the remote hierarchical storage collaborator: stat a file by
// path, create a file from a byte source, and trash a file by id.
type Store interface {
	Stat(ctx context.Context, path string) (*FileRecord, error)
	Create(ctx context.Context, src io.Reader, opts CreateOptions) (*FileRecord, error)
	Trash(ctx context.Context, id string) error
}
