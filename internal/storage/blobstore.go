package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// TrashPrefix is the bucket prefix trashed objects are moved under.
const TrashPrefix = ".trash/"

// metadata keys written on every created object.
const (
	metaID   = "id"
	metaName = "name"
)

// errBudget signals that a write ran past the remaining quota.
var errBudget = errors.New("write budget exceeded")

// BlobOption configures a BlobStore.
type BlobOption func(*BlobStore)

// WithQuota caps the total live bytes (trash excluded) the store will hold.
// Zero means unlimited.
func WithQuota(quota int64) BlobOption {
	return func(s *BlobStore) {
		s.quota = quota
	}
}

// BlobStore implements Store on top of a gocloud blob bucket.
type BlobStore struct {
	bucket *blob.Bucket
	quota  int64

	mu         sync.Mutex
	paths      map[string]string // record id -> object key
	used       int64
	usageKnown bool
}

// NewBlobStore creates a store over bucket. The caller retains ownership of
// the bucket and is responsible for closing it.
func NewBlobStore(bucket *blob.Bucket, options ...BlobOption) *BlobStore {
	s := &BlobStore{
		bucket: bucket,
		paths:  map[string]string{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Stat returns the record for the file stored at p, or ErrNotFound.
func (s *BlobStore) Stat(ctx context.Context, p string) (*FileRecord, error) {
	attrs, err := s.bucket.Attributes(ctx, p)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: stat %s: %w", p, err)
	}

	id := attrs.Metadata[metaID]
	if id == "" {
		// Object predates this store or was written externally; fall back
		// to the key itself so it can still be trashed.
		id = p
	}

	s.mu.Lock()
	s.paths[id] = p
	s.mu.Unlock()

	name := attrs.Metadata[metaName]
	if name == "" {
		name = path.Base(p)
	}

	return &FileRecord{
		ID:   id,
		Name: name,
		Mime: attrs.ContentType,
		Size: attrs.Size,
		Path: p,
	}, nil
}

// Create stores src as a new file and returns its record. When a quota is
// configured and the write would exceed it, the partial object is removed
// and ErrQuotaExceeded is returned.
func (s *BlobStore) Create(ctx context.Context, src io.Reader, opts CreateOptions) (*FileRecord, error) {
	if opts.Name == "" {
		return nil, errors.New("storage: create requires a name")
	}
	key := path.Join(opts.Dir, opts.Name)

	budget := int64(-1)
	if s.quota > 0 {
		if err := s.ensureUsage(ctx); err != nil {
			return nil, fmt.Errorf("storage: compute usage: %w", err)
		}
		s.mu.Lock()
		budget = s.quota - s.used
		s.mu.Unlock()
		if budget <= 0 {
			return nil, ErrQuotaExceeded
		}
	}

	id := uuid.NewString()
	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: opts.ContentType,
		Metadata:    map[string]string{metaID: id, metaName: opts.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open writer %s: %w", key, err)
	}

	n, err := copyWithBudget(w, src, budget)
	closeErr := w.Close()
	if err != nil || closeErr != nil {
		// Best effort: do not leave a partial object behind.
		_ = s.bucket.Delete(ctx, key)
		if errors.Is(err, errBudget) {
			return nil, ErrQuotaExceeded
		}
		if err == nil {
			err = closeErr
		}
		return nil, fmt.Errorf("storage: write %s: %w", key, err)
	}

	s.mu.Lock()
	s.paths[id] = key
	if s.usageKnown {
		s.used += n
	}
	s.mu.Unlock()

	// Read the record back so it reflects what the bucket actually stored,
	// content type sniffing included.
	return s.Stat(ctx, key)
}

// Trash moves the file with the given id under TrashPrefix. The id must come
// from a record previously returned by Stat or Create.
func (s *BlobStore) Trash(ctx context.Context, id string) error {
	s.mu.Lock()
	key, ok := s.paths[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("storage: stat %s: %w", key, err)
	}

	dst := TrashPrefix + path.Join(id, path.Base(key))
	if err := s.bucket.Copy(ctx, dst, key, nil); err != nil {
		return fmt.Errorf("storage: copy %s to trash: %w", key, err)
	}
	if err := s.bucket.Delete(ctx, key); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}

	s.mu.Lock()
	delete(s.paths, id)
	if s.usageKnown {
		s.used -= attrs.Size
	}
	s.mu.Unlock()

	return nil
}

// List returns the paths of all live files under dir.
func (s *BlobStore) List(ctx context.Context, dir string) ([]string, error) {
	prefix := dir
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var keys []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storage: list %s: %w", dir, err)
		}
		if strings.HasPrefix(obj.Key, TrashPrefix) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// ensureUsage computes the live byte usage once, on first need.
func (s *BlobStore) ensureUsage(ctx context.Context) error {
	s.mu.Lock()
	known := s.usageKnown
	s.mu.Unlock()
	if known {
		return nil
	}

	var total int64
	iter := s.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if strings.HasPrefix(obj.Key, TrashPrefix) {
			continue
		}
		total += obj.Size
	}

	s.mu.Lock()
	s.used = total
	s.usageKnown = true
	s.mu.Unlock()
	return nil
}

// copyWithBudget copies src into dst, failing with errBudget once more than
// budget bytes have been read. A negative budget means unlimited.
func copyWithBudget(dst io.Writer, src io.Reader, budget int64) (int64, error) {
	if budget < 0 {
		return io.Copy(dst, src)
	}
	n, err := io.Copy(dst, io.LimitReader(src, budget+1))
	if err != nil {
		return n, err
	}
	if n > budget {
		return n, errBudget
	}
	return n, nil
}
