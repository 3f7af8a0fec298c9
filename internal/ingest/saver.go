package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/JulienMirval/snag/internal/fetch"
	"github.com/JulienMirval/snag/internal/storage"
)

// saver carries the resolved configuration for one batch run.
type saver struct {
	store  storage.Store
	client *fetch.Client
	folder string
	opts   Options
	log    *slog.Logger
}

// saveEntry runs one entry through the pipeline: deadline check, lookup of
// an existing stored file, create when absent or broken, attach the record,
// clear transient fields, post-process. The returned bool reports whether a
// file was newly created. On error the input entry is returned so the
// caller can hand it back unchanged.
func (s *saver) saveEntry(ctx context.Context, e Entry) (Entry, bool, error) {
	if !time.Now().Before(s.opts.Deadline) {
		return e, false, ErrDeadlineExceeded
	}
	if !e.Eligible() {
		return e, false, nil
	}

	name, err := resolveName(e)
	if err != nil {
		return e, false, err
	}
	target := path.Join(s.folder, name)

	rec, err := s.store.Stat(ctx, target)
	switch {
	case err == nil:
		if s.intact(rec, target) {
			// The stored copy is good: reuse it, no transfer.
		} else {
			if err := s.store.Trash(ctx, rec.ID); err != nil {
				return e, false, fmt.Errorf("trash %s: %w", target, err)
			}
			rec = nil
		}
	case errors.Is(err, storage.ErrNotFound):
		rec = nil
	default:
		return e, false, fmt.Errorf("stat %s: %w", target, err)
	}

	created := false
	if rec == nil {
		rec, err = s.createFile(ctx, e, name)
		if err != nil {
			return e, false, err
		}
		created = true

		// Diagnostic only: the file already exists, but warn early when
		// the stored attributes look wrong.
		if !MimeMatchesPath(rec.Mime, target) {
			s.log.Warn("created file media type does not match its extension",
				"path", target, "mime", rec.Mime)
		}
		if !SizeIsNonZero(rec.Size) {
			s.log.Warn("created file is empty", "path", target)
		}
	}

	out := e.sanitized()
	out.FileDoc = rec
	if s.opts.PostProcess != nil {
		out, err = s.opts.PostProcess(out)
		if err != nil {
			return e, created, fmt.Errorf("post-process entry: %w", err)
		}
	}
	return out, created, nil
}

// intact reports whether an existing stored file can be reused, logging the
// reason when it cannot.
func (s *saver) intact(rec *storage.FileRecord, target string) bool {
	ok := true
	if !MimeMatchesPath(rec.Mime, target) {
		s.log.Warn("stored file media type does not match its extension, recreating",
			"path", target, "mime", rec.Mime)
		ok = false
	}
	if !SizeIsNonZero(rec.Size) {
		s.log.Warn("stored file is empty, recreating", "path", target)
		ok = false
	}
	return ok
}

// createFile fetches the entry's bytes and stores them under name.
func (s *saver) createFile(ctx context.Context, e Entry, name string) (*storage.FileRecord, error) {
	src, contentType, err := s.fetchEntry(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer src.Close()

	rec, err := s.store.Create(ctx, src, storage.CreateOptions{
		Dir:         s.folder,
		Name:        name,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return rec, nil
}

// isQuotaExceeded classifies quota failures from either the store itself or
// an upstream service answering 413.
func isQuotaExceeded(err error) bool {
	if errors.Is(err, storage.ErrQuotaExceeded) {
		return true
	}
	var statusErr *fetch.StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusRequestEntityTooLarge
}
