package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/JulienMirval/snag/internal/fetch"
	"github.com/JulienMirval/snag/internal/progress"
	"github.com/JulienMirval/snag/internal/storage"
)

// DefaultTimeout is how long a batch may run when no deadline is given. The
// hosting environment kills runs after five minutes; four leaves a margin to
// return cleanly.
const DefaultTimeout = 4 * time.Minute

// Options configures one batch run.
type Options struct {
	// Deadline is the absolute point in time past which no further entry
	// begins processing. Zero means DefaultTimeout from the moment
	// SaveAll is called.
	Deadline time.Time

	// Concurrency caps how many entries are in flight at once.
	// Default: 1. The default is sequential because trash-then-recreate
	// on a path is not transactionally isolated; raising this accepts
	// that entries targeting the same path may race.
	Concurrency int

	// ContentType forces the media type stored for every created file,
	// overriding whatever the transport declares.
	ContentType string

	// PostProcess transforms each saved entry before it is returned.
	PostProcess func(Entry) (Entry, error)

	// PostProcessFile transforms the raw fetched bytes before storage.
	//
	// Deprecated: it buffers the whole body in memory. Use PostProcess
	// on the saved entry instead.
	PostProcessFile func([]byte) ([]byte, error)

	// Client issues HTTP requests. If nil, a client with default options
	// is used.
	Client *fetch.Client

	// Logger is used for structured logging. If nil, slog.Default() is
	// used.
	Logger *slog.Logger

	// Reporter collects per-entry outcome counts. Optional.
	Reporter *progress.Reporter
}

// SaveAll materializes entries into folder with at most opts.Concurrency in
// flight. Every input entry yields exactly one output entry in input order:
// saved entries carry a FileDoc, ineligible or failed entries come back
// unchanged. When the batch deadline passes, the entries processed so far
// are returned and the rest are left untouched; that truncation is an
// expected outcome, not an error.
func SaveAll(ctx context.Context, store storage.Store, entries []Entry, folder string, opts Options) []Entry {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Deadline.IsZero() {
		opts.Deadline = time.Now().Add(DefaultTimeout)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "ingest")
	client := opts.Client
	if client == nil {
		client = fetch.NewClient(fetch.DefaultOptions())
	}

	s := &saver{
		store:  store,
		client: client,
		folder: folder,
		opts:   opts,
		log:    log,
	}

	var (
		mu           sync.Mutex
		results      = make([]Entry, len(entries))
		processed    = make([]bool, len(entries))
		createdCount int
		deadlineHit  bool
	)

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup

	for range opts.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				e := entries[i]
				// The pool context only stops dispatch: an entry
				// already in flight is never aborted mid-transfer.
				out, created, err := s.saveEntry(ctx, e)
				if err != nil {
					if errors.Is(err, ErrDeadlineExceeded) {
						mu.Lock()
						deadlineHit = true
						mu.Unlock()
						cancel()
						return
					}
					if isQuotaExceeded(err) {
						log.Warn("storage quota exceeded, entry skipped",
							"entry", e.label(), "error", err)
					} else {
						log.Error("could not save entry",
							"entry", e.label(), "error", err)
					}
					s.report(func(r *progress.Reporter) { r.EntryFailed() })
					out = e
				} else {
					switch {
					case created:
						s.report(func(r *progress.Reporter) { r.EntryCreated(out.FileDoc.Size) })
					case out.FileDoc != nil:
						s.report(func(r *progress.Reporter) { r.EntryReused() })
					default:
						s.report(func(r *progress.Reporter) { r.EntrySkipped() })
					}
				}

				mu.Lock()
				results[i] = out
				processed[i] = true
				if created {
					createdCount++
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i := range entries {
		select {
		case jobs <- i:
		case <-poolCtx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]Entry, 0, len(entries))
	remaining := 0
	for i := range entries {
		if processed[i] {
			out = append(out, results[i])
		} else {
			remaining++
		}
	}

	if deadlineHit {
		log.Warn("batch deadline exceeded, returning partial results",
			"processed", len(out), "remaining", remaining)
	}
	log.Info("batch finished",
		"entries", len(entries), "created", createdCount)

	return out
}

// report invokes fn when a reporter is configured.
func (s *saver) report(fn func(*progress.Reporter)) {
	if s.opts.Reporter != nil {
		fn(s.opts.Reporter)
	}
}
