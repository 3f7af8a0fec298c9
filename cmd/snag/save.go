package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/JulienMirval/snag/internal/config"
	"github.com/JulienMirval/snag/internal/fetch"
	"github.com/JulienMirval/snag/internal/ingest"
	"github.com/JulienMirval/snag/internal/progress"
	"github.com/JulienMirval/snag/internal/storage"
)

// runSave ingests the files listed in a manifest into a storage folder.
// Entries whose target file already exists intact are not fetched again, so
// rerunning an interrupted save picks up where it left off.
func runSave(args []string) int {
	fs := flag.NewFlagSet("save", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to the YAML manifest (required)")
	bucket := fs.String("bucket", "", "Destination bucket URL (overrides manifest)")
	folder := fs.String("folder", "", "Destination folder path (overrides manifest)")
	concurrency := fs.Int("concurrency", 0, "Entries in flight at once (overrides manifest)")
	timeout := fs.Duration("timeout", 0, "Batch time budget (overrides manifest)")
	contentType := fs.String("content-type", "", "Force the stored media type (overrides manifest)")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: snag save [options]

Ingest the files listed in a YAML manifest into object storage.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return ExitConfigError
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading environment: %v\n", err)
		return ExitConfigError
	}
	cfg = cfg.Merge(config.Config{
		Bucket:      *bucket,
		Folder:      *folder,
		Concurrency: *concurrency,
		Timeout:     *timeout,
		ContentType: *contentType,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[snag] Received interrupt, shutting down...")
		cancel()
	}()

	// Open bucket
	bkt, err := blob.OpenBucket(ctx, cfg.Bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	store := storage.NewBlobStore(bkt, storage.WithQuota(cfg.Quota))

	entries := make([]ingest.Entry, len(cfg.Entries))
	for i, e := range cfg.Entries {
		entry := ingest.Entry{
			FileURL:  e.URL,
			Filename: e.Filename,
		}
		if e.Method != "" || len(e.Headers) > 0 {
			entry.RequestOptions = &fetch.RequestOptions{
				Method:  e.Method,
				Headers: e.Headers,
			}
		}
		entries[i] = entry
	}

	client := fetch.NewClient(fetch.Options{
		MaxIdleConnsPerHost: cfg.Concurrency * 2,
		Timeout:             30 * time.Second,
		RetryAttempts:       cfg.Retry.Attempts,
		RetryBackoff:        cfg.Retry.Backoff,
		RetryMaxBackoff:     cfg.Retry.MaxBackoff,
	})

	reporter := progress.NewReporter()

	results := ingest.SaveAll(ctx, store, entries, cfg.Folder, ingest.Options{
		Deadline:    time.Now().Add(cfg.Timeout),
		Concurrency: cfg.Concurrency,
		ContentType: cfg.ContentType,
		Client:      client,
		Logger:      logger,
		Reporter:    reporter,
	})

	fmt.Fprintf(os.Stderr, "[snag] %s\n", reporter.Summary())
	if remaining := len(entries) - len(results); remaining > 0 {
		fmt.Fprintf(os.Stderr, "[snag] Time budget exhausted: %d entries not processed, rerun to resume\n", remaining)
	}

	if ctx.Err() != nil {
		return ExitGeneralError
	}
	return ExitSuccess
}
