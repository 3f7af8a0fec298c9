package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
	"golang.org/x/sync/errgroup"

	"github.com/JulienMirval/snag/internal/ingest"
	"github.com/JulienMirval/snag/internal/progress"
	"github.com/JulienMirval/snag/internal/storage"
)

// runCheck verifies every stored file in a folder against the same
// invariants the saver enforces: the declared media type must agree with the
// file's extension and the size must be non-zero. Files that fail will be
// recreated on the next save.
func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)

	bucket := fs.String("bucket", "", "Bucket URL (required)")
	folder := fs.String("folder", "", "Folder path to check (required)")
	workers := fs.Int("workers", 8, "Number of parallel stat requests")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: snag check [options]

Verify stored files against their media type and size invariants.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *bucket == "" || *folder == "" {
		fmt.Fprintln(os.Stderr, "Error: -bucket and -folder are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx := context.Background()

	bkt, err := blob.OpenBucket(ctx, *bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	store := storage.NewBlobStore(bkt)

	keys, err := store.List(ctx, *folder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing folder: %v\n", err)
		return ExitStorageError
	}

	var (
		mu       sync.Mutex
		problems []string
		total    int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, key := range keys {
		g.Go(func() error {
			rec, err := store.Stat(gctx, key)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			total += rec.Size
			if !ingest.MimeMatchesPath(rec.Mime, rec.Path) {
				problems = append(problems,
					fmt.Sprintf("%s: media type %q does not match extension", rec.Path, rec.Mime))
			}
			if !ingest.SizeIsNonZero(rec.Size) {
				problems = append(problems,
					fmt.Sprintf("%s: file is empty", rec.Path))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error checking folder: %v\n", err)
		return ExitStorageError
	}

	fmt.Fprintf(os.Stderr, "[snag] Checked %d files (%s) in %s/%s\n",
		len(keys), progress.FormatBytes(total), *bucket, *folder)

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "[snag] Problem: %s\n", p)
		}
		fmt.Fprintf(os.Stderr, "[snag] %d of %d files failed, rerun 'snag save' to recreate them\n",
			len(problems), len(keys))
		return ExitCheckFailed
	}

	fmt.Fprintln(os.Stderr, "[snag] All files passed")
	return ExitSuccess
}
