package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func newTestStore(t *testing.T, options ...BlobOption) (*BlobStore, *blob.Bucket) {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })
	return NewBlobStore(bucket, options...), bucket
}

func TestStatNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Stat(context.Background(), "folder/missing.pdf")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAndStat(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, strings.NewReader("0123456789"), CreateOptions{
		Dir:         "folder",
		Name:        "report.pdf",
		ContentType: "application/pdf",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "report.pdf", rec.Name)
	assert.Equal(t, "application/pdf", rec.Mime)
	assert.Equal(t, int64(10), rec.Size)
	assert.Equal(t, "folder/report.pdf", rec.Path)

	got, err := store.Stat(ctx, "folder/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Size, got.Size)
	assert.Equal(t, rec.Mime, got.Mime)
}

func TestTrashMovesObject(t *testing.T) {
	store, bucket := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, strings.NewReader("content"), CreateOptions{
		Dir:  "folder",
		Name: "old.pdf",
	})
	require.NoError(t, err)

	require.NoError(t, store.Trash(ctx, rec.ID))

	_, err = store.Stat(ctx, "folder/old.pdf")
	require.ErrorIs(t, err, ErrNotFound)

	exists, err := bucket.Exists(ctx, TrashPrefix+rec.ID+"/old.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	// A second trash of the same id reports not found.
	require.ErrorIs(t, store.Trash(ctx, rec.ID), ErrNotFound)
}

func TestTrashUnknownID(t *testing.T) {
	store, _ := newTestStore(t)
	require.ErrorIs(t, store.Trash(context.Background(), "no-such-id"), ErrNotFound)
}

func TestCreateQuotaExceeded(t *testing.T) {
	store, bucket := newTestStore(t, WithQuota(5))
	ctx := context.Background()

	_, err := store.Create(ctx, strings.NewReader("0123456789"), CreateOptions{
		Dir:  "folder",
		Name: "big.bin",
	})
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// The partial object must not survive.
	exists, err := bucket.Exists(ctx, "folder/big.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	// A write within budget still succeeds.
	rec, err := store.Create(ctx, strings.NewReader("1234"), CreateOptions{
		Dir:  "folder",
		Name: "small.bin",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Size)

	// And the budget now accounts for it.
	_, err = store.Create(ctx, strings.NewReader("56789"), CreateOptions{
		Dir:  "folder",
		Name: "next.bin",
	})
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestQuotaIgnoresTrash(t *testing.T) {
	store, _ := newTestStore(t, WithQuota(10))
	ctx := context.Background()

	rec, err := store.Create(ctx, strings.NewReader("0123456789"), CreateOptions{
		Dir:  "folder",
		Name: "full.bin",
	})
	require.NoError(t, err)

	// Budget is used up.
	_, err = store.Create(ctx, strings.NewReader("x"), CreateOptions{Dir: "folder", Name: "x.bin"})
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// Trashing frees the budget even though the bytes still exist in trash.
	require.NoError(t, store.Trash(ctx, rec.ID))

	_, err = store.Create(ctx, strings.NewReader("0123456789"), CreateOptions{
		Dir:  "folder",
		Name: "replacement.bin",
	})
	require.NoError(t, err)
}

func TestListSkipsTrash(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, strings.NewReader("a"), CreateOptions{Dir: "folder", Name: "a.pdf"})
	require.NoError(t, err)
	_, err = store.Create(ctx, strings.NewReader("b"), CreateOptions{Dir: "folder", Name: "b.pdf"})
	require.NoError(t, err)
	require.NoError(t, store.Trash(ctx, a.ID))

	keys, err := store.List(ctx, "folder")
	require.NoError(t, err)
	assert.Equal(t, []string{"folder/b.pdf"}, keys)
}

func TestCreateRequiresName(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Create(context.Background(), strings.NewReader(""), CreateOptions{Dir: "folder"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrQuotaExceeded))
}
