package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 4*time.Minute, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Retry.Backoff)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
bucket: s3://my-bucket
folder: files/invoices
concurrency: 4
timeout: 3m
content_type: application/pdf
quota: 100MB
entries:
  - url: https://example.org/a.pdf
  - url: https://example.org/export
    filename: b.pdf
    headers:
      Authorization: Bearer token
retry:
  attempts: 3
  backoff: 2s
  max_backoff: 10s
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "s3://my-bucket", cfg.Bucket)
	assert.Equal(t, "files/invoices", cfg.Folder)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 3*time.Minute, cfg.Timeout)
	assert.Equal(t, "application/pdf", cfg.ContentType)
	assert.Equal(t, int64(100*1024*1024), cfg.Quota)
	require.Len(t, cfg.Entries, 2)
	assert.Equal(t, "b.pdf", cfg.Entries[1].Filename)
	assert.Equal(t, "Bearer token", cfg.Entries[1].Headers["Authorization"])
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.Backoff)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxBackoff)
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, `
bucket: mem://
folder: files
entries:
  - url: https://example.org/a.pdf
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 4*time.Minute, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retry.Attempts)
}

func TestLoadFromFileBadDuration(t *testing.T) {
	path := writeConfigFile(t, "timeout: fast\n")
	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SNAG_BUCKET", "gs://env-bucket")
	t.Setenv("SNAG_CONCURRENCY", "8")
	t.Setenv("SNAG_TIMEOUT", "90s")
	t.Setenv("SNAG_QUOTA", "1GB")

	cfg := Default()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "gs://env-bucket", cfg.Bucket)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, int64(1024*1024*1024), cfg.Quota)
}

func TestLoadFromEnvBadValue(t *testing.T) {
	t.Setenv("SNAG_CONCURRENCY", "many")
	cfg := Default()
	require.Error(t, cfg.LoadFromEnv())
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Bucket = "mem://"
	valid.Folder = "files"
	valid.Entries = []Entry{{URL: "https://example.org/a.pdf"}}
	require.NoError(t, valid.Validate())

	missingBucket := valid
	missingBucket.Bucket = ""
	require.Error(t, missingBucket.Validate())

	missingFolder := valid
	missingFolder.Folder = ""
	require.Error(t, missingFolder.Validate())

	noEntries := valid
	noEntries.Entries = nil
	require.Error(t, noEntries.Validate())

	entryWithoutURL := valid
	entryWithoutURL.Entries = []Entry{{Filename: "orphan.pdf"}}
	require.Error(t, entryWithoutURL.Validate())

	badConcurrency := valid
	badConcurrency.Concurrency = 0
	require.Error(t, badConcurrency.Validate())
}

func TestMerge(t *testing.T) {
	base := Default()
	base.Bucket = "mem://"
	base.Folder = "files"

	merged := base.Merge(Config{Concurrency: 6, ContentType: "image/png"})

	assert.Equal(t, "mem://", merged.Bucket)
	assert.Equal(t, "files", merged.Folder)
	assert.Equal(t, 6, merged.Concurrency)
	assert.Equal(t, "image/png", merged.ContentType)
	// Untouched values survive the merge.
	assert.Equal(t, base.Timeout, merged.Timeout)
}
