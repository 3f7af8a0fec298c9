package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterCounts(t *testing.T) {
	r := NewReporter()

	r.EntryCreated(1024)
	r.EntryCreated(2048)
	r.EntryReused()
	r.EntrySkipped()
	r.EntryFailed()

	assert.Equal(t, int64(2), r.Created())
	assert.Equal(t, int64(1), r.Reused())
	assert.Equal(t, int64(1), r.Skipped())
	assert.Equal(t, int64(1), r.Failed())
	assert.Equal(t, int64(3072), r.Bytes())
	assert.Equal(t, int64(5), r.Total())
}

func TestReporterConcurrent(t *testing.T) {
	r := NewReporter()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.EntryCreated(10)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), r.Created())
	assert.Equal(t, int64(1000), r.Bytes())
}

func TestSummary(t *testing.T) {
	r := NewReporter()
	r.EntryCreated(2048)
	r.EntrySkipped()

	assert.Equal(t, "2 entries: 1 created (2.00 KB) | 0 reused | 1 skipped | 0 failed", r.Summary())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"100", 100},
		{"100B", 100},
		{"1KB", 1024},
		{"256MB", 256 * 1024 * 1024},
		{"1.5GB", int64(1.5 * 1024 * 1024 * 1024)},
	}
	for _, tt := range tests {
		got, err := ParseBytes(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseBytes("not-a-size")
	require.Error(t, err)
}
