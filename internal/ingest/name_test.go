package ingest

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNameExplicitWins(t *testing.T) {
	name, err := resolveName(Entry{
		Filename: "statement.pdf",
		FileURL:  "https://example.org/files/other.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "statement.pdf", name)
}

func TestResolveNameStreamWithoutName(t *testing.T) {
	_, err := resolveName(Entry{
		FileStream: io.NopCloser(strings.NewReader("data")),
	})
	require.ErrorIs(t, err, ErrMissingFilename)
}

func TestResolveNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.org/files/report.pdf", "report.pdf"},
		{"https://example.org/report.pdf?token=abc", "report.pdf"},
		{"https://example.org/a/b/c/archive.tar.gz", "archive.tar.gz"},
		{"https://example.org/", ""},
		{"https://example.org", ""},
	}
	for _, tt := range tests {
		name, err := resolveName(Entry{FileURL: tt.url})
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, name, tt.url)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// Forbidden characters are removed, never substituted.
		{"a/b?c", "abc"},
		{`re<po|rt">.pdf`, "report.pdf"},
		{`C:\docs\file.txt`, "Cdocsfile.txt"},
		// A name that is nothing but dots loses its dots.
		{"...", ""},
		{".", ""},
		// Leading dots on a real name are kept.
		{".bashrc", ".bashrc"},
		{"clean-name.pdf", "clean-name.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), "input %q", tt.in)
	}
}
