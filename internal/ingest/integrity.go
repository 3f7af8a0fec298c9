package ingest

import (
	"mime"
	"path"
)

// MimeMatchesPath reports whether a declared media type is consistent with
// the extension of p. The check is permissive: a path without a recognized
// extension, or an extension with no known media type, always passes. Only a
// definite disagreement between the extension's type and the declared type
// fails.
func MimeMatchesPath(declared, p string) bool {
	ext := path.Ext(p)
	if ext == "" {
		return true
	}
	byExt := mime.TypeByExtension(ext)
	if byExt == "" {
		return true
	}

	expected, _, err := mime.ParseMediaType(byExt)
	if err != nil {
		return true
	}
	got, _, err := mime.ParseMediaType(declared)
	if err != nil {
		// The extension maps to a known type but the declared one is
		// missing or malformed: that is a disagreement.
		return false
	}
	return got == expected
}

// SizeIsNonZero reports whether a declared byte size describes actual
// content. A zero-byte stored file is treated as broken and recreated.
func SizeIsNonZero(size int64) bool {
	return size != 0
}
