package ingest

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// forbiddenNameRunes are stripped (not replaced) from resolved file names.
// Stripping rather than escaping matches the names already stored by earlier
// versions of the pipeline, so it must not change.
const forbiddenNameRunes = `/?<>\:*|"`

// resolveName derives the target file name for an entry. An explicit
// Filename wins; an entry that only has a stream cannot be named (the bytes
// carry no name); otherwise the name comes from the URL's path component.
func resolveName(e Entry) (string, error) {
	if e.Filename != "" {
		return sanitizeName(e.Filename), nil
	}
	if e.FileStream != nil {
		return "", ErrMissingFilename
	}

	u, err := url.Parse(e.FileURL)
	if err != nil {
		return "", fmt.Errorf("ingest: parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = ""
	}
	return sanitizeName(name), nil
}

// sanitizeName applies the historical name cleanup: a name consisting only
// of dots loses its leading dots, and forbidden characters are removed.
func sanitizeName(name string) string {
	if strings.Trim(name, ".") == "" {
		name = strings.TrimLeft(name, ".")
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenNameRunes, r) {
			return -1
		}
		return r
	}, name)
}
