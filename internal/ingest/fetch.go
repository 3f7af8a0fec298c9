package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// fetchEntry obtains the byte source for an entry along with the media type
// to store it under. A pre-fetched stream is used as-is and ownership
// transfers to the caller; otherwise a request is issued for the entry's
// URL, merged with its request overrides.
func (s *saver) fetchEntry(ctx context.Context, e Entry) (io.ReadCloser, string, error) {
	if e.FileStream != nil {
		return e.FileStream, s.opts.ContentType, nil
	}

	resp, err := s.client.Fetch(ctx, e.FileURL, e.RequestOptions)
	if err != nil {
		return nil, "", err
	}

	contentType := resp.ContentType
	if s.opts.ContentType != "" {
		// The caller distrusts the transport's type negotiation: ignore
		// the response's declared type and store under the forced one.
		contentType = s.opts.ContentType
	}

	body := resp.Body
	if s.opts.PostProcessFile != nil {
		s.log.Warn("postProcessFile is deprecated, use PostProcess on the saved entry instead",
			"entry", e.label())
		buf, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return nil, "", fmt.Errorf("buffer body: %w", err)
		}
		out, err := s.opts.PostProcessFile(buf)
		if err != nil {
			return nil, "", fmt.Errorf("post-process file: %w", err)
		}
		body = io.NopCloser(bytes.NewReader(out))
	}

	return body, contentType, nil
}
