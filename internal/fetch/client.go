package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// StatusError reports a non-success HTTP status. The code is carried as a
// typed field so callers can classify failures (quota, auth, missing
// resource) without parsing error messages.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status: %s", e.Status)
}

// Options configures the HTTP client.
type Options struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 100
	MaxIdleConnsPerHost int

	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// RetryAttempts is the maximum number of retry attempts.
	// Default: 5
	RetryAttempts int

	// RetryBackoff is the initial backoff duration.
	// Default: 1s
	RetryBackoff time.Duration

	// RetryMaxBackoff is the maximum backoff duration.
	// Default: 30s
	RetryMaxBackoff time.Duration
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxIdleConnsPerHost: 100,
		Timeout:             30 * time.Second,
		RetryAttempts:       5,
		RetryBackoff:        time.Second,
		RetryMaxBackoff:     30 * time.Second,
	}
}

// RequestOptions overrides parts of the default GET request issued for an
// entry. Zero values leave the default in place.
type RequestOptions struct {
	// Method overrides the request method. Default: GET.
	Method string

	// Headers are added to the request. On a key conflict the override
	// value wins.
	Headers map[string]string
}

// Merge returns a copy of o with override applied on top. Override values
// win on conflicting keys.
func (o RequestOptions) Merge(override *RequestOptions) RequestOptions {
	merged := RequestOptions{Method: o.Method, Headers: map[string]string{}}
	for k, v := range o.Headers {
		merged.Headers[k] = v
	}
	if override == nil {
		return merged
	}
	if override.Method != "" {
		merged.Method = override.Method
	}
	for k, v := range override.Headers {
		merged.Headers[k] = v
	}
	return merged
}

// Response is the result of a fetch: the body stream plus the transport
// metadata a caller may need to store the file.
type Response struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	StatusCode    int
}

// Client issues HTTP requests for file ingestion. A cookie jar is shared
// across requests so that session state set by one response carries over to
// later requests against the same host.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	if opts.MaxIdleConnsPerHost == 0 {
		opts = DefaultOptions()
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	// cookiejar.New only fails on a bad PublicSuffixList; nil is valid.
	jar, _ := cookiejar.New(nil)

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			Jar:       jar,
		},
		opts: opts,
	}
}

// Fetch issues a request for url and returns the response body as a stream.
// reqOpts, when non-nil, is merged over the default request (method GET, no
// extra headers). Server errors (5xx) are retried with backoff; any other
// non-success status is returned as a *StatusError.
func (c *Client) Fetch(ctx context.Context, url string, reqOpts *RequestOptions) (*Response, error) {
	merged := RequestOptions{Method: http.MethodGet}.Merge(reqOpts)

	var lastErr error
	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, merged.Method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		for k, v := range merged.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode, Status: resp.Status}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
		}

		return &Response{
			Body:          resp.Body,
			ContentType:   resp.Header.Get("Content-Type"),
			ContentLength: resp.ContentLength,
			StatusCode:    resp.StatusCode,
		}, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.opts.RetryAttempts+1, lastErr)
}

// backoff waits for an exponentially increasing duration with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.RetryBackoff * time.Duration(1<<uint(attempt-1))
	if backoff > c.opts.RetryMaxBackoff {
		backoff = c.opts.RetryMaxBackoff
	}

	// Add jitter: 0.5 to 1.5 of backoff
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}
