// Package fetch provides the source-retrieval contract the merge engine
// depends on. The engine itself never speaks HTTP; it hands a location to a
// Fetcher and reads rows back. File paths and http(s) URLs are supported,
// with transparent gzip decompression for .gz sources.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// ErrUnavailable reports that a primary or registered source could not be
// retrieved. It is fatal for the whole load; no partial table is produced.
var ErrUnavailable = errors.New("source unavailable")

// Fetcher retrieves the raw bytes behind a dataset location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (io.ReadCloser, error)
}

// Client fetches local paths directly and http(s) URLs over the network with
// a bounded timeout and a single bounded retry. There is deliberately no
// unbounded retry: a failed fetch aborts the load and the caller decides
// whether to re-invoke it.
type Client struct {
	HTTP    *http.Client
	Backoff time.Duration
}

// NewClient returns a Client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Backoff: 2 * time.Second,
	}
}

func (c *Client) Fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	var err error
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		rc, err = c.fetchHTTP(ctx, location)
	} else {
		rc, err = c.fetchFile(location)
	}
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(location, ".gz") {
		zr, zerr := gzip.NewReader(rc)
		if zerr != nil {
			rc.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, location, zerr)
		}
		return &gzipReadCloser{zr: zr, raw: rc}, nil
	}
	return rc, nil
}

func (c *Client) fetchFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	return f, nil
}

func (c *Client) fetchHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	body, err := c.doHTTP(ctx, url)
	if err == nil {
		return body, nil
	}
	// One retry with a fixed backoff, then give up.
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, url, ctx.Err())
	case <-time.After(c.Backoff):
	}
	body, rerr := c.doHTTP(ctx, url)
	if rerr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, url, rerr)
	}
	return body, nil
}

func (c *Client) doHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

type gzipReadCloser struct {
	zr  *gzip.Reader
	raw io.ReadCloser
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	rerr := g.raw.Close()
	if zerr != nil {
		return zerr
	}
	return rerr
}
