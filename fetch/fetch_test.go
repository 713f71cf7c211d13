package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func TestFetchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0644))

	c := NewClient(time.Second)
	rc, err := c.Fetch(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n", string(data))
}

func TestFetchMissingFile(t *testing.T) {
	c := NewClient(time.Second)
	_, err := c.Fetch(context.Background(), "/nonexistent/nope.csv")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("a,b\n3,4\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	c := NewClient(time.Second)
	rc, err := c.Fetch(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "a,b\n3,4\n", string(data))
}

func TestFetchHTTPRetriesOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	c.Backoff = 10 * time.Millisecond
	rc, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "ok", string(data))
	require.Equal(t, 2, calls)
}

func TestFetchHTTPGivesUpAfterRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	c.Backoff = 10 * time.Millisecond
	_, err := c.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrUnavailable)
}
