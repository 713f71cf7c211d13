package merge

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metrico/covidpipe/fetch"
	"github.com/metrico/covidpipe/frame"
)

// countingFetcher wraps the real client and counts fetches per location.
type countingFetcher struct {
	inner fetch.Fetcher
	calls map[string]int
}

func (c *countingFetcher) Fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	c.calls[location]++
	return c.inner.Fetch(ctx, location)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDatasetReadCachesSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "side.csv", "c,v\nIE,1\n")

	f := &countingFetcher{inner: fetch.NewClient(time.Second), calls: map[string]int{}}
	d := &Dataset{Name: "side", Location: path, JoinKeys: []string{"c"}}

	first, err := d.Read(context.Background(), f)
	require.NoError(t, err)
	second, err := d.Read(context.Background(), f)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, f.calls[path], "source is read at most once")
}

func TestDatasetMergeAppliesProcessors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "side.csv", "country,doses\nIE,5\nFR,7\n")

	d := &Dataset{
		Name:     "side",
		Location: path,
		JoinKeys: []string{"c"},
		PreProcessor: func(f *frame.Frame) (*frame.Frame, error) {
			return f.Rename(map[string]string{"country": "c"}), nil
		},
		PostProcessor: func(f *frame.Frame) (*frame.Frame, error) {
			return f.CreateColumn("seen", frame.Int(1), false)
		},
	}

	left := frame.New("c", "cases")
	require.NoError(t, left.AppendRow(frame.String("IE"), frame.Int(3)))

	out, err := d.Merge(context.Background(), left, fetch.NewClient(time.Second))
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows(), "outer join keeps the unmatched FR row")
	require.Equal(t, frame.Int(5), out.Value(0, "doses"))
	require.True(t, out.HasColumn("seen"), "post-processor ran after the join")
}

func TestDatasetReadFailurePropagates(t *testing.T) {
	d := &Dataset{Name: "side", Location: "/does/not/exist.csv", JoinKeys: []string{"c"}}
	_, err := d.Read(context.Background(), fetch.NewClient(time.Second))
	require.ErrorIs(t, err, fetch.ErrUnavailable)
	require.Contains(t, err.Error(), "side", "error names the dataset")
}

func TestRegistryOrderAndFreshFactories(t *testing.T) {
	reg := NewRegistry()
	built := 0
	reg.Register(func() *Dataset { built++; return &Dataset{Name: "a"} })
	reg.Register(func() *Dataset { return &Dataset{Name: "b"} })

	all := reg.All()
	require.Equal(t, []string{"a", "b"}, []string{all[0].Name, all[1].Name})

	reg.All()
	require.Equal(t, 2, built, "factories are re-invoked per load")
	require.NotSame(t, all[0], reg.All()[0])
}

func TestFilterExpr(t *testing.T) {
	f := frame.New("Country/Region", "v")
	require.NoError(t, f.AppendRow(frame.String("Republic of Ireland"), frame.Int(1)))
	require.NoError(t, f.AppendRow(frame.String("Ireland"), frame.Int(2)))

	p, err := FilterExpr(`Country_Region != "Republic of Ireland"`)
	require.NoError(t, err)
	out, err := p(f)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	require.Equal(t, "Ireland", out.Value(0, "Country/Region").Str())
}

func TestFilterExprNullIsNil(t *testing.T) {
	f := frame.New("v")
	require.NoError(t, f.AppendRow(frame.Null()))
	require.NoError(t, f.AppendRow(frame.Int(3)))

	p, err := FilterExpr(`v != nil && v > 1`)
	require.NoError(t, err)
	out, err := p(f)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
}

func TestFilterExprCompileError(t *testing.T) {
	_, err := FilterExpr(`!!!`)
	require.Error(t, err)
}
