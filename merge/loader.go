package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/metrico/covidpipe/fetch"
	"github.com/metrico/covidpipe/frame"
	"github.com/metrico/covidpipe/model"
)

// The three files of the primary series, relative to the primary base.
const (
	confirmedFile = "time_series_covid19_confirmed_global.csv"
	deathsFile    = "time_series_covid19_deaths_global.csv"
	recoveredFile = "time_series_covid19_recovered_global.csv"
)

// primaryDateLayout is the m/d/yy format the primary series uses for its
// date columns.
const primaryDateLayout = "1/2/06"

// primaryMetaColumns are the non-date columns of the wide primary files.
var primaryMetaColumns = map[string]bool{
	"Province/State":    true,
	model.CountryRegion: true,
	"Lat":               true,
	"Long":              true,
}

// Options tunes a Loader.
type Options struct {
	// PrimaryBase is the directory or URL prefix holding the primary
	// series files.
	PrimaryBase string
	// Prefetch bounds how many dataset sources are read concurrently
	// before the sequential fold. 0 or 1 reads them sequentially.
	Prefetch int
	// FetchTimeout bounds the whole prefetch phase. Zero means no bound.
	FetchTimeout time.Duration
}

// Loader folds the primary series and every registered dataset into the
// unified table. It runs three strictly sequential phases: primary load,
// primary derivation, fold. The loader exclusively owns each intermediate
// table until it hands the final one back.
type Loader struct {
	reg     *Registry
	fetcher fetch.Fetcher
	opts    Options
	log     *slog.Logger
}

func NewLoader(reg *Registry, fetcher fetch.Fetcher, opts Options) *Loader {
	if opts.PrimaryBase == "" {
		opts.PrimaryBase = PrimaryBaseURL
	}
	return &Loader{reg: reg, fetcher: fetcher, opts: opts, log: slog.Default()}
}

// Load produces the unified table. Any fetch or parse failure, in any phase,
// aborts the whole load: a partially merged table is indistinguishable from
// one whose sources genuinely reported nothing.
func (l *Loader) Load(ctx context.Context) (*frame.Frame, error) {
	primary, err := l.loadPrimary(ctx)
	if err != nil {
		return nil, fmt.Errorf("primary load: %w", err)
	}
	primary, err = l.derivePrimary(primary)
	if err != nil {
		return nil, fmt.Errorf("primary derivation: %w", err)
	}
	merged, err := l.fold(ctx, primary)
	if err != nil {
		return nil, fmt.Errorf("fold: %w", err)
	}
	for i, p := range l.reg.Processors() {
		merged, err = p(merged)
		if err != nil {
			return nil, fmt.Errorf("post-processor %d: %w", i, err)
		}
	}
	merged, err = merged.Sort(model.DateRecorded)
	if err != nil {
		return nil, err
	}
	l.log.Info("load finished", "rows", merged.NumRows(), "columns", len(merged.Columns()))
	return merged, nil
}

// loadPrimary reads the wide confirmed/deaths/recovered files, reshapes each
// into one row per (country, date) and joins them into the primary table.
func (l *Loader) loadPrimary(ctx context.Context) (*frame.Frame, error) {
	series := []struct {
		file  string
		field string
	}{
		{confirmedFile, model.Confirmed},
		{deathsFile, model.Deaths},
		{recoveredFile, model.Recovered},
	}

	var combined *frame.Frame
	for _, s := range series {
		loc := l.primaryLocation(s.file)
		l.log.Info("loading primary series", "metric", s.field, "location", loc)
		rc, err := l.fetcher.Fetch(ctx, loc)
		if err != nil {
			return nil, err
		}
		wide, err := frame.ReadCSV(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", loc, err)
		}
		long, err := meltPrimary(wide, s.field)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", loc, err)
		}
		if combined == nil {
			combined = long
			continue
		}
		combined, err = frame.LeftJoin(combined, long,
			model.CountryRegion, model.DateRecorded)
		if err != nil {
			return nil, err
		}
	}
	return combined.ParseDates(model.DateRecorded, primaryDateLayout)
}

// meltPrimary turns one wide per-location file into a long
// (country, date, value) frame. Per-province rows are summed into their
// country before any join so duplicate keys never multiply across the
// confirmed/deaths/recovered joins.
func meltPrimary(wide *frame.Frame, field string) (*frame.Frame, error) {
	var dateCols []string
	for _, c := range wide.Columns() {
		if !primaryMetaColumns[c] {
			dateCols = append(dateCols, c)
		}
	}
	long, err := wide.Melt([]string{model.CountryRegion}, dateCols,
		model.DateRecorded, field)
	if err != nil {
		return nil, err
	}
	return long.GroupAggregate([]string{model.CountryRegion, model.DateRecorded}, frame.AggSum)
}

// derivePrimary collapses any remaining duplicate (date, country) rows and
// turns the cumulative case and death counters into daily increments. Deaths
// get the same delta treatment as cases: the output always carries both
// NewCases and NewDeaths.
func (l *Loader) derivePrimary(primary *frame.Frame) (*frame.Frame, error) {
	f, err := primary.GroupAggregate([]string{model.DateRecorded, model.CountryRegion}, frame.AggSum)
	if err != nil {
		return nil, err
	}
	f, err = f.Sort(model.CountryRegion, model.DateRecorded)
	if err != nil {
		return nil, err
	}
	f, err = f.SubtractPrevious(model.Confirmed, model.CountryRegion, model.NewCases)
	if err != nil {
		return nil, err
	}
	return f.SubtractPrevious(model.Deaths, model.CountryRegion, model.NewDeaths)
}

// fold merges every registered dataset into the primary table, in
// registration order. Sources are prefetched concurrently, bounded by
// Options.Prefetch, because each fetch is independent; the joins themselves
// stay strictly sequential. After each merge the table is restricted to the
// countries of the primary series: the primary defines the universe, side
// datasets never extend it.
func (l *Loader) fold(ctx context.Context, primary *frame.Frame) (*frame.Frame, error) {
	countries, err := primary.UniqueStrings(model.CountryRegion)
	if err != nil {
		return nil, err
	}
	universe := make(map[string]bool, len(countries))
	for _, c := range countries {
		universe[c] = true
	}

	datasets := l.reg.All()
	if err := l.prefetch(ctx, datasets); err != nil {
		return nil, err
	}

	merged := primary
	for _, d := range datasets {
		l.log.Info("merging dataset", "dataset", d.Name, "location", d.Location)
		merged, err = d.Merge(ctx, merged, l.fetcher)
		if err != nil {
			return nil, err
		}
		merged = merged.Filter(func(r frame.Row) bool {
			return universe[r.Value(model.CountryRegion).Str()]
		})
	}
	return merged, nil
}

// prefetch reads every dataset source ahead of the fold. Reads populate each
// dataset's cache, so the fold afterwards never touches the network.
func (l *Loader) prefetch(ctx context.Context, datasets []*Dataset) error {
	if l.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.FetchTimeout)
		defer cancel()
	}
	g, ctx := errgroup.WithContext(ctx)
	if l.opts.Prefetch > 1 {
		g.SetLimit(l.opts.Prefetch)
	} else {
		g.SetLimit(1)
	}
	for _, d := range datasets {
		d := d
		g.Go(func() error {
			_, err := d.Read(ctx, l.fetcher)
			return err
		})
	}
	return g.Wait()
}

func (l *Loader) primaryLocation(file string) string {
	base := l.opts.PrimaryBase
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		return base + file
	}
	return filepath.Join(base, file)
}

// WriteOutput persists the unified table as a CSV file. The write goes to a
// uniquely named temp file in the target directory first and is renamed into
// place, so a crashed run never leaves a half-written table behind.
func WriteOutput(f *frame.Frame, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, uuid.NewString()+".tmp")
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := f.WriteCSV(out); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
