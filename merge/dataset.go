// Package merge is the heart of the pipeline: it declares how an external
// dataset joins into the main time series, keeps the ordered registry of such
// datasets, and folds them all into one unified per-(country, date) table.
package merge

import (
	"context"
	"fmt"

	"github.com/metrico/covidpipe/fetch"
	"github.com/metrico/covidpipe/frame"
)

// Processor transforms one table into another. Dataset pre/post processors
// and the global post-processing chain all have this shape.
type Processor func(*frame.Frame) (*frame.Frame, error)

// Dataset declares one external source and how it merges into the main
// series. Datasets join with outer semantics: rows unmatched on either side
// are kept, with the missing side null-filled.
type Dataset struct {
	// Name identifies the dataset in logs and errors.
	Name string
	// Location is a local path or http(s) URL.
	Location string
	// JoinKeys must exist on both sides once pre-processing has run.
	JoinKeys []string
	// PreProcessor runs once on the raw source before any join.
	PreProcessor Processor
	// PostProcessor runs on the joined result right after this dataset's
	// join.
	PostProcessor Processor

	raw *frame.Frame
}

// Read fetches and parses the source exactly once, applies the pre-processor
// and caches the result; later calls reuse the cache. A fetch or parse
// failure propagates: a missing source aborts the whole merge rather than
// producing a table where "source failed" and "source reported no data" look
// the same.
func (d *Dataset) Read(ctx context.Context, f fetch.Fetcher) (*frame.Frame, error) {
	if d.raw != nil {
		return d.raw, nil
	}
	rc, err := f.Fetch(ctx, d.Location)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.Name, err)
	}
	defer rc.Close()
	fr, err := frame.ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %s: %w", d.Name, d.Location, err)
	}
	if d.PreProcessor != nil {
		fr, err = d.PreProcessor(fr)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: pre-processor: %w", d.Name, err)
		}
	}
	d.raw = fr
	return fr, nil
}

// Merge outer-joins left with this dataset's rows on the join keys and then
// applies the post-processor, if any.
func (d *Dataset) Merge(ctx context.Context, left *frame.Frame, f fetch.Fetcher) (*frame.Frame, error) {
	right, err := d.Read(ctx, f)
	if err != nil {
		return nil, err
	}
	merged, err := frame.OuterJoin(left, right, d.JoinKeys...)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.Name, err)
	}
	if d.PostProcessor != nil {
		merged, err = d.PostProcessor(merged)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: post-processor: %w", d.Name, err)
		}
	}
	return merged, nil
}
