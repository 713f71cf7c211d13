package merge

import (
	"fmt"
	"strings"
	"time"

	"github.com/metrico/covidpipe/frame"
	"github.com/metrico/covidpipe/model"
)

// Default source locations. Every one of them can be overridden per run, so
// tests and offline runs point at local files instead.
const (
	PrimaryBaseURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/" +
		"csse_covid_19_data/csse_covid_19_time_series/"
	VaccinationsURL = "https://raw.githubusercontent.com/govex/COVID-19/master/data_tables/" +
		"vaccine_data/global_data/time_series_covid19_vaccine_global.csv"
	PopulationsURL = "https://population.un.org/wpp/Download/Files/1_Indicators%20(Standard)/" +
		"CSV_FILES/WPP2019_TotalPopulationBySex.csv"
	VariantsURL = "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/" +
		"variants/covid-variants.csv"
	TestingURL = "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/" +
		"testing/covid-testing-all-observations.csv"
)

// Override adjusts a builtin dataset per run: an alternate location and an
// optional extra row filter (see FilterExpr) applied after the builtin
// pre-processing.
type Override struct {
	Location string
	Filter   string
}

// RegisterBuiltins registers the stock datasets in their canonical merge
// order: vaccinations, populations, variants, testing.
func RegisterBuiltins(reg *Registry, overrides map[string]Override) error {
	builtins := []struct {
		name    string
		factory func(Override) (*Dataset, error)
	}{
		{"vaccinations", vaccinationsDataset},
		{"populations", populationsDataset},
		{"variants", variantsDataset},
		{"testing", testingDataset},
	}
	for _, b := range builtins {
		ov := overrides[b.name]
		// Validate eagerly so a broken override fails at setup, not
		// mid-load, but register a factory so date-relative logic is
		// re-evaluated per load.
		if _, err := b.factory(ov); err != nil {
			return fmt.Errorf("dataset %s: %w", b.name, err)
		}
		factory, override := b.factory, ov
		reg.Register(func() *Dataset {
			d, _ := factory(override)
			return d
		})
	}
	return nil
}

// chain runs processors left to right.
func chain(ps ...Processor) Processor {
	return func(f *frame.Frame) (*frame.Frame, error) {
		var err error
		for _, p := range ps {
			if p == nil {
				continue
			}
			f, err = p(f)
			if err != nil {
				return nil, err
			}
		}
		return f, nil
	}
}

func withFilter(p Processor, ov Override) (Processor, error) {
	if ov.Filter == "" {
		return p, nil
	}
	fp, err := FilterExpr(ov.Filter)
	if err != nil {
		return nil, err
	}
	return chain(p, fp), nil
}

func location(def string, ov Override) string {
	if ov.Location != "" {
		return ov.Location
	}
	return def
}

// mapCountry normalizes the handful of country spellings that differ between
// sources, so join keys line up with the primary series.
func mapCountry(from string) func(frame.Value) (frame.Value, error) {
	return func(v frame.Value) (frame.Value, error) {
		if v.Str() == from {
			return frame.String("US"), nil
		}
		return v, nil
	}
}

func vaccinationsDataset(ov Override) (*Dataset, error) {
	pre := func(f *frame.Frame) (*frame.Frame, error) {
		f = f.Rename(map[string]string{
			"Country_Region": model.CountryRegion,
			"Date":           model.DateRecorded,
			"Doses_admin":    model.TotalVaccinations,
		})
		f, err := f.ParseDates(model.DateRecorded, "2006-01-02")
		if err != nil {
			return nil, err
		}
		f, err = f.ConvertColumn(model.CountryRegion, mapCountry("United States"))
		if err != nil {
			return nil, err
		}
		f, err = f.GroupAggregate([]string{model.DateRecorded, model.CountryRegion}, frame.AggSum)
		if err != nil {
			return nil, err
		}
		return f.FillRequired(model.VaccineFields, nil), nil
	}
	pre, err := withFilter(pre, ov)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Name:         "vaccinations",
		Location:     location(VaccinationsURL, ov),
		JoinKeys:     []string{model.CountryRegion, model.DateRecorded},
		PreProcessor: pre,
		PostProcessor: func(f *frame.Frame) (*frame.Frame, error) {
			// Doses arrive as a running total; the reportable number
			// is the day-over-day increment.
			return f.SubtractPrevious(model.TotalVaccinations,
				model.CountryRegion, model.DailyVaccinations)
		},
	}, nil
}

func populationsDataset(ov Override) (*Dataset, error) {
	year := time.Now().UTC().Year()
	pre := func(f *frame.Frame) (*frame.Frame, error) {
		f, err := f.Select("Location", "Time", "PopTotal")
		if err != nil {
			return nil, err
		}
		f, err = f.ConvertColumn("Location",
			mapCountry("United States of America (and dependencies)"))
		if err != nil {
			return nil, err
		}
		// The WPP file carries one projection row per (location, year);
		// only the current year's snapshot matters.
		f = f.Filter(func(r frame.Row) bool {
			y, ok := r.Value("Time").Numeric()
			return ok && int(y) == year
		})
		maxes := make(map[string]float64)
		for i := 0; i < f.NumRows(); i++ {
			loc := f.Value(i, "Location").Str()
			if p, ok := f.Value(i, "PopTotal").Numeric(); ok && p > maxes[loc] {
				maxes[loc] = p
			}
		}
		f = f.Filter(func(r frame.Row) bool {
			p, ok := r.Value("PopTotal").Numeric()
			return ok && p == maxes[r.Value("Location").Str()]
		})
		f, err = f.ConvertColumn("PopTotal", func(v frame.Value) (frame.Value, error) {
			p, ok := v.Numeric()
			if !ok {
				return frame.Null(), nil
			}
			// PopTotal is reported in thousands.
			return frame.Int(int64(p * 1000)), nil
		})
		if err != nil {
			return nil, err
		}
		f = f.Rename(map[string]string{
			"Location": model.CountryRegion,
			"PopTotal": model.Population,
		})
		return f.Drop("Time"), nil
	}
	pre, err := withFilter(pre, ov)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Name:         "populations",
		Location:     location(PopulationsURL, ov),
		JoinKeys:     []string{model.CountryRegion},
		PreProcessor: pre,
		PostProcessor: func(f *frame.Frame) (*frame.Frame, error) {
			// Countries the population source does not know cannot
			// carry per-capita metrics downstream; drop them here,
			// then collapse the duplicates the one-key join created.
			f = f.Filter(func(r frame.Row) bool {
				return !r.Value(model.Population).IsNull()
			})
			return f.GroupAggregate([]string{model.CountryRegion, model.DateRecorded}, frame.AggSum)
		},
	}, nil
}

func variantsDataset(ov Override) (*Dataset, error) {
	pre := func(f *frame.Frame) (*frame.Frame, error) {
		f = f.Rename(map[string]string{
			"location":       model.CountryRegion,
			"date":           model.DateRecorded,
			model.Variant:    model.Lineage,
			"num_sequences":  model.NumberDetectionsVariant,
			"perc_sequences": model.PercentVariant,
		})
		f, err := f.ParseDates(model.DateRecorded, "2006-01-02")
		if err != nil {
			return nil, err
		}
		f, err = f.ConvertColumn(model.CountryRegion, mapCountry("United States"))
		if err != nil {
			return nil, err
		}
		// Technical lineage designations mean nothing on a chart;
		// collapse them under one label.
		f, err = f.ConvertColumn(model.Lineage, func(v frame.Value) (frame.Value, error) {
			s := v.Str()
			if strings.HasPrefix(s, "B") || strings.HasPrefix(s, "S") || s == "non_who" {
				return frame.String("Unknown"), nil
			}
			return v, nil
		})
		if err != nil {
			return nil, err
		}
		return f.FillRequired(model.VariantFields, nil), nil
	}
	pre, err := withFilter(pre, ov)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Name:         "variants",
		Location:     location(VariantsURL, ov),
		JoinKeys:     []string{model.CountryRegion, model.DateRecorded},
		PreProcessor: pre,
	}, nil
}

func testingDataset(ov Override) (*Dataset, error) {
	pre := func(f *frame.Frame) (*frame.Frame, error) {
		f = f.Rename(map[string]string{
			"Entity":                           model.CountryRegion,
			"Date":                             model.DateRecorded,
			"Daily change in cumulative total": model.DailyTests,
			"Cumulative total":                 model.TotalTests,
			"Short-term positive rate":         model.PositiveRate,
		})
		f, err := f.ParseDates(model.DateRecorded, "2006-01-02")
		if err != nil {
			return nil, err
		}
		// Entities read "Country - units tested"; only the country
		// part joins against the primary series.
		f, err = f.ConvertColumn(model.CountryRegion, func(v frame.Value) (frame.Value, error) {
			s := v.Str()
			if i := strings.Index(s, "-"); i >= 0 {
				s = strings.TrimSpace(s[:i])
			}
			if s == "United States" {
				s = "US"
			}
			if s == "" {
				return v, nil
			}
			return frame.String(s), nil
		})
		if err != nil {
			return nil, err
		}
		return f.FillRequired(model.TestingFields, nil), nil
	}
	pre, err := withFilter(pre, ov)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Name:         "testing",
		Location:     location(TestingURL, ov),
		JoinKeys:     []string{model.CountryRegion, model.DateRecorded},
		PreProcessor: pre,
	}, nil
}
