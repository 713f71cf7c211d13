// Package derive holds the pure table-to-table transforms layered on top of
// the frame primitives: week bucketing, per-capita metrics and the long
// format categorical pivot the dashboard charts are fed with.
package derive

import (
	"fmt"
	"math"
	"time"

	"github.com/metrico/covidpipe/frame"
	"github.com/metrico/covidpipe/model"
)

// WeekColumn adds a "Week" column derived from dateCol. With byWeekNumber it
// holds an "<ISO-year>-<week>" label; otherwise it holds the date of the
// Monday of that date's week. The date column itself is left untouched.
func WeekColumn(f *frame.Frame, dateCol string, byWeekNumber bool) (*frame.Frame, error) {
	return f.CreateColumnFunc(model.Week, func(fr *frame.Frame) ([]frame.Value, error) {
		vals := make([]frame.Value, fr.NumRows())
		for i := range vals {
			v := fr.Value(i, dateCol)
			if v.Kind() != frame.KindDate {
				vals[i] = frame.Null()
				continue
			}
			t := v.Time()
			if byWeekNumber {
				year, week := t.ISOWeek()
				vals[i] = frame.String(fmt.Sprintf("%d-%02d", year, week))
			} else {
				vals[i] = frame.Date(mondayOf(t))
			}
		}
		return vals, nil
	}, true)
}

// mondayOf subtracts weekday days with a Monday week start.
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// DailyToWeekly buckets a daily frame into weeks and sums every numeric
// column per (country, week).
func DailyToWeekly(f *frame.Frame, dateCol string, byWeekNumber bool) (*frame.Frame, error) {
	out, err := WeekColumn(f, dateCol, byWeekNumber)
	if err != nil {
		return nil, err
	}
	return out.GroupAggregate([]string{model.CountryRegion, model.Week}, frame.AggSum)
}

// PopulationMetrics derives the per-capita fields from the population column
// and then drops it: population is an intermediate, not a reportable field.
// Division by a null or zero population yields null, never an error.
func PopulationMetrics(f *frame.Frame) (*frame.Frame, error) {
	out, err := f.CreateColumnFunc(model.Unvaccinated, func(fr *frame.Frame) ([]frame.Value, error) {
		vals := make([]frame.Value, fr.NumRows())
		for i := range vals {
			pop, pok := fr.Value(i, model.Population).Numeric()
			full, fok := fr.Value(i, model.FullyVaccinated).Numeric()
			if !pok || !fok {
				vals[i] = frame.Null()
				continue
			}
			vals[i] = frame.Float(pop - full)
		}
		return vals, nil
	}, true)
	if err != nil {
		return nil, err
	}

	perCapita := []struct {
		name   string
		source string
	}{
		{model.CasesPerThousand, model.NewCases},
		{model.DeathsPerThousand, model.NewDeaths},
	}
	for _, pc := range perCapita {
		out, err = out.CreateColumnFunc(pc.name, ratioColumn(pc.source, 100000, 2), true)
		if err != nil {
			return nil, err
		}
	}

	out, err = out.CreateColumnFunc(model.PercentageVaccinated,
		ratioColumn(model.FullyVaccinated, 100, 1), true)
	if err != nil {
		return nil, err
	}
	return out.Drop(model.Population), nil
}

// ratioColumn builds a producer computing source/Population*scale rounded to
// the given number of decimal places.
func ratioColumn(source string, scale float64, decimals int) func(*frame.Frame) ([]frame.Value, error) {
	pow := math.Pow(10, float64(decimals))
	return func(fr *frame.Frame) ([]frame.Value, error) {
		vals := make([]frame.Value, fr.NumRows())
		for i := range vals {
			pop, pok := fr.Value(i, model.Population).Numeric()
			v, vok := fr.Value(i, source).Numeric()
			if !pok || !vok || pop == 0 {
				vals[i] = frame.Null()
				continue
			}
			vals[i] = frame.Float(math.Round(v/pop*scale*pow) / pow)
		}
		return vals, nil
	}
}

// CountsToCategorical reshapes the given value columns into long format: one
// row per (keys, valueColumn) with a Count column and a Type label column.
// labels optionally renames a column's label. With keepMaxOnly, only rows
// attaining their (keys, Type) group's maximum Count survive; finally rows
// are de-duplicated on (keys, Type) keeping the last seen. This interleaves
// several metrics into one series suitable for a grouped plot and resolves
// the duplicate rows an outer join can introduce.
func CountsToCategorical(f *frame.Frame, keys []string, valueCols []string, labels map[string]string, keepMaxOnly bool) (*frame.Frame, error) {
	var parts []*frame.Frame
	for _, col := range valueCols {
		part, err := f.Select(append(append([]string(nil), keys...), col)...)
		if err != nil {
			return nil, err
		}
		part = part.Rename(map[string]string{col: "Count"})
		label := col
		if l, ok := labels[col]; ok {
			label = l
		}
		part, err = part.CreateColumn("Type", frame.String(label), false)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	out, err := frame.Concat(parts...)
	if err != nil {
		return nil, err
	}

	groupKeys := append(append([]string(nil), keys...), "Type")
	if keepMaxOnly {
		maxes := make(map[string]float64)
		for i := 0; i < out.NumRows(); i++ {
			v, ok := out.Value(i, "Count").Numeric()
			if !ok {
				continue
			}
			k, err := out.RowKey(i, groupKeys...)
			if err != nil {
				return nil, err
			}
			if m, seen := maxes[k]; !seen || v > m {
				maxes[k] = v
			}
		}
		src, row := out, 0
		out = src.Filter(func(r frame.Row) bool {
			k, _ := src.RowKey(row, groupKeys...)
			row++
			v, ok := r.Value("Count").Numeric()
			return ok && v == maxes[k]
		})
	}
	return out.DropDuplicates(groupKeys, true)
}

// FilterByValueAndDate restricts a frame to rows whose valueField is one of
// values and whose dateField falls within [start, end].
func FilterByValueAndDate(f *frame.Frame, valueField, dateField string, values []string, start, end time.Time) *frame.Frame {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	return f.Filter(func(r frame.Row) bool {
		if !allowed[r.Value(valueField).String()] {
			return false
		}
		d := r.Value(dateField)
		if d.Kind() != frame.KindDate {
			return false
		}
		t := d.Time()
		return !t.Before(start) && !t.After(end)
	})
}
