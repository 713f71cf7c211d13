package merge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metrico/covidpipe/fetch"
	"github.com/metrico/covidpipe/frame"
	"github.com/metrico/covidpipe/model"
)

const primaryHeader = "Province/State,Country/Region,Lat,Long,1/1/21,1/2/21,1/3/21,1/4/21\n"

func writePrimary(t *testing.T, dir string) {
	t.Helper()
	// Cumulative confirmed regresses on the third day on purpose.
	writeFile(t, dir, "time_series_covid19_confirmed_global.csv",
		primaryHeader+",X,0,0,10,15,12,20\n")
	writeFile(t, dir, "time_series_covid19_deaths_global.csv",
		primaryHeader+",X,0,0,1,1,2,4\n")
	writeFile(t, dir, "time_series_covid19_recovered_global.csv",
		primaryHeader+",X,0,0,0,0,1,1\n")
}

func day(s string) frame.Value {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return frame.Date(t)
}

func TestLoadEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writePrimary(t, dir)
	// Vaccination data exists for the first two dates only.
	vac := writeFile(t, dir, "vaccinations.csv",
		"Country_Region,Date,Doses_admin,People_fully_vaccinated,People_partially_vaccinated\n"+
			"X,2021-01-01,100,10,20\n"+
			"X,2021-01-02,150,15,25\n"+
			"Zed,2021-01-01,999,1,1\n")

	reg := NewRegistry()
	reg.Register(func() *Dataset {
		d, err := vaccinationsDataset(Override{Location: vac})
		require.NoError(t, err)
		return d
	})

	loader := NewLoader(reg, fetch.NewClient(time.Second), Options{PrimaryBase: dir})
	out, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 4, out.NumRows())
	var newCases, doses []frame.Value
	for i := 0; i < out.NumRows(); i++ {
		require.Equal(t, "X", out.Value(i, model.CountryRegion).Str(),
			"countries outside the primary universe are dropped")
		newCases = append(newCases, out.Value(i, model.NewCases))
		doses = append(doses, out.Value(i, model.TotalVaccinations))
	}

	// Output is sorted by date; the regression day clamps to zero.
	require.True(t, newCases[0].IsNull())
	require.Equal(t, frame.Int(5), newCases[1])
	require.Equal(t, frame.Int(0), newCases[2])
	require.Equal(t, frame.Int(8), newCases[3])

	// Deaths get the same delta treatment.
	require.True(t, out.Value(0, model.NewDeaths).IsNull())
	require.Equal(t, frame.Int(0), out.Value(1, model.NewDeaths))
	require.Equal(t, frame.Int(1), out.Value(2, model.NewDeaths))
	require.Equal(t, frame.Int(2), out.Value(3, model.NewDeaths))

	// Doses carry through where the source had the (country, date) pair
	// and stay null where it did not.
	require.Equal(t, frame.Int(100), doses[0])
	require.Equal(t, frame.Int(150), doses[1])
	require.True(t, doses[2].IsNull())
	require.True(t, doses[3].IsNull())

	require.Equal(t, day("2021-01-01"), out.Value(0, model.DateRecorded))
	require.Equal(t, day("2021-01-04"), out.Value(3, model.DateRecorded))
}

func TestLoadProvincesSumIntoCountry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "time_series_covid19_confirmed_global.csv",
		primaryHeader+"North,Y,0,0,1,2,3,4\nSouth,Y,0,0,1,1,1,5\n")
	writeFile(t, dir, "time_series_covid19_deaths_global.csv",
		primaryHeader+"North,Y,0,0,0,0,0,0\nSouth,Y,0,0,0,0,0,0\n")
	writeFile(t, dir, "time_series_covid19_recovered_global.csv",
		primaryHeader+"North,Y,0,0,0,0,0,0\nSouth,Y,0,0,0,0,0,0\n")

	loader := NewLoader(NewRegistry(), fetch.NewClient(time.Second), Options{PrimaryBase: dir})
	out, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, out.NumRows(), "one row per (country, date)")
	require.Equal(t, frame.Int(2), out.Value(0, model.Confirmed))
	require.Equal(t, frame.Int(9), out.Value(3, model.Confirmed))
	require.Equal(t, frame.Int(5), out.Value(3, model.NewCases))
}

func TestLoadMissingDatasetAborts(t *testing.T) {
	dir := t.TempDir()
	writePrimary(t, dir)

	reg := NewRegistry()
	reg.Register(func() *Dataset {
		return &Dataset{
			Name:     "broken",
			Location: "/does/not/exist.csv",
			JoinKeys: []string{model.CountryRegion, model.DateRecorded},
		}
	})

	loader := NewLoader(reg, fetch.NewClient(time.Second), Options{PrimaryBase: dir, Prefetch: 2})
	_, err := loader.Load(context.Background())
	require.ErrorIs(t, err, fetch.ErrUnavailable)
}

func TestLoadMissingPrimaryIsFatal(t *testing.T) {
	loader := NewLoader(NewRegistry(), fetch.NewClient(time.Second),
		Options{PrimaryBase: t.TempDir()})
	_, err := loader.Load(context.Background())
	require.ErrorIs(t, err, fetch.ErrUnavailable)
}

func TestLoadProcessorChainRuns(t *testing.T) {
	dir := t.TempDir()
	writePrimary(t, dir)

	reg := NewRegistry()
	reg.RegisterProcessor(MustFilterExpr(`Country_Region != "X"`))

	loader := NewLoader(reg, fetch.NewClient(time.Second), Options{PrimaryBase: dir})
	out, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, out.NumRows())
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	writePrimary(t, dir)

	loader := NewLoader(NewRegistry(), fetch.NewClient(time.Second), Options{PrimaryBase: dir})
	out, err := loader.Load(context.Background())
	require.NoError(t, err)

	path := filepath.Join(dir, "out", "data.csv")
	require.NoError(t, WriteOutput(out, path))

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()
	reread, err := frame.ReadCSV(in)
	require.NoError(t, err)
	require.Equal(t, out.NumRows(), reread.NumRows())
	require.Equal(t, out.Columns(), reread.Columns())

	left, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, left, 1, "no temp file survives the rename")
}
