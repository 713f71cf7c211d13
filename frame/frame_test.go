package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustRow(t *testing.T, f *Frame, vals ...Value) {
	t.Helper()
	require.NoError(t, f.AppendRow(vals...))
}

func day(s string) Value {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return Date(t)
}

func TestFillRequired(t *testing.T) {
	f := New("Country_Region", "Confirmed")
	mustRow(t, f, String("Ireland"), Int(10))

	out := f.FillRequired([]string{"Country/Region", "Confirmed", "Deaths"},
		map[string]string{"Country_Region": "Country/Region"})

	require.Equal(t, []string{"Country/Region", "Confirmed", "Deaths"}, out.Columns())
	require.Equal(t, 1, out.NumRows())
	require.Equal(t, "Ireland", out.Value(0, "Country/Region").Str())
	require.True(t, out.Value(0, "Deaths").IsNull(), "absent column must be null-filled")
}

func TestSelectMissingColumn(t *testing.T) {
	f := New("a")
	_, err := f.Select("a", "b")
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestFilter(t *testing.T) {
	f := New("c", "v")
	mustRow(t, f, String("IE"), Int(1))
	mustRow(t, f, String("US"), Int(2))
	mustRow(t, f, String("IE"), Int(3))

	out := f.Filter(func(r Row) bool { return r.Value("c").Str() == "IE" })
	require.Equal(t, 2, out.NumRows())
	v, ok := out.Value(0, "v").Numeric()
	require.True(t, ok)
	require.Equal(t, 1.0, v)
}

func TestSortMultiKey(t *testing.T) {
	f := New("c", "d")
	mustRow(t, f, String("US"), day("2021-01-02"))
	mustRow(t, f, String("IE"), day("2021-01-02"))
	mustRow(t, f, String("IE"), day("2021-01-01"))

	out, err := f.Sort("c", "d")
	require.NoError(t, err)
	require.Equal(t, "IE", out.Value(0, "c").Str())
	require.Equal(t, day("2021-01-01"), out.Value(0, "d"))
	require.Equal(t, "US", out.Value(2, "c").Str())
}

func TestConcatMatchesByName(t *testing.T) {
	a := New("x", "y")
	mustRow(t, a, Int(1), String("a"))
	b := New("y", "x")
	mustRow(t, b, String("b"), Int(2))

	out, err := Concat(a, b)
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, "b", out.Value(1, "y").Str())
	v, ok := out.Value(1, "x").Numeric()
	require.True(t, ok)
	require.Equal(t, 2.0, v)
}

func TestParseDates(t *testing.T) {
	f := New("d")
	mustRow(t, f, String("1/22/20"))
	mustRow(t, f, Null())

	out, err := f.ParseDates("d", "1/2/06")
	require.NoError(t, err)
	require.Equal(t, day("2020-01-22"), out.Value(0, "d"))
	require.True(t, out.Value(1, "d").IsNull())
}

func TestValueEqualNumericCrossKind(t *testing.T) {
	require.True(t, Int(5).Equal(Float(5)))
	require.False(t, Int(5).Equal(String("5")))
	require.True(t, Null().Equal(Null()))
	require.False(t, Null().Equal(Int(0)))
}
