package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOuterJoinKeepsBothSides(t *testing.T) {
	left := New("c", "d", "cases")
	mustRow(t, left, String("IE"), day("2021-01-01"), Int(5))
	mustRow(t, left, String("IE"), day("2021-01-02"), Int(7))

	right := New("c", "d", "doses")
	mustRow(t, right, String("IE"), day("2021-01-02"), Int(100))
	mustRow(t, right, String("FR"), day("2021-01-02"), Int(50))

	out, err := OuterJoin(left, right, "c", "d")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "d", "cases", "doses"}, out.Columns())
	require.Equal(t, 3, out.NumRows())

	// Left row without a match keeps nulls on the right side.
	require.True(t, out.Value(0, "doses").IsNull())
	// Matched row carries both sides.
	require.Equal(t, Int(100), out.Value(1, "doses"))
	// Unmatched right row is retained with the left side null-filled.
	require.Equal(t, "FR", out.Value(2, "c").Str())
	require.True(t, out.Value(2, "cases").IsNull())
}

func TestOuterJoinAgainstEmptyRightAddsNullColumns(t *testing.T) {
	left := New("c", "v")
	mustRow(t, left, String("IE"), Int(1))

	right := New("c", "extra")

	out, err := OuterJoin(left, right, "c")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "v", "extra"}, out.Columns())
	require.Equal(t, 1, out.NumRows())
	require.Equal(t, Int(1), out.Value(0, "v"))
	require.True(t, out.Value(0, "extra").IsNull())
}

func TestJoinMissingKeyIsFatal(t *testing.T) {
	left := New("c")
	right := New("x")
	_, err := OuterJoin(left, right, "c")
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestLeftJoinDropsUnmatchedRight(t *testing.T) {
	left := New("c", "v")
	mustRow(t, left, String("IE"), Int(1))

	right := New("c", "w")
	mustRow(t, right, String("FR"), Int(9))

	out, err := LeftJoin(left, right, "c")
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
	require.True(t, out.Value(0, "w").IsNull())
}

func TestOuterJoinDuplicateRightRowsMultiply(t *testing.T) {
	left := New("c", "v")
	mustRow(t, left, String("IE"), Int(1))

	right := New("c", "lineage")
	mustRow(t, right, String("IE"), String("Alpha"))
	mustRow(t, right, String("IE"), String("Delta"))

	out, err := OuterJoin(left, right, "c")
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, "Alpha", out.Value(0, "lineage").Str())
	require.Equal(t, "Delta", out.Value(1, "lineage").Str())
}
