package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tracegraph/errors"
)

func pairFixture(t *testing.T) *fixture {
	return newFixture(t).
		item("rAB", "asil", "A", "rating", "1").
		item("rCC", "asil", "C", "rating", "2").
		item("dBB", "asil", "B", "rating", "1").
		item("dC", "asil", "C", "rating", "2").
		item("z1", "asil", "A", "rating", "3").
		link("rAB", "realizes", "dBB")
}

func TestPair2DTargetSideFilter(t *testing.T) {
	e := pairFixture(t).engine()

	sources, targets, err := e.Pair2D(`r\w+`, `d\w+`, map[string]string{"asil": "[AB]"}, FilterTarget)
	require.NoError(t, err)
	assert.Equal(t, []string{"rAB", "rCC"}, sources)
	assert.Equal(t, []string{"dBB"}, targets)

	sources, targets, err = e.Pair2D(`r\w+`, `d\w+`, map[string]string{"asil": "[AB]"}, FilterSource)
	require.NoError(t, err)
	assert.Equal(t, []string{"rAB"}, sources)
	assert.Equal(t, []string{"dBB", "dC"}, targets)

	_, _, err = e.Pair2D(`r\w+`, `d\w+`, nil, FilterSide("both"))
	assert.True(t, errors.Is(err, errors.ErrInvalidQuery))
}

func TestMatrix2D(t *testing.T) {
	e := pairFixture(t).engine()

	result, err := e.Matrix2D(Matrix2DSpec{Source: `r\w+`, Target: `d\w+`})
	require.NoError(t, err)
	assert.Equal(t, []string{"rAB", "rCC"}, result.Sources)
	assert.Equal(t, []string{"dBB", "dC"}, result.Targets)
	assert.Equal(t, [][]bool{{true, false}, {false, false}}, result.Cells)

	result, err = e.Matrix2D(Matrix2DSpec{Source: `r\w+`, Target: `d\w+`, Relations: []string{"validates"}})
	require.NoError(t, err)
	assert.Equal(t, [][]bool{{false, false}, {false, false}}, result.Cells)

	_, err = e.Matrix2D(Matrix2DSpec{Source: `r\w+`, Target: `d\w+`, Relations: []string{"fulfils"}})
	assert.True(t, errors.Is(err, errors.ErrUnknownRelation))
}

func TestParseFilterSide(t *testing.T) {
	side, err := ParseFilterSide("")
	require.NoError(t, err)
	assert.Equal(t, FilterSource, side)

	side, err = ParseFilterSide("target")
	require.NoError(t, err)
	assert.Equal(t, FilterTarget, side)

	_, err = ParseFilterSide("left")
	assert.Error(t, err)
}
