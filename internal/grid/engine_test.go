package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catGrid = "CAT\nARA\nTAC"

func loaded(t *testing.T, text string) *Engine {
	t.Helper()
	e := New()
	require.NoError(t, e.Load(text))
	return e
}

func TestLoadDerivesDimensions(t *testing.T) {
	e := loaded(t, "ABCD\nEFGH\nIJKL\n")

	assert.Equal(t, 4, e.RowLength())
	assert.Equal(t, 3, e.RowCount())
	assert.Equal(t, 12, e.Len())
	assert.Equal(t, "ABCD\nEFGH\nIJKL", e.Text())
	assert.Equal(t, []string{"ABCD", "EFGH", "IJKL"}, e.Rows())

	r, ok := e.At(5)
	require.True(t, ok)
	assert.Equal(t, 'F', r)
	_, ok = e.At(12)
	assert.False(t, ok)
}

func TestLoadToleratesCRLF(t *testing.T) {
	e := loaded(t, "AB\r\nCD\r\n")
	assert.Equal(t, 2, e.RowLength())
	assert.Equal(t, 2, e.RowCount())
	assert.Equal(t, "AB\nCD", e.Text())
}

func TestLoadEmpty(t *testing.T) {
	e := loaded(t, "")
	assert.Zero(t, e.RowLength())
	assert.Zero(t, e.RowCount())
	assert.Empty(t, e.Find("CAT"))
}

func TestLoadMalformed(t *testing.T) {
	e := loaded(t, catGrid)
	e.Find("CAT")
	before := e.State()

	err := e.Load("CAT\nARAB\nTAC")
	require.Error(t, err)

	var mge *MalformedGridError
	require.True(t, errors.As(err, &mge))
	assert.Equal(t, 2, mge.Row)
	assert.Equal(t, 3, mge.Want)
	assert.Equal(t, 4, mge.Got)
	assert.Contains(t, err.Error(), "row 2")

	// A rejected load leaves the previous grid and positions alone.
	assert.Equal(t, before, e.State())
}

func TestLoadRejectsBlankInteriorRow(t *testing.T) {
	err := New().Load("AB\n\nCD")
	var mge *MalformedGridError
	require.True(t, errors.As(err, &mge))
	assert.Equal(t, 2, mge.Row)
	assert.Equal(t, 0, mge.Got)
}

func TestFindCatAllDirections(t *testing.T) {
	e := loaded(t, catGrid)

	delta := e.Find("CAT")
	assert.Equal(t, []int{0, 1, 2, 3, 5, 6, 7, 8}, delta)
	assert.Equal(t, delta, e.Positions())
	assert.False(t, e.Contains(4))

	dirs := map[string][]int{}
	for _, m := range e.Locate("CAT") {
		dirs[m.Direction] = m.Positions
	}
	assert.Equal(t, map[string][]int{
		"E": {0, 1, 2},
		"S": {0, 3, 6},
		"W": {8, 7, 6},
		"N": {8, 5, 2},
	}, dirs)
}

func TestFindAbsentWord(t *testing.T) {
	e := loaded(t, catGrid)
	assert.Empty(t, e.Find("ZZZ"))
	assert.Empty(t, e.Positions())
}

func TestFindShortWordIsNoop(t *testing.T) {
	e := loaded(t, catGrid)
	e.Find("TAR")
	before := e.Positions()

	for _, w := range []string{"", "C", "A"} {
		assert.Empty(t, e.Find(w), "word %q", w)
	}
	assert.Equal(t, before, e.Positions())
}

func TestFindDiagonals(t *testing.T) {
	e := loaded(t, "DXXX\nXOXX\nXXGX\nXXXS")

	assert.Equal(t, []int{0, 5, 10}, e.Find("DOG"))
	assert.Equal(t, []int{15}, e.Find("SGOD"))

	m := e.Locate("GOD")
	require.Len(t, m, 1)
	assert.Equal(t, "NW", m[0].Direction)
	assert.Equal(t, []int{10, 5, 0}, m[0].Positions)

	e = loaded(t, "XXXD\nXXOX\nXGXX\nXXXX")
	m = e.Locate("DOG")
	require.Len(t, m, 1)
	assert.Equal(t, "SW", m[0].Direction)
	m = e.Locate("GOD")
	require.Len(t, m, 1)
	assert.Equal(t, "NE", m[0].Direction)
}

func TestFindDoesNotWrapRows(t *testing.T) {
	// "CA" ends row 1 and "T" starts row 2; reading straight through
	// the buffer would spell CAT.
	e := loaded(t, "XCA\nTXX\nXXX")
	assert.Empty(t, e.Find("CAT"))

	// Diagonal that would wrap around the right edge.
	e = loaded(t, "XXC\nAXX\nXTX")
	assert.Empty(t, e.Find("CAT"))

	// Going left off the start of a row.
	e = loaded(t, "XXX\nTAC\nXXX")
	assert.Equal(t, []int{3, 4, 5}, e.Find("CAT"))
	e = loaded(t, "XXT\nACX\nXXX")
	assert.Empty(t, e.Find("CAT"))
}

func TestFindIdempotent(t *testing.T) {
	e := loaded(t, catGrid)
	first := e.Find("CAT")
	require.NotEmpty(t, first)
	after := e.Positions()

	assert.Empty(t, e.Find("CAT"))
	assert.Equal(t, after, e.Positions())
}

func TestFindOrderIndependent(t *testing.T) {
	text := "RATS\nAXXT\nTXXA\nSTAR"

	a := loaded(t, text)
	a.Find("RATS")
	a.Find("STAR")

	b := loaded(t, text)
	b.Find("STAR")
	b.Find("RATS")

	assert.Equal(t, a.Positions(), b.Positions())
}

func TestFindDeltaOnlyNewPositions(t *testing.T) {
	e := loaded(t, "CATS\nXXXX")
	assert.Equal(t, []int{0, 1, 2}, e.Find("CAT"))
	assert.Equal(t, []int{3}, e.Find("CATS"))
}

func TestFindAll(t *testing.T) {
	e := loaded(t, catGrid)
	delta := e.FindAll([]string{"CAT", "RR", "TAC"})
	assert.Equal(t, []int{0, 1, 2, 3, 5, 6, 7, 8}, delta)
	assert.Empty(t, e.FindAll([]string{"CAT"}))
}

func TestClear(t *testing.T) {
	e := loaded(t, catGrid)
	e.Find("CAT")
	e.Clear()

	assert.Empty(t, e.Text())
	assert.Zero(t, e.RowLength())
	assert.Zero(t, e.RowCount())
	assert.Empty(t, e.Positions())
	assert.Empty(t, e.Find("CAT"))
	assert.Empty(t, e.Find("ARA"))
}

func TestReloadClearsPositions(t *testing.T) {
	e := loaded(t, catGrid)
	e.Find("CAT")
	require.NoError(t, e.Load(catGrid))
	assert.Empty(t, e.Positions())
}

func TestStateRestore(t *testing.T) {
	e := loaded(t, catGrid)
	e.Find("CAT")
	s := e.State()

	r := New()
	r.Restore(s)

	assert.Equal(t, s, r.State())
	assert.Equal(t, 3, r.RowLength())
	assert.Equal(t, 3, r.RowCount())
	assert.True(t, r.Contains(8))
	assert.Empty(t, r.Find("CAT"))
}

func TestRestoreTrustsDimensions(t *testing.T) {
	e := New()
	e.Restore(State{Text: "ABCDEF", RowLength: 3, RowCount: 2})

	assert.Equal(t, []string{"ABC", "DEF"}, e.Rows())
	assert.Equal(t, []int{1, 4}, e.Find("BE"))
}

func TestRestoreShortCellsDoesNotPanic(t *testing.T) {
	e := New()
	e.Restore(State{Text: "AB\nCD", RowLength: 2, RowCount: 5})
	assert.Equal(t, []int{0, 2}, e.Find("AC"))
	assert.Len(t, e.Rows(), 2)
}
