// internal/grid/engine.go
//
// Core search engine for a single word-search grid.
// Responsibilities:
//   - Load grid text, deriving row length and row count once per load.
//   - Find words in all eight directions and accumulate matched cells.
//   - Expose the full state for persistence and accept it back verbatim.
//
// Notes:
//   - Positions are cell indices row*RowLength+col; row delimiters are not counted.
//   - A match never wraps across a row or column edge, in any direction.
//   - An Engine is not safe for concurrent use; callers serialize access.
package grid

import (
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Engine holds the current grid and the set of positions covered by matches.
type Engine struct {
	text      string
	cells     []rune // row-major, no delimiters
	rowLength int
	rowCount  int
	positions *roaring.Bitmap
}

// New returns an empty engine (0x0 grid, no positions).
func New() *Engine {
	return &Engine{positions: roaring.New()}
}

// Load replaces the grid with text and clears the position set.
// Text is expected to be normalized already (uppercase, no interior
// whitespace). A trailing delimiter and CR before a delimiter are tolerated.
// Rows of differing length reject the load and leave the engine unchanged.
func (e *Engine) Load(text string) error {
	rows := splitRows(text)

	rowLength := 0
	if len(rows) > 0 {
		rowLength = len(rows[0])
	}
	for i, row := range rows {
		if len(row) != rowLength {
			return &MalformedGridError{Row: i + 1, Want: rowLength, Got: len(row)}
		}
	}

	cells := make([]rune, 0, rowLength*len(rows))
	lines := make([]string, len(rows))
	for i, row := range rows {
		cells = append(cells, row...)
		lines[i] = string(row)
	}

	e.text = strings.Join(lines, string(Delimiter))
	e.cells = cells
	e.rowLength = rowLength
	e.rowCount = len(rows)
	e.positions.Clear()
	return nil
}

// splitRows breaks text into rows of runes. Empty text has no rows.
func splitRows(text string) [][]rune {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, string(Delimiter))
	if text == "" {
		return nil
	}
	parts := strings.Split(text, string(Delimiter))
	rows := make([][]rune, len(parts))
	for i, p := range parts {
		rows[i] = []rune(p)
	}
	return rows
}

// Clear empties the grid and the position set.
func (e *Engine) Clear() {
	e.text = ""
	e.cells = nil
	e.rowLength = 0
	e.rowCount = 0
	e.positions.Clear()
}

// Find searches for word from every cell in all eight directions and unions
// every matched cell into the position set. It returns the positions that
// were not already set, ascending. Words shorter than two letters are ignored.
func (e *Engine) Find(word string) []int {
	matches := e.Locate(word)
	if len(matches) == 0 {
		return nil
	}

	var delta []int
	for _, m := range matches {
		for _, p := range m.Positions {
			if e.positions.CheckedAdd(uint32(p)) {
				delta = append(delta, p)
			}
		}
	}
	slices.Sort(delta)
	return delta
}

// FindAll runs Find for each word and returns the combined delta.
func (e *Engine) FindAll(words []string) []int {
	before := e.positions.Clone()
	for _, w := range words {
		e.Find(w)
	}
	added := roaring.AndNot(e.positions, before)
	return toInts(added)
}

// Locate returns every occurrence of word without touching the position set.
func (e *Engine) Locate(word string) []Match {
	w := []rune(word)
	rows := e.searchRows()
	if len(w) <= 1 || rows == 0 {
		return nil
	}

	var out []Match
	for start, c := range e.cells[:rows*e.rowLength] {
		if c != w[0] {
			continue
		}
		row, col := start/e.rowLength, start%e.rowLength
		for _, d := range Directions {
			if !e.fits(row, col, rows, d, len(w)) || !e.matchesFrom(row, col, d, w) {
				continue
			}
			ps := make([]int, len(w))
			for i := range w {
				ps[i] = (row+i*d.DR)*e.rowLength + col + i*d.DC
			}
			out = append(out, Match{Word: word, Start: start, Direction: d.Name, Positions: ps})
		}
	}
	return out
}

// searchRows is the number of complete rows backed by cells. It only differs
// from rowCount after a Restore with inconsistent dimensions.
func (e *Engine) searchRows() int {
	if e.rowLength == 0 {
		return 0
	}
	return min(e.rowCount, len(e.cells)/e.rowLength)
}

// fits reports whether a word of length n starting at (row, col) stays
// inside the first rows rows when stepped along d.
func (e *Engine) fits(row, col, rows int, d Direction, n int) bool {
	endRow := row + (n-1)*d.DR
	endCol := col + (n-1)*d.DC
	return endRow >= 0 && endRow < rows && endCol >= 0 && endCol < e.rowLength
}

func (e *Engine) matchesFrom(row, col int, d Direction, w []rune) bool {
	for i := 1; i < len(w); i++ {
		r, c := row+i*d.DR, col+i*d.DC
		if e.cells[r*e.rowLength+c] != w[i] {
			return false
		}
	}
	return true
}

// RowLength is the number of cells per row.
func (e *Engine) RowLength() int { return e.rowLength }

// RowCount is the number of rows.
func (e *Engine) RowCount() int { return e.rowCount }

// Len is the number of cells in the grid.
func (e *Engine) Len() int { return len(e.cells) }

// Text returns the normalized grid text, rows joined by Delimiter.
func (e *Engine) Text() string { return e.text }

// Rows returns the grid rows as strings.
func (e *Engine) Rows() []string {
	rows := make([]string, e.searchRows())
	for r := range rows {
		rows[r] = string(e.cells[r*e.rowLength : (r+1)*e.rowLength])
	}
	return rows
}

// At returns the character at pos.
func (e *Engine) At(pos int) (rune, bool) {
	if pos < 0 || pos >= len(e.cells) {
		return 0, false
	}
	return e.cells[pos], true
}

// Contains reports whether pos belongs to a discovered match.
func (e *Engine) Contains(pos int) bool {
	if pos < 0 {
		return false
	}
	return e.positions.Contains(uint32(pos))
}

// Positions returns every matched position, ascending.
func (e *Engine) Positions() []int { return toInts(e.positions) }

// MatchCount is the number of matched positions.
func (e *Engine) MatchCount() int { return int(e.positions.GetCardinality()) }

// State returns a copy of the full engine state.
func (e *Engine) State() State {
	return State{
		Text:      e.text,
		RowLength: e.rowLength,
		RowCount:  e.rowCount,
		Positions: e.Positions(),
	}
}

// Restore replaces the engine state with s. Dimensions are taken as given
// and not re-derived from the text; callers validate s beforehand.
func (e *Engine) Restore(s State) {
	var cells []rune
	for _, r := range s.Text {
		if r != Delimiter {
			cells = append(cells, r)
		}
	}
	e.text = s.Text
	e.cells = cells
	e.rowLength = s.RowLength
	e.rowCount = s.RowCount
	e.positions.Clear()
	for _, p := range s.Positions {
		e.positions.Add(uint32(p))
	}
}

func toInts(b *roaring.Bitmap) []int {
	if b.IsEmpty() {
		return nil
	}
	arr := b.ToArray()
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}
