// internal/grid/types.go
//
// Type definitions for the grid search engine.
// Defines:
//   - Direction: one of the eight stepping vectors used to test a word.
//   - Match: a single located occurrence of a word.
//   - State: the full engine state exchanged with the persistence codec.
//   - MalformedGridError: structural rejection of grid text.

package grid

import "fmt"

// Delimiter separates rows in grid text.
const Delimiter = '\n'

// Direction is a (row, col) step between consecutive letters of a word.
type Direction struct {
	Name string
	DR   int
	DC   int
}

// Directions lists the eight search directions in the order they are tried.
var Directions = [8]Direction{
	{Name: "E", DR: 0, DC: 1},
	{Name: "W", DR: 0, DC: -1},
	{Name: "S", DR: 1, DC: 0},
	{Name: "N", DR: -1, DC: 0},
	{Name: "SE", DR: 1, DC: 1},
	{Name: "NW", DR: -1, DC: -1},
	{Name: "SW", DR: 1, DC: -1},
	{Name: "NE", DR: -1, DC: 1},
}

// Match is one occurrence of a word: where it starts, which way it runs
// and every cell it covers (in reading order of the word).
type Match struct {
	Word      string `json:"word"`
	Start     int    `json:"start"`
	Direction string `json:"direction"`
	Positions []int  `json:"positions"`
}

// State is everything an Engine holds. Positions are ascending.
type State struct {
	Text      string
	RowLength int
	RowCount  int
	Positions []int
}

// MalformedGridError reports a row whose length differs from the first row.
// Row is 1-based.
type MalformedGridError struct {
	Row  int
	Want int
	Got  int
}

func (e *MalformedGridError) Error() string {
	return fmt.Sprintf("grid: row %d has %d cells, want %d", e.Row, e.Got, e.Want)
}
