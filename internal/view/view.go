// Package view draws a word-search grid on a terminal.
//
// The grid engine knows nothing about drawing. Everything derived from
// rendering, such as the extent observed on the last draw, lives here.
package view

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Source is the read-only view of a grid the viewer draws from.
// *grid.Engine satisfies it.
type Source interface {
	RowLength() int
	RowCount() int
	Rows() []string
	Contains(pos int) bool
	MatchCount() int
}

// Extent is a size in screen cells.
type Extent struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Layout holds the presentation constants: how many screen cells one grid
// cell takes horizontally and vertically.
type Layout struct {
	CellWidth  int
	CellHeight int
}

// DefaultLayout puts a space between letters.
var DefaultLayout = Layout{CellWidth: 2, CellHeight: 1}

var (
	DefaultStyle   = tcell.StyleDefault
	HighlightStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	StatusStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// MinimumExtent is the size hint for a grid: one layout unit per cell plus a
// status row, but never smaller than what was observed when last drawn.
func MinimumExtent(rowLength, rowCount int, l Layout, observed Extent) Extent {
	return Extent{
		Width:  max(rowLength*l.CellWidth, observed.Width),
		Height: max(rowCount*l.CellHeight+l.CellHeight, observed.Height),
	}
}

// Viewer renders a Source and remembers the extent it last drew.
type Viewer struct {
	src      Source
	layout   Layout
	observed Extent
	status   string
	input    []rune
}

// NewViewer creates a viewer for src using DefaultLayout.
func NewViewer(src Source) *Viewer {
	return &Viewer{src: src, layout: DefaultLayout}
}

// SetLayout replaces the layout constants.
func (v *Viewer) SetLayout(l Layout) { v.layout = l }

// SetStatus sets the text shown under the grid.
func (v *Viewer) SetStatus(s string) { v.status = s }

// Observed is the extent covered by the last Draw.
func (v *Viewer) Observed() Extent { return v.observed }

// MinimumExtent returns the size hint for the current grid.
func (v *Viewer) MinimumExtent() Extent {
	return MinimumExtent(v.src.RowLength(), v.src.RowCount(), v.layout, v.observed)
}

// Draw paints the grid and the status line, highlighting matched cells.
func (v *Viewer) Draw(s tcell.Screen) {
	s.Clear()

	rowLength := v.src.RowLength()
	rows := v.src.Rows()
	for r, row := range rows {
		for c, ch := range []rune(row) {
			style := DefaultStyle
			if v.src.Contains(r*rowLength + c) {
				style = HighlightStyle
			}
			s.SetContent(c*v.layout.CellWidth, r*v.layout.CellHeight, ch, nil, style)
		}
	}

	statusY := len(rows) * v.layout.CellHeight
	line := v.statusLine()
	for i, ch := range []rune(line) {
		s.SetContent(i, statusY, ch, nil, StatusStyle)
	}
	s.ShowCursor(len([]rune(line)), statusY)

	v.observed = Extent{
		Width:  max(rowLength*v.layout.CellWidth, len([]rune(line))),
		Height: statusY + 1,
	}
	s.Show()
}

func (v *Viewer) statusLine() string {
	line := fmt.Sprintf("[%d matched] > %s", v.src.MatchCount(), string(v.input))
	if v.status != "" {
		line = v.status + "  " + line
	}
	return line
}
