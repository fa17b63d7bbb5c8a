package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robalobadob/wordsearch/assets"
	"github.com/robalobadob/wordsearch/internal/grid"
	"github.com/robalobadob/wordsearch/internal/transcribe"
	"github.com/robalobadob/wordsearch/internal/words"
	"github.com/robalobadob/wordsearch/internal/wsfile"
)

// samplePath selects the embedded demo grid instead of a file.
const samplePath = "sample"

// loadGrid reads a text grid or a .wss file ("-" is stdin).
func loadGrid(path string, stdin io.Reader) (*grid.Engine, error) {
	var (
		b   []byte
		err error
	)
	switch path {
	case "-":
		b, err = io.ReadAll(stdin)
	case samplePath:
		var text string
		text, err = assets.SampleGrid()
		b = []byte(text)
	default:
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	e := grid.New()
	if wsfile.Sniff(b) {
		state, err := wsfile.Unmarshal(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		e.Restore(state)
		return e, nil
	}
	if err := e.Load(transcribe.Normalize(string(b))); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// wordList merges the words of listFile (if any) with extra.
// The sample grid brings its own words when none are given.
func wordList(listFile string, extra []string, grids []string) ([]string, error) {
	var list []string
	if listFile != "" {
		l, err := words.ReadFile(listFile)
		if err != nil {
			return nil, err
		}
		list = l
	}
	list = words.Merge(list, extra...)
	if len(list) == 0 && len(grids) == 1 && grids[0] == samplePath {
		sample, err := assets.SampleWords()
		if err != nil {
			return nil, err
		}
		list = words.Merge(list, sample...)
	}
	return list, nil
}

// renderGrid prints matched cells as letters and the rest as dots.
func renderGrid(w io.Writer, e *grid.Engine) {
	for r, row := range e.Rows() {
		var sb strings.Builder
		for c, ch := range []rune(row) {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if e.Contains(r*e.RowLength() + c) {
				sb.WriteRune(ch)
			} else {
				sb.WriteByte('.')
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

// describe formats a match as "E from (row,col)", 1-based.
func describe(e *grid.Engine, m grid.Match) string {
	n := e.RowLength()
	return fmt.Sprintf("%s from (%d,%d)", m.Direction, m.Start/n+1, m.Start%n+1)
}
