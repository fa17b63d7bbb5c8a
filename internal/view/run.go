package view

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/wordsearch/internal/words"
)

// FindFunc searches for a normalized word and returns the newly matched positions.
type FindFunc func(word string) []int

// Run draws the grid and reads words from the keyboard until Esc, Ctrl-C or
// ctx is done. Enter searches for the typed word.
func (v *Viewer) Run(ctx context.Context, s tcell.Screen, find FindFunc) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	v.Draw(s)
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			return ctx.Err()
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventKey:
			if quit := v.handleKey(ev, find); quit {
				return nil
			}
		}
		v.Draw(s)
	}
}

func (v *Viewer) handleKey(ev *tcell.EventKey, find FindFunc) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyEnter:
		w := words.Normalize(string(v.input))
		v.input = v.input[:0]
		switch {
		case w == "":
		case !words.Searchable(w):
			v.status = w + ": too short"
		default:
			if delta := find(w); len(delta) > 0 {
				v.status = fmt.Sprintf("%s: %d new cells", w, len(delta))
			} else {
				v.status = w + ": nothing new"
			}
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(v.input); n > 0 {
			v.input = v.input[:n-1]
		}
	case tcell.KeyRune:
		v.input = append(v.input, ev.Rune())
	}
	return false
}
