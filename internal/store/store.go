// internal/store/store.go
//
// Puzzle persistence.
// A Puzzle pairs a grid engine with its bookkeeping (owner, title, the words
// searched so far). The engine itself is not safe for concurrent use, so all
// mutation goes through Store.Update, which serializes access per puzzle.

package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/robalobadob/wordsearch/internal/grid"
)

// ErrNotFound is returned for unknown puzzle IDs.
var ErrNotFound = errors.New("puzzle not found")

// Puzzle is a stored word search.
type Puzzle struct {
	ID        string
	OwnerID   string // user ID, or "anon:<id>" for guests
	Title     string
	Words     []string // normalized, in the order they were searched
	Engine    *grid.Engine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPuzzle creates a puzzle with a fresh ID around an engine.
func NewPuzzle(ownerID, title string, e *grid.Engine) *Puzzle {
	if e == nil {
		e = grid.New()
	}
	t := now()
	return &Puzzle{
		ID:        randomID(),
		OwnerID:   ownerID,
		Title:     title,
		Engine:    e,
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Store defines the persistence interface for puzzles.
// Implementations may be backed by memory (NewMemoryStore) or SQLite (NewSQLStore).
type Store interface {
	// Create persists a new puzzle.
	Create(ctx context.Context, p *Puzzle) error

	// Get returns a snapshot of the puzzle. Callers must not mutate it;
	// use Update instead.
	Get(ctx context.Context, id string) (*Puzzle, error)

	// Update runs fn with exclusive access to the puzzle and persists the
	// result if fn returns nil. Returns ErrNotFound for unknown IDs.
	Update(ctx context.Context, id string, fn func(p *Puzzle) error) (*Puzzle, error)

	// Delete removes a puzzle.
	Delete(ctx context.Context, id string) error

	// ListByOwner returns the owner's puzzles, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*Puzzle, error)

	// ClaimOwner moves every puzzle owned by from to to.
	ClaimOwner(ctx context.Context, from, to string) error
}

// clone deep-copies p including its engine state.
func clone(p *Puzzle) *Puzzle {
	c := *p
	c.Words = append([]string(nil), p.Words...)
	c.Engine = grid.New()
	if p.Engine != nil {
		c.Engine.Restore(p.Engine.State())
	}
	return &c
}

func now() time.Time { return time.Now().UTC() }

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
