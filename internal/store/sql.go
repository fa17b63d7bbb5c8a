// internal/store/sql.go
//
// SQLite implementation of Store.
// The engine state is stored as a .wss blob (see internal/wsfile) so that the
// database and exported files share one format. Words are kept as JSON.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/wordsearch/internal/grid"
	"github.com/robalobadob/wordsearch/internal/wsfile"
)

type sqlStore struct {
	db *sql.DB
}

// NewSQLStore returns a Store backed by db. The puzzles table must exist (see Migrate).
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{db: db}
}

const puzzleColumns = `id, owner_id, title, words, state, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPuzzle(row rowScanner) (*Puzzle, error) {
	var (
		p                Puzzle
		wordsJSON        string
		blob             []byte
		created, updated string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &wordsJSON, &blob, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(wordsJSON), &p.Words); err != nil {
		return nil, fmt.Errorf("puzzle %s: words: %w", p.ID, err)
	}
	state, err := wsfile.Unmarshal(blob)
	if err != nil {
		return nil, fmt.Errorf("puzzle %s: %w", p.ID, err)
	}
	p.Engine = grid.New()
	p.Engine.Restore(state)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

func encodePuzzle(p *Puzzle) (wordsJSON string, blob []byte, err error) {
	words := p.Words
	if words == nil {
		words = []string{}
	}
	wb, err := json.Marshal(words)
	if err != nil {
		return "", nil, err
	}
	e := p.Engine
	if e == nil {
		e = grid.New()
	}
	blob, err = wsfile.Marshal(e.State())
	if err != nil {
		return "", nil, err
	}
	return string(wb), blob, nil
}

func (s *sqlStore) Create(ctx context.Context, p *Puzzle) error {
	wordsJSON, blob, err := encodePuzzle(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO puzzles (`+puzzleColumns+`) VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.OwnerID, p.Title, wordsJSON, blob, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func (s *sqlStore) Get(ctx context.Context, id string) (*Puzzle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+puzzleColumns+` FROM puzzles WHERE id=?`, id)
	return scanPuzzle(row)
}

func (s *sqlStore) Update(ctx context.Context, id string, fn func(p *Puzzle) error) (*Puzzle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	p, err := scanPuzzle(tx.QueryRowContext(ctx, `SELECT `+puzzleColumns+` FROM puzzles WHERE id=?`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.ID = id
	p.UpdatedAt = now()

	wordsJSON, blob, err := encodePuzzle(p)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE puzzles SET owner_id=?, title=?, words=?, state=?, updated_at=? WHERE id=?`,
		p.OwnerID, p.Title, wordsJSON, blob, formatTime(p.UpdatedAt), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM puzzles WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*Puzzle, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+puzzleColumns+` FROM puzzles WHERE owner_id=? ORDER BY updated_at DESC LIMIT ?`,
		ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Puzzle
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqlStore) ClaimOwner(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE puzzles SET owner_id=? WHERE owner_id=?`, to, from)
	return err
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
