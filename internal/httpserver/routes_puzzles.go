// internal/httpserver/routes_puzzles.go
//
// Puzzle endpoints.
// Responsibilities:
//   - Create puzzles from grid text, from a photo (via Transcriber) or from a .wss file.
//   - Search words (delta + where each occurrence lies), clear, reload, export, delete.
//   - Owner checks: only the creator (user or anonymous cookie) may change a puzzle;
//     anyone with the ID may read or export it.

package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/internal/grid"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/transcribe"
	"github.com/robalobadob/wordsearch/internal/view"
	"github.com/robalobadob/wordsearch/internal/words"
	"github.com/robalobadob/wordsearch/internal/wsfile"
)

const (
	maxTextBody  = 1 << 20
	maxTitleLen  = 100
	wssMediaType = "application/octet-stream"
)

var errForbidden = errors.New("forbidden")

// mountPuzzles registers /puzzles/* except the image upload, which runs
// under a longer timeout.
func (s *Server) mountPuzzles(r chi.Router) {
	r.Post("/puzzles", s.handleCreate)
	r.Post("/puzzles/import", s.handleImport)
	r.Get("/puzzles/{id}", s.handleGet)
	r.Post("/puzzles/{id}/find", s.handleFind)
	r.Post("/puzzles/{id}/clear", s.handleClear)
	r.Put("/puzzles/{id}/grid", s.handleReload)
	r.Get("/puzzles/{id}/export", s.handleExport)
	r.Delete("/puzzles/{id}", s.handleDelete)
}

// ------------------------------- responses ---------------------------------

type puzzleRes struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Text      string      `json:"text"`
	Rows      []string    `json:"rows"`
	RowLength int         `json:"rowLength"`
	RowCount  int         `json:"rowCount"`
	Words     []string    `json:"words"`
	Positions []int       `json:"positions"`
	Extent    view.Extent `json:"extent"`
	Mine      bool        `json:"mine"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func toPuzzleRes(r *http.Request, p *store.Puzzle) puzzleRes {
	e := p.Engine
	return puzzleRes{
		ID:        p.ID,
		Title:     p.Title,
		Text:      e.Text(),
		Rows:      nonNil(e.Rows()),
		RowLength: e.RowLength(),
		RowCount:  e.RowCount(),
		Words:     nonNil(p.Words),
		Positions: nonNil(e.Positions()),
		Extent:    view.MinimumExtent(e.RowLength(), e.RowCount(), view.DefaultLayout, view.Extent{}),
		Mine:      callerOwns(r, p.OwnerID),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type summaryRes struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	RowLength  int       `json:"rowLength"`
	RowCount   int       `json:"rowCount"`
	Words      int       `json:"words"`
	MatchCount int       `json:"matchCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type findRes struct {
	Word      string       `json:"word"`
	Delta     []int        `json:"delta"`
	Positions []int        `json:"positions"`
	Matches   []grid.Match `json:"matches"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ------------------------------- create ------------------------------------

type createReq struct {
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Words []string `json:"words"`
}

// handleCreate loads text into a fresh engine, searches any initial words, and stores it.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	e := grid.New()
	if err := e.Load(transcribe.Normalize(body.Text)); err != nil {
		writeGridError(w, err)
		return
	}
	p := store.NewPuzzle(s.ownerFor(w, r), cleanTitle(body.Title), e)
	for _, word := range body.Words {
		if word = words.Normalize(word); words.Searchable(word) {
			e.Find(word)
			p.Words = words.Merge(p.Words, word)
		}
	}
	s.createAndRespond(w, r, p)
}

// handleCreateFromImage transcribes an uploaded photo and stores the resulting grid.
func (s *Server) handleCreateFromImage(w http.ResponseWriter, r *http.Request) {
	if s.tr == nil {
		writeError(w, http.StatusServiceUnavailable, "transcription_unavailable")
		return
	}
	if !s.uploads.allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "rate_limited")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, transcribe.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(transcribe.MaxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_multipart")
		return
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_image")
		return
	}
	defer f.Close()
	img, err := io.ReadAll(io.LimitReader(f, transcribe.MaxImageSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read_image")
		return
	}
	if len(img) > transcribe.MaxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image_too_large")
		return
	}
	mime := hdr.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == wssMediaType {
		mime = http.DetectContentType(img)
	}

	text, err := s.tr.Transcribe(r.Context(), img, mime)
	switch {
	case errors.Is(err, transcribe.ErrUnsupportedImage):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_image")
		return
	case errors.Is(err, transcribe.ErrLowConfidence), errors.Is(err, transcribe.ErrEmptyGrid):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "transcription_timeout")
		return
	case err != nil:
		log.Error().Err(err).Msg("transcribe image")
		writeError(w, http.StatusBadGateway, "transcription_failed")
		return
	}

	e := grid.New()
	if err := e.Load(transcribe.Normalize(text)); err != nil {
		// The model returned ragged rows; the client can fix the text and PUT it back.
		writeGridError(w, err)
		return
	}
	s.createAndRespond(w, r, store.NewPuzzle(s.ownerFor(w, r), cleanTitle(r.FormValue("title")), e))
}

// handleImport restores a puzzle from a .wss body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	state, err := wsfile.Decode(http.MaxBytesReader(w, r.Body, maxTextBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e := grid.New()
	e.Restore(state)
	s.createAndRespond(w, r, store.NewPuzzle(s.ownerFor(w, r), cleanTitle(r.URL.Query().Get("title")), e))
}

func (s *Server) createAndRespond(w http.ResponseWriter, r *http.Request, p *store.Puzzle) {
	if err := s.store.Create(r.Context(), p); err != nil {
		log.Error().Err(err).Msg("create puzzle")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	log.Info().Str("puzzleId", p.ID).Int("rows", p.Engine.RowCount()).Int("cols", p.Engine.RowLength()).Msg("puzzle created")
	res := toPuzzleRes(r, p)
	res.Mine = true
	writeJSON(w, http.StatusCreated, res)
}

// -------------------------------- read -------------------------------------

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPuzzleRes(r, p))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	var opts []wsfile.Option
	if r.URL.Query().Get("compress") == "1" {
		opts = append(opts, wsfile.WithCompression())
	}
	var buf bytes.Buffer
	if err := wsfile.Encode(&buf, p.Engine.State(), opts...); err != nil {
		log.Error().Err(err).Str("puzzleId", p.ID).Msg("encode puzzle")
		writeError(w, http.StatusInternalServerError, "encode_failed")
		return
	}
	w.Header().Set("Content-Type", wssMediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.wss"`, p.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleListMine returns the signed-in user's puzzles, newest first.
func (s *Server) handleListMine(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	list, err := s.store.ListByOwner(r.Context(), me.ID, 50)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("list puzzles")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	out := make([]summaryRes, 0, len(list))
	for _, p := range list {
		out = append(out, summaryRes{
			ID:         p.ID,
			Title:      p.Title,
			RowLength:  p.Engine.RowLength(),
			RowCount:   p.Engine.RowCount(),
			Words:      len(p.Words),
			MatchCount: p.Engine.MatchCount(),
			UpdatedAt:  p.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------- mutate ------------------------------------

// update runs fn on the puzzle if the caller owns it.
func (s *Server) update(r *http.Request, fn func(p *store.Puzzle) error) (*store.Puzzle, error) {
	return s.store.Update(r.Context(), chi.URLParam(r, "id"), func(p *store.Puzzle) error {
		if !callerOwns(r, p.OwnerID) {
			return errForbidden
		}
		return fn(p)
	})
}

type findReq struct {
	Word string `json:"word"`
}

// handleFind searches one word and reports the newly highlighted cells.
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	var body findReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	word := words.Normalize(body.Word)
	if word == "" {
		writeError(w, http.StatusBadRequest, "word_required")
		return
	}

	var res findRes
	p, err := s.update(r, func(p *store.Puzzle) error {
		res.Matches = p.Engine.Locate(word)
		res.Delta = p.Engine.Find(word)
		if words.Searchable(word) {
			p.Words = words.Merge(p.Words, word)
		}
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	res.Word = word
	res.Delta = nonNil(res.Delta)
	res.Matches = nonNil(res.Matches)
	res.Positions = nonNil(p.Engine.Positions())
	writeJSON(w, http.StatusOK, res)
}

// handleClear empties the grid, its words and highlights.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	p, err := s.update(r, func(p *store.Puzzle) error {
		p.Engine.Clear()
		p.Words = nil
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPuzzleRes(r, p))
}

type reloadReq struct {
	Text string `json:"text"`
}

// handleReload replaces the grid text; highlights and words are reset.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	var body reloadReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	p, err := s.update(r, func(p *store.Puzzle) error {
		if err := p.Engine.Load(transcribe.Normalize(body.Text)); err != nil {
			return err
		}
		p.Words = nil
		return nil
	})
	if err != nil {
		var mg *grid.MalformedGridError
		if errors.As(err, &mg) {
			writeGridError(w, err)
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPuzzleRes(r, p))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !callerOwns(r, p.OwnerID) {
		writeStoreError(w, errForbidden)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ------------------------------- errors ------------------------------------

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, errForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		log.Error().Err(err).Msg("puzzle store")
		writeError(w, http.StatusInternalServerError, "db_error")
	}
}

// writeGridError reports a malformed grid with the offending row.
func writeGridError(w http.ResponseWriter, err error) {
	var mg *grid.MalformedGridError
	if errors.As(err, &mg) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "malformed_grid",
			"row":   mg.Row,
			"want":  mg.Want,
			"got":   mg.Got,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func cleanTitle(t string) string {
	t = strings.TrimSpace(t)
	if r := []rune(t); len(r) > maxTitleLen {
		t = string(r[:maxTitleLen])
	}
	return t
}
