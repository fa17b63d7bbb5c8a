// main.go
//
// Entry point of the word-search HTTP server.
// Responsibilities:
//   - Load .env (development), set the zerolog level.
//   - Open + migrate SQLite, pick the puzzle store (sql or memory).
//   - Wire the optional Gemini transcriber, then serve.

package main

import (
	"context"
	"database/sql"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/assets"
	"github.com/robalobadob/wordsearch/internal/httpserver"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/transcribe"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := store.OpenDB(getEnv("DB_PATH", "./data/wordsearch.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := store.Migrate(db, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	srv := httpserver.New(httpserver.ConfigFromEnv(), puzzleStore(db), db, transcriber())
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting wordsearch server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// puzzleStore returns the store selected by PUZZLE_STORE (sql by default).
func puzzleStore(db *sql.DB) store.Store {
	switch kind := getEnv("PUZZLE_STORE", "sql"); kind {
	case "memory":
		log.Warn().Msg("puzzles are kept in memory and lost on restart")
		return store.NewMemoryStore()
	case "sql":
		return store.NewSQLStore(db)
	default:
		log.Fatal().Str("PUZZLE_STORE", kind).Msg("unknown puzzle store")
		return nil
	}
}

// transcriber returns a Gemini client when GCP_PROJECT_ID is set, nil otherwise.
func transcriber() transcribe.Transcriber {
	project := os.Getenv("GCP_PROJECT_ID")
	if project == "" {
		log.Info().Msg("GCP_PROJECT_ID not set, image upload disabled")
		return nil
	}
	opts := []transcribe.GeminiOption{transcribe.WithModel(os.Getenv("GEMINI_MODEL"))}
	if v := os.Getenv("OCR_MIN_CONFIDENCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts = append(opts, transcribe.WithMinConfidence(n))
		}
	}
	g, err := transcribe.NewGeminiClient(context.Background(), project, getEnv("GCP_REGION", transcribe.DefaultRegion), opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("create gemini client")
	}
	return g
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
