// cmd/wordsearch/main.go
//
// Command-line front end for the grid engine.
// Commands:
//   - solve:      find words in one or more grids and print where they are.
//   - save:       turn a text grid (plus words) into a .wss file.
//   - transcribe: read a grid from a photo with Gemini.
//   - view:       interactive terminal viewer.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("wordsearch")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:           "wordsearch",
		Short:         "Find words hidden in letter grids",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
			if level == "" {
				level = getEnv("LOG_LEVEL", "warn")
			}
			if lvl, err := zerolog.ParseLevel(level); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "", "log level (default $LOG_LEVEL or warn)")

	root.AddCommand(
		newSolveCmd(),
		newSaveCmd(),
		newTranscribeCmd(),
		newViewCmd(),
	)
	return root
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
