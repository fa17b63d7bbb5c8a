package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robalobadob/wordsearch/internal/grid"
	"github.com/robalobadob/wordsearch/internal/transcribe"
)

func newTranscribeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "transcribe IMAGE",
		Short: "Read a word search grid from a photo (Gemini on Vertex AI)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if len(img) > transcribe.MaxImageSize {
				return fmt.Errorf("%s: image larger than %d bytes", args[0], transcribe.MaxImageSize)
			}
			project := os.Getenv("GCP_PROJECT_ID")
			if project == "" {
				return fmt.Errorf("GCP_PROJECT_ID is not set")
			}
			opts := []transcribe.GeminiOption{transcribe.WithModel(os.Getenv("GEMINI_MODEL"))}
			if n, err := strconv.Atoi(os.Getenv("OCR_MIN_CONFIDENCE")); err == nil {
				opts = append(opts, transcribe.WithMinConfidence(n))
			}
			g, err := transcribe.NewGeminiClient(cmd.Context(), project, getEnv("GCP_REGION", transcribe.DefaultRegion), opts...)
			if err != nil {
				return err
			}
			return runTranscribe(cmd, g, img, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the grid text to this file instead of stdout")
	return cmd
}

// runTranscribe transcribes img and checks the result loads as a grid.
func runTranscribe(cmd *cobra.Command, tr transcribe.Transcriber, img []byte, out string) error {
	text, err := tr.Transcribe(cmd.Context(), img, http.DetectContentType(img))
	if err != nil {
		return err
	}
	if err := grid.New().Load(text); err != nil {
		// Still hand the text back so it can be fixed by hand.
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
	}
	if out == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}
	return os.WriteFile(out, []byte(text+"\n"), 0o644)
}
