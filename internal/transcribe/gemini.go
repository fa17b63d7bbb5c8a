package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	DefaultRegion        = "europe-west1"
	DefaultModel         = "gemini-2.5-flash"
	DefaultMinConfidence = 50
)

const transcribePrompt = `This photo shows a printed word search puzzle.

Read the letter grid and answer with JSON in exactly this shape:
{
  "rows": ["ABCD...", "EFGH...", ...],
  "confidence": <0-100, how sure you are that every letter is correct>
}

Rules:
- One string per grid row, top to bottom, letters only, no spaces.
- Every row has the same number of letters.
- Ignore any word list printed next to or below the grid.
- Answer ONLY with the JSON, no commentary and no markdown.`

// GeminiClient transcribes images with Gemini on Vertex AI.
type GeminiClient struct {
	client        *genai.Client
	modelName     string
	minConfidence int
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithModel overrides DefaultModel.
func WithModel(name string) GeminiOption {
	return func(g *GeminiClient) {
		if name != "" {
			g.modelName = name
		}
	}
}

// WithMinConfidence sets the confidence (0-100) a transcription needs to be accepted.
func WithMinConfidence(c int) GeminiOption {
	return func(g *GeminiClient) { g.minConfidence = c }
}

// NewGeminiClient creates a client using Application Default Credentials.
// Set GOOGLE_APPLICATION_CREDENTIALS to the service account key file path.
func NewGeminiClient(ctx context.Context, projectID, region string, opts ...GeminiOption) (*GeminiClient, error) {
	if region == "" {
		region = DefaultRegion
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	g := &GeminiClient{
		client:        client,
		modelName:     DefaultModel,
		minConfidence: DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Transcribe sends the image to Gemini and returns normalized grid text.
func (g *GeminiClient) Transcribe(ctx context.Context, image []byte, mimeType string) (string, error) {
	if !AllowedMIME[mimeType] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, mimeType)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text, confidence, err := parseResponse(resp.Text())
	if err != nil {
		return "", err
	}
	log.Debug().Int("confidence", confidence).Int("bytes", len(image)).Msg("image transcribed")
	if confidence < g.minConfidence {
		return "", fmt.Errorf("%w: %d < %d", ErrLowConfidence, confidence, g.minConfidence)
	}
	return text, nil
}

// transcription is the JSON shape requested from the model.
type transcription struct {
	Rows       []string `json:"rows"`
	Confidence int      `json:"confidence"`
}

// parseResponse decodes the model's JSON answer into normalized grid text.
func parseResponse(raw string) (string, int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, fmt.Errorf("empty gemini response")
	}
	// Models occasionally wrap JSON in a markdown fence despite the prompt.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var t transcription
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return "", 0, fmt.Errorf("parse transcription JSON: %w\nraw response: %s", err, raw)
	}

	text := Normalize(strings.Join(t.Rows, "\n"))
	if text == "" {
		return "", t.Confidence, ErrEmptyGrid
	}
	return text, t.Confidence, nil
}
