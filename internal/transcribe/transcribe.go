// Package transcribe turns a photograph of a paper word search into grid text.
package transcribe

import (
	"context"
	"errors"
)

// MaxImageSize is the largest image accepted for transcription.
const MaxImageSize = 10 << 20

// AllowedMIME lists the image types a Transcriber accepts.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var (
	// ErrLowConfidence means the model was not sure enough of what it read.
	ErrLowConfidence = errors.New("transcribe: confidence below threshold")
	// ErrUnsupportedImage means the MIME type is not in AllowedMIME.
	ErrUnsupportedImage = errors.New("transcribe: unsupported image type")
	// ErrEmptyGrid means no letters were recognized.
	ErrEmptyGrid = errors.New("transcribe: no grid found in image")
)

// Transcriber converts an image into normalized grid text.
type Transcriber interface {
	Transcribe(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Func adapts a plain function to the Transcriber interface.
type Func func(ctx context.Context, image []byte, mimeType string) (string, error)

func (f Func) Transcribe(ctx context.Context, image []byte, mimeType string) (string, error) {
	return f(ctx, image, mimeType)
}
