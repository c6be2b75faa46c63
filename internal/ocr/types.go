package ocr

import (
	"context"
	"errors"
	"image"
	"strings"
)

var (
	// ErrEngineUnavailable is returned when an engine cannot run in this
	// build or environment (no cgo, missing credentials, missing library).
	ErrEngineUnavailable = errors.New("ocr engine unavailable")

	// ErrUnknownEngine is returned when no engine is registered under a name.
	ErrUnknownEngine = errors.New("unknown ocr engine")
)

// Result is one recognized piece of text, typically a line.
type Result struct {
	// Text is the recognized content.
	Text string `json:"text"`

	// Confidence is the engine's certainty in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Recognizer turns an image into text results.
//
// Results come back in reading order (top to bottom, then left to right).
// Implementations must be safe for concurrent use.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]Result, error)
}

// Normalize trims whitespace from each result, drops results that end up
// empty and clamps confidence into [0, 1]. Order is preserved.
func Normalize(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		conf := r.Confidence
		if conf < 0 {
			conf = 0
		} else if conf > 1 {
			conf = 1
		}
		out = append(out, Result{Text: text, Confidence: conf})
	}
	return out
}
