package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ironsheep/image-slicer/internal/imaging"
)

const (
	// VisionName is the registry name of the vision-model engine.
	VisionName = "vision"

	// DefaultVisionModel is used when no model is configured.
	DefaultVisionModel = "gpt-4o-mini"

	// DefaultVisionPrompt asks the model for a plain transcription.
	DefaultVisionPrompt = "Transcribe all text visible in this image exactly as written, " +
		"top to bottom, one line of output per line of text. " +
		"Output only the transcription with no commentary or formatting."

	// VisionConfidence is reported for every line returned by a vision model,
	// which gives no per-line score.
	VisionConfidence = 1.0
)

// VisionConfig configures the vision-model engine. Any OpenAI-compatible
// chat completions endpoint that accepts image input works.
type VisionConfig struct {
	APIKey     string
	BaseURL    string // Optional, for compatible gateways and tests
	Model      string
	Prompt     string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client // Optional (tests)
}

// Vision recognizes text by sending each image to a multimodal chat model.
type Vision struct {
	model  string
	prompt string
	client openai.Client
}

// NewVision creates a vision-model engine.
func NewVision(cfg VisionConfig) (*Vision, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: vision engine requires an API key", ErrEngineUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVisionModel
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultVisionPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Vision{
		model:  cfg.Model,
		prompt: cfg.Prompt,
		client: openai.NewClient(opts...),
	}, nil
}

// Name returns the engine identifier.
func (v *Vision) Name() string { return VisionName }

// Model returns the configured model.
func (v *Vision) Model() string { return v.model }

// Recognize sends img to the model and returns one Result per output line.
func (v *Vision) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dataURL, err := imaging.PNGDataURL(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	resp, err := v.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(v.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(v.prompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("vision model returned no choices")
	}

	return splitLines(resp.Choices[0].Message.Content), nil
}

// splitLines converts a model transcription into Results, dropping a
// surrounding Markdown code fence if the model added one.
func splitLines(content string) []Result {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
			lines = lines[:n-1]
		}
	}

	results := make([]Result, 0, len(lines))
	for _, line := range lines {
		results = append(results, Result{Text: line, Confidence: VisionConfidence})
	}
	return Normalize(results)
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("vision model error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("vision model error (status %d)", apiErr.StatusCode)
	}
	return err
}

var _ Recognizer = (*Vision)(nil)
