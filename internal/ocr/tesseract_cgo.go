//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/image-slicer/internal/imaging"
)

// Tesseract recognizes text with the native Tesseract library.
//
// Each call uses its own gosseract client, so a single Tesseract value can
// serve concurrent callers.
type Tesseract struct {
	languages      []string
	tessdataPrefix string
	psm            int
	clientFactory  func() *gosseract.Client
}

// NewTesseract creates a Tesseract engine.
func NewTesseract(cfg TesseractConfig) (Recognizer, error) {
	lang := cfg.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	if cfg.PageSegMode < 0 || cfg.PageSegMode > 13 {
		return nil, fmt.Errorf("invalid page segmentation mode %d (expected 0-13)", cfg.PageSegMode)
	}
	return &Tesseract{
		languages:      strings.Split(lang, "+"),
		tessdataPrefix: cfg.TessdataPrefix,
		psm:            cfg.PageSegMode,
		clientFactory:  gosseract.NewClient,
	}, nil
}

// Name returns the engine identifier.
func (t *Tesseract) Name() string { return TesseractName }

// Recognize runs OCR on img and returns one Result per text line.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// gosseract only takes encoded bytes or file paths.
	data, err := imaging.PNGBytes(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := t.clientFactory()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if t.psm != 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.psm)); err != nil {
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	lines := make([]lineBox, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, lineBox{box: b.Box, text: b.Word, confidence: b.Confidence})
	}
	return linesToResults(lines), nil
}

// TesseractVersion returns the version of the linked Tesseract library.
func TesseractVersion() (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version(), nil
}

// GetTesseractInfo reports whether Tesseract is usable in this build.
func GetTesseractInfo() TesseractInfo {
	version, err := TesseractVersion()
	if err != nil {
		return TesseractInfo{
			Available: false,
			Error:     err.Error(),
			Backend:   "gosseract",
		}
	}
	return TesseractInfo{
		Available: true,
		Version:   version,
		Backend:   "gosseract",
	}
}
