//go:build !cgo

package ocr

import "fmt"

// NewTesseract reports that Tesseract needs a cgo-enabled build.
func NewTesseract(cfg TesseractConfig) (Recognizer, error) {
	return nil, fmt.Errorf("%w: tesseract requires a cgo-enabled build", ErrEngineUnavailable)
}

// TesseractVersion reports that Tesseract needs a cgo-enabled build.
func TesseractVersion() (string, error) {
	return "", fmt.Errorf("%w: tesseract requires a cgo-enabled build", ErrEngineUnavailable)
}

// GetTesseractInfo reports Tesseract as unavailable.
func GetTesseractInfo() TesseractInfo {
	return TesseractInfo{
		Available: false,
		Error:     "built without cgo",
		Backend:   "none",
	}
}
