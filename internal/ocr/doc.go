// Package ocr provides the text recognition engines used on image slices.
//
// Every engine implements Recognizer: it takes one image (a slice of the
// source) and returns text lines with a confidence score in [0, 1], in
// reading order. Engines are selected by name through a small registry:
//
//   - "tesseract": local OCR via gosseract/v2. Requires a cgo build and the
//     Tesseract library with language data installed.
//   - "vision": an OpenAI-compatible multimodal chat model. Each line of the
//     model's transcription becomes a Result with confidence 1.0.
//   - "mock": canned responses, for tests and dry runs.
//
// # Prerequisites
//
// Tesseract must be installed on the system for the default engine:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Lifecycle
//
// Provider builds the configured engine once per process on first use and
// returns the same instance afterwards. Engines are safe for concurrent use;
// Tesseract opens a fresh client for every call.
//
// # Errors
//
// ErrUnknownEngine is returned for names missing from the registry, and
// ErrEngineUnavailable when an engine cannot run here (no cgo, no API key).
// Recognition failures are returned as-is with context attached.
package ocr
