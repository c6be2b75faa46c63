package ocr

import (
	"image"
	"sort"
)

const (
	// TesseractName is the registry name of the Tesseract engine.
	TesseractName = "tesseract"

	// DefaultLanguage is the Tesseract language used when none is configured.
	DefaultLanguage = "eng"
)

// TesseractConfig configures the Tesseract engine.
type TesseractConfig struct {
	// Language is one or more Tesseract language codes joined with '+'
	// (e.g. "eng", "eng+deu").
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// PageSegMode is Tesseract's --psm value. Zero keeps the library default.
	PageSegMode int
}

// TesseractInfo describes the local Tesseract installation.
type TesseractInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
	Backend   string `json:"backend"`
}

// lineBox is a recognized text line with its position in the image.
type lineBox struct {
	box        image.Rectangle
	text       string
	confidence float64
}

// linesToResults sorts lines into reading order and converts Tesseract's
// 0-100 confidence scale into Results.
func linesToResults(lines []lineBox) []Result {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].box.Min.Y != lines[j].box.Min.Y {
			return lines[i].box.Min.Y < lines[j].box.Min.Y
		}
		return lines[i].box.Min.X < lines[j].box.Min.X
	})

	results := make([]Result, 0, len(lines))
	for _, l := range lines {
		results = append(results, Result{
			Text:       l.text,
			Confidence: l.confidence / 100.0,
		})
	}
	return Normalize(results)
}
