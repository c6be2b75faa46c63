package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// CropRows extracts the full-width band [top, bottom) of img.
//
// Rows are 0-based relative to the image bounds. The result is a new
// *image.NRGBA whose origin is (0,0); img is not modified.
func CropRows(img image.Image, top, bottom int) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if top < 0 || bottom > bounds.Dy() {
		return nil, fmt.Errorf("rows [%d,%d) outside image height %d", top, bottom, bounds.Dy())
	}
	if top >= bottom {
		return nil, fmt.Errorf("invalid row range: top must be < bottom, got [%d,%d)", top, bottom)
	}

	rect := image.Rect(bounds.Min.X, bounds.Min.Y+top, bounds.Max.X, bounds.Min.Y+bottom)
	return imaging.Crop(img, rect), nil
}

// EncodePNG writes img as PNG, which keeps slices lossless regardless of the
// source format.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// PNGBytes encodes img as PNG and returns the bytes.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PNGDataURL encodes img as a base64 PNG data URL for APIs that accept
// inline images.
func PNGDataURL(img image.Image) (string, error) {
	data, err := PNGBytes(img)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
