package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultMaxPixels bounds the decoded size of an image (200 megapixels,
// roughly 800 MB as RGBA).
const DefaultMaxPixels = 200_000_000

var (
	// ErrUnsupportedFormat is returned when no registered decoder recognizes
	// the image bytes.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrDecode is returned when the header is recognized but the pixel data
	// is corrupt or truncated.
	ErrDecode = errors.New("failed to decode image")

	// ErrImageTooLarge is returned when the declared dimensions exceed the
	// configured pixel limit.
	ErrImageTooLarge = errors.New("image too large")
)

// ImageInfo contains metadata about a decoded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder name: "png", "jpeg", "gif", "bmp" or "webp".
	// Detection is based on file contents, not the file name.
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the encoded input in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// Decode decodes an encoded image held in memory.
//
// The header is inspected with image.DecodeConfig first so that oversized
// images are rejected before any pixel buffer is allocated. A maxPixels of 0
// selects DefaultMaxPixels; a negative value disables the check.
//
// Returns:
//   - image.Image: the decoded image. The caller must treat it as read-only.
//   - *ImageInfo: dimensions, format and color depth.
//   - error: wraps ErrUnsupportedFormat, ErrImageTooLarge or ErrDecode.
func Decode(data []byte, maxPixels int) (image.Image, *ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if maxPixels == 0 {
		maxPixels = DefaultMaxPixels
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, nil, fmt.Errorf("%w: %dx%d exceeds the %d pixel limit; reduce the image size or split it manually",
			ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	info := describe(img, format)
	info.SizeBytes = int64(len(data))
	return img, info, nil
}

// DecodeReader reads r to the end and decodes it with Decode.
func DecodeReader(r io.Reader, maxPixels int) (image.Image, *ImageInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Decode(data, maxPixels)
}

// LoadFile reads and decodes the image at path.
//
// The image is not cached: every call reads the file again, so nothing
// outlives the request that loaded it.
func LoadFile(path string, maxPixels int) (image.Image, *ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	return Decode(data, maxPixels)
}

// describe fills ImageInfo from the decoded image type.
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func describe(img image.Image, format string) *ImageInfo {
	bounds := img.Bounds()

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		ColorDepth: colorDepth,
		HasAlpha:   hasAlpha,
	}
}
