package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createSolidImage creates an in-memory image filled with one color.
func createSolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createBandedImage creates an image whose rows cycle through red, green and
// blue bands of bandHeight rows each.
func createBandedImage(width, height, bandHeight int) *image.RGBA {
	bands := []color.RGBA{
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		c := bands[(y/bandHeight)%len(bands)]
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// encodeTestPNG encodes img as PNG bytes.
func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// createTestImage writes img as PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, img image.Image, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, encodeTestPNG(t, img), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func TestDecode_PNG(t *testing.T) {
	data := encodeTestPNG(t, createSolidImage(30, 70, color.White))

	img, info, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 70 {
		t.Errorf("dimensions: got %v, want 30x70", img.Bounds())
	}
	if info.Width != 30 || info.Height != 70 {
		t.Errorf("info dimensions: got %dx%d, want 30x70", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.SizeBytes != int64(len(data)) {
		t.Errorf("SizeBytes: got %d, want %d", info.SizeBytes, len(data))
	}
	if info.ColorDepth != "8-bit" {
		t.Errorf("ColorDepth: got %s, want 8-bit", info.ColorDepth)
	}
}

func TestDecode_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createSolidImage(16, 48, color.Gray{Y: 200}), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}

	_, info, err := Decode(buf.Bytes(), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("Format: got %s, want jpeg", info.Format)
	}
	if info.HasAlpha {
		t.Error("JPEG should not report alpha")
	}
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, _, err := Decode([]byte("this is not an image"), 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	data := encodeTestPNG(t, createBandedImage(50, 50, 5))
	truncated := data[:len(data)/2]

	_, _, err := Decode(truncated, 0)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("got %v, want ErrDecode", err)
	}
}

func TestDecode_TooLarge(t *testing.T) {
	data := encodeTestPNG(t, createSolidImage(100, 100, color.White))

	_, _, err := Decode(data, 9_999)
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("got %v, want ErrImageTooLarge", err)
	}
	if !strings.Contains(err.Error(), "split it manually") {
		t.Errorf("error should advise the user: %v", err)
	}

	if _, _, err := Decode(data, 10_000); err != nil {
		t.Errorf("image at the limit should decode: %v", err)
	}
	if _, _, err := Decode(data, -1); err != nil {
		t.Errorf("negative limit disables the check: %v", err)
	}
}

func TestDecodeReader(t *testing.T) {
	data := encodeTestPNG(t, createSolidImage(8, 9, color.Black))

	img, _, err := DecodeReader(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("DecodeReader failed: %v", err)
	}
	if img.Bounds().Dy() != 9 {
		t.Errorf("height: got %d, want 9", img.Bounds().Dy())
	}
}

func TestLoadFile(t *testing.T) {
	path := createTestImage(t, createSolidImage(12, 34, color.White), "tall.png")

	img, info, err := LoadFile(path, 0)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if img.Bounds().Dx() != 12 || info.Height != 34 {
		t.Errorf("got %v / %dx%d, want 12x34", img.Bounds(), info.Width, info.Height)
	}
}

func TestLoadFile_FormatFromContents(t *testing.T) {
	// PNG bytes behind a .jpg name are still PNG.
	path := createTestImage(t, createSolidImage(5, 5, color.White), "misnamed.jpg")

	_, info, err := LoadFile(path, 0)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
}

func TestLoadFile_NonExistent(t *testing.T) {
	_, _, err := LoadFile("/nonexistent/path/image.png", 0)
	if err == nil {
		t.Error("LoadFile should fail for non-existent file")
	}
}

func TestDescribe_ColorDepth(t *testing.T) {
	tests := []struct {
		name      string
		img       image.Image
		wantDepth string
		wantAlpha bool
	}{
		{"rgba", image.NewRGBA(image.Rect(0, 0, 1, 1)), "8-bit", true},
		{"nrgba", image.NewNRGBA(image.Rect(0, 0, 1, 1)), "8-bit", true},
		{"rgba64", image.NewRGBA64(image.Rect(0, 0, 1, 1)), "16-bit", true},
		{"gray16", image.NewGray16(image.Rect(0, 0, 1, 1)), "16-bit", false},
		{"gray", image.NewGray(image.Rect(0, 0, 1, 1)), "8-bit", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := describe(tt.img, "png")
			if info.ColorDepth != tt.wantDepth {
				t.Errorf("ColorDepth: got %s, want %s", info.ColorDepth, tt.wantDepth)
			}
			if info.HasAlpha != tt.wantAlpha {
				t.Errorf("HasAlpha: got %v, want %v", info.HasAlpha, tt.wantAlpha)
			}
		})
	}
}
