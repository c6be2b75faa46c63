package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"testing"

	"github.com/ironsheep/image-slicer/internal/segment"
)

// createGradientImage creates an image whose row y has gray value y%256, so
// the first row of each slice identifies where it was cut.
func createGradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		v := uint8(y % 256)
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to open zip: %v", err)
	}

	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		files[f.Name] = b
	}
	return files
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		prefix       string
		index, total int
		want         string
	}{
		{"", 0, 1, "part_01.png"},
		{"", 0, 3, "part_01.png"},
		{"", 8, 9, "part_09.png"},
		{"", 9, 12, "part_10.png"},
		{"", 0, 100, "part_001.png"},
		{"", 99, 100, "part_100.png"},
		{"slice", 4, 5, "slice_05.png"},
	}

	for _, tt := range tests {
		if got := EntryName(tt.prefix, tt.index, tt.total); got != tt.want {
			t.Errorf("EntryName(%q, %d, %d): got %s, want %s", tt.prefix, tt.index, tt.total, got, tt.want)
		}
	}
}

func TestEntryName_LexicalOrder(t *testing.T) {
	for _, total := range []int{9, 10, 99, 100, 250} {
		names := make([]string, total)
		for i := range names {
			names[i] = EntryName("", i, total)
		}
		sorted := append([]string(nil), names...)
		sort.Strings(sorted)
		for i := range names {
			if names[i] != sorted[i] {
				t.Fatalf("total %d: lexical order differs at %d: %s vs %s", total, i, names[i], sorted[i])
			}
		}
	}
}

func TestWrite(t *testing.T) {
	img := createGradientImage(12, 1000)
	segs := []segment.Segment{
		{Index: 0, Top: 0, Bottom: 400},
		{Index: 1, Top: 350, Bottom: 750},
		{Index: 2, Top: 700, Bottom: 1000},
	}

	var buf bytes.Buffer
	var progress []int
	manifest, err := Write(context.Background(), &buf, img, segs, Options{
		Manifest: true,
		Progress: func(done, total int) {
			if total != 3 {
				t.Errorf("progress total: got %d, want 3", total)
			}
			progress = append(progress, done)
		},
	})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if manifest.Count != 3 || len(manifest.Entries) != 3 {
		t.Fatalf("manifest count: got %d/%d, want 3", manifest.Count, len(manifest.Entries))
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("progress calls: got %v, want [1 2 3]", progress)
	}

	files := readArchive(t, buf.Bytes())
	if len(files) != 4 {
		t.Fatalf("archive entries: got %d, want 4 (3 slices + manifest)", len(files))
	}

	for i, seg := range segs {
		name := EntryName("", i, len(segs))
		data, ok := files[name]
		if !ok {
			t.Fatalf("missing entry %s", name)
		}
		slice, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s is not a PNG: %v", name, err)
		}
		if slice.Bounds().Dx() != 12 || slice.Bounds().Dy() != seg.Height() {
			t.Errorf("%s size: got %v, want 12x%d", name, slice.Bounds(), seg.Height())
		}
		r, _, _, _ := slice.At(0, 0).RGBA()
		if want := uint32(seg.Top % 256); r>>8 != want {
			t.Errorf("%s first row value: got %d, want %d", name, r>>8, want)
		}
	}

	var decoded Manifest
	if err := json.Unmarshal(files[ManifestName], &decoded); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if decoded.SourceHeight != 1000 || decoded.Entries[1].Top != 350 {
		t.Errorf("manifest content: got %+v", decoded)
	}
}

func TestWrite_NoManifestByDefault(t *testing.T) {
	img := createGradientImage(4, 100)
	segs := []segment.Segment{{Index: 0, Top: 0, Bottom: 100}}

	var buf bytes.Buffer
	if _, err := Write(context.Background(), &buf, img, segs, Options{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	files := readArchive(t, buf.Bytes())
	if _, ok := files[ManifestName]; ok {
		t.Error("manifest should not be written unless requested")
	}
	if _, ok := files["part_01.png"]; !ok {
		t.Error("missing part_01.png")
	}
}

func TestWrite_WithSegmenter(t *testing.T) {
	img := createGradientImage(3, 10000)
	cfg := segment.DefaultConfig()
	cfg.Mode = segment.ModeFixedStep
	cfg.MaxHeight = 4000
	cfg.Overlap = 200
	s, err := segment.New(cfg)
	if err != nil {
		t.Fatalf("segment.New failed: %v", err)
	}

	var buf bytes.Buffer
	manifest, err := Write(context.Background(), &buf, img, s.Segments(img), Options{})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := []string{"part_01.png", "part_02.png", "part_03.png"}
	for i, e := range manifest.Entries {
		if e.Name != want[i] {
			t.Errorf("entry %d: got %s, want %s", i, e.Name, want[i])
		}
	}
}

func TestWrite_InvalidSegment(t *testing.T) {
	img := createGradientImage(4, 100)
	segs := []segment.Segment{{Index: 0, Top: 50, Bottom: 200}}

	var buf bytes.Buffer
	if _, err := Write(context.Background(), &buf, img, segs, Options{}); err == nil {
		t.Error("Write should fail for a segment outside the image")
	}
}

func TestWrite_Cancelled(t *testing.T) {
	img := createGradientImage(4, 100)
	segs := []segment.Segment{{Index: 0, Top: 0, Bottom: 100}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if _, err := Write(ctx, &buf, img, segs, Options{}); err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
