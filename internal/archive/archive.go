// Package archive packages image slices into a ZIP file.
//
// Each segment becomes one lossless PNG entry named with a zero-padded,
// 1-based ordinal (part_01.png, part_02.png, ...) so that sorting entry names
// lexically reproduces segment order. An optional manifest.json records where
// each slice came from in the source image.
package archive

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"strconv"
	"time"

	"github.com/ironsheep/image-slicer/internal/imaging"
	"github.com/ironsheep/image-slicer/internal/segment"
)

const (
	// DefaultPrefix is the entry name prefix for slices.
	DefaultPrefix = "part"

	// DefaultName is the archive file name suggested to users.
	DefaultName = "slices.zip"

	// ManifestName is the entry name of the optional manifest.
	ManifestName = "manifest.json"
)

// Options controls archive layout.
type Options struct {
	// Prefix replaces DefaultPrefix in entry names.
	Prefix string

	// Manifest adds a manifest.json entry describing every slice.
	Manifest bool

	// Progress, when set, is called after each slice is written.
	Progress func(done, total int)
}

// Entry describes one slice written to the archive.
type Entry struct {
	Name   string `json:"name"`
	Index  int    `json:"index"`
	Top    int    `json:"top"`
	Bottom int    `json:"bottom"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Manifest summarizes an archive.
type Manifest struct {
	SourceWidth  int     `json:"source_width"`
	SourceHeight int     `json:"source_height"`
	Count        int     `json:"count"`
	Entries      []Entry `json:"entries"`
}

// EntryName returns the file name for the segment at 0-based index out of
// total. The ordinal is 1-based and padded to at least two digits, or to the
// width of total when that is larger.
func EntryName(prefix string, index, total int) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	width := len(strconv.Itoa(total))
	if width < 2 {
		width = 2
	}
	return fmt.Sprintf("%s_%0*d.png", prefix, width, index+1)
}

// Write crops every segment from img, encodes it as PNG and streams the
// result as a ZIP archive to w.
//
// The whole segment list is needed up front because the entry-name padding
// depends on the total count. Write checks ctx between slices.
func Write(ctx context.Context, w io.Writer, img image.Image, segs []segment.Segment, opts Options) (*Manifest, error) {
	bounds := img.Bounds()
	manifest := &Manifest{
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		Count:        len(segs),
		Entries:      make([]Entry, 0, len(segs)),
	}

	zw := zip.NewWriter(w)
	modified := time.Now()

	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return nil, err
		}

		slice, err := imaging.CropRows(img, seg.Top, seg.Bottom)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to crop segment %d: %w", seg.Index, err)
		}

		name := EntryName(opts.Prefix, i, len(segs))
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to create entry %s: %w", name, err)
		}
		if err := imaging.EncodePNG(fw, slice); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write entry %s: %w", name, err)
		}

		manifest.Entries = append(manifest.Entries, Entry{
			Name:   name,
			Index:  seg.Index,
			Top:    seg.Top,
			Bottom: seg.Bottom,
			Width:  slice.Bounds().Dx(),
			Height: slice.Bounds().Dy(),
		})
		if opts.Progress != nil {
			opts.Progress(i+1, len(segs))
		}
	}

	if opts.Manifest {
		fw, err := zw.Create(ManifestName)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to create manifest: %w", err)
		}
		enc := json.NewEncoder(fw)
		enc.SetIndent("", "  ")
		if err := enc.Encode(manifest); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write manifest: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return manifest, nil
}
