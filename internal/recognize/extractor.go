// Package recognize runs a recognition engine over every segment of a tall
// image and assembles the recognized text in segment order.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-slicer/internal/imaging"
	"github.com/ironsheep/image-slicer/internal/ocr"
	"github.com/ironsheep/image-slicer/internal/segment"
)

// DefaultConfidenceFloor is the minimum confidence a result needs to be kept.
const DefaultConfidenceFloor = 0.5

// SegmentError reports which segment a recognition failure came from.
type SegmentError struct {
	Index int
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d: %v", e.Index, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// Progress is reported after each segment finishes.
type Progress struct {
	Current int
	Total   int
	Segment segment.Segment
}

// Options tunes an Extractor. Zero values select defaults.
type Options struct {
	// ConfidenceFloor drops results with Confidence below it.
	// Nil means DefaultConfidenceFloor.
	ConfidenceFloor *float64

	// Workers is the number of segments recognized concurrently.
	Workers int

	// Progress is called once per finished segment. With Workers > 1 calls
	// are serialized but may arrive out of segment order.
	Progress func(Progress)

	// Preprocess is applied to each segment before recognition.
	Preprocess imaging.PrepareOptions

	Logger *slog.Logger
}

// Floor returns a pointer to f, for Options.ConfidenceFloor.
func Floor(f float64) *float64 { return &f }

// SegmentText is the recognized text of one segment.
type SegmentText struct {
	Segment segment.Segment `json:"segment"`
	Text    string          `json:"text"`
	Kept    int             `json:"kept"`
	Dropped int             `json:"dropped"`
}

// Output is the result of an extraction.
type Output struct {
	// Text is every segment's text joined with "\n", in segment order.
	Text     string        `json:"text"`
	Segments []SegmentText `json:"segments"`
	Kept     int           `json:"kept"`
	Dropped  int           `json:"dropped"`

	// Empty is set when no result survived filtering. This is not an error.
	Empty bool `json:"empty"`
}

// Extractor slices an image and runs a Recognizer over each slice.
type Extractor struct {
	seg     *segment.Segmenter
	rec     ocr.Recognizer
	floor   float64
	workers int
	onProg  func(Progress)
	prep    imaging.PrepareOptions
	logger  *slog.Logger
}

// New creates an Extractor.
func New(seg *segment.Segmenter, rec ocr.Recognizer, opts Options) (*Extractor, error) {
	if seg == nil {
		return nil, errors.New("segmenter is required")
	}
	if rec == nil {
		return nil, errors.New("recognizer is required")
	}

	floor := DefaultConfidenceFloor
	if opts.ConfidenceFloor != nil {
		floor = *opts.ConfidenceFloor
	}
	if floor > 1 {
		return nil, fmt.Errorf("confidence floor %.2f is above 1", floor)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		seg:     seg,
		rec:     rec,
		floor:   floor,
		workers: workers,
		onProg:  opts.Progress,
		prep:    opts.Preprocess,
		logger:  logger,
	}, nil
}

// Extract recognizes the text of img.
//
// Any recognizer failure aborts the extraction with a *SegmentError and no
// partial text is returned.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (*Output, error) {
	segs := e.seg.Segments(img)
	total := len(segs)
	slots := make([]SegmentText, total)
	start := time.Now()

	e.logger.Info("extracting text",
		"engine", e.rec.Name(),
		"segments", total,
		"workers", e.workers,
		"confidence_floor", e.floor)

	report := e.progressReporter(total)

	if e.workers == 1 || total <= 1 {
		for i, s := range segs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			st, err := e.recognizeSegment(ctx, img, s)
			if err != nil {
				return nil, err
			}
			slots[i] = st
			report(s)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for i, s := range segs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				st, err := e.recognizeSegment(gctx, img, s)
				if err != nil {
					return err
				}
				slots[i] = st
				report(s)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, preferSegmentError(ctx, err)
		}
	}

	out := assemble(slots)
	if out.Empty {
		e.logger.Warn("no text recognized", "segments", total, "dropped", out.Dropped)
	}
	e.logger.Info("extraction complete",
		"segments", total,
		"kept", out.Kept,
		"dropped", out.Dropped,
		"duration", time.Since(start).Round(time.Millisecond))
	return out, nil
}

func (e *Extractor) recognizeSegment(ctx context.Context, img image.Image, s segment.Segment) (SegmentText, error) {
	region, err := imaging.CropRows(img, s.Top, s.Bottom)
	if err != nil {
		return SegmentText{}, &SegmentError{Index: s.Index, Err: err}
	}
	prepared := imaging.PrepareForOCR(region, e.prep)

	results, err := e.rec.Recognize(ctx, prepared)
	if err != nil {
		if ctx.Err() != nil {
			return SegmentText{}, ctx.Err()
		}
		return SegmentText{}, &SegmentError{Index: s.Index, Err: err}
	}

	st := SegmentText{Segment: s}
	texts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Confidence < e.floor {
			st.Dropped++
			continue
		}
		texts = append(texts, r.Text)
	}
	st.Kept = len(texts)
	st.Text = strings.Join(texts, "\n")

	e.logger.Debug("segment recognized",
		"index", s.Index,
		"top", s.Top,
		"bottom", s.Bottom,
		"forced", s.Forced,
		"kept", st.Kept,
		"dropped", st.Dropped)
	return st, nil
}

// progressReporter returns a func that counts finished segments and forwards
// them to the Progress callback, serialized.
func (e *Extractor) progressReporter(total int) func(segment.Segment) {
	if e.onProg == nil {
		return func(segment.Segment) {}
	}
	var (
		mu   sync.Mutex
		done int
	)
	return func(s segment.Segment) {
		mu.Lock()
		defer mu.Unlock()
		done++
		e.onProg(Progress{Current: done, Total: total, Segment: s})
	}
}

// assemble joins segment texts in index order. Segments that kept nothing
// contribute no block.
func assemble(slots []SegmentText) *Output {
	out := &Output{Segments: slots}
	blocks := make([]string, 0, len(slots))
	for _, st := range slots {
		out.Kept += st.Kept
		out.Dropped += st.Dropped
		if st.Kept > 0 {
			blocks = append(blocks, st.Text)
		}
	}
	out.Text = strings.Join(blocks, "\n")
	out.Empty = out.Kept == 0
	return out
}

// preferSegmentError returns the engine failure that stopped the group, or
// the caller's cancellation when no engine failed.
func preferSegmentError(ctx context.Context, err error) error {
	var segErr *SegmentError
	if errors.As(err, &segErr) {
		return segErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
