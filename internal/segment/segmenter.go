package segment

import (
	"errors"
	"fmt"
	"image"
)

// Mode selects how cut lines are placed.
type Mode string

const (
	// ModeFixedStep cuts at exact multiples of MaxHeight-Overlap.
	ModeFixedStep Mode = "fixed-step"
	// ModeContentAware moves each cut up to the nearest background row.
	ModeContentAware Mode = "content-aware"
)

// ClassifierKind names a RowClassifier implementation.
type ClassifierKind string

const (
	ClassifierStdDev ClassifierKind = "stddev"
	ClassifierLab    ClassifierKind = "lab"
)

// Defaults mirror the sizes that work well for vision models reading chat
// screenshots.
const (
	DefaultMaxHeight = 2000
	DefaultOverlap   = 100
)

// ErrInvalidConfig is returned for configurations that could not make
// progress or name an unknown mode.
var ErrInvalidConfig = errors.New("invalid segmentation config")

// Config holds the tunable segmentation parameters.
type Config struct {
	// MaxHeight is the nominal segment height in rows.
	MaxHeight int `json:"max_height" yaml:"max_height" mapstructure:"max_height"`

	// Overlap is the number of rows shared by consecutive segments.
	// Must satisfy 0 <= Overlap < MaxHeight.
	Overlap int `json:"overlap" yaml:"overlap" mapstructure:"overlap"`

	// Mode is fixed-step or content-aware.
	Mode Mode `json:"mode" yaml:"mode" mapstructure:"mode"`

	// SearchRadius bounds how far above the naive target a content-aware cut
	// may move. A cut never lands within Overlap+1 rows of the segment top,
	// whatever the radius. Ignored in fixed-step mode.
	SearchRadius int `json:"search_radius" yaml:"search_radius" mapstructure:"search_radius"`

	// Tolerance is the background threshold handed to the classifier. Zero
	// selects the classifier's own default (DefaultTolerance for stddev,
	// DefaultLabTolerance for lab).
	Tolerance float64 `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`

	// Classifier selects the background-row test (stddev or lab).
	Classifier ClassifierKind `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
}

// DefaultConfig returns a content-aware configuration with the standard
// height, overlap and search radius.
func DefaultConfig() Config {
	return Config{
		MaxHeight:    DefaultMaxHeight,
		Overlap:      DefaultOverlap,
		Mode:         ModeContentAware,
		SearchRadius: DefaultSearchRadius,
		Classifier:   ClassifierStdDev,
	}
}

// Validate rejects configurations before any image is touched.
func (c Config) Validate() error {
	if c.MaxHeight <= 0 {
		return fmt.Errorf("%w: max_height must be positive, got %d", ErrInvalidConfig, c.MaxHeight)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.MaxHeight {
		return fmt.Errorf("%w: overlap (%d) must be smaller than max_height (%d)", ErrInvalidConfig, c.Overlap, c.MaxHeight)
	}

	switch c.Mode {
	case ModeFixedStep:
	case ModeContentAware:
		if c.SearchRadius < 0 {
			return fmt.Errorf("%w: search_radius must not be negative, got %d", ErrInvalidConfig, c.SearchRadius)
		}
		if c.Tolerance < 0 {
			return fmt.Errorf("%w: tolerance must not be negative, got %g", ErrInvalidConfig, c.Tolerance)
		}
		switch c.Classifier {
		case "", ClassifierStdDev, ClassifierLab:
		default:
			return fmt.Errorf("%w: unknown classifier %q", ErrInvalidConfig, c.Classifier)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// NewClassifier builds the RowClassifier named by kind. A zero tolerance
// selects the classifier's default.
func NewClassifier(kind ClassifierKind, tolerance float64) (RowClassifier, error) {
	switch kind {
	case "", ClassifierStdDev:
		if tolerance == 0 {
			tolerance = DefaultTolerance
		}
		return StdDevClassifier{Tolerance: tolerance}, nil
	case ClassifierLab:
		if tolerance == 0 {
			tolerance = DefaultLabTolerance
		}
		return LabClassifier{Tolerance: tolerance}, nil
	default:
		return nil, fmt.Errorf("%w: unknown classifier %q", ErrInvalidConfig, kind)
	}
}

// Segment is a horizontal band of the source image.
type Segment struct {
	// Index is the 0-based position in the sequence.
	Index int `json:"index"`

	// Top is the first row of the segment (inclusive).
	Top int `json:"top"`

	// Bottom is the row after the last row of the segment (exclusive).
	Bottom int `json:"bottom"`

	// Forced is set when content-aware mode found no background row and cut
	// at the naive target.
	Forced bool `json:"forced,omitempty"`
}

// Height returns the number of rows in the segment.
func (s Segment) Height() int {
	return s.Bottom - s.Top
}

// Bounds returns the segment as a full-width rectangle in img's coordinate
// space, suitable for cropping.
func (s Segment) Bounds(img image.Image) image.Rectangle {
	b := img.Bounds()
	return image.Rect(b.Min.X, b.Min.Y+s.Top, b.Max.X, b.Min.Y+s.Bottom)
}

// Segmenter produces segments for images under a fixed configuration.
// It holds no per-image state and is safe for concurrent use.
type Segmenter struct {
	cfg        Config
	classifier RowClassifier
}

// New validates cfg and returns a Segmenter.
func New(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Segmenter{cfg: cfg}
	if cfg.Mode == ModeContentAware {
		c, err := NewClassifier(cfg.Classifier, cfg.Tolerance)
		if err != nil {
			return nil, err
		}
		s.classifier = c
	}
	return s, nil
}

// NewWithClassifier returns a content-aware Segmenter that uses a caller
// supplied classifier instead of the one named in cfg.
func NewWithClassifier(cfg Config, classifier RowClassifier) (*Segmenter, error) {
	cfg.Mode = ModeContentAware
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is nil", ErrInvalidConfig)
	}
	return &Segmenter{cfg: cfg, classifier: classifier}, nil
}

// Config returns the configuration the Segmenter was built with.
func (s *Segmenter) Config() Config {
	return s.cfg
}

// Each generates segments for img from top to bottom, calling fn for each as
// soon as its bottom is decided. Generation stops at the first error from fn,
// which is returned unchanged.
func (s *Segmenter) Each(img image.Image, fn func(Segment) error) error {
	height := img.Bounds().Dy()
	top := 0

	for index := 0; top < height; index++ {
		target := top + s.cfg.MaxHeight

		seg := Segment{Index: index, Top: top}
		switch {
		case target >= height:
			seg.Bottom = height
		case s.cfg.Mode == ModeContentAware:
			// The cut may not move above top+Overlap+1, so the next segment
			// always starts below this one whatever the radius.
			seg.Bottom, seg.Forced = FindSplit(img, s.classifier, top+s.cfg.Overlap+1, target, s.cfg.SearchRadius)
		default:
			seg.Bottom = target
		}

		if err := fn(seg); err != nil {
			return err
		}
		if seg.Bottom == height {
			return nil
		}
		top = seg.Bottom - s.cfg.Overlap
	}
	return nil
}

// Segments returns every segment of img in order.
func (s *Segmenter) Segments(img image.Image) []Segment {
	segs := make([]Segment, 0, s.Count(img.Bounds().Dy()))
	_ = s.Each(img, func(seg Segment) error {
		segs = append(segs, seg)
		return nil
	})
	return segs
}

// Count returns the number of segments fixed-step mode produces for an image
// of the given height. It is exact in fixed-step mode and a lower bound in
// content-aware mode, where cuts can move up and add a segment; use Plan for
// an exact content-aware count.
func (s *Segmenter) Count(height int) int {
	if height <= 0 {
		return 0
	}
	if height <= s.cfg.MaxHeight {
		return 1
	}
	step := s.cfg.MaxHeight - s.cfg.Overlap
	return (height - s.cfg.Overlap + step - 1) / step
}

// Plan describes how an image will be cut.
type Plan struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Mode     Mode      `json:"mode"`
	Count    int       `json:"count"`
	Forced   int       `json:"forced_cuts"`
	Segments []Segment `json:"segments"`
}

// Plan computes every segment of img up front.
func (s *Segmenter) Plan(img image.Image) *Plan {
	b := img.Bounds()
	segs := s.Segments(img)

	forced := 0
	for _, seg := range segs {
		if seg.Forced {
			forced++
		}
	}

	return &Plan{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Mode:     s.cfg.Mode,
		Count:    len(segs),
		Forced:   forced,
		Segments: segs,
	}
}
