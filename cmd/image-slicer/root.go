package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-slicer/internal/config"
	"github.com/ironsheep/image-slicer/internal/imaging"
	"github.com/ironsheep/image-slicer/internal/ocr"
	"github.com/ironsheep/image-slicer/internal/recognize"
	"github.com/ironsheep/image-slicer/internal/segment"
)

// skipConfig marks commands that must work without a valid configuration.
const skipConfig = "skip-config"

var (
	cfgFile string

	// Populated by PersistentPreRunE for every command that needs them.
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "image-slicer",
	Short: "Cut tall images into overlapping slices and read the text in them",
	Long: `image-slicer cuts very tall images (long chat screenshots, scrolled web
pages) into overlapping horizontal slices that OCR engines and vision models
can handle, and can read the text of every slice back in order.

Cuts are placed either at fixed intervals (fixed-step) or moved up to the
nearest blank row so that no line of text is split (content-aware).

Settings come from, in increasing precedence: built-in defaults,
image-slicer.yaml, SLICER_* environment variables and flags.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}

		c, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		l, err := newLogger(c.Log, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		cfg = c
		logger = l.With("run_id", uuid.NewString())
		logger.Debug("configuration loaded",
			"mode", cfg.Slice.Mode,
			"max_height", cfg.Slice.MaxHeight,
			"overlap", cfg.Slice.Overlap,
			"engine", cfg.OCR.Engine,
		)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./image-slicer.yaml or ~/.image-slicer/image-slicer.yaml)")

	// Slicing
	pf.Int("max-height", segment.DefaultMaxHeight, "nominal slice height in pixels")
	pf.Int("overlap", segment.DefaultOverlap, "rows shared by consecutive slices")
	pf.String("mode", string(segment.ModeContentAware), "cut placement: fixed-step or content-aware")
	pf.Int("search-radius", segment.DefaultSearchRadius, "rows above each nominal cut searched for a blank row")
	pf.Float64("tolerance", 0, fmt.Sprintf("background threshold for the row classifier (0 = %g for stddev, %g ΔE for lab)",
		segment.DefaultTolerance, segment.DefaultLabTolerance))
	pf.String("classifier", string(segment.ClassifierStdDev), "blank row detection: stddev or lab")

	// Recognition
	pf.String("engine", ocr.TesseractName, "recognition engine: tesseract, vision or mock")
	pf.String("lang", ocr.DefaultLanguage, "tesseract language code(s), e.g. eng+deu")
	pf.Float64("confidence-floor", recognize.DefaultConfidenceFloor, "drop recognized lines below this confidence (0-1)")
	pf.Int("workers", 1, "slices recognized concurrently")
	pf.String("tessdata-prefix", "", "directory containing tessdata")
	pf.Int("psm", 0, "tesseract page segmentation mode (0 = library default)")
	pf.Bool("grayscale", false, "convert slices to grayscale before recognition")
	pf.Float64("contrast", 0, "contrast adjustment before recognition (-1 to 1)")
	pf.Float64("scale", 0, "upscale factor before recognition (values <= 1 disable)")
	pf.String("vision-base-url", "", "OpenAI-compatible API base URL for the vision engine")
	pf.String("vision-model", "", "model used by the vision engine")

	// Limits and logging
	pf.Int("max-pixels", imaging.DefaultMaxPixels, "reject images with more pixels (negative disables)")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger. Logs always go to w (stderr), since
// stdout carries command output or the MCP protocol.
func newLogger(lc config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(lc.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
}

// newSegmenter builds the segmenter from the loaded configuration.
func newSegmenter() (*segment.Segmenter, error) {
	return segment.New(cfg.Slice)
}
