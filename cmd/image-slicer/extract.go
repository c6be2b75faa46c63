package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-slicer/internal/imaging"
	"github.com/ironsheep/image-slicer/internal/ocr"
	"github.com/ironsheep/image-slicer/internal/recognize"
)

var (
	extractOutput  string
	extractMarkers bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Read the text of an image slice by slice",
	Long: `Cut an image into slices, recognize each slice and print the joined text
in top-to-bottom order.

Slices overlap, so a line near a cut may appear twice. Use
--segment-markers to see which slice each block of text came from.

Examples:
  image-slicer extract chat.png
  image-slicer extract chat.png --engine vision --workers 4
  image-slicer extract chat.png --lang eng+deu --scale 2 -o chat.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		seg, err := newSegmenter()
		if err != nil {
			return err
		}
		rec, err := ocr.New(cfg.EngineConfig())
		if err != nil {
			return err
		}

		opts := cfg.RecognizeOptions()
		opts.Logger = logger
		opts.Progress = func(p recognize.Progress) {
			logger.Info("segment recognized", "current", p.Current, "total", p.Total,
				"top", p.Segment.Top, "bottom", p.Segment.Bottom)
		}
		ex, err := recognize.New(seg, rec, opts)
		if err != nil {
			return err
		}

		img, _, err := imaging.LoadFile(args[0], cfg.Limits.MaxPixels)
		if err != nil {
			return err
		}

		out, err := ex.Extract(ctx, img)
		if err != nil {
			return err
		}
		if out.Empty {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: no text recognized; try a lower --confidence-floor or another --engine")
		}

		text := out.Render(extractMarkers)
		if extractOutput != "" {
			if err := os.WriteFile(extractOutput, []byte(text+"\n"), 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			logger.Info("text written", "output", extractOutput, "kept", out.Kept, "dropped", out.Dropped)
			return nil
		}

		if text != "" {
			fmt.Fprintln(cmd.OutOrStdout(), text)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "write the text to this file instead of stdout")
	extractCmd.Flags().BoolVar(&extractMarkers, "segment-markers", false, "prefix each slice's text with a segment header")
}
