package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-slicer/internal/archive"
	"github.com/ironsheep/image-slicer/internal/imaging"
)

var (
	sliceOutput   string
	slicePrefix   string
	sliceManifest bool
)

var sliceCmd = &cobra.Command{
	Use:   "slice <image>",
	Short: "Cut an image into slices and write them to a ZIP archive",
	Long: `Cut an image into overlapping slices and write each slice as a PNG file
into a ZIP archive. Entries are named so that they sort in slice order
(part_01.png, part_02.png, ...).

Examples:
  image-slicer slice chat.png
  image-slicer slice chat.png -o chat-slices.zip --manifest
  image-slicer slice chat.png --mode fixed-step --max-height 1500 --overlap 150`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		seg, err := newSegmenter()
		if err != nil {
			return err
		}
		img, info, err := imaging.LoadFile(args[0], cfg.Limits.MaxPixels)
		if err != nil {
			return err
		}

		output := sliceOutput
		if output == "" {
			output = filepath.Join(filepath.Dir(args[0]), archive.DefaultName)
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create archive: %w", err)
		}

		logger.Info("slicing image", "path", args[0], "width", info.Width, "height", info.Height, "output", output)
		manifest, err := archive.Write(ctx, f, img, seg.Segments(img), archive.Options{
			Prefix:   slicePrefix,
			Manifest: sliceManifest,
			Progress: func(done, total int) {
				logger.Debug("slice written", "done", done, "total", total)
			},
		})
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
		if err != nil {
			os.Remove(output)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d slices to %s\n", manifest.Count, output)
		return nil
	},
}

func init() {
	sliceCmd.Flags().StringVarP(&sliceOutput, "output", "o", "", "archive path (default: slices.zip next to the image)")
	sliceCmd.Flags().StringVar(&slicePrefix, "prefix", archive.DefaultPrefix, "entry name prefix")
	sliceCmd.Flags().BoolVar(&sliceManifest, "manifest", false, "add manifest.json describing each slice")
}
