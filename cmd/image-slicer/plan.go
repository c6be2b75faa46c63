package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-slicer/internal/imaging"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan <image>",
	Short: "Show where an image would be cut",
	Long: `Compute the slices of an image without writing anything.

Each line shows the slice number, its row range [top,bottom) and height.
Content-aware cuts that found no blank row within the search radius are
marked "forced".

Examples:
  image-slicer plan chat.png
  image-slicer plan chat.png --mode fixed-step --max-height 4000
  image-slicer plan chat.png --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seg, err := newSegmenter()
		if err != nil {
			return err
		}
		img, _, err := imaging.LoadFile(args[0], cfg.Limits.MaxPixels)
		if err != nil {
			return err
		}

		plan := seg.Plan(img)
		out := cmd.OutOrStdout()
		if planJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}

		fmt.Fprintf(out, "%s: %dx%d, %s, %d slices\n", args[0], plan.Width, plan.Height, plan.Mode, plan.Count)
		for _, s := range plan.Segments {
			line := fmt.Sprintf("  %d/%d  [%d,%d)  %d rows", s.Index+1, plan.Count, s.Top, s.Bottom, s.Height())
			if s.Forced {
				line += "  forced"
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "print the plan as JSON")
}
