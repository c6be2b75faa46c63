package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-slicer/internal/ocr"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{skipConfig: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "image-slicer %s\n", Version)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		fmt.Fprintf(out, "  Go:         %s\n", runtime.Version())
		fmt.Fprintf(out, "  Engines:    %s\n", strings.Join(ocr.Engines(), ", "))

		info := ocr.GetTesseractInfo()
		if info.Available {
			fmt.Fprintf(out, "  Tesseract:  %s (%s)\n", info.Version, info.Backend)
		} else {
			fmt.Fprintf(out, "  Tesseract:  unavailable (%s)\n", info.Error)
		}
	},
}
