package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-slicer/internal/ocr"
	"github.com/ironsheep/image-slicer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as an MCP server over stdio",
	Long: `Run the MCP (Model Context Protocol) server. Requests are read from
stdin and responses written to stdout, one JSON-RPC message per line; logs
go to stderr.

Tools: image_info, slice_plan, slice_archive, extract_text.

Configure it in your MCP client, for example:
  {"command": "image-slicer", "args": ["serve", "--engine", "tesseract"]}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("starting MCP server", "version", Version, "commit", GitCommit, "engine", cfg.OCR.Engine)

		srv := server.New(cfg, ocr.NewProvider(cfg.EngineConfig()), logger, Version)
		return srv.Run(cmd.Context())
	},
}
