// Package server implements the MCP (Model Context Protocol) server for the
// image slicer.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_info: dimensions, format and the slice count under current settings
//   - slice_plan: where each cut would fall, without writing anything
//   - slice_archive: write the slices as PNG files into a ZIP archive
//   - extract_text: recognize every slice and return the joined text
//
// The slice tools accept per-call overrides (max_height, overlap, mode,
// search_radius, tolerance, classifier); anything omitted comes from the
// server configuration.
//
// # Progress
//
// When a tools/call request carries _meta.progressToken, slice_archive and
// extract_text send one notifications/progress message per finished slice
// before the final response.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments (missing path, invalid slice settings,
//     unknown engine), -32000 for execution failures
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg, ocr.NewProvider(cfg.EngineConfig()), logger, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
