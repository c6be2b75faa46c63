package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ironsheep/image-slicer/internal/archive"
	"github.com/ironsheep/image-slicer/internal/imaging"
	"github.com/ironsheep/image-slicer/internal/ocr"
	"github.com/ironsheep/image-slicer/internal/recognize"
	"github.com/ironsheep/image-slicer/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "slice_plan", "extract_text").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token.
	Meta *RequestMeta `json:"_meta,omitempty"`
}

// RequestMeta is the _meta object of a tools/call request.
type RequestMeta struct {
	ProgressToken interface{} `json:"progressToken,omitempty"`
}

// progressFunc reports progress for the current tool call.
type progressFunc func(done, total int, message string)

// invalidParamsError marks errors caused by the caller's arguments.
type invalidParamsError struct {
	err error
}

func (e *invalidParamsError) Error() string { return e.err.Error() }
func (e *invalidParamsError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &invalidParamsError{err: fmt.Errorf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return a JSON-RPC error response with code -32602, and
// tool execution errors with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	s.logger.Info("tool call", "tool", params.Name)
	result, err := s.executeTool(ctx, params.Name, params.Arguments, s.progressFor(params.Meta))
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		var ipe *invalidParamsError
		if errors.As(err, &ipe) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// progressFor returns a progressFunc that emits notifications/progress when
// the caller supplied a progress token, and a no-op otherwise.
func (s *Server) progressFor(meta *RequestMeta) progressFunc {
	if meta == nil || meta.ProgressToken == nil {
		return func(int, int, string) {}
	}
	token := meta.ProgressToken
	return func(done, total int, message string) {
		s.notify("notifications/progress", map[string]interface{}{
			"progressToken": token,
			"progress":      done,
			"total":         total,
			"message":       message,
		})
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage, progress progressFunc) (interface{}, error) {
	switch name {
	case "image_info":
		return s.handleImageInfo(args)
	case "slice_plan":
		return s.handleSlicePlan(args)
	case "slice_archive":
		return s.handleSliceArchive(ctx, args, progress)
	case "extract_text":
		return s.handleExtractText(ctx, args, progress)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return invalidParams("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return invalidParams("invalid arguments: %v", err)
	}
	return nil
}

// loadImage decodes the image at path under the configured pixel limit.
func (s *Server) loadImage(path string) (image.Image, *imaging.ImageInfo, error) {
	if path == "" {
		return nil, nil, invalidParams("path is required")
	}
	return imaging.LoadFile(path, s.cfg.Limits.MaxPixels)
}

// === Segmentation ===

type sliceArgs struct {
	Path         string   `json:"path"`
	MaxHeight    *int     `json:"max_height"`
	Overlap      *int     `json:"overlap"`
	Mode         *string  `json:"mode"`
	SearchRadius *int     `json:"search_radius"`
	Tolerance    *float64 `json:"tolerance"`
	Classifier   *string  `json:"classifier"`
}

// segmentConfig applies the call's overrides to base.
func (a *sliceArgs) segmentConfig(base segment.Config) segment.Config {
	cfg := base
	if a.MaxHeight != nil {
		cfg.MaxHeight = *a.MaxHeight
	}
	if a.Overlap != nil {
		cfg.Overlap = *a.Overlap
	}
	if a.Mode != nil {
		cfg.Mode = segment.Mode(*a.Mode)
	}
	if a.SearchRadius != nil {
		cfg.SearchRadius = *a.SearchRadius
	}
	if a.Tolerance != nil {
		cfg.Tolerance = *a.Tolerance
	}
	if a.Classifier != nil {
		cfg.Classifier = segment.ClassifierKind(*a.Classifier)
	}
	return cfg
}

func (s *Server) newSegmenter(a *sliceArgs) (*segment.Segmenter, error) {
	seg, err := segment.New(a.segmentConfig(s.cfg.Slice))
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	return seg, nil
}

type imageInfoArgs struct {
	Path string `json:"path"`
}

type imageInfoResult struct {
	*imaging.ImageInfo
	Mode   segment.Mode `json:"mode"`
	Slices int          `json:"slices"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, info, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	seg, err := segment.New(s.cfg.Slice)
	if err != nil {
		return nil, err
	}
	return &imageInfoResult{
		ImageInfo: info,
		Mode:      s.cfg.Slice.Mode,
		Slices:    len(seg.Segments(img)),
	}, nil
}

func (s *Server) handleSlicePlan(args json.RawMessage) (interface{}, error) {
	var a sliceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	seg, err := s.newSegmenter(&a)
	if err != nil {
		return nil, err
	}
	img, _, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return seg.Plan(img), nil
}

// === Archive ===

type sliceArchiveArgs struct {
	sliceArgs
	Output   string `json:"output"`
	Manifest bool   `json:"manifest"`
}

type sliceArchiveResult struct {
	Output    string          `json:"output"`
	Count     int             `json:"count"`
	SizeBytes int64           `json:"size_bytes"`
	Entries   []archive.Entry `json:"entries"`
}

func (s *Server) handleSliceArchive(ctx context.Context, args json.RawMessage, progress progressFunc) (interface{}, error) {
	var a sliceArchiveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	seg, err := s.newSegmenter(&a.sliceArgs)
	if err != nil {
		return nil, err
	}
	img, _, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	output := a.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(a.Path), archive.DefaultName)
	}

	f, err := os.Create(output)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	manifest, err := archive.Write(ctx, f, img, seg.Segments(img), archive.Options{
		Manifest: a.Manifest,
		Progress: func(done, total int) {
			progress(done, total, fmt.Sprintf("wrote slice %d/%d", done, total))
		},
	})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close archive: %w", cerr)
	}
	if err != nil {
		os.Remove(output)
		return nil, err
	}

	var size int64
	if st, err := os.Stat(output); err == nil {
		size = st.Size()
	}

	return &sliceArchiveResult{
		Output:    output,
		Count:     manifest.Count,
		SizeBytes: size,
		Entries:   manifest.Entries,
	}, nil
}

// === Text extraction ===

type extractTextArgs struct {
	sliceArgs
	Engine          string   `json:"engine"`
	Language        string   `json:"language"`
	ConfidenceFloor *float64 `json:"confidence_floor"`
	SegmentMarkers  bool     `json:"segment_markers"`
}

type extractTextResult struct {
	Text     string `json:"text"`
	Engine   string `json:"engine"`
	Segments int    `json:"segments"`
	Kept     int    `json:"kept"`
	Dropped  int    `json:"dropped"`
	Empty    bool   `json:"empty"`
	Warning  string `json:"warning,omitempty"`
}

// recognizer returns the shared engine, or a one-off engine when the call
// overrides the engine or language.
func (s *Server) recognizer(a *extractTextArgs) (ocr.Recognizer, error) {
	if a.Engine == "" && a.Language == "" {
		return s.provider.Get()
	}
	cfg := s.cfg.EngineConfig()
	if a.Engine != "" {
		cfg.Engine = a.Engine
	}
	if a.Language != "" {
		cfg.Tesseract.Language = a.Language
	}
	rec, err := ocr.New(cfg)
	if errors.Is(err, ocr.ErrUnknownEngine) {
		return nil, &invalidParamsError{err: err}
	}
	return rec, err
}

func (s *Server) handleExtractText(ctx context.Context, args json.RawMessage, progress progressFunc) (interface{}, error) {
	var a extractTextArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	seg, err := s.newSegmenter(&a.sliceArgs)
	if err != nil {
		return nil, err
	}

	opts := s.cfg.RecognizeOptions()
	if a.ConfidenceFloor != nil {
		if *a.ConfidenceFloor < 0 || *a.ConfidenceFloor > 1 {
			return nil, invalidParams("confidence_floor must be in [0, 1], got %g", *a.ConfidenceFloor)
		}
		opts.ConfidenceFloor = recognize.Floor(*a.ConfidenceFloor)
	}
	opts.Logger = s.logger
	opts.Progress = func(p recognize.Progress) {
		progress(p.Current, p.Total, fmt.Sprintf("recognized segment %d/%d", p.Current, p.Total))
	}

	img, _, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	rec, err := s.recognizer(&a)
	if err != nil {
		return nil, err
	}
	ex, err := recognize.New(seg, rec, opts)
	if err != nil {
		return nil, err
	}

	out, err := ex.Extract(ctx, img)
	if err != nil {
		return nil, err
	}

	result := &extractTextResult{
		Text:     out.Render(a.SegmentMarkers),
		Engine:   rec.Name(),
		Segments: len(out.Segments),
		Kept:     out.Kept,
		Dropped:  out.Dropped,
		Empty:    out.Empty,
	}
	if out.Empty {
		result.Warning = "no text recognized; try a lower confidence_floor or a different engine"
	}
	return result, nil
}
