package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is shared by every tool.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file (PNG, JPEG, GIF, BMP or WebP)",
}

// sliceProperties returns the optional segmentation overrides. Omitted values
// fall back to the server configuration.
func sliceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty,
		"max_height": map[string]interface{}{
			"type":        "integer",
			"description": "Nominal slice height in pixels",
			"minimum":     1,
		},
		"overlap": map[string]interface{}{
			"type":        "integer",
			"description": "Rows shared by consecutive slices. Must be smaller than max_height",
			"minimum":     0,
		},
		"mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"fixed-step", "content-aware"},
			"description": "fixed-step cuts at exact intervals; content-aware moves each cut up to the nearest blank row",
		},
		"search_radius": map[string]interface{}{
			"type":        "integer",
			"description": "content-aware only: how many rows above the nominal cut to search for a blank row",
			"minimum":     0,
		},
		"tolerance": map[string]interface{}{
			"type":        "number",
			"description": "content-aware only: background threshold (standard deviation for stddev, ΔE for lab). 0 selects the classifier default",
			"minimum":     0,
		},
		"classifier": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"stddev", "lab"},
			"description": "content-aware only: how blank rows are detected",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_info",
			Description: "Get the dimensions, format and color depth of an image, and how many slices the current settings would produce.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "slice_plan",
			Description: "Compute where a tall image would be cut into overlapping slices without writing anything. Returns each slice's top and bottom row and whether a content-aware cut had to be forced through content.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": sliceProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "slice_archive",
			Description: "Cut a tall image into overlapping slices and write them as PNG files (part_01.png, part_02.png, ...) into a ZIP archive.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(sliceProperties(), map[string]interface{}{
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Path of the ZIP file to write. Default: slices.zip next to the image",
					},
					"manifest": map[string]interface{}{
						"type":        "boolean",
						"description": "Add manifest.json describing where each slice came from. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "extract_text",
			Description: "Read all text from a tall image (e.g. a long chat screenshot) by recognizing each slice separately and joining the results in order. Text near cut lines may appear twice because slices overlap.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(sliceProperties(), map[string]interface{}{
					"engine": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"tesseract", "vision", "mock"},
						"description": "Recognition engine. Default: server configuration",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code(s), e.g. eng or eng+deu",
					},
					"confidence_floor": map[string]interface{}{
						"type":        "number",
						"description": "Drop recognized lines with confidence below this value (0-1)",
						"minimum":     0,
						"maximum":     1,
					},
					"segment_markers": map[string]interface{}{
						"type":        "boolean",
						"description": "Prefix each slice's text with a '--- segment i/n [top,bottom) ---' line. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
