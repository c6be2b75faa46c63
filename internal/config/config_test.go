package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/ironsheep/image-slicer/internal/segment"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Slice.MaxHeight != 2000 || cfg.Slice.Overlap != 100 {
		t.Errorf("slice defaults: got %d/%d, want 2000/100", cfg.Slice.MaxHeight, cfg.Slice.Overlap)
	}
	if cfg.Slice.Mode != segment.ModeContentAware {
		t.Errorf("mode: got %s, want content-aware", cfg.Slice.Mode)
	}
	if cfg.OCR.Engine != "tesseract" || cfg.OCR.ConfidenceFloor != 0.5 {
		t.Errorf("ocr defaults: got %s/%v", cfg.OCR.Engine, cfg.OCR.ConfidenceFloor)
	}
	if cfg.OCR.Vision.APIKey != "${OPENAI_API_KEY}" {
		t.Errorf("expected api key placeholder, got %q", cfg.OCR.Vision.APIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_SLICER_KEY", "secret123")

		if result := ResolveEnvVars("${TEST_SLICER_KEY}"); result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		if result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}"); result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		if result := ResolveEnvVars("literal-value"); result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Slice.MaxHeight != 2000 || cfg.Slice.SearchRadius != 500 {
		t.Errorf("slice: got %+v", cfg.Slice)
	}
	if cfg.OCR.Vision.APIKey != "sk-from-env" {
		t.Errorf("api key should resolve from env, got %q", cfg.OCR.Vision.APIKey)
	}
	// Zero lets each classifier use its own threshold.
	if cfg.Slice.Tolerance != 0 {
		t.Errorf("tolerance: got %v, want 0", cfg.Slice.Tolerance)
	}
}

func TestLoad_LabClassifierKeepsItsDefault(t *testing.T) {
	t.Setenv("SLICER_SLICE_CLASSIFIER", "lab")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Slice.Classifier != segment.ClassifierLab || cfg.Slice.Tolerance != 0 {
		t.Fatalf("slice: got classifier %s tolerance %v", cfg.Slice.Classifier, cfg.Slice.Tolerance)
	}
	c, err := segment.NewClassifier(cfg.Slice.Classifier, cfg.Slice.Tolerance)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if lab, ok := c.(segment.LabClassifier); !ok || lab.Tolerance != segment.DefaultLabTolerance {
		t.Errorf("classifier: got %#v, want lab at %v", c, segment.DefaultLabTolerance)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
slice:
  max_height: 4000
  overlap: 200
  mode: fixed-step
ocr:
  engine: mock
  confidence_floor: 0.6
  preprocess:
    scale: 2
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Slice.MaxHeight != 4000 || cfg.Slice.Overlap != 200 {
		t.Errorf("slice sizes: got %d/%d, want 4000/200", cfg.Slice.MaxHeight, cfg.Slice.Overlap)
	}
	if cfg.Slice.Mode != segment.ModeFixedStep {
		t.Errorf("mode: got %s, want fixed-step", cfg.Slice.Mode)
	}
	if cfg.Slice.SearchRadius != 500 {
		t.Errorf("unset keys keep defaults, got search_radius %d", cfg.Slice.SearchRadius)
	}
	if cfg.OCR.Engine != "mock" || cfg.OCR.ConfidenceFloor != 0.6 {
		t.Errorf("ocr: got %s/%v", cfg.OCR.Engine, cfg.OCR.ConfidenceFloor)
	}
	if cfg.OCR.Preprocess.Scale != 2 {
		t.Errorf("preprocess scale: got %v, want 2", cfg.OCR.Preprocess.Scale)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level: got %s, want debug", cfg.Log.Level)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("Load should fail when an explicit config file is missing")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SLICER_SLICE_MAX_HEIGHT", "3000")
	t.Setenv("SLICER_OCR_WORKERS", "4")
	t.Setenv("SLICER_OCR_VISION_MODEL", "local-vlm")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Slice.MaxHeight != 3000 {
		t.Errorf("max_height: got %d, want 3000", cfg.Slice.MaxHeight)
	}
	if cfg.OCR.Workers != 4 {
		t.Errorf("workers: got %d, want 4", cfg.OCR.Workers)
	}
	if cfg.OCR.Vision.Model != "local-vlm" {
		t.Errorf("vision model: got %s, want local-vlm", cfg.OCR.Vision.Model)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("SLICER_SLICE_OVERLAP", "150")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("overlap", 100, "")
	flags.Int("max-height", 2000, "")
	flags.String("engine", "tesseract", "")
	if err := flags.Parse([]string{"--overlap=250", "--engine=mock"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Slice.Overlap != 250 {
		t.Errorf("overlap: got %d, want 250 from flag", cfg.Slice.Overlap)
	}
	if cfg.Slice.MaxHeight != 2000 {
		t.Errorf("unchanged flag should not override: got %d", cfg.Slice.MaxHeight)
	}
	if cfg.OCR.Engine != "mock" {
		t.Errorf("engine: got %s, want mock", cfg.OCR.Engine)
	}
}

func TestLoad_InvalidSlice(t *testing.T) {
	t.Setenv("SLICER_SLICE_OVERLAP", "2000")

	_, err := Load("", nil)
	if !errors.Is(err, segment.ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"floor above 1", func(c *Config) { c.OCR.ConfidenceFloor = 1.2 }},
		{"negative floor", func(c *Config) { c.OCR.ConfidenceFloor = -0.1 }},
		{"zero workers", func(c *Config) { c.OCR.Workers = 0 }},
		{"contrast out of range", func(c *Config) { c.OCR.Preprocess.Contrast = 2 }},
		{"huge scale", func(c *Config) { c.OCR.Preprocess.Scale = 20 }},
		{"bad timeout", func(c *Config) { c.OCR.Vision.Timeout = "soon" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad slice", func(c *Config) { c.Slice.MaxHeight = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OCR.Engine = "vision"
	cfg.OCR.Language = "eng+deu"
	cfg.OCR.PSM = 6
	cfg.OCR.Vision.APIKey = "k"
	cfg.OCR.Vision.Timeout = "30s"

	ec := cfg.EngineConfig()
	if ec.Engine != "vision" || ec.Tesseract.Language != "eng+deu" || ec.Tesseract.PageSegMode != 6 {
		t.Errorf("engine config: got %+v", ec)
	}
	if ec.Vision.Timeout != 30*time.Second || ec.Vision.APIKey != "k" {
		t.Errorf("vision config: got %+v", ec.Vision)
	}
}

func TestRecognizeOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OCR.ConfidenceFloor = 0
	cfg.OCR.Workers = 3

	opts := cfg.RecognizeOptions()
	if opts.ConfidenceFloor == nil || *opts.ConfidenceFloor != 0 {
		t.Errorf("floor 0 must be passed through explicitly, got %v", opts.ConfidenceFloor)
	}
	if opts.Workers != 3 {
		t.Errorf("workers: got %d, want 3", opts.Workers)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image-slicer.yaml")

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Error("WriteDefault should refuse to overwrite without force")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault with force failed: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("written config should load: %v", err)
	}
	if cfg.Slice.MaxHeight != 2000 || cfg.OCR.Vision.Timeout != "120s" {
		t.Errorf("round-tripped config differs: %+v", cfg)
	}
}
