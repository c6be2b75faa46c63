// Package config loads image-slicer settings from defaults, an optional YAML
// file, SLICER_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-slicer/internal/imaging"
	"github.com/ironsheep/image-slicer/internal/ocr"
	"github.com/ironsheep/image-slicer/internal/recognize"
	"github.com/ironsheep/image-slicer/internal/segment"
)

// EnvPrefix prefixes every environment override (SLICER_SLICE_MAX_HEIGHT).
const EnvPrefix = "SLICER"

// Config is the full application configuration.
type Config struct {
	Slice  segment.Config `yaml:"slice" mapstructure:"slice"`
	OCR    OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Limits LimitsConfig   `yaml:"limits" mapstructure:"limits"`
	Log    LogConfig      `yaml:"log" mapstructure:"log"`
}

// OCRConfig configures text recognition.
type OCRConfig struct {
	Engine          string                 `yaml:"engine" mapstructure:"engine"`
	Language        string                 `yaml:"language" mapstructure:"language"`
	ConfidenceFloor float64                `yaml:"confidence_floor" mapstructure:"confidence_floor"`
	Workers         int                    `yaml:"workers" mapstructure:"workers"`
	TessdataPrefix  string                 `yaml:"tessdata_prefix" mapstructure:"tessdata_prefix"`
	PSM             int                    `yaml:"psm" mapstructure:"psm"`
	Preprocess      imaging.PrepareOptions `yaml:"preprocess" mapstructure:"preprocess"`
	Vision          VisionConfig           `yaml:"vision" mapstructure:"vision"`
}

// VisionConfig configures the vision-model engine.
type VisionConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Prompt  string `yaml:"prompt" mapstructure:"prompt"`
	Timeout string `yaml:"timeout" mapstructure:"timeout"`
}

// LimitsConfig bounds resource usage.
type LimitsConfig struct {
	// MaxPixels rejects images with more pixels before decoding them.
	// Negative disables the check.
	MaxPixels int `yaml:"max_pixels" mapstructure:"max_pixels"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Slice: segment.DefaultConfig(),
		OCR: OCRConfig{
			Engine:          ocr.TesseractName,
			Language:        ocr.DefaultLanguage,
			ConfidenceFloor: recognize.DefaultConfidenceFloor,
			Workers:         1,
			Vision: VisionConfig{
				Model:   ocr.DefaultVisionModel,
				APIKey:  "${OPENAI_API_KEY}",
				Timeout: "120s",
			},
		},
		Limits: LimitsConfig{MaxPixels: imaging.DefaultMaxPixels},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"max-height":       "slice.max_height",
	"overlap":          "slice.overlap",
	"mode":             "slice.mode",
	"search-radius":    "slice.search_radius",
	"tolerance":        "slice.tolerance",
	"classifier":       "slice.classifier",
	"engine":           "ocr.engine",
	"lang":             "ocr.language",
	"confidence-floor": "ocr.confidence_floor",
	"workers":          "ocr.workers",
	"tessdata-prefix":  "ocr.tessdata_prefix",
	"psm":              "ocr.psm",
	"grayscale":        "ocr.preprocess.grayscale",
	"contrast":         "ocr.preprocess.contrast",
	"scale":            "ocr.preprocess.scale",
	"vision-base-url":  "ocr.vision.base_url",
	"vision-model":     "ocr.vision.model",
	"max-pixels":       "limits.max_pixels",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

// Load builds the configuration. cfgFile may be empty, in which case
// ./image-slicer.yaml and $HOME/.image-slicer/image-slicer.yaml are tried. Flags in
// flags that appear in the flag table override every other source when set.
// A .env file in the working directory is loaded first if present.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("image-slicer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.image-slicer")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.OCR.Vision.APIKey = ResolveEnvVars(cfg.OCR.Vision.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every leaf key so that environment variables are
// seen by Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("slice.max_height", d.Slice.MaxHeight)
	v.SetDefault("slice.overlap", d.Slice.Overlap)
	v.SetDefault("slice.mode", string(d.Slice.Mode))
	v.SetDefault("slice.search_radius", d.Slice.SearchRadius)
	v.SetDefault("slice.tolerance", d.Slice.Tolerance)
	v.SetDefault("slice.classifier", string(d.Slice.Classifier))

	v.SetDefault("ocr.engine", d.OCR.Engine)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.confidence_floor", d.OCR.ConfidenceFloor)
	v.SetDefault("ocr.workers", d.OCR.Workers)
	v.SetDefault("ocr.tessdata_prefix", d.OCR.TessdataPrefix)
	v.SetDefault("ocr.psm", d.OCR.PSM)
	v.SetDefault("ocr.preprocess.grayscale", d.OCR.Preprocess.Grayscale)
	v.SetDefault("ocr.preprocess.contrast", d.OCR.Preprocess.Contrast)
	v.SetDefault("ocr.preprocess.scale", d.OCR.Preprocess.Scale)
	v.SetDefault("ocr.vision.base_url", d.OCR.Vision.BaseURL)
	v.SetDefault("ocr.vision.model", d.OCR.Vision.Model)
	v.SetDefault("ocr.vision.api_key", d.OCR.Vision.APIKey)
	v.SetDefault("ocr.vision.prompt", d.OCR.Vision.Prompt)
	v.SetDefault("ocr.vision.timeout", d.OCR.Vision.Timeout)

	v.SetDefault("limits.max_pixels", d.Limits.MaxPixels)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if err := c.Slice.Validate(); err != nil {
		return err
	}
	if c.OCR.ConfidenceFloor < 0 || c.OCR.ConfidenceFloor > 1 {
		return fmt.Errorf("ocr.confidence_floor must be in [0, 1], got %g", c.OCR.ConfidenceFloor)
	}
	if c.OCR.Workers < 1 {
		return fmt.Errorf("ocr.workers must be at least 1, got %d", c.OCR.Workers)
	}
	if c.OCR.Preprocess.Contrast < -1 || c.OCR.Preprocess.Contrast > 1 {
		return fmt.Errorf("ocr.preprocess.contrast must be in [-1, 1], got %g", c.OCR.Preprocess.Contrast)
	}
	if c.OCR.Preprocess.Scale < 0 || c.OCR.Preprocess.Scale > 8 {
		return fmt.Errorf("ocr.preprocess.scale must be in [0, 8], got %g", c.OCR.Preprocess.Scale)
	}
	if c.OCR.Vision.Timeout != "" {
		if _, err := time.ParseDuration(c.OCR.Vision.Timeout); err != nil {
			return fmt.Errorf("ocr.vision.timeout: %w", err)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// EngineConfig converts the OCR section for ocr.New / ocr.NewProvider.
func (c *Config) EngineConfig() ocr.EngineConfig {
	timeout, _ := time.ParseDuration(c.OCR.Vision.Timeout)
	return ocr.EngineConfig{
		Engine: c.OCR.Engine,
		Tesseract: ocr.TesseractConfig{
			Language:       c.OCR.Language,
			TessdataPrefix: c.OCR.TessdataPrefix,
			PageSegMode:    c.OCR.PSM,
		},
		Vision: ocr.VisionConfig{
			APIKey:  c.OCR.Vision.APIKey,
			BaseURL: c.OCR.Vision.BaseURL,
			Model:   c.OCR.Vision.Model,
			Prompt:  c.OCR.Vision.Prompt,
			Timeout: timeout,
		},
	}
}

// RecognizeOptions converts the OCR section for recognize.New. The caller
// adds Progress and Logger.
func (c *Config) RecognizeOptions() recognize.Options {
	return recognize.Options{
		ConfidenceFloor: recognize.Floor(c.OCR.ConfidenceFloor),
		Workers:         c.OCR.Workers,
		Preprocess:      c.OCR.Preprocess,
	}
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# image-slicer configuration
# Every key can be overridden with an environment variable, e.g.
#   SLICER_SLICE_MAX_HEIGHT=4000 SLICER_OCR_ENGINE=vision
# API keys use ${ENV_VAR} syntax to reference environment variables.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
