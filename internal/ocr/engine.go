package ocr

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// EngineConfig selects and configures a recognition engine.
type EngineConfig struct {
	// Engine is the registry name ("tesseract", "vision", "mock").
	Engine string

	Tesseract TesseractConfig
	Vision    VisionConfig
}

// Factory builds a Recognizer from configuration.
type Factory func(cfg EngineConfig) (Recognizer, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		TesseractName: func(cfg EngineConfig) (Recognizer, error) {
			return NewTesseract(cfg.Tesseract)
		},
		VisionName: func(cfg EngineConfig) (Recognizer, error) {
			return NewVision(cfg.Vision)
		},
		MockName: func(cfg EngineConfig) (Recognizer, error) {
			return NewMock(), nil
		},
	}
)

// Register adds or replaces an engine factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Engines returns the registered engine names, sorted.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the engine named by cfg.Engine. An empty name selects Tesseract.
func New(cfg EngineConfig) (Recognizer, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Engine))
	if name == "" {
		name = TesseractName
	}

	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownEngine, cfg.Engine, strings.Join(Engines(), ", "))
	}
	return factory(cfg)
}

// Provider lazily builds one Recognizer and hands out the same instance for
// the lifetime of the process. A construction error is also remembered.
type Provider struct {
	cfg  EngineConfig
	once sync.Once
	rec  Recognizer
	err  error
}

// NewProvider creates a Provider for cfg. Nothing is built until Get.
func NewProvider(cfg EngineConfig) *Provider {
	return &Provider{cfg: cfg}
}

// Get returns the engine, building it on first use.
func (p *Provider) Get() (Recognizer, error) {
	p.once.Do(func() {
		p.rec, p.err = New(p.cfg)
	})
	return p.rec, p.err
}

// EngineName returns the configured engine name.
func (p *Provider) EngineName() string {
	if p.cfg.Engine == "" {
		return TesseractName
	}
	return strings.ToLower(p.cfg.Engine)
}
