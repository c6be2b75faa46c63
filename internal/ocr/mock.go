package ocr

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
)

// MockName is the registry name of the mock engine.
const MockName = "mock"

// Mock is a Recognizer for tests and dry runs.
//
// Call n returns Script[n] when present and Results otherwise. Handler, when
// set, takes precedence and receives the 0-based call number.
type Mock struct {
	Results []Result
	Script  [][]Result
	Err     error
	Handler func(ctx context.Context, call int, img image.Image) ([]Result, error)

	calls  atomic.Int64
	mu     sync.Mutex
	images []image.Rectangle
}

// NewMock creates a mock that returns results on every call.
func NewMock(results ...Result) *Mock {
	return &Mock{Results: results}
}

// Name returns the engine identifier.
func (m *Mock) Name() string { return MockName }

// Recognize records the call and returns the configured response.
func (m *Mock) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	call := int(m.calls.Add(1) - 1)

	m.mu.Lock()
	m.images = append(m.images, img.Bounds())
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Handler != nil {
		return m.Handler(ctx, call, img)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if call < len(m.Script) {
		return append([]Result(nil), m.Script[call]...), nil
	}
	return append([]Result(nil), m.Results...), nil
}

// Calls returns how many times Recognize was invoked.
func (m *Mock) Calls() int {
	return int(m.calls.Load())
}

// Bounds returns the bounds of every image received, in call order.
func (m *Mock) Bounds() []image.Rectangle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]image.Rectangle(nil), m.images...)
}

var _ Recognizer = (*Mock)(nil)
