package objdetect

import (
	"image"
	"sync"
)

// MockDetector is a test implementation of the Detector interface.
type MockDetector struct {
	mu         sync.Mutex
	detections []Detection
	err        error
	calls      int
	lastBounds image.Rectangle
}

// NewMockDetector creates a MockDetector returning dets.
func NewMockDetector(dets ...Detection) *MockDetector {
	return &MockDetector{detections: dets}
}

// SetDetections replaces the detections returned by Detect.
func (m *MockDetector) SetDetections(dets ...Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = dets
}

// SetError sets the error returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastBounds returns the bounds of the most recent input image.
func (m *MockDetector) LastBounds() image.Rectangle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBounds
}

// Detect returns the configured detections.
func (m *MockDetector) Detect(img image.Image) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if img != nil {
		m.lastBounds = img.Bounds()
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Detection, len(m.detections))
	copy(out, m.detections)
	return out, nil
}

// Close is a no-op.
func (m *MockDetector) Close() error {
	return nil
}
