package pose

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/posturewatch/internal/geometry"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu        sync.Mutex
	landmarks *Landmarks
	err       error
	calls     int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetLandmarks sets the landmarks that will be returned by Detect.
// nil simulates a frame with no person in it.
func (m *MockDetector) SetLandmarks(lm *Landmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.landmarks = lm
}

// SetError sets the error that will be returned by Detect.
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

// Detect returns the pre-configured landmarks or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Landmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.landmarks == nil {
		return nil, nil
	}
	lm := *m.landmarks
	return &lm, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// UprightLandmarks returns a preset of a person sitting upright, seen side-on.
// Ear, shoulder and hip are stacked vertically so both inclinations are 0.
func UprightLandmarks() *Landmarks {
	lm := &Landmarks{Score: 0.95}

	lm.Points[LeftEar] = geometry.Point{X: 0.5, Y: 0.25}
	lm.Points[RightEar] = geometry.Point{X: 0.515625, Y: 0.25}

	lm.Points[LeftShoulder] = geometry.Point{X: 0.5, Y: 0.5}
	lm.Points[RightShoulder] = geometry.Point{X: 0.515625, Y: 0.5}

	lm.Points[LeftElbow] = geometry.Point{X: 0.5625, Y: 0.625}
	lm.Points[RightElbow] = geometry.Point{X: 0.578125, Y: 0.625}
	lm.Points[LeftWrist] = geometry.Point{X: 0.6875, Y: 0.625}
	lm.Points[RightWrist] = geometry.Point{X: 0.703125, Y: 0.625}

	lm.Points[LeftHip] = geometry.Point{X: 0.5, Y: 0.75}
	lm.Points[RightHip] = geometry.Point{X: 0.515625, Y: 0.75}

	lm.Points[LeftKnee] = geometry.Point{X: 0.6875, Y: 0.75}
	lm.Points[RightKnee] = geometry.Point{X: 0.703125, Y: 0.75}
	lm.Points[LeftAnkle] = geometry.Point{X: 0.6875, Y: 0.9375}
	lm.Points[RightAnkle] = geometry.Point{X: 0.703125, Y: 0.9375}

	return lm
}

// SlouchedLandmarks returns a preset of a person leaning forward with the
// head pushed ahead of the shoulders.
func SlouchedLandmarks() *Landmarks {
	lm := UprightLandmarks()

	lm.Points[LeftEar] = geometry.Point{X: 0.6875, Y: 0.375}
	lm.Points[RightEar] = geometry.Point{X: 0.703125, Y: 0.375}

	lm.Points[LeftShoulder] = geometry.Point{X: 0.546875, Y: 0.5}
	lm.Points[RightShoulder] = geometry.Point{X: 0.5625, Y: 0.5}

	return lm
}
