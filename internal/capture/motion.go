package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MotionConfig tunes the frame-differencing motion detector.
type MotionConfig struct {
	// Threshold is the percentage of changed pixels that counts as motion.
	Threshold float64 `json:"threshold"`
	// BlurSize is the Gaussian kernel size applied before differencing. Must be odd.
	BlurSize int `json:"blur_size"`
	// PixelDelta is the per-pixel intensity change that marks a pixel as changed.
	PixelDelta float32 `json:"pixel_delta"`
}

// DefaultMotionConfig returns settings tuned for a seated subject at 640x480.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Threshold:  1.0,
		BlurSize:   21,
		PixelDelta: 25,
	}
}

// Motion is the result of comparing a frame with its predecessor.
type Motion struct {
	Moving  bool
	Changed float64
}

// MotionDetector compares consecutive frames. The stream loop uses it to
// drop to the idle frame rate while the subject is still.
type MotionDetector struct {
	mu     sync.Mutex
	config MotionConfig
	prev   gocv.Mat
	primed bool
}

// NewMotionDetector creates a MotionDetector.
func NewMotionDetector(config MotionConfig) *MotionDetector {
	if config.BlurSize <= 0 {
		config.BlurSize = DefaultMotionConfig().BlurSize
	}
	if config.BlurSize%2 == 0 {
		config.BlurSize++
	}
	return &MotionDetector{config: config, prev: gocv.NewMat()}
}

// Detect compares frame with the previous one. The first frame after
// creation or Reset only primes the detector and reports no motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	k := m.config.BlurSize
	gocv.GaussianBlur(gray, &gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	if !m.primed || m.prev.Rows() != gray.Rows() || m.prev.Cols() != gray.Cols() {
		gray.CopyTo(&m.prev)
		m.primed = true
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prev, &diff)
	gocv.Threshold(diff, &diff, m.config.PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	gray.CopyTo(&m.prev)

	return Motion{Moving: changed > m.config.Threshold, Changed: changed}
}

// Reset forgets the previous frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the stored frame.
func (m *MotionDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
	err := m.prev.Close()
	m.prev = gocv.NewMat()
	return err
}
