// Package smoothing stabilizes noisy per-frame classifications with a
// sliding-window majority vote.
package smoothing

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Labels understood by the vote. Any other label occupies a window slot but
// never counts toward a verdict.
const (
	LabelGood    = "good"
	LabelBad     = "bad"
	LabelUnknown = "unknown"
)

// Default smoothing parameters.
const (
	DefaultWindowSize = 3
	DefaultThreshold  = 0.3
)

// Config holds the smoother parameters.
type Config struct {
	// WindowSize is the number of observations voted over. Values below 1 are treated as 1.
	WindowSize int `json:"window_size"`
	// Threshold is the confidence an observation must exceed to count as a vote.
	Threshold float64 `json:"threshold"`
}

// DefaultConfig returns the smoothing parameters of the deployed classifier.
func DefaultConfig() Config {
	return Config{
		WindowSize: DefaultWindowSize,
		Threshold:  DefaultThreshold,
	}
}

type observation struct {
	label      string
	confidence float64
}

// Smoother keeps a bounded FIFO window of observations and returns a
// majority-vote label with the mean confidence of the window.
// It is safe for concurrent use; each Update is a single critical section.
type Smoother struct {
	mu        sync.Mutex
	size      int
	threshold float64
	window    []observation
}

// New creates a Smoother from cfg.
func New(cfg Config) *Smoother {
	size := cfg.WindowSize
	if size < 1 {
		size = 1
	}
	return &Smoother{
		size:      size,
		threshold: cfg.Threshold,
		window:    make([]observation, 0, size),
	}
}

// Update appends an observation and returns the smoothed label and confidence.
//
// Until the window is full the input is returned unchanged. Once full, entries
// labelled good or bad with confidence above the threshold are counted; the
// larger count wins and a tie (including zero/zero) yields unknown. The
// returned confidence is the mean over every entry in the window, whatever
// its label.
func (s *Smoother) Update(label string, confidence float64) (string, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.window) == s.size {
		copy(s.window, s.window[1:])
		s.window = s.window[:s.size-1]
	}
	s.window = append(s.window, observation{label: label, confidence: confidence})

	if len(s.window) < s.size {
		return label, confidence
	}

	var bad, good int
	confidences := make([]float64, len(s.window))
	for i, o := range s.window {
		confidences[i] = o.confidence
		if o.confidence <= s.threshold {
			continue
		}
		switch o.label {
		case LabelBad:
			bad++
		case LabelGood:
			good++
		}
	}

	mean := stat.Mean(confidences, nil)

	switch {
	case bad > good:
		return LabelBad, mean
	case good > bad:
		return LabelGood, mean
	default:
		return LabelUnknown, mean
	}
}

// Reset empties the window.
func (s *Smoother) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = s.window[:0]
}

// Len returns the number of observations currently in the window.
func (s *Smoother) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.window)
}

// Size returns the window capacity.
func (s *Smoother) Size() int {
	return s.size
}
