package classifier

import (
	"context"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/posturewatch/internal/geometry"
	"github.com/ayusman/posturewatch/internal/pose"
)

// Geometric classifies posture from neck and torso inclination.
type Geometric struct {
	pose       pose.Detector
	thresholds geometry.Thresholds
	logger     *zap.SugaredLogger
}

// NewGeometric creates a geometric classifier.
func NewGeometric(det pose.Detector, th geometry.Thresholds, logger *zap.SugaredLogger) *Geometric {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Geometric{pose: det, thresholds: th, logger: logger}
}

// Name returns the strategy name.
func (g *Geometric) Name() string { return StrategyGeometric }

// Classify detects landmarks and applies the angle thresholds.
// Confidence is 1 for a clean measurement and 0 when either angle came from
// degenerate geometry.
func (g *Geometric) Classify(ctx context.Context, frame *gocv.Mat) (Observation, error) {
	_, a, err := detectLandmarks(ctx, g.pose, frame, g.thresholds)
	if err != nil {
		return Observation{}, err
	}
	if a == nil {
		return Observation{Status: StatusNotDetected}, nil
	}

	obs := withAnalysis(Observation{Status: string(a.Posture)}, a)
	if obs.Degenerate {
		g.logger.Debugw("degenerate geometry", "neck", a.Neck, "torso", a.Torso)
		return obs, nil
	}
	obs.Confidence = 1
	obs.RawConfidence = 1
	return obs, nil
}
