// Package classifier turns camera frames into posture observations.
//
// Two strategies share the Classifier interface: Geometric applies angle
// thresholds to pose landmarks, Silhouette runs a detection model over a
// rendered skeleton and smooths its verdicts over time.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/posturewatch/internal/geometry"
	"github.com/ayusman/posturewatch/internal/objdetect"
	"github.com/ayusman/posturewatch/internal/pose"
	"github.com/ayusman/posturewatch/internal/smoothing"
)

// Observation statuses.
const (
	StatusGood        = "good"
	StatusBad         = "bad"
	StatusUnknown     = "unknown"
	StatusNotDetected = "not_detected"
)

// Strategy names accepted by New.
const (
	StrategyGeometric  = "geometric"
	StrategySilhouette = "silhouette"
)

// ErrUnknownStrategy is returned by New for an unrecognized strategy name.
var ErrUnknownStrategy = errors.New("unknown classification strategy")

// Observation is the result of classifying one frame.
type Observation struct {
	Status        string  `json:"status"`
	Confidence    float64 `json:"confidence"`
	RawConfidence float64 `json:"raw_confidence"`
	NeckAngle     int     `json:"neck_angle"`
	TorsoAngle    int     `json:"torso_angle"`
	Aligned       bool    `json:"aligned"`
	Degenerate    bool    `json:"degenerate"`

	// Analysis is set whenever landmarks were found.
	Analysis *geometry.Analysis `json:"-"`
}

// Detected reports whether a person was found in the frame.
func (o Observation) Detected() bool {
	return o.Analysis != nil
}

// Classifier classifies camera frames.
type Classifier interface {
	Classify(ctx context.Context, frame *gocv.Mat) (Observation, error)
	Name() string
}

// Deps are the collaborators and tunables used to build a Classifier.
type Deps struct {
	Pose       pose.Detector
	Objects    objdetect.Detector
	Thresholds geometry.Thresholds
	Smoothing  smoothing.Config
	Labels     objdetect.LabelMap
	Acceptance float64
	Logger     *zap.SugaredLogger
}

// New builds the classifier named by strategy.
func New(strategy string, deps Deps) (Classifier, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	if deps.Pose == nil {
		return nil, errors.New("pose detector is required")
	}

	switch strategy {
	case StrategyGeometric:
		return NewGeometric(deps.Pose, deps.Thresholds, deps.Logger), nil
	case StrategySilhouette:
		if deps.Objects == nil {
			return nil, errors.New("silhouette strategy requires an object detector")
		}
		return NewSilhouette(deps), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// detectLandmarks runs the pose detector and analyzes the result. It returns
// nil when no person is in the frame.
func detectLandmarks(ctx context.Context, det pose.Detector, frame *gocv.Mat, th geometry.Thresholds) (*pose.Landmarks, *geometry.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if frame == nil || frame.Empty() {
		return nil, nil, errors.New("empty frame")
	}

	lm, err := det.Detect(frame)
	if err != nil {
		return nil, nil, fmt.Errorf("pose detection: %w", err)
	}
	if lm == nil {
		return nil, nil, nil
	}

	a := geometry.Analyze(lm.Body(frame.Cols(), frame.Rows()), th)
	return lm, &a, nil
}

func withAnalysis(obs Observation, a *geometry.Analysis) Observation {
	obs.Analysis = a
	obs.NeckAngle = a.Neck.Degrees
	obs.TorsoAngle = a.Torso.Degrees
	obs.Aligned = a.Aligned
	obs.Degenerate = a.Degenerate()
	return obs
}
