package classifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/posturewatch/internal/geometry"
	"github.com/ayusman/posturewatch/internal/objdetect"
	"github.com/ayusman/posturewatch/internal/pose"
	"github.com/ayusman/posturewatch/internal/skeleton"
	"github.com/ayusman/posturewatch/internal/smoothing"
)

// Silhouette classifies posture by running a detection model over the
// rendered skeleton and smoothing the per-frame verdicts.
type Silhouette struct {
	pose       pose.Detector
	objects    objdetect.Detector
	smoother   *smoothing.Smoother
	labels     objdetect.LabelMap
	acceptance float64
	thresholds geometry.Thresholds
	logger     *zap.SugaredLogger
}

// NewSilhouette creates a silhouette classifier with its own smoother.
func NewSilhouette(deps Deps) *Silhouette {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	labels := deps.Labels
	if labels.Default == "" && len(labels.Labels) == 0 {
		labels = objdetect.DefaultLabelMap()
	}
	return &Silhouette{
		pose:       deps.Pose,
		objects:    deps.Objects,
		smoother:   smoothing.New(deps.Smoothing),
		labels:     labels,
		acceptance: deps.Acceptance,
		thresholds: deps.Thresholds,
		logger:     logger,
	}
}

// Name returns the strategy name.
func (s *Silhouette) Name() string { return StrategySilhouette }

// Reset clears the smoothing window.
func (s *Silhouette) Reset() { s.smoother.Reset() }

// Classify runs one frame through normalizer, model and smoother.
//
// A frame without a person reports unknown and leaves the smoother alone.
// A frame where the model accepts nothing feeds (unknown, 0) to the smoother.
func (s *Silhouette) Classify(ctx context.Context, frame *gocv.Mat) (Observation, error) {
	lm, a, err := detectLandmarks(ctx, s.pose, frame, s.thresholds)
	if err != nil {
		return Observation{}, err
	}

	img, ok := skeleton.Normalize(frame.Cols(), frame.Rows(), lm)
	if !ok {
		return Observation{Status: StatusUnknown}, nil
	}

	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}

	dets, err := s.objects.Detect(img)
	if err != nil {
		return Observation{}, fmt.Errorf("posture model: %w", err)
	}

	label, raw := StatusUnknown, 0.0
	if d, ok := objdetect.Select(dets, s.acceptance); ok {
		label, raw = s.labels.Label(d.ClassID), d.Confidence
	}

	status, conf := s.smoother.Update(label, raw)
	s.logger.Debugw("silhouette verdict", "raw", label, "raw_confidence", raw, "status", status, "confidence", conf)

	return withAnalysis(Observation{
		Status:        status,
		Confidence:    conf,
		RawConfidence: raw,
	}, a), nil
}
