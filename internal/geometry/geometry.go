// Package geometry computes posture features from landmark coordinates.
//
// Nothing in this package draws or touches images; it works on plain points
// so the decision logic can be tested without OpenCV.
package geometry

import "math"

// Default classification thresholds.
const (
	// DefaultNeckThreshold is the neck inclination (degrees) at or above which posture is bad.
	DefaultNeckThreshold = 40.0
	// DefaultTorsoThreshold is the torso inclination (degrees) at or above which posture is bad.
	DefaultTorsoThreshold = 10.0
	// DefaultAlignmentThreshold is the shoulder offset (pixels) below which the
	// subject is considered to be facing the camera side-on.
	DefaultAlignmentThreshold = 100.0
)

// Posture is the result of classifying a pair of inclination angles.
type Posture string

const (
	// PostureGood means both angles are within thresholds.
	PostureGood Posture = "good"
	// PostureBad means at least one angle exceeds its threshold.
	PostureBad Posture = "bad"
)

// Point is a 2D point. Units depend on the caller (normalized or pixels).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Angle is an inclination angle in whole degrees.
// Degenerate is set when the input geometry made the angle undefined; in that
// case Degrees is 0 and should not be trusted.
type Angle struct {
	Degrees    int  `json:"degrees"`
	Degenerate bool `json:"degenerate"`
}

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 Point) float64 {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Inclination returns the angle between the segment p1->p2 and the vertical
// axis through p1, using acos((y2-y1)*(-y1) / (|p2-p1| * y1)).
//
// y1 == 0, coincident points and acos arguments outside [-1, 1] are
// degenerate and return Angle{Degenerate: true}.
func Inclination(p1, p2 Point) Angle {
	denom := Distance(p1, p2) * p1.Y
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return Angle{Degenerate: true}
	}

	arg := (p2.Y - p1.Y) * (-p1.Y) / denom
	if math.IsNaN(arg) || arg < -1 || arg > 1 {
		return Angle{Degenerate: true}
	}

	theta := math.Acos(arg)
	return Angle{Degrees: int(theta * 180 / math.Pi)}
}

// Thresholds holds the tunable decision boundaries.
type Thresholds struct {
	Neck      float64 `json:"neck"`
	Torso     float64 `json:"torso"`
	Alignment float64 `json:"alignment"`
}

// DefaultThresholds returns the thresholds used by the original posture rules.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Neck:      DefaultNeckThreshold,
		Torso:     DefaultTorsoThreshold,
		Alignment: DefaultAlignmentThreshold,
	}
}

// Classify returns PostureGood iff neck < t.Neck and torso < t.Torso.
func (t Thresholds) Classify(neck, torso float64) Posture {
	if neck < t.Neck && torso < t.Torso {
		return PostureGood
	}
	return PostureBad
}

// Aligned reports whether the shoulders are close enough together (in
// pixels) to indicate a side-on view of the subject.
func (t Thresholds) Aligned(left, right Point) bool {
	return Distance(left, right) < t.Alignment
}
