// Package pose provides body landmark detection interfaces and types for posture estimation.
package pose

import (
	"github.com/ayusman/posturewatch/internal/geometry"
)

// Body landmark indices. Only the subset used for posture estimation is kept;
// the detector service maps its own model indices onto these names.
const (
	LeftEar = iota
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	NumLandmarks
)

// names maps landmark indices to the keys used on the wire.
var names = [NumLandmarks]string{
	LeftEar:       "left_ear",
	RightEar:      "right_ear",
	LeftShoulder:  "left_shoulder",
	RightShoulder: "right_shoulder",
	LeftElbow:     "left_elbow",
	RightElbow:    "right_elbow",
	LeftWrist:     "left_wrist",
	RightWrist:    "right_wrist",
	LeftHip:       "left_hip",
	RightHip:      "right_hip",
	LeftKnee:      "left_knee",
	RightKnee:     "right_knee",
	LeftAnkle:     "left_ankle",
	RightAnkle:    "right_ankle",
}

// Name returns the wire name of landmark i, or "" if i is out of range.
func Name(i int) string {
	if i < 0 || i >= NumLandmarks {
		return ""
	}
	return names[i]
}

// Index returns the landmark index for a wire name.
func Index(name string) (int, bool) {
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Landmarks holds one person's body landmarks in normalized [0,1] image coordinates.
type Landmarks struct {
	Points [NumLandmarks]geometry.Point `json:"points"`
	Score  float64                      `json:"score"`
}

// Pixel converts landmark i to pixel coordinates for an image of the given
// size. Coordinates are truncated toward zero, matching integer pixel indexing.
func (l *Landmarks) Pixel(i, width, height int) geometry.Point {
	p := l.Points[i]
	return geometry.Point{
		X: float64(int(p.X * float64(width))),
		Y: float64(int(p.Y * float64(height))),
	}
}

// Body returns the landmarks used by the geometric posture rules, in pixel
// coordinates for an image of the given size.
func (l *Landmarks) Body(width, height int) geometry.Body {
	return geometry.Body{
		LeftEar:       l.Pixel(LeftEar, width, height),
		LeftShoulder:  l.Pixel(LeftShoulder, width, height),
		RightShoulder: l.Pixel(RightShoulder, width, height),
		LeftHip:       l.Pixel(LeftHip, width, height),
	}
}
