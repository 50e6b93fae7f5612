// Package overlay annotates stream frames with the posture measurement.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/posturewatch/internal/classifier"
	"github.com/ayusman/posturewatch/internal/geometry"
)

var (
	green  = color.RGBA{G: 255}
	red    = color.RGBA{R: 255}
	yellow = color.RGBA{R: 255, G: 255}
)

const (
	lineThickness = 4
	textThickness = 2
	fontScale     = 0.7
	// referenceLength is the height of the vertical guide lines, in pixels.
	referenceLength = 100
)

// Draw annotates frame in place.
//
// With landmarks it draws shoulder-ear and hip-shoulder segments against
// vertical guides, and the angle readouts, in green for good posture and red
// otherwise. The status line is always drawn.
func Draw(frame *gocv.Mat, obs classifier.Observation) {
	if frame == nil || frame.Empty() {
		return
	}

	c := statusColor(obs.Status)

	if a := obs.Analysis; a != nil {
		drawSegments(frame, a.Body, c)
		gocv.PutText(frame, fmt.Sprintf("Neck: %.1f", float64(obs.NeckAngle)), image.Pt(10, 30),
			gocv.FontHersheySimplex, fontScale, c, textThickness)
		gocv.PutText(frame, fmt.Sprintf("Torso: %.1f", float64(obs.TorsoAngle)), image.Pt(10, 60),
			gocv.FontHersheySimplex, fontScale, c, textThickness)
	}

	gocv.PutText(frame, statusText(obs), image.Pt(10, 90),
		gocv.FontHersheySimplex, fontScale, c, textThickness)
}

func drawSegments(frame *gocv.Mat, b geometry.Body, c color.RGBA) {
	sh := pt(b.LeftShoulder)
	ear := pt(b.LeftEar)
	hip := pt(b.LeftHip)

	gocv.Line(frame, sh, ear, c, lineThickness)
	gocv.Line(frame, sh, image.Pt(sh.X, sh.Y-referenceLength), c, lineThickness)
	gocv.Line(frame, hip, sh, c, lineThickness)
	gocv.Line(frame, hip, image.Pt(hip.X, hip.Y-referenceLength), c, lineThickness)
}

func statusColor(status string) color.RGBA {
	switch status {
	case classifier.StatusGood:
		return green
	case classifier.StatusBad:
		return red
	default:
		return yellow
	}
}

func statusText(obs classifier.Observation) string {
	switch obs.Status {
	case classifier.StatusNotDetected:
		return "No person detected"
	case classifier.StatusUnknown:
		return "Posture: unknown"
	}
	if obs.Detected() && !obs.Aligned {
		return fmt.Sprintf("Posture: %s (%.2f) - turn side-on", obs.Status, obs.Confidence)
	}
	return fmt.Sprintf("Posture: %s (%.2f)", obs.Status, obs.Confidence)
}

func pt(p geometry.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}
