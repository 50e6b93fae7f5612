// Package skeleton renders detected landmarks as a canonical stick-figure
// image, the input format of the silhouette posture model.
package skeleton

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/ayusman/posturewatch/internal/pose"
)

// Size is the width and height of the canonical image.
const Size = 640

const (
	jointRadius = 5
	boneWidth   = 2
)

// bones are the landmark pairs joined by a line.
var bones = [][2]int{
	{pose.LeftEar, pose.RightEar},
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftShoulder, pose.LeftHip},
	{pose.RightShoulder, pose.RightHip},
	{pose.LeftShoulder, pose.LeftElbow},
	{pose.RightShoulder, pose.RightElbow},
	{pose.LeftElbow, pose.LeftWrist},
	{pose.RightElbow, pose.RightWrist},
	{pose.LeftHip, pose.LeftKnee},
	{pose.RightHip, pose.RightKnee},
	{pose.LeftKnee, pose.LeftAnkle},
	{pose.RightKnee, pose.RightAnkle},
}

// Normalize draws lm onto a black canvas of the source frame size and
// letterboxes the result to Size x Size. It returns false when there is
// nothing to draw.
func Normalize(width, height int, lm *pose.Landmarks) (*image.NRGBA, bool) {
	if lm == nil || width <= 0 || height <= 0 {
		return nil, false
	}
	return Letterbox(Render(width, height, lm), Size), true
}

// Render draws joints and bones of lm in white on a black width x height canvas.
func Render(width, height int, lm *pose.Landmarks) image.Image {
	dc := gg.NewContext(width, height)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.SetColor(color.White)

	px := func(i int) (float64, float64) {
		p := lm.Pixel(i, width, height)
		return p.X, p.Y
	}

	for i := 0; i < pose.NumLandmarks; i++ {
		x, y := px(i)
		dc.DrawCircle(x, y, jointRadius)
		dc.Fill()
	}

	dc.SetLineWidth(boneWidth)
	for _, b := range bones {
		x1, y1 := px(b[0])
		x2, y2 := px(b[1])
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	// head to neck
	ls, rs := lm.Points[pose.LeftShoulder], lm.Points[pose.RightShoulder]
	nx := float64(int((ls.X + rs.X) / 2 * float64(width)))
	ny := float64(int((ls.Y + rs.Y) / 2 * float64(height)))
	for _, ear := range []int{pose.LeftEar, pose.RightEar} {
		x, y := px(ear)
		dc.DrawLine(x, y, nx, ny)
		dc.Stroke()
	}

	return dc.Image()
}

// Letterbox scales img so its longer side is exactly size, using box
// (area) resampling, and centers it on a black size x size canvas. Odd
// padding goes to the bottom or right.
func Letterbox(img image.Image, size int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	nw, nh := size, size
	if w >= h {
		nh = h * size / w
	} else {
		nw = w * size / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	resized := imaging.Resize(img, nw, nh, imaging.Box)
	dst := imaging.New(size, size, color.Black)
	return imaging.Paste(dst, resized, image.Pt((size-nw)/2, (size-nh)/2))
}
