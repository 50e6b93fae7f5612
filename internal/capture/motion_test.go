package capture

import (
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector_BlurSize(t *testing.T) {
	tests := []struct {
		name string
		blur int
		want int
	}{
		{name: "default when zero", blur: 0, want: 21},
		{name: "odd kept", blur: 9, want: 9},
		{name: "even rounded up", blur: 10, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(MotionConfig{Threshold: 1, BlurSize: tt.blur, PixelDelta: 25})
			defer md.Close()
			if md.config.BlurSize != tt.want {
				t.Errorf("BlurSize = %d, want %d", md.config.BlurSize, tt.want)
			}
		})
	}
}

func TestMotionDetector_Detect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := SolidFrame(640, 480, color.RGBA{})
	defer black.Close()
	white := SolidFrame(640, 480, color.RGBA{R: 255, G: 255, B: 255})
	defer white.Close()

	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	if m := md.Detect(black); m.Moving || m.Changed != 0 {
		t.Errorf("first frame should only prime, got %+v", m)
	}
	if m := md.Detect(black); m.Moving {
		t.Errorf("identical frames should not move, got %+v", m)
	}

	m := md.Detect(white)
	if !m.Moving {
		t.Errorf("black to white should be motion, got %+v", m)
	}
	if m.Changed < 50 {
		t.Errorf("Changed = %f, expected most pixels to change", m.Changed)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := SolidFrame(320, 240, color.RGBA{})
	defer black.Close()
	white := SolidFrame(320, 240, color.RGBA{R: 255, G: 255, B: 255})
	defer white.Close()

	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	md.Detect(black)
	md.Reset()

	if m := md.Detect(white); m.Moving {
		t.Error("first frame after Reset should only prime")
	}
}

func TestMotionDetector_SizeChangeReprimes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	small := SolidFrame(320, 240, color.RGBA{})
	defer small.Close()
	large := SolidFrame(640, 480, color.RGBA{R: 255, G: 255, B: 255})
	defer large.Close()

	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	md.Detect(small)
	if m := md.Detect(large); m.Moving {
		t.Error("a resolution change should re-prime rather than report motion")
	}
}

func TestMotionDetector_NilAndEmpty(t *testing.T) {
	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	if m := md.Detect(nil); m.Moving {
		t.Error("nil frame should report no motion")
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if m := md.Detect(&empty); m.Moving {
		t.Error("empty frame should report no motion")
	}
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector(DefaultMotionConfig())
	md.Close()
	md.Close()
}
