package capture

import (
	"image/color"
	"testing"
)

func TestFrameBuffer_Empty(t *testing.T) {
	b := NewFrameBuffer(DefaultBufferSize)
	defer b.Close()

	mean, ok := b.Mean()
	defer mean.Close()
	if ok {
		t.Error("empty buffer should not produce a mean")
	}
}

func TestFrameBuffer_IdenticalFramesAverageToSelf(t *testing.T) {
	frame := SolidFrame(64, 48, color.RGBA{R: 200, G: 100, B: 50})
	defer frame.Close()

	b := NewFrameBuffer(5)
	defer b.Close()
	for i := 0; i < 5; i++ {
		b.Add(frame)
	}

	mean, ok := b.Mean()
	if !ok {
		t.Fatal("expected a mean")
	}
	defer mean.Close()

	px := mean.GetVecbAt(10, 10)
	if px[0] != 50 || px[1] != 100 || px[2] != 200 {
		t.Errorf("mean pixel = %v, want [50 100 200]", px)
	}
}

func TestFrameBuffer_Average(t *testing.T) {
	dark := SolidFrame(16, 16, color.RGBA{R: 10, G: 10, B: 10})
	defer dark.Close()
	light := SolidFrame(16, 16, color.RGBA{R: 30, G: 50, B: 70})
	defer light.Close()

	b := NewFrameBuffer(2)
	defer b.Close()
	b.Add(dark)
	b.Add(light)

	mean, _ := b.Mean()
	defer mean.Close()

	px := mean.GetVecbAt(0, 0)
	if px[0] != 40 || px[1] != 30 || px[2] != 20 {
		t.Errorf("mean pixel = %v, want [40 30 20]", px)
	}
}

func TestFrameBuffer_Eviction(t *testing.T) {
	old := SolidFrame(8, 8, color.RGBA{R: 100})
	defer old.Close()
	fresh := SolidFrame(8, 8, color.RGBA{R: 20})
	defer fresh.Close()

	b := NewFrameBuffer(2)
	defer b.Close()
	b.Add(old)
	b.Add(fresh)
	b.Add(fresh)

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	mean, _ := b.Mean()
	defer mean.Close()
	if r := mean.GetVecbAt(0, 0)[2]; r != 20 {
		t.Errorf("oldest frame should be evicted, red = %d", r)
	}
}

func TestFrameBuffer_SizeChangeRestarts(t *testing.T) {
	small := SolidFrame(8, 8, color.RGBA{})
	defer small.Close()
	large := SolidFrame(16, 16, color.RGBA{})
	defer large.Close()

	b := NewFrameBuffer(4)
	defer b.Close()
	b.Add(small)
	b.Add(small)
	b.Add(large)

	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after resolution change", b.Len())
	}

	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Reset", b.Len())
	}
}
