package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// DefaultBufferSize is the number of frames averaged by a FrameBuffer.
const DefaultBufferSize = 5

// FrameBuffer keeps the most recent frames and produces their per-pixel
// mean, damping sensor noise before landmark detection.
type FrameBuffer struct {
	mu     sync.Mutex
	size   int
	frames []gocv.Mat
}

// NewFrameBuffer creates a FrameBuffer holding up to size frames.
func NewFrameBuffer(size int) *FrameBuffer {
	if size < 1 {
		size = 1
	}
	return &FrameBuffer{size: size, frames: make([]gocv.Mat, 0, size)}
}

// Add stores a copy of frame, evicting the oldest when full. A frame whose
// dimensions differ from the buffered ones restarts the buffer.
func (b *FrameBuffer) Add(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.frames) > 0 {
		head := b.frames[0]
		if head.Rows() != frame.Rows() || head.Cols() != frame.Cols() || head.Type() != frame.Type() {
			b.clear()
		}
	}
	if len(b.frames) == b.size {
		b.frames[0].Close()
		copy(b.frames, b.frames[1:])
		b.frames = b.frames[:b.size-1]
	}
	b.frames = append(b.frames, frame.Clone())
}

// Mean returns the per-pixel average of the buffered frames. ok is false
// when the buffer is empty. The caller owns the returned Mat.
func (b *FrameBuffer) Mean() (mean gocv.Mat, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.frames) == 0 {
		return gocv.NewMat(), false
	}
	if len(b.frames) == 1 {
		return b.frames[0].Clone(), true
	}

	acc := gocv.NewMat()
	defer acc.Close()
	b.frames[0].ConvertTo(&acc, gocv.MatTypeCV32F)

	tmp := gocv.NewMat()
	defer tmp.Close()
	for _, f := range b.frames[1:] {
		f.ConvertTo(&tmp, gocv.MatTypeCV32F)
		gocv.Add(acc, tmp, &acc)
	}
	acc.DivideFloat(float32(len(b.frames)))

	out := gocv.NewMat()
	acc.ConvertTo(&out, gocv.MatTypeCV8U)
	return out, true
}

// Len returns the number of buffered frames.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// Reset drops all buffered frames.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clear()
}

// Close releases the buffered frames.
func (b *FrameBuffer) Close() error {
	b.Reset()
	return nil
}

func (b *FrameBuffer) clear() {
	for i := range b.frames {
		b.frames[i].Close()
	}
	b.frames = b.frames[:0]
}
