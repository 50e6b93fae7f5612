package app

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/posturewatch/internal/capture"
	"github.com/ayusman/posturewatch/internal/classifier"
	"github.com/ayusman/posturewatch/internal/overlay"
)

// Pacing controls the stream frame rate. The stream runs at ActiveFPS while
// the subject moves and drops to IdleFPS after IdleTimeout without motion.
type Pacing struct {
	IdleFPS      int
	ActiveFPS    int
	IdleTimeout  time.Duration
	ReadBackoff  time.Duration
	JPEGQuality  int
	MaxFrameSide int
}

// DefaultPacing returns the stream defaults.
func DefaultPacing() Pacing {
	return Pacing{
		IdleFPS:      5,
		ActiveFPS:    15,
		IdleTimeout:  2 * time.Second,
		ReadBackoff:  100 * time.Millisecond,
		JPEGQuality:  capture.DefaultJPEGQuality,
		MaxFrameSide: capture.MaxTransmitSide,
	}
}

func (p Pacing) withDefaults() Pacing {
	d := DefaultPacing()
	if p.IdleFPS <= 0 {
		p.IdleFPS = d.IdleFPS
	}
	if p.ActiveFPS <= 0 {
		p.ActiveFPS = d.ActiveFPS
	}
	if p.IdleTimeout <= 0 {
		p.IdleTimeout = d.IdleTimeout
	}
	if p.ReadBackoff <= 0 {
		p.ReadBackoff = d.ReadBackoff
	}
	if p.JPEGQuality <= 0 {
		p.JPEGQuality = d.JPEGQuality
	}
	if p.MaxFrameSide <= 0 {
		p.MaxFrameSide = d.MaxFrameSide
	}
	return p
}

// Stream reads camera frames, classifies and annotates them, and passes each
// encoded JPEG to fn until ctx is done, the camera is stopped or fn fails.
//
// Read failures back off and retry. Classification failures are logged and
// the frame is sent unannotated.
func (a *App) Stream(ctx context.Context, fn func(jpeg []byte) error) error {
	if !a.camera.IsOpen() {
		return capture.ErrCameraNotOpen
	}

	active := true
	lastMotion := time.Now()
	ticker := time.NewTicker(time.Second / time.Duration(a.pacing.ActiveFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if errors.Is(err, capture.ErrCameraNotOpen) {
			return err
		}
		if err != nil {
			a.logger.Debugw("frame read failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.pacing.ReadBackoff):
			}
			continue
		}

		if m := a.motion.Detect(frame); m.Moving {
			lastMotion = time.Now()
			if !active {
				active = true
				ticker.Reset(time.Second / time.Duration(a.pacing.ActiveFPS))
				a.logger.Debugw("switched to active frame rate", "fps", a.pacing.ActiveFPS)
			}
		} else if active && time.Since(lastMotion) > a.pacing.IdleTimeout {
			active = false
			ticker.Reset(time.Second / time.Duration(a.pacing.IdleFPS))
			a.logger.Debugw("switched to idle frame rate", "fps", a.pacing.IdleFPS)
		}

		jpeg, err := a.processFrame(ctx, frame)
		frame.Close()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Warnw("frame dropped", "error", err)
			continue
		}

		if err := fn(jpeg); err != nil {
			return err
		}
	}
}

// processFrame classifies frame, updates the snapshot and returns the
// annotated, downscaled JPEG.
func (a *App) processFrame(ctx context.Context, frame *gocv.Mat) ([]byte, error) {
	a.mu.RLock()
	c := a.classifier
	settings := a.settings
	buffer := a.buffer
	enabled := a.enabled
	a.mu.RUnlock()

	if enabled {
		obs, err := a.classify(ctx, c, buffer, settings.FrameAveraging, frame)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			a.logger.Warnw("classification failed", "strategy", c.Name(), "error", err)
		} else {
			a.record(obs, c.Name())
			if settings.Overlay {
				overlay.Draw(frame, obs)
			}
		}
	}

	out := capture.FitWithin(*frame, a.pacing.MaxFrameSide)
	defer out.Close()
	return capture.EncodeJPEG(out, a.pacing.JPEGQuality)
}

func (a *App) classify(ctx context.Context, c classifier.Classifier, buffer *capture.FrameBuffer, averaging int, frame *gocv.Mat) (classifier.Observation, error) {
	if averaging <= 1 {
		return c.Classify(ctx, frame)
	}

	buffer.Add(frame)
	mean, ok := buffer.Mean()
	defer mean.Close()
	if !ok {
		return c.Classify(ctx, frame)
	}
	return c.Classify(ctx, &mean)
}

// record stores obs as the current snapshot and notifies subscribers.
func (a *App) record(obs classifier.Observation, strategy string) {
	a.mu.Lock()
	a.snapshot = Snapshot{
		Posture:       obs.Status,
		NeckAngle:     obs.NeckAngle,
		TorsoAngle:    obs.TorsoAngle,
		Aligned:       obs.Aligned,
		Confidence:    obs.Confidence,
		RawConfidence: obs.RawConfidence,
		Strategy:      strategy,
		SessionID:     a.sessionID,
		UpdatedAt:     time.Now(),
	}
	snap := a.snapshot
	a.mu.Unlock()

	a.publish(snap)
}
