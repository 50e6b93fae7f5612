// Package app ties capture, classification and settings into one serving
// session: it owns the camera and publishes the latest posture snapshot.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/posturewatch/internal/capture"
	"github.com/ayusman/posturewatch/internal/classifier"
	"github.com/ayusman/posturewatch/internal/objdetect"
	"github.com/ayusman/posturewatch/internal/pose"
	"github.com/ayusman/posturewatch/internal/store"
)

// Snapshot postures that are not classifier statuses.
const (
	PostureChecking = "checking"
	PosturePaused   = "paused"
)

// Config holds the collaborators of an App.
type Config struct {
	// Store persists settings and sessions. Optional.
	Store *store.Store
	// Camera is the frame source.
	Camera capture.Camera
	// Pose detects body landmarks. Required.
	Pose pose.Detector
	// Objects runs the silhouette model. Nil disables the silhouette strategy.
	Objects objdetect.Detector
	Motion  capture.MotionConfig
	Pacing  Pacing
	Logger  *zap.SugaredLogger
}

// Snapshot is the latest posture measurement of the running session.
type Snapshot struct {
	Posture       string    `json:"posture"`
	NeckAngle     int       `json:"neck_angle"`
	TorsoAngle    int       `json:"torso_angle"`
	Aligned       bool      `json:"aligned"`
	Confidence    float64   `json:"confidence"`
	RawConfidence float64   `json:"raw_confidence"`
	Strategy      string    `json:"strategy"`
	SessionID     string    `json:"session_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// App is one posture monitoring session.
type App struct {
	camera  capture.Camera
	motion  *capture.MotionDetector
	pose    pose.Detector
	objects objdetect.Detector
	store   *store.Store
	pacing  Pacing
	logger  *zap.SugaredLogger

	mu         sync.RWMutex
	classifier classifier.Classifier
	settings   store.Settings
	buffer     *capture.FrameBuffer
	snapshot   Snapshot
	enabled    bool
	sessionID  string

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// New creates an App with the persisted settings, or defaults when there is
// no store. Saved settings naming the silhouette strategy fall back to the
// geometric one when no model is loaded.
func New(config Config) (*App, error) {
	if config.Pose == nil {
		return nil, errors.New("pose detector is required")
	}
	if config.Camera == nil {
		return nil, errors.New("camera is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	motion := config.Motion
	if motion == (capture.MotionConfig{}) {
		motion = capture.DefaultMotionConfig()
	}

	a := &App{
		camera:      config.Camera,
		motion:      capture.NewMotionDetector(motion),
		pose:        config.Pose,
		objects:     config.Objects,
		store:       config.Store,
		pacing:      config.Pacing.withDefaults(),
		logger:      logger,
		enabled:     true,
		subscribers: make(map[int]func(Snapshot)),
	}

	settings := store.DefaultSettings()
	if a.store != nil {
		saved, err := a.store.Settings().Get()
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		settings = saved
	}
	if settings.Strategy == classifier.StrategySilhouette && a.objects == nil {
		logger.Warnw("no posture model loaded, using geometric strategy", "saved", settings.Strategy)
		settings.Strategy = classifier.StrategyGeometric
	}

	if err := a.install(settings); err != nil {
		return nil, err
	}
	a.snapshot = Snapshot{Posture: PostureChecking, Strategy: settings.Strategy}

	return a, nil
}

// ApplySettings validates settings, rebuilds the classifier, persists them
// and swaps them in. The smoothing window starts empty afterwards.
func (a *App) ApplySettings(settings store.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.Strategy == classifier.StrategySilhouette && a.objects == nil {
		return fmt.Errorf("%w: silhouette strategy needs a posture model", store.ErrInvalidSettings)
	}
	if a.store != nil {
		if err := a.store.Settings().Save(settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	if err := a.install(settings); err != nil {
		return err
	}
	a.logger.Infow("settings applied", "strategy", settings.Strategy)
	return nil
}

// install builds the classifier for settings and makes it current.
func (a *App) install(settings store.Settings) error {
	labels := objdetect.DefaultLabelMap()
	labels.Default = settings.DefaultLabel
	if a.store != nil {
		m, err := a.store.Labels().LabelMap(settings.DefaultLabel)
		if err != nil {
			return fmt.Errorf("load class labels: %w", err)
		}
		labels = m
	}

	c, err := classifier.New(settings.Strategy, classifier.Deps{
		Pose:       a.pose,
		Objects:    a.objects,
		Thresholds: settings.Thresholds(),
		Smoothing:  settings.Smoothing(),
		Labels:     labels,
		Acceptance: settings.Acceptance,
		Logger:     a.logger.Named("classifier"),
	})
	if err != nil {
		return fmt.Errorf("build classifier: %w", err)
	}

	a.mu.Lock()
	old := a.buffer
	a.classifier = c
	a.settings = settings
	a.buffer = capture.NewFrameBuffer(settings.FrameAveraging)
	a.snapshot.Strategy = settings.Strategy
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// ReloadLabels rebuilds the classifier so edited class labels take effect.
func (a *App) ReloadLabels() error {
	return a.install(a.Settings())
}

// Settings returns the settings in effect.
func (a *App) Settings() store.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Classifier returns the classifier in effect.
func (a *App) Classifier() classifier.Classifier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.classifier
}

// Classify runs the current classifier on a frame that did not come from the
// camera. The snapshot is not updated.
func (a *App) Classify(ctx context.Context, frame *gocv.Mat) (classifier.Observation, error) {
	return a.Classifier().Classify(ctx, frame)
}

// StartCamera opens the camera and begins a new session. It is a no-op when
// the camera is already running.
func (a *App) StartCamera() error {
	if a.camera.IsOpen() {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return err
	}

	id := uuid.NewString()
	settings := a.Settings()

	a.mu.Lock()
	a.sessionID = id
	a.snapshot = Snapshot{Posture: PostureChecking, Strategy: settings.Strategy, SessionID: id, UpdatedAt: time.Now()}
	buffer := a.buffer
	a.mu.Unlock()

	a.motion.Reset()
	buffer.Reset()
	if r, ok := a.Classifier().(interface{ Reset() }); ok {
		r.Reset()
	}

	if a.store != nil {
		if err := a.store.Sessions().Start(&store.Session{ID: id, Strategy: settings.Strategy}); err != nil {
			a.logger.Warnw("failed to record session", "session", id, "error", err)
		}
	}

	a.logger.Infow("camera session started", "session", id, "strategy", settings.Strategy)
	a.publish(a.Metrics())
	return nil
}

// StopCamera closes the camera and ends the session.
func (a *App) StopCamera() error {
	err := a.camera.Close()

	a.mu.Lock()
	id := a.sessionID
	a.sessionID = ""
	a.mu.Unlock()

	if id != "" {
		if a.store != nil {
			if serr := a.store.Sessions().Stop(id); serr != nil && !errors.Is(serr, store.ErrNotFound) {
				a.logger.Warnw("failed to record session stop", "session", id, "error", serr)
			}
		}
		a.logger.Infow("camera session stopped", "session", id)
	}
	return err
}

// CameraRunning reports whether the camera is open.
func (a *App) CameraRunning() bool {
	return a.camera.IsOpen()
}

// SetEnabled pauses or resumes classification. Frames keep streaming while paused.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	if !enabled {
		a.snapshot.Posture = PosturePaused
		a.snapshot.UpdatedAt = time.Now()
	}
	snap := a.snapshot
	a.mu.Unlock()

	a.publish(snap)
}

// IsEnabled reports whether classification is running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Metrics returns the latest snapshot.
func (a *App) Metrics() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// stream goroutine and must not block. The returned func unsubscribes.
func (a *App) Subscribe(fn func(Snapshot)) func() {
	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subscribers[id] = fn
	a.subMu.Unlock()

	return func() {
		a.subMu.Lock()
		delete(a.subscribers, id)
		a.subMu.Unlock()
	}
}

func (a *App) publish(s Snapshot) {
	a.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		fns = append(fns, fn)
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Close stops the camera and releases every detector.
func (a *App) Close() error {
	err := a.StopCamera()
	err = multierr.Append(err, a.motion.Close())
	err = multierr.Append(err, a.pose.Close())
	if a.objects != nil {
		err = multierr.Append(err, a.objects.Close())
	}

	a.mu.Lock()
	buffer := a.buffer
	a.mu.Unlock()
	if buffer != nil {
		err = multierr.Append(err, buffer.Close())
	}
	return err
}
