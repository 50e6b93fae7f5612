package plugin

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/posturewatch/internal/classifier"
)

// DefaultAlertAfter is how long posture must stay bad before plugins fire.
const DefaultAlertAfter = 30 * time.Second

const alertQueueSize = 16

// Runner executes one plugin. *Executor implements it.
type Runner interface {
	Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error)
}

// Sample is one posture reading fed to an Alerter.
type Sample struct {
	Posture    string
	NeckAngle  int
	TorsoAngle int
	SessionID  string
	At         time.Time
}

// Alerter turns a stream of posture readings into plugin events. It fires
// EventPostureBad once posture has been bad for the configured duration and
// EventPostureRecovered when posture is good again after such an alert.
// Unknown and not-detected readings leave the timer running; any other
// non-verdict reading (camera checking, paused) resets it.
type Alerter struct {
	manager *Manager
	runner  Runner
	after   time.Duration
	logger  *zap.SugaredLogger
	queue   chan Request

	mu       sync.Mutex
	badSince time.Time
	alerted  bool
}

// NewAlerter creates an Alerter. A non-positive after selects DefaultAlertAfter.
func NewAlerter(manager *Manager, runner Runner, after time.Duration, logger *zap.SugaredLogger) *Alerter {
	if after <= 0 {
		after = DefaultAlertAfter
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Alerter{
		manager: manager,
		runner:  runner,
		after:   after,
		logger:  logger,
		queue:   make(chan Request, alertQueueSize),
	}
}

// Observe records one reading and queues any event it triggers. It never
// blocks; events are dropped when the queue is full.
func (a *Alerter) Observe(s Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch s.Posture {
	case classifier.StatusBad:
		if a.badSince.IsZero() {
			a.badSince = s.At
		}
		if !a.alerted && s.At.Sub(a.badSince) >= a.after {
			a.alerted = true
			a.enqueue(EventPostureBad, s)
		}
	case classifier.StatusGood:
		if a.alerted {
			a.enqueue(EventPostureRecovered, s)
		}
		a.reset()
	case classifier.StatusUnknown, classifier.StatusNotDetected:
	default:
		a.reset()
	}
}

func (a *Alerter) reset() {
	a.badSince = time.Time{}
	a.alerted = false
}

func (a *Alerter) enqueue(event string, s Sample) {
	req := Request{
		Event:      event,
		Posture:    s.Posture,
		NeckAngle:  s.NeckAngle,
		TorsoAngle: s.TorsoAngle,
		BadSeconds: s.At.Sub(a.badSince).Seconds(),
		SessionID:  s.SessionID,
	}
	select {
	case a.queue <- req:
	default:
		a.logger.Warnw("alert queue full, dropping event", "event", event)
	}
}

// Run delivers queued events to subscribed plugins until ctx is done.
func (a *Alerter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-a.queue:
			a.dispatch(ctx, req)
		}
	}
}

func (a *Alerter) dispatch(ctx context.Context, req Request) {
	for _, p := range a.manager.ForEvent(req.Event) {
		resp, err := a.runner.Execute(ctx, p, &req)
		switch {
		case err != nil:
			a.logger.Warnw("plugin failed", "plugin", p.Manifest.Name, "event", req.Event, "error", err)
		case !resp.Success:
			a.logger.Warnw("plugin reported an error", "plugin", p.Manifest.Name, "event", req.Event, "error", resp.Error)
		default:
			a.logger.Debugw("plugin ran", "plugin", p.Manifest.Name, "event", req.Event)
		}
	}
}
