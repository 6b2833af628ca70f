package cotask

import (
	"time"

	"github.com/cotask/cotask/progress"
	"github.com/cotask/cotask/service/event"
)

// Observer receives the live progress wrapper on every driver tick.  It may
// call RequestAbort at any time; it must not block and must defend itself
// against its own panics.
type Observer func(p *progress.Progress)

// Option customises a single run.
type Option func(*runOptions)

type runOptions struct {
	observer       Observer
	updateInterval time.Duration
	events         *event.Service
}

// WithObserver registers the run's progress observer, invoked at most once
// per update interval.
func WithObserver(observer Observer) Option {
	return func(o *runOptions) {
		o.observer = observer
	}
}

// WithUpdateInterval overrides the observer/emission throttle interval.
// Non-positive values keep the default.
func WithUpdateInterval(d time.Duration) Option {
	return func(o *runOptions) {
		if d > 0 {
			o.updateInterval = d
		}
	}
}

// WithEventService attaches an event journal; the driver publishes started,
// progress and terminal events for the run through it.
func WithEventService(events *event.Service) Option {
	return func(o *runOptions) {
		o.events = events
	}
}

// WithConfig applies the run-relevant settings of a Config.
func WithConfig(cfg *Config) Option {
	return func(o *runOptions) {
		if cfg == nil {
			return
		}
		if d := cfg.UpdateInterval(); d > 0 {
			o.updateInterval = d
		}
	}
}
