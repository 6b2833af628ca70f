package event

import (
	"context"
	"fmt"

	"github.com/viant/afs"

	"github.com/cotask/cotask/service/messaging"
	fsq "github.com/cotask/cotask/service/messaging/fs"
	"github.com/cotask/cotask/service/messaging/memory"
)

// Service routes run events through the configured queue and fans them out
// to an optional listener.
type Service struct {
	queue    messaging.Queue[RunEvent]
	listener *Listener
}

// Option customises the event service.
type Option func(*options)

type options struct {
	queue      messaging.Queue[RunEvent]
	memConfig  memory.Config
	fsConfig   fsq.Config
	hasFsBase  bool
	hasMemConf bool
}

// WithQueue supplies a ready-made queue, overriding the vendor selection.
func WithQueue(queue messaging.Queue[RunEvent]) Option {
	return func(o *options) {
		o.queue = queue
	}
}

// WithMemoryConfig overrides the in-memory queue configuration.
func WithMemoryConfig(cfg memory.Config) Option {
	return func(o *options) {
		o.memConfig = cfg
		o.hasMemConf = true
	}
}

// WithFsConfig sets the filesystem queue configuration; required for the fs
// vendor.
func WithFsConfig(cfg fsq.Config) Option {
	return func(o *options) {
		o.fsConfig = cfg
		o.hasFsBase = cfg.BaseURL != ""
	}
}

// New creates the event service for the requested queue vendor.
func New(vendor messaging.Vendor, opts ...Option) (*Service, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.queue != nil {
		return &Service{queue: o.queue}, nil
	}
	switch vendor {
	case messaging.VendorMemory, "":
		cfg := memory.DefaultConfig()
		if o.hasMemConf {
			cfg = o.memConfig
		}
		return &Service{queue: memory.NewQueue[RunEvent](cfg)}, nil
	case messaging.VendorFS:
		if !o.hasFsBase {
			return nil, fmt.Errorf("fs queue vendor requires a base URL")
		}
		queue, err := fsq.NewQueue[RunEvent](afs.New(), o.fsConfig)
		if err != nil {
			return nil, err
		}
		return &Service{queue: queue}, nil
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", vendor)
}

// Publish appends an event to the journal queue.
func (s *Service) Publish(ctx context.Context, ev *RunEvent) error {
	return s.queue.Publish(ctx, ev)
}

// SetListener replaces the active listener with one invoking handler for
// every consumed event.  Passing nil stops consumption.
func (s *Service) SetListener(handler func(*RunEvent)) {
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	if handler == nil {
		return
	}
	s.listener = NewListener(s.queue, handler)
	s.listener.Start()
}

// Close stops the listener, if any.
func (s *Service) Close() {
	s.SetListener(nil)
}
