// Package fs provides a filesystem-backed queue built on viant/afs.  It is
// used as a durable journal transport for run events: every message lives as
// a JSON file that moves between per-state directories, so the journal can
// be inspected with ordinary file tools after the process exits.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"

	"github.com/cotask/cotask/internal/clock"
	"github.com/cotask/cotask/internal/idgen"
	"github.com/cotask/cotask/service/messaging"
)

// State tracks where a message sits in its lifecycle.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Config holds the filesystem queue settings.
type Config struct {
	// BaseURL is the directory (any afs-supported scheme) holding the
	// per-state sub-directories.
	BaseURL string
	// MaxRetries bounds how often a nacked message is retried before it is
	// left in the failed directory for good.
	MaxRetries int
}

// DefaultConfig returns the standard filesystem queue configuration.
func DefaultConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, MaxRetries: 3}
}

// Message implements messaging.Message for the filesystem queue.
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Retries   int       `json:"retries"`

	queue     *Queue[T]
	mu        sync.Mutex
	processed bool
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack moves the message file into the completed directory.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = StateCompleted
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m, m.queue.completedDir)
}

// Nack records the error and moves the message into the failed directory,
// from where Consume retries it while the retry budget lasts.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = StateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m, m.queue.failedDir)
}

// Queue implements messaging.Queue on top of an afs location.
type Queue[T any] struct {
	fs     afs.Service
	config Config

	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string

	mu sync.Mutex
}

// NewQueue creates the queue and its state directories.
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    path.Join(config.BaseURL, string(StatePending)),
		processingDir: path.Join(config.BaseURL, string(StateProcessing)),
		completedDir:  path.Join(config.BaseURL, string(StateCompleted)),
		failedDir:     path.Join(config.BaseURL, string(StateFailed)),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.failedDir} {
		exists, _ := fs.Exists(ctx, dir)
		if exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes a new message file into the pending directory.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := clock.Now()
	message := &Message[T]{
		ID:        idgen.New(),
		Data:      *t,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.upload(ctx, path.Join(q.pendingDir, q.filename(message)), data)
}

// Consume claims the oldest pending message, falling back to retry-eligible
// failed messages.  It returns (nil, nil) when the queue is empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if msg, err := q.claim(ctx, q.pendingDir, 0); msg != nil || err != nil {
		return unwrap(msg), err
	}
	msg, err := q.claim(ctx, q.failedDir, q.config.MaxRetries)
	return unwrap(msg), err
}

// unwrap keeps a typed nil from escaping into the interface return value.
func unwrap[T any](m *Message[T]) messaging.Message[T] {
	if m == nil {
		return nil
	}
	return m
}

// claim moves the oldest eligible message from dir into processing.
func (q *Queue[T]) claim(ctx context.Context, dir string, maxRetries int) (*Message[T], error) {
	objects, err := q.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	// List order is storage-dependent; the zero-padded timestamp prefix in
	// the file names carries the FIFO order.
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Name() < objects[j].Name()
	})
	for _, obj := range objects {
		if obj.IsDir() || !strings.HasSuffix(obj.Name(), ".json") {
			continue
		}
		message, err := q.read(ctx, obj.URL())
		if err != nil {
			return nil, err
		}
		if message.Retries > maxRetries {
			continue
		}
		message.State = StateProcessing
		message.UpdatedAt = clock.Now()
		message.queue = q

		data, err := json.Marshal(message)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message %s: %w", message.ID, err)
		}
		if err := q.upload(ctx, path.Join(q.processingDir, obj.Name()), data); err != nil {
			return nil, err
		}
		if err := q.fs.Delete(ctx, obj.URL()); err != nil {
			return nil, fmt.Errorf("failed to remove claimed message %s: %w", obj.URL(), err)
		}
		return message, nil
	}
	return nil, nil
}

// settle rewrites the message under dir and removes it from processing.
func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dir string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	name := q.filename(m)
	if err := q.upload(ctx, path.Join(dir, name), data); err != nil {
		return err
	}
	processingPath := path.Join(q.processingDir, name)
	if exists, _ := q.fs.Exists(ctx, processingPath); exists {
		if err := q.fs.Delete(ctx, processingPath); err != nil {
			return fmt.Errorf("failed to remove processed message %s: %w", processingPath, err)
		}
	}
	return nil
}

func (q *Queue[T]) filename(m *Message[T]) string {
	return fmt.Sprintf("%020d-%s.json", m.CreatedAt.UnixNano(), m.ID)
}

func (q *Queue[T]) upload(ctx context.Context, destination string, data []byte) error {
	return q.fs.Upload(ctx, destination, file.DefaultFileOsMode, bytes.NewBuffer(data))
}

func (q *Queue[T]) read(ctx context.Context, url string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", url, err)
	}
	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", url, err)
	}
	return &message, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
