// Package mediator connects the list presenter to the item store.
//
// AddItem and RemoveItem return immediately: each call becomes one job on a
// fixed pool of background workers. Jobs carry no ordering guarantee
// relative to each other once more than one worker runs; two calls made in
// quick succession may reach the store in either order. The store's own
// single-writer locking keeps each job atomic.
//
// A failed job is never reported to the caller that queued it. It is logged,
// and handed to the error handler when one is configured.
package mediator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/shoplist/internal/model"
)

const (
	DefaultWorkers   = 2
	DefaultQueueSize = 64
)

// ErrClosed is reported for jobs queued after Close.
var ErrClosed = errors.New("mediator closed")

// ItemStore is the storage the mediator drives.
type ItemStore interface {
	FetchAll(ctx context.Context) (<-chan []model.Item, error)
	Insert(ctx context.Context, name string) (model.Item, error)
	Delete(ctx context.Context, item model.Item) error
}

// Option configures a Mediator.
type Option func(*Mediator)

// WithWorkers sets the number of background workers. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(m *Mediator) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithQueueSize sets how many jobs can wait before dispatch falls back to a
// handoff goroutine. Values below 1 are ignored.
func WithQueueSize(n int) Option {
	return func(m *Mediator) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// WithErrorHandler registers fn to receive failed jobs. fn runs on a worker
// goroutine and may be called concurrently.
func WithErrorHandler(fn func(error)) Option {
	return func(m *Mediator) { m.onError = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mediator) {
		if l != nil {
			m.logger = l
		}
	}
}

type job struct {
	op  string
	run func(ctx context.Context) error
}

// Mediator is the UI-facing surface of the shopping list. It keeps no copy of
// the items; ObserveItems is the store's stream.
type Mediator struct {
	store     ItemStore
	workers   int
	queueSize int
	onError   func(error)
	logger    *slog.Logger

	jobs    chan job
	group   errgroup.Group
	mu      sync.RWMutex
	closed  bool
	handoff sync.WaitGroup
}

// New starts the worker pool over store.
func New(store ItemStore, opts ...Option) *Mediator {
	m := &Mediator{
		store:     store,
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "mediator")
	m.jobs = make(chan job, m.queueSize)

	for i := 0; i < m.workers; i++ {
		m.group.Go(m.work)
	}
	return m
}

// ObserveItems returns the live list stream for the presenter.
func (m *Mediator) ObserveItems(ctx context.Context) (<-chan []model.Item, error) {
	return m.store.FetchAll(ctx)
}

// AddItem queues an insert of name. Validation belongs to the presenter.
func (m *Mediator) AddItem(name string) {
	m.dispatch(job{
		op: fmt.Sprintf("add item %q", name),
		run: func(ctx context.Context) error {
			it, err := m.store.Insert(ctx, name)
			if err != nil {
				return err
			}
			m.logger.Debug("item added", "id", it.ID)
			return nil
		},
	})
}

// RemoveItem queues a delete of item.
func (m *Mediator) RemoveItem(item model.Item) {
	m.dispatch(job{
		op: fmt.Sprintf("remove item %d", item.ID),
		run: func(ctx context.Context) error {
			return m.store.Delete(ctx, item)
		},
	})
}

// Close stops accepting jobs, runs everything already queued and waits for
// the workers to exit.
func (m *Mediator) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.handoff.Wait()
	close(m.jobs)
	return m.group.Wait()
}

func (m *Mediator) dispatch(j job) {
	if !m.enqueue(j) {
		m.fail(j.op, ErrClosed)
	}
}

func (m *Mediator) enqueue(j job) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false
	}
	select {
	case m.jobs <- j:
		return true
	default:
	}

	// queue full; the caller must not wait
	m.handoff.Add(1)
	go func() {
		defer m.handoff.Done()
		m.jobs <- j
	}()
	return true
}

func (m *Mediator) work() error {
	for j := range m.jobs {
		if err := j.run(context.Background()); err != nil {
			m.fail(j.op, err)
		}
	}
	return nil
}

func (m *Mediator) fail(op string, err error) {
	m.logger.Error("storage operation failed", "op", op, "err", err)
	if m.onError != nil {
		m.onError(fmt.Errorf("%s: %w", op, err))
	}
}
