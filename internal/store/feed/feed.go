// Package feed fans out full list snapshots to subscribers.
//
// Every subscriber owns a one-slot channel. Publishing never blocks: when a
// subscriber has not consumed the previous snapshot yet, that snapshot is
// replaced by the new one, so a slow reader always catches up to the latest
// state instead of replaying history.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/idilsaglam/shoplist/internal/model"
)

// Feed is a publish/subscribe registry of item snapshots.
// Snapshots handed to subscribers are shared and must be treated as read-only.
type Feed struct {
	mu     sync.Mutex
	subs   map[string]chan []model.Item
	done   chan struct{}
	closed bool
	logger *slog.Logger
}

// New creates an empty feed. Pass nil logger for default.
func New(logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		subs:   make(map[string]chan []model.Item),
		done:   make(chan struct{}),
		logger: logger.With("component", "feed"),
	}
}

// Subscribe registers a subscriber whose channel already holds seed.
// The subscription ends when ctx is cancelled, Unsubscribe is called or the
// feed is closed; the channel is closed in every case.
func (f *Feed) Subscribe(ctx context.Context, seed []model.Item) (<-chan []model.Item, string) {
	id := uuid.New().String()
	ch := make(chan []model.Item, 1)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch, id
	}
	ch <- seed
	f.subs[id] = ch
	f.mu.Unlock()

	f.logger.Debug("subscriber added", "sub_id", id)

	go func() {
		select {
		case <-ctx.Done():
			f.Unsubscribe(id)
		case <-f.done:
		}
	}()

	return ch, id
}

// Publish pushes items to every subscriber, replacing any snapshot a
// subscriber has not received yet.
func (f *Feed) Publish(items []model.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, ch := range f.subs {
		select {
		case ch <- items:
			continue
		default:
		}

		// stale snapshot still pending
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- items:
			f.logger.Debug("replaced stale snapshot", "sub_id", id)
		default:
			f.logger.Warn("dropped snapshot", "sub_id", id)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (f *Feed) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, ok := f.subs[id]
	if !ok {
		return
	}
	delete(f.subs, id)
	close(ch)

	f.logger.Debug("subscriber removed", "sub_id", id)
}

// Len reports the number of active subscribers.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close ends every subscription. Later subscribers get a closed channel.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
	for id, ch := range f.subs {
		close(ch)
		delete(f.subs, id)
	}

	f.logger.Debug("feed closed")
}
