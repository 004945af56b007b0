// Package realtime fans row-change events out to subscribed clients.
//
// A Registry owns one channel per (user, group, table set) subscription key.
// Subscribers sharing a key share the channel; it is reference counted and
// torn down when the last subscriber releases it.
package realtime

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/diviso/diviso/internal/metrics"
)

// Ops carried by Event.Op. OpSubscribed is sent once when a stream opens
// and never comes from a row change.
const (
	OpInsert     = "INSERT"
	OpUpdate     = "UPDATE"
	OpSubscribed = "SUBSCRIBED"
)

// Event describes one row change.
type Event struct {
	Table   string `json:"table"`
	Op      string `json:"op"`
	GroupID string `json:"group_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	RowID   string `json:"row_id"`
}

// Publisher publishes row-change events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscription selects the events a client wants. An empty Tables set
// matches every table.
type Subscription struct {
	UserID  string
	GroupID string
	Tables  []string
}

// Key is the composite string that deduplicates channels.
func (s Subscription) Key() string {
	tables := append([]string(nil), s.Tables...)
	sort.Strings(tables)
	return s.UserID + "|" + s.GroupID + "|" + strings.Join(tables, ",")
}

// Registry is the process-wide set of open channels.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*channel
	buffer   int
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. buffer is the per-listener queue
// length; events for a full listener are dropped.
func NewRegistry(buffer int, logger *slog.Logger) *Registry {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		channels: make(map[string]*channel),
		buffer:   buffer,
		logger:   logger,
	}
}

type channel struct {
	key       string
	userID    string
	groupID   string
	tables    map[string]struct{}
	refs      int
	listeners map[*Listener]struct{}
}

// Listener is one subscriber's handle on a shared channel.
type Listener struct {
	key string
	c   chan Event
}

// C delivers matching events. It is closed by Release.
func (l *Listener) C() <-chan Event { return l.c }

// Acquire joins (or opens) the channel for sub.
func (r *Registry) Acquire(sub Subscription) *Listener {
	key := sub.Key()
	l := &Listener{key: key, c: make(chan Event, r.buffer)}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[key]
	if !ok {
		ch = &channel{
			key:       key,
			userID:    sub.UserID,
			groupID:   sub.GroupID,
			tables:    make(map[string]struct{}, len(sub.Tables)),
			listeners: make(map[*Listener]struct{}),
		}
		for _, t := range sub.Tables {
			ch.tables[t] = struct{}{}
		}
		r.channels[key] = ch
		metrics.RealtimeChannels.Set(float64(len(r.channels)))
		r.logger.Debug("realtime channel opened", "key", key)
	}
	ch.refs++
	ch.listeners[l] = struct{}{}
	return l
}

// Release leaves the channel. The channel closes when its count reaches zero.
// Releasing a listener twice is a no-op.
func (r *Registry) Release(l *Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[l.key]
	if !ok {
		return
	}
	if _, ok := ch.listeners[l]; !ok {
		return
	}
	delete(ch.listeners, l)
	close(l.c)
	ch.refs--
	if ch.refs == 0 {
		delete(r.channels, l.key)
		metrics.RealtimeChannels.Set(float64(len(r.channels)))
		r.logger.Debug("realtime channel closed", "key", l.key)
	}
}

// Refs returns the reference count for sub's channel, zero if closed.
func (r *Registry) Refs(sub Subscription) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ch, ok := r.channels[sub.Key()]; ok {
		return ch.refs
	}
	return 0
}

// Len returns the number of open channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Publish dispatches ev locally. It satisfies Publisher for single-instance
// deployments.
func (r *Registry) Publish(_ context.Context, ev Event) error {
	r.Dispatch(ev)
	return nil
}

// Dispatch delivers ev to every matching listener without blocking.
func (r *Registry) Dispatch(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ch := range r.channels {
		if !ch.matches(ev) {
			continue
		}
		for l := range ch.listeners {
			select {
			case l.c <- ev:
			default:
				r.logger.Warn("realtime listener full, dropping event", "key", ch.key, "table", ev.Table)
			}
		}
	}
}

func (ch *channel) matches(ev Event) bool {
	if len(ch.tables) > 0 {
		if _, ok := ch.tables[ev.Table]; !ok {
			return false
		}
	}
	if ch.groupID != "" && ev.GroupID == ch.groupID {
		return true
	}
	return ev.UserID != "" && ev.UserID == ch.userID
}
