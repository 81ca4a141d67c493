// Package accessor keeps local copies of backend collections. Reads are
// ordered by a sequence number so a slow, superseded response never
// overwrites newer state. Mutations call the backend and then refetch.
package accessor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"botpanel/internal/metrics"
)

// Options are shared by every accessor.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// OnRead is called after every applied read with its outcome. It feeds
	// the connection indicator.
	OnRead func(resource string, err error)
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

type resource[T any] struct {
	name string
	opts Options

	mu       sync.Mutex
	value    T
	loaded   bool
	inflight int
	issued   uint64
	applied  uint64
	err      string
}

func newResource[T any](name string, opts Options) *resource[T] {
	return &resource[T]{name: name, opts: opts}
}

// refetch runs fetch and applies its result unless a later read already
// landed. The returned error is the fetch error, stale or not.
func (r *resource[T]) refetch(ctx context.Context, fetch func(context.Context) (T, error)) error {
	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.inflight++
	r.mu.Unlock()

	v, err := fetch(ctx)

	r.mu.Lock()
	r.inflight--
	if seq <= r.applied {
		r.mu.Unlock()
		r.opts.Metrics.RecordStale(r.name)
		r.opts.logger().Debug("discarding stale response", zap.String("resource", r.name), zap.Uint64("seq", seq))
		return err
	}
	r.applied = seq
	if err != nil {
		r.err = err.Error()
	} else {
		r.value = v
		r.loaded = true
		r.err = ""
	}
	r.mu.Unlock()

	if err != nil {
		r.opts.logger().Warn("read failed", zap.String("resource", r.name), zap.Error(err))
	}
	if r.opts.OnRead != nil {
		r.opts.OnRead(r.name, err)
	}
	return err
}

func (r *resource[T]) get() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.loaded
}

// update edits the local value in place. Used for optimistic changes.
func (r *resource[T]) update(fn func(T) T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = fn(r.value)
}

func (r *resource[T]) loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight > 0
}

func (r *resource[T]) errText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
