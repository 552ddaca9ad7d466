package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type Loader[T any] func(ctx context.Context) ([]T, error)

// Table is a read-through snapshot of one store table. Readers get the last
// loaded slice; Invalidate drops it so the next read reloads. Callers must
// treat returned items as read-only.
type Table[T any] struct {
	name string
	load Loader[T]

	mu       sync.RWMutex
	items    []T
	loaded   bool
	loadedAt time.Time
	// gen is bumped on every invalidation so a load that started before it
	// does not publish stale rows.
	gen uint64

	sf singleflight.Group
}

func NewTable[T any](name string, load Loader[T]) *Table[T] {
	return &Table[T]{name: name, load: load}
}

func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	t.mu.RLock()
	if t.loaded {
		items := t.items
		t.mu.RUnlock()
		return items, nil
	}
	t.mu.RUnlock()

	v, err, _ := t.sf.Do("load", func() (any, error) {
		return t.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

func (t *Table[T]) Refresh(ctx context.Context) error {
	_, err := t.reload(ctx)
	return err
}

func (t *Table[T]) reload(ctx context.Context) ([]T, error) {
	t.mu.RLock()
	gen := t.gen
	t.mu.RUnlock()

	items, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.gen == gen {
		t.items = items
		t.loaded = true
		t.loadedAt = time.Now()
	}
	t.mu.Unlock()
	return items, nil
}

func (t *Table[T]) Invalidate() {
	t.mu.Lock()
	t.items = nil
	t.loaded = false
	t.gen++
	t.mu.Unlock()
}

// LoadedAt is the zero time while the table is not loaded.
func (t *Table[T]) LoadedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.loaded {
		return time.Time{}
	}
	return t.loadedAt
}

type Refresher interface {
	Name() string
	Invalidate()
	Refresh(ctx context.Context) error
}

// InvalidateHook is called after tables are dropped locally, e.g. to tell
// other instances.
type InvalidateHook func(ctx context.Context, tables []string)

type Registry struct {
	log *zap.Logger

	mu     sync.RWMutex
	tables map[string]Refresher
	hooks  []InvalidateHook
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{log: log, tables: map[string]Refresher{}}
}

func (r *Registry) Register(t Refresher) {
	r.mu.Lock()
	r.tables[t.Name()] = t
	r.mu.Unlock()
}

func (r *Registry) OnInvalidate(h InvalidateHook) {
	r.mu.Lock()
	r.hooks = append(r.hooks, h)
	r.mu.Unlock()
}

// Invalidate drops the named tables and runs the hooks.
func (r *Registry) Invalidate(ctx context.Context, tables ...string) {
	r.InvalidateLocal(tables...)
	r.mu.RLock()
	hooks := append([]InvalidateHook(nil), r.hooks...)
	r.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, tables)
	}
}

// InvalidateLocal drops the named tables without running hooks. No names
// means every table.
func (r *Registry) InvalidateLocal(tables ...string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(tables) == 0 {
		for _, t := range r.tables {
			t.Invalidate()
		}
		return
	}
	for _, name := range tables {
		if t, ok := r.tables[name]; ok {
			t.Invalidate()
		}
	}
}

func (r *Registry) RefreshAll(ctx context.Context) error {
	r.mu.RLock()
	tables := make([]Refresher, 0, len(r.tables))
	for _, t := range r.tables {
		tables = append(tables, t)
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tables {
		g.Go(func() error {
			if err := t.Refresh(gctx); err != nil {
				r.log.Warn("cache refresh failed", zap.String("table", t.Name()), zap.Error(err))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Run refreshes every table on interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.RefreshAll(ctx)
		}
	}
}
