package mirror

import (
	"log/slog"

	"github.com/roach88/combomirror/internal/callback"
	"github.com/roach88/combomirror/internal/ir"
	"github.com/roach88/combomirror/internal/normalize"
)

// NormalizeFunc turns a raw, truthy host value into the cached type.
type NormalizeFunc[T any] func(raw ir.IRValue) (T, error)

// Deep is the default NormalizeFunc: the host's array encoding is rewritten
// into native arrays at every depth.
func Deep(raw ir.IRValue) (ir.IRValue, error) {
	return normalize.NormalizeDeep(raw), nil
}

const changeTag = "change"

// EntityOption configures an Entity.
type EntityOption func(*entityConfig)

type entityConfig struct {
	logger       *slog.Logger
	beforeReload func()
}

// WithLogger sets the logger used for discarded values. Default: slog.Default().
func WithLogger(l *slog.Logger) EntityOption {
	return func(c *entityConfig) {
		c.logger = l
	}
}

// WithReloadHook runs fn during Reload, after the cache is cleared and
// before the snapshot is re-read. Used to ask the upstream to republish.
func WithReloadHook(fn func()) EntityOption {
	return func(c *entityConfig) {
		c.beforeReload = fn
	}
}

// Entity caches one key of one mirrored table as a normalized T.
//
// State machine: Empty -> Loaded -> Empty (Reload) -> Loaded -> ...
//
// INVARIANTS:
//   - subscribers only ever observe values that were truthy when published
//   - a live change always replaces the cache, even while Loaded
//   - OnChange replays the cached value to the new subscriber
type Entity[T any] struct {
	table     *TableMirror
	key       string
	normalize NormalizeFunc[T]
	cfg       entityConfig

	value  T
	loaded bool
	subs   *callback.Registry[string, T]
}

// NewEntity binds key within table. It attempts a synchronous load and then
// subscribes to future changes of key.
func NewEntity[T any](table *TableMirror, key string, fn NormalizeFunc[T], opts ...EntityOption) *Entity[T] {
	e := &Entity[T]{
		table:     table,
		key:       key,
		normalize: fn,
		subs:      callback.New[string, T](),
	}
	for _, opt := range opts {
		opt(&e.cfg)
	}
	if e.cfg.logger == nil {
		e.cfg.logger = slog.Default()
	}

	e.Load()
	table.OnKeyChange(key, func(_ string, value ir.IRValue) {
		e.set(value)
	})
	return e
}

// Key returns the bound key.
func (e *Entity[T]) Key() string {
	return e.key
}

// Table returns the bound table name.
func (e *Entity[T]) Table() string {
	return e.table.Name()
}

// Loaded reports whether a value is cached.
func (e *Entity[T]) Loaded() bool {
	return e.loaded
}

// Value returns the cached value and whether one exists.
func (e *Entity[T]) Value() (T, bool) {
	return e.value, e.loaded
}

// Load reads the host snapshot unless a value is already cached. An
// unpublished key leaves the entity Empty without logging above Debug.
func (e *Entity[T]) Load() {
	if e.loaded {
		return
	}
	raw := e.table.Get(e.key)
	if ir.IsNull(raw) {
		e.cfg.logger.Debug("snapshot not yet published", "table", e.table.Name(), "key", e.key)
		return
	}
	e.set(raw)
}

// Reload clears the cache, runs the reload hook if one is configured, and
// loads again. If the hook causes the host to publish synchronously, the
// change notification fills the cache and the final load is a no-op.
func (e *Entity[T]) Reload() {
	var zero T
	e.value = zero
	e.loaded = false

	if e.cfg.beforeReload != nil {
		e.cfg.beforeReload()
	}
	e.Load()
}

// OnChange registers fn for every future value. If a value is cached, fn is
// invoked with it before OnChange returns.
func (e *Entity[T]) OnChange(fn func(T)) {
	e.subs.On(changeTag, fn)
	if e.loaded {
		fn(e.value)
	}
}

// set is the single mutation entry point. Falsy values and values the
// normalizer rejects are logged and discarded; the cache and subscribers are
// left untouched.
func (e *Entity[T]) set(raw ir.IRValue) {
	if !ir.Truthy(raw) {
		e.cfg.logger.Warn("discarding empty value", "table", e.table.Name(), "key", e.key)
		return
	}
	v, err := e.normalize(raw)
	if err != nil {
		e.cfg.logger.Warn("discarding malformed value", "table", e.table.Name(), "key", e.key, "error", err)
		return
	}
	e.value = v
	e.loaded = true
	e.subs.Run(changeTag, v)
}
