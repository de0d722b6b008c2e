package mirror

import (
	"github.com/roach88/combomirror/internal/callback"
	"github.com/roach88/combomirror/internal/ir"
)

// ChangeFunc receives a change to one key of a mirrored table.
type ChangeFunc func(key string, value ir.IRValue)

// Change is the payload passed through per-key registries.
type Change struct {
	Key   string
	Value ir.IRValue
}

// TableMirror owns exactly one host subscription for one table name.
//
// Several mirrors may exist for the same table; each subscribes on its own.
// That duplication is tolerated, not deduplicated.
type TableMirror struct {
	name   string
	host   Host
	handle Handle

	listeners []ChangeFunc
	byKey     *callback.Registry[string, Change]
}

// NewTableMirror subscribes to table on host immediately.
func NewTableMirror(host Host, table string) *TableMirror {
	m := &TableMirror{
		name:  table,
		host:  host,
		byKey: callback.New[string, Change](),
	}
	m.handle = host.Subscribe(table, m.dispatch)
	return m
}

// Name returns the mirrored table name.
func (m *TableMirror) Name() string {
	return m.name
}

// Handle returns the host subscription handle.
func (m *TableMirror) Handle() Handle {
	return m.handle
}

// OnChange registers a listener for every key in the table. No replay.
func (m *TableMirror) OnChange(fn ChangeFunc) {
	m.listeners = append(m.listeners, fn)
}

// OnKeyChange registers a listener for one key. No replay.
func (m *TableMirror) OnKeyChange(key string, fn ChangeFunc) {
	m.byKey.On(key, func(c Change) { fn(c.Key, c.Value) })
}

// Get reads the host's current value for key (nil if unpublished).
func (m *TableMirror) Get(key string) ir.IRValue {
	return m.host.Get(m.name, key)
}

// dispatch fans one host notification out: table-wide listeners first, then
// listeners for the key, each in registration order. Notifications for other
// tables are ignored.
func (m *TableMirror) dispatch(table, key string, value ir.IRValue) {
	if table != m.name {
		return
	}
	listeners := m.listeners
	for _, fn := range listeners {
		fn(key, value)
	}
	m.byKey.Run(key, Change{Key: key, Value: value})
}
