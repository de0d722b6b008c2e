package mirror

import (
	"fmt"

	"github.com/roach88/combomirror/internal/ir"
)

// MemoryHost is an in-process Host with a server-side write path.
//
// Set and Delete notify subscribers of the table inline, in subscription
// order, before returning. MemoryHost is not safe for concurrent use.
type MemoryHost struct {
	tables  map[string]map[string]ir.IRValue
	subs    []memorySub
	reloads int

	// OnReload, if set, runs for every SendReloadRequest. Tests use it to
	// republish synchronously the way a live upstream would.
	OnReload func()
}

type memorySub struct {
	table  string
	handle Handle
	fn     NotifyFunc
}

// NewMemoryHost creates an empty host.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{tables: make(map[string]map[string]ir.IRValue)}
}

// Subscribe implements Host.
func (h *MemoryHost) Subscribe(table string, fn NotifyFunc) Handle {
	handle := Handle(fmt.Sprintf("mem-%d", len(h.subs)+1))
	h.subs = append(h.subs, memorySub{table: table, handle: handle, fn: fn})
	return handle
}

// Get implements Host.
func (h *MemoryHost) Get(table, key string) ir.IRValue {
	return h.tables[table][key]
}

// SendReloadRequest implements Host.
func (h *MemoryHost) SendReloadRequest() {
	h.reloads++
	if h.OnReload != nil {
		h.OnReload()
	}
}

// ReloadRequests returns how many reload requests were received.
func (h *MemoryHost) ReloadRequests() int {
	return h.reloads
}

// Set publishes value under (table, key) and notifies subscribers.
func (h *MemoryHost) Set(table, key string, value ir.IRValue) {
	t, ok := h.tables[table]
	if !ok {
		t = make(map[string]ir.IRValue)
		h.tables[table] = t
	}
	t[key] = value
	h.notify(table, key, value)
}

// Delete removes (table, key) and notifies subscribers with ir.IRNull{}.
func (h *MemoryHost) Delete(table, key string) {
	delete(h.tables[table], key)
	h.notify(table, key, ir.IRNull{})
}

// Subscriptions returns the number of subscriptions registered for table.
func (h *MemoryHost) Subscriptions(table string) int {
	n := 0
	for _, s := range h.subs {
		if s.table == table {
			n++
		}
	}
	return n
}

func (h *MemoryHost) notify(table, key string, value ir.IRValue) {
	subs := h.subs
	for _, s := range subs {
		if s.table == table {
			s.fn(table, key, value)
		}
	}
}
