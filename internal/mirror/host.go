package mirror

import "github.com/roach88/combomirror/internal/ir"

// NotifyFunc receives one host change: the table it belongs to, the key, and
// the new value. A deleted key arrives as ir.IRNull{}.
type NotifyFunc func(table, key string, value ir.IRValue)

// Handle identifies a host subscription. Handles are never released.
type Handle string

// Host is the replication primitive this package consumes.
//
// Implementations: MemoryHost (in-process) and wire.Client (WebSocket).
type Host interface {
	// Subscribe registers fn for changes to table. fn is invoked zero or more
	// times, in the order the host applied the changes.
	Subscribe(table string, fn NotifyFunc) Handle

	// Get is a synchronous point-in-time read. It returns nil when the host
	// has not published key.
	Get(table, key string) ir.IRValue

	// SendReloadRequest asks the upstream to republish. Fire-and-forget.
	SendReloadRequest()
}
