// Package mirror turns host table notifications into cached, subscribable
// values.
//
// # Layers
//
//	Host          the replication primitive (subscribe / get / reload request)
//	TableMirror   one host subscription per table, fanned out to listeners
//	Entity[T]     one key of one table, normalized into T and cached
//
// # Execution model
//
// Everything in this package is synchronous. A Host delivers notifications
// from a single goroutine (MemoryHost delivers inline; wire.Client delivers
// from its Run loop), and every fan-out completes before the next
// notification is dispatched. Nothing here takes a lock.
//
// Subscriptions are process-lifetime: nothing is ever unsubscribed.
//
// # Failure policy
//
// A listener that panics aborts the rest of that notification's fan-out. The
// panic reaches whoever called into the host, matching the host event loop's
// own policy. A missing snapshot is not an error. A falsy published value is
// logged at Warn and discarded.
package mirror
