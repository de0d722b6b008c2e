// Package engine implements the single-writer event loop that serializes
// replica mutations and subscriber notifications.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Network readers, HTTP handlers and reload triggers never touch mirrored
// state directly. They enqueue events; Loop.Run dequeues them one at a time
// in one goroutine and hands each to the configured handler. This ensures:
//   - subscribers observe changes in the order the upstream sent them
//   - the mirror layer needs no locking of its own
//   - a slow subscriber delays later events instead of racing them
//
// Event Processing Flow:
//  1. Producers call Enqueue (any goroutine)
//  2. Run stamps each event with the next tick from Clock
//  3. EventTypeFunc events run inline; everything else goes to the handler
//  4. Handler errors are logged with the event context and the loop continues
//
// Ordering uses the logical Clock. Wall-clock time is never used to order
// events.
package engine
