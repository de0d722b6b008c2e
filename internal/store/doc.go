// Package store provides SQLite-backed storage for the upstream's tables.
//
// The store keeps two relations:
//   - entries: the current value of every (table, key)
//   - changes: an append-only log of every write and delete
//
// # Patterns
//
// Logical Time
//   - Every change gets the next seq from the changes table
//   - Ordering uses seq, never timestamps
//   - A reconnecting replica asks for ChangesSince(lastSeq)
//
// Content Digests
//   - Each entry carries ir.EntryDigest of its canonical JSON
//   - A write whose digest matches the stored entry is not logged
//
// Deterministic Reads
//   - Snapshot and change queries order by key or seq with BINARY collation
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Values are stored as RFC 8785 canonical JSON produced by ir.MarshalCanonical.
package store
