// Package combo mirrors the combo catalog and derives query views over it.
//
// A combo is an ordered ability/item cast sequence. The upstream publishes
// the whole catalog under one table key in the host's array encoding. Catalog
// normalizes every publication into a fresh Snapshot of typed Combos;
// View filters and sorts a Snapshot's entries on demand.
//
// Derived fields (Step flags, ResourceCostsByName, Text) are rebuilt from
// the raw record on every publication and are never set independently.
package combo
