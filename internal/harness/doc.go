// Package harness runs conformance scenarios against the replicated combo
// catalog.
//
// A scenario drives an in-memory host the way a live upstream would:
// publishing compiled catalogs, publishing raw values, deleting the key and
// answering reload requests. After every step it records what the client
// side observed.
//
// # Scenario Format
//
//	name: filter_by_specialty
//	description: "Filtering narrows the view; an empty filter restores it"
//	table: static        # optional, default "static"
//	key: combos          # optional, default "combos"
//	steps:
//	  - publish: ../catalogs/basic.cue
//	    expect_ids: [cold_snap, tornado_emp]
//	  - filter:
//	      properties: {specialty: qw}
//	    expect_ids: [tornado_emp]
//	  - raw: ""
//	    expect_loaded: true
//	  - reload: true
//	  - delete: true
//
// Each step performs exactly one of publish, raw, delete, reload or filter.
// publish paths are resolved relative to the scenario file. reload asks the
// catalog to reload; the host answers by republishing the last published
// catalog, recompiled from disk.
//
// # Trace
//
// The trace interleaves two event types, stamped by a deterministic clock:
//   - "change": the catalog delivered a snapshot; ids lists it by id
//   - a step event named after the step kind; ids is the view afterwards
//
// RunWithGolden compares the canonical JSON trace against
// testdata/golden/<name>.golden.
package harness
