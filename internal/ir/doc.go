// Package ir provides the value representation shared by every layer of
// combomirror.
//
// Host tables are untyped trees. They cross into the process as IRValue, a
// sealed union of IRNull, IRString, IRInt, IRBool, IRArray and IRObject. The
// union exists only at the boundary: normalize rewrites it, and domain
// packages (combo) convert it into typed structs immediately afterwards.
//
// Key design constraints:
//   - NO float types - host numbers are int64
//   - IRObject iteration goes through SortedKeys for deterministic output
//   - ir imports nothing internal
package ir
