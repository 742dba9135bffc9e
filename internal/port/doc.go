// Package port applies a numeric offset to port declarations across the
// heterogeneous shapes they appear in: bare integers, "host:container"
// mapping strings, and KEY=NUMBER environment lines.
//
// All functions are pure and total on well-formed input: values that do not
// parse as ports pass through unchanged, and offset 0 is the identity
// transform for every shape. Only host-facing ports are ever rewritten; the
// container side of a mapping is never altered.
package port
