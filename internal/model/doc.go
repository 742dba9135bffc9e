// Package model defines the domain types for the overlay composition engine.
//
// All entities in this package are plain data: overlay metadata as loaded
// from overlay.yml manifests, base template descriptors, resolved selections,
// and the composition manifest emitted after a generation run. They carry no
// behavior beyond validation and string conversion, and they are created
// fresh for every composition run — there is no persistent in-memory state
// between runs.
package model
