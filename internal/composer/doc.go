// Package composer drives a composition run: dependency resolution, folding
// overlay fragments into merged documents, port offset rewriting, manifest
// construction, and finally writing the output directory.
//
// A run is single-threaded and all-or-nothing: every document is
// accumulated fully in memory and nothing touches the filesystem until the
// whole composition has succeeded, so a failed run leaves no partial state
// behind and can simply be retried.
package composer
