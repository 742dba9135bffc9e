// Package merge implements deep structural merging of configuration
// fragments.
//
// Fragments arrive as generic values decoded by encoding/json or yaml.v3.
// At the package boundary they are converted into a tagged-variant Node
// (mapping / sequence / scalar) so the merge algorithm dispatches on an
// explicit tag instead of inspecting runtime types at every step.
//
// Key responsibilities:
//   - Deep merge of two nested fragments (mapping recursion, sequence
//     union, last-writer-wins for primitives)
//   - Search-path-aware merging of environment variable maps
//   - Package-list token union
//   - Pruning of dangling depends_on references
package merge
