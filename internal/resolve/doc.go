// Package resolve computes the closed, conflict-free overlay selection from
// a user's explicit choices.
//
// Resolution is a breadth-first closure over requires edges, followed by a
// defensive two-way conflict check over every pair in the closure. The
// output ordering — fixed category precedence, then first-discovery order
// within a category — is used unchanged as the fold order for merging, so
// it directly determines last-writer-wins outcomes downstream.
package resolve
