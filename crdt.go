// Package rga implements a Replicated Growable Array (RGA), a sequence
// CRDT for collaborative text-like editing.
//
// An RGA lets any number of independent replicas insert and delete
// elements concurrently, exchange the resulting operations in any order
// and with arbitrary duplication, and still converge to a byte-identical
// sequence. Every inserted element carries a globally unique identifier
// derived from a Lamport logical clock, and is anchored to the identifier
// of the element it was inserted after. The deterministic total order on
// identifiers resolves concurrent insertions at the same anchor, so all
// replicas compute the same document without coordination.
//
// Deleted elements are retained as tombstones so that operations from
// replicas that have not yet observed the deletion still resolve.
// Tombstone reclamation, transport, and persistence are external
// concerns; the package only requires that every Node value produced by
// one replica is eventually delivered to every other replica.
package rga

// CRDT is the base interface satisfied by convergent replicated types in
// this package.
//
// Implementing types must ensure that applying remote state is
// commutative, associative, and idempotent, so that all replicas that
// receive the same set of updates reach the same state regardless of
// delivery order or duplication.
type CRDT interface {
	// Value returns the current consolidated state of the CRDT.
	//
	// For the RGA this is the linearized visible sequence (a string).
	// Callers may need a type assertion to use the underlying data.
	Value() any

	// Merge incorporates a batch of remote node records into the local
	// instance. Nodes may arrive in any order, before their causal
	// predecessors, and more than once; none of that may affect the
	// converged result.
	Merge(nodes []Node)
}
