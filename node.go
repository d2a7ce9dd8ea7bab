package rga

import "sync/atomic"

// Node is the replication record for a single element of the sequence.
//
// It is the value shipped between replicas: all six identifier fields
// (the ID and Origin triples), the character, and the tombstone flag must
// survive any wire format intact. Origin is the identifier of the element
// this one was inserted after. A Node equals another (see Equal) iff their
// IDs are equal; an ID pins the character and origin for good.
type Node struct {
	ID       ID   `json:"id"`
	Origin   ID   `json:"origin"`
	Char     rune `json:"char"`
	Deleted  bool `json:"deleted"`
	Sentinel bool `json:"sentinel,omitempty"`
}

// Visible reports whether the node contributes a character to the
// linearized sequence.
func (n Node) Visible() bool { return !n.Deleted && !n.Sentinel }

// Equal reports whether n and o describe the same element, comparing
// identifiers only.
func (n Node) Equal(o Node) bool { return n.ID == o.ID }

// element is the stored form of a node. Everything but the tombstone is
// published once at insertion and read without synchronization; the
// tombstone is an atomic flag that only ever transitions false to true.
type element struct {
	id       ID
	origin   ID
	char     rune
	sentinel bool
	deleted  atomic.Bool
}

func (e *element) visible() bool {
	return !e.sentinel && !e.deleted.Load()
}

// snapshot copies the element into its wire record.
func (e *element) snapshot() Node {
	return Node{
		ID:       e.id,
		Origin:   e.origin,
		Char:     e.char,
		Deleted:  e.deleted.Load(),
		Sentinel: e.sentinel,
	}
}
