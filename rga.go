package rga

import (
	"strings"
	"sync"

	"github.com/tidwall/btree"
)

// RGA is a single replica of the replicated sequence.
//
// Storage is an ordered B-tree keyed by element identifier, holding the
// two sentinels and every element ever observed, tombstones included.
// The tree's internal locking makes lookups, insertions, and in-order
// scans safe under concurrent callers; tombstoning is a lone atomic
// store on the element. Only the check-then-insert step of remote
// application takes a replica-level mutex, so readers never contend
// with a replica-wide lock.
type RGA struct {
	replica uint64
	clock   *Clock
	nodes   *btree.BTreeG[*element]

	// wmu serializes ApplyRemote's lookup-or-insert so two deliveries
	// of the same identifier cannot both miss and double-insert.
	wmu sync.Mutex
}

// New creates an empty replica owned by the given replica identifier.
// Identifier 0 is reserved for the sentinels and rejected.
func New(replica uint64) (*RGA, error) {
	if replica == 0 {
		return nil, ErrInvalidReplicaID
	}
	r := &RGA{
		replica: replica,
		clock:   newClock(replica),
		nodes: btree.NewBTreeG(func(a, b *element) bool {
			return a.id.Less(b.id)
		}),
	}
	r.nodes.Set(&element{id: Start, sentinel: true})
	r.nodes.Set(&element{id: End, origin: Start, sentinel: true})
	return r, nil
}

// ReplicaID returns the identifier this replica mints operations under.
func (r *RGA) ReplicaID() uint64 { return r.replica }

// StartID returns the identifier of the Start sentinel, the anchor for
// inserting at the head of the sequence.
func (r *RGA) StartID() ID { return Start }

// EndID returns the identifier of the End sentinel.
func (r *RGA) EndID() ID { return End }

func (r *RGA) get(id ID) (*element, bool) {
	return r.nodes.Get(&element{id: id})
}

// InsertAfter inserts ch immediately after the element identified by
// after and returns the identifier of the new element. The anchor may be
// the Start sentinel or any observed element, tombstoned or not;
// inserting after End or after an unknown identifier fails with
// ErrUnknownAnchor.
//
// The returned identifier names a Node (see Node method) that must be
// replicated to every peer.
func (r *RGA) InsertAfter(after ID, ch rune) (ID, error) {
	if after == End {
		return ID{}, ErrUnknownAnchor
	}
	if _, ok := r.get(after); !ok {
		return ID{}, ErrUnknownAnchor
	}
	id := r.clock.Tick()
	r.nodes.Set(&element{id: id, origin: after, char: ch})
	return id, nil
}

// Delete tombstones the element with the given identifier. The element
// stays in storage so that remote operations anchored on it still
// resolve; it merely stops contributing to the visible sequence. Deleting
// an already-deleted element is a no-op.
func (r *RGA) Delete(id ID) error {
	if id.IsSentinel() {
		return ErrCannotDeleteSentinel
	}
	e, ok := r.get(id)
	if !ok {
		return ErrUnknownNode
	}
	e.deleted.Store(true)
	return nil
}

// ApplyRemote incorporates a node record produced by another replica.
// It is commutative, associative, and idempotent, and never fails:
// duplicates merge by tombstone union, sentinels are ignored, and a node
// whose origin has not arrived yet is stored but stays invisible until
// the origin lands.
func (r *RGA) ApplyRemote(n Node) {
	// Sentinels are never replicated; their reserved counters must not
	// reach the clock, or max-plus-one would wrap.
	if n.Sentinel || n.ID.IsSentinel() {
		return
	}
	r.clock.Observe(n.ID)

	r.wmu.Lock()
	defer r.wmu.Unlock()
	if e, ok := r.get(n.ID); ok {
		if n.Deleted {
			e.deleted.Store(true)
		}
		return
	}
	e := &element{id: n.ID, origin: n.Origin, char: n.Char}
	if n.Deleted {
		e.deleted.Store(true)
	}
	r.nodes.Set(e)
}

// Merge incorporates a batch of remote node records, in the order given.
// It is a convenience over ApplyRemote for state-shipping peers that
// exchange whole node sets.
func (r *RGA) Merge(nodes []Node) {
	for _, n := range nodes {
		r.ApplyRemote(n)
	}
}

// walk runs visit over every element reachable from Start in document
// order: a pre-order traversal in which the children of each element
// (the elements anchored on it) are taken in descending identifier
// order. Tombstones are visited so their subtrees keep their place.
// Elements whose origin has not arrived are unreachable and skipped.
func (r *RGA) walk(visit func(*element)) {
	children := make(map[ID][]*element)
	r.nodes.Scan(func(e *element) bool {
		if !e.sentinel {
			children[e.origin] = append(children[e.origin], e)
		}
		return true
	})

	// Scan yields ascending identifiers, so each child slice is sorted
	// ascending. Pushing a slice in that order makes the stack pop the
	// greatest sibling first, which is exactly the placement rule: the
	// greater identifier wins the spot closest to the anchor.
	stack := append([]*element(nil), children[Start]...)
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(e)
		stack = append(stack, children[e.id]...)
	}
}

// String returns the visible sequence in document order.
func (r *RGA) String() string {
	var sb strings.Builder
	r.walk(func(e *element) {
		if !e.deleted.Load() {
			sb.WriteRune(e.char)
		}
	})
	return sb.String()
}

// Value returns the visible sequence as a string. It satisfies the CRDT
// interface.
func (r *RGA) Value() any { return r.String() }

// Node returns the current wire record for the given identifier.
func (r *RGA) Node(id ID) (Node, bool) {
	e, ok := r.get(id)
	if !ok {
		return Node{}, false
	}
	return e.snapshot(), true
}

// AllNodes returns every stored node in identifier order, sentinels and
// tombstones included. Shipping this slice to a peer's Merge replicates
// the full state.
func (r *RGA) AllNodes() []Node {
	out := make([]Node, 0, r.nodes.Len())
	r.nodes.Scan(func(e *element) bool {
		out = append(out, e.snapshot())
		return true
	})
	return out
}

// VisibleNodes returns the nodes that contribute to the sequence, in
// document order.
func (r *RGA) VisibleNodes() []Node {
	var out []Node
	r.walk(func(e *element) {
		if !e.deleted.Load() {
			out = append(out, e.snapshot())
		}
	})
	return out
}

// FindByCharacter returns the identifier of a visible element carrying
// ch. When several qualify, the smallest identifier wins.
func (r *RGA) FindByCharacter(ch rune) (ID, bool) {
	var found ID
	var ok bool
	r.nodes.Scan(func(e *element) bool {
		if e.visible() && e.char == ch {
			found, ok = e.id, true
			return false
		}
		return true
	})
	return found, ok
}
