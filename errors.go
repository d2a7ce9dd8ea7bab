package rga

import "errors"

// Local operations report failure through these sentinel values; compare
// with errors.Is. Remote application never fails: out-of-order,
// duplicated, or malformed deliveries are absorbed.
var (
	// ErrUnknownAnchor is returned by InsertAfter when the anchor is the
	// End sentinel or has never been observed by this replica.
	ErrUnknownAnchor = errors.New("rga: unknown insertion anchor")

	// ErrUnknownNode is returned by Delete for an identifier this replica
	// has never observed.
	ErrUnknownNode = errors.New("rga: unknown node")

	// ErrCannotDeleteSentinel is returned by Delete for the Start or End
	// sentinel, which are immortal.
	ErrCannotDeleteSentinel = errors.New("rga: cannot delete sentinel")

	// ErrInvalidReplicaID is returned by New for replica id 0, which is
	// reserved for the sentinels.
	ErrInvalidReplicaID = errors.New("rga: replica id 0 is reserved")
)
