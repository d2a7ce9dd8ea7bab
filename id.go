package rga

import (
	"fmt"
	"math"
)

// ID is the globally unique identifier of an element in the RGA.
//
// It is structurally a Lamport timestamp: Counter establishes the
// happened-before relation, Replica breaks ties between concurrent
// operations from different replicas, and Sequence disambiguates
// operations minted by one replica within a single clock tick. The
// lexicographic order on (Counter, Replica, Sequence) is total and
// identical on every replica, which is what makes sibling placement
// deterministic.
type ID struct {
	Counter  uint64 `json:"counter"`
	Replica  uint64 `json:"replica"`
	Sequence uint64 `json:"sequence"`
}

// Start and End are the two reserved sentinel identifiers. Start compares
// strictly less than every mintable ID and End strictly greater; neither
// is ever produced by a clock. Replica identifier 0 is reserved for them.
var (
	Start = ID{}
	End   = ID{Counter: math.MaxUint64, Replica: math.MaxUint64, Sequence: math.MaxUint64}
)

// Compare returns -1, 0, or +1 as a sorts before, equal to, or after b.
func (a ID) Compare(b ID) int {
	switch {
	case a.Counter != b.Counter:
		if a.Counter < b.Counter {
			return -1
		}
		return 1
	case a.Replica != b.Replica:
		if a.Replica < b.Replica {
			return -1
		}
		return 1
	case a.Sequence != b.Sequence:
		if a.Sequence < b.Sequence {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether a sorts strictly before b.
func (a ID) Less(b ID) bool { return a.Compare(b) < 0 }

// Greater reports whether a sorts strictly after b. Among siblings
// sharing an anchor, the greater ID wins the position closest to the
// anchor.
func (a ID) Greater(b ID) bool { return a.Compare(b) > 0 }

// IsSentinel reports whether the identifier is one of the two reserved
// sentinel values.
func (a ID) IsSentinel() bool { return a == Start || a == End }

// String renders the identifier as counter.replica.sequence, mainly for
// logs and test failure messages.
func (a ID) String() string {
	switch a {
	case Start:
		return "start"
	case End:
		return "end"
	}
	return fmt.Sprintf("%d.%d.%d", a.Counter, a.Replica, a.Sequence)
}
