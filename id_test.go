package rga

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID_TotalOrder(t *testing.T) {
	// Counter dominates, then replica, then sequence.
	ordered := []ID{
		{Counter: 1, Replica: 1, Sequence: 1},
		{Counter: 1, Replica: 1, Sequence: 2},
		{Counter: 1, Replica: 2, Sequence: 1},
		{Counter: 2, Replica: 1, Sequence: 1},
		{Counter: 2, Replica: 1, Sequence: 9},
		{Counter: 3, Replica: 1, Sequence: 1},
	}
	for i := range ordered {
		for j := range ordered {
			a, b := ordered[i], ordered[j]
			switch {
			case i < j:
				assert.True(t, a.Less(b), "%v < %v", a, b)
				assert.True(t, b.Greater(a), "%v > %v", b, a)
				assert.Equal(t, -1, a.Compare(b))
			case i > j:
				assert.True(t, a.Greater(b), "%v > %v", a, b)
				assert.Equal(t, 1, a.Compare(b))
			default:
				assert.Equal(t, 0, a.Compare(b))
				assert.False(t, a.Less(b))
				assert.False(t, a.Greater(b))
			}
		}
	}
}

func TestID_SentinelsBoundTheOrder(t *testing.T) {
	real := []ID{
		{Counter: 1, Replica: 1, Sequence: 1},
		{Counter: 1 << 60, Replica: 1 << 60, Sequence: 1 << 60},
	}
	for _, id := range real {
		assert.True(t, Start.Less(id), "start must precede %v", id)
		assert.True(t, End.Greater(id), "end must follow %v", id)
		assert.False(t, id.IsSentinel())
	}
	assert.True(t, Start.IsSentinel())
	assert.True(t, End.IsSentinel())
	assert.True(t, Start.Less(End))
}

func TestID_String(t *testing.T) {
	assert.Equal(t, "start", Start.String())
	assert.Equal(t, "end", End.String())
	assert.Equal(t, "3.1.2", ID{Counter: 3, Replica: 1, Sequence: 2}.String())
}
