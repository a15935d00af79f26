package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionID_String(t *testing.T) {
	id := PartitionID{Topic: "orders", Index: 3}
	assert.Equal(t, "orders-3", id.String())
}

func TestPartitionID_Compare(t *testing.T) {
	tests := []struct {
		name string
		p, q PartitionID
		want int
	}{
		{"equal", PartitionID{"a", 0}, PartitionID{"a", 0}, 0},
		{"topic orders first", PartitionID{"a", 9}, PartitionID{"b", 0}, -1},
		{"index breaks ties", PartitionID{"a", 1}, PartitionID{"a", 0}, 1},
		{"lower index first", PartitionID{"a", 0}, PartitionID{"a", 2}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Compare(tt.q))
			assert.Equal(t, -tt.want, tt.q.Compare(tt.p))
		})
	}
}

func TestPartitionID_MapKey(t *testing.T) {
	m := map[PartitionID]int{}
	m[PartitionID{Topic: "t", Index: 0}] = 1
	m[PartitionID{Topic: "t", Index: 0}] = 2

	require.Len(t, m, 1)
	assert.Equal(t, 2, m[PartitionID{Topic: "t", Index: 0}])
}

func TestCursor_Advance(t *testing.T) {
	cur := NewCursor(PartitionID{Topic: "t", Index: 1}, 42)

	require.Equal(t, PartitionID{Topic: "t", Index: 1}, cur.ID())
	require.Equal(t, int64(42), cur.Offset())

	cur.Advance(100)
	assert.Equal(t, int64(100), cur.Offset())
}

func TestNodeInfo_Addr(t *testing.T) {
	n := NodeInfo{ID: "n1", Host: "10.0.0.5", Port: 9290}
	assert.Equal(t, "10.0.0.5:9290", n.Addr())
}
