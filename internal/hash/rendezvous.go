// Package hash selects metadata query targets with rendezvous (highest
// random weight) hashing.
package hash

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/arloliu/ferry/types"
)

// Pick returns the node with the highest rendezvous weight for the given key,
// spreading metadata queries across the cluster while keeping the choice
// deterministic for a given (key, node set) pair.
//
// A stale node list only mis-targets the query; the metadata protocol answers
// from any live node, so the choice is never a correctness concern.
//
// Parameters:
//   - nodes: Candidate nodes (order irrelevant)
//   - key: Selection key, typically the query correlation ID
//
// Returns:
//   - types.NodeInfo: The selected node
//   - bool: False when nodes is empty
func Pick(nodes []types.NodeInfo, key uint64) (types.NodeInfo, bool) {
	if len(nodes) == 0 {
		return types.NodeInfo{}, false
	}

	var keyBuf [8]byte
	binary.BigEndian.PutUint64(keyBuf[:], key)

	best := 0
	bestWeight := weight(nodes[0].ID, keyBuf)
	for i := 1; i < len(nodes); i++ {
		if w := weight(nodes[i].ID, keyBuf); w > bestWeight {
			best = i
			bestWeight = w
		}
	}

	return nodes[best], true
}

func weight(nodeID string, keyBuf [8]byte) uint64 {
	buf := make([]byte, 0, len(nodeID)+8)
	buf = append(buf, nodeID...)
	buf = append(buf, keyBuf[:]...)

	return xxh3.Hash(buf)
}
