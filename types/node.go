package types

import (
	"net"
	"strconv"
)

// NodeInfo describes one cluster node that may lead partitions.
//
// Node descriptions are transient: they are refreshed on every metadata query
// and never cached beyond one discovery round, except as the currently
// assigned node of a running worker.
type NodeInfo struct {
	// ID is the cluster-unique node identifier.
	ID string `json:"id"`

	// Host is the node's advertised hostname or IP.
	Host string `json:"host"`

	// Port is the node's advertised fetch port.
	Port int `json:"port"`
}

// Addr returns the "host:port" dial address for the node.
func (n NodeInfo) Addr() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}
