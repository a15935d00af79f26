package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscoveryState_String(t *testing.T) {
	assert.Equal(t, "Idle", DiscoveryIdle.String())
	assert.Equal(t, "Resolving", DiscoveryResolving.String())
	assert.Equal(t, "Stopped", DiscoveryStopped.String())
	assert.Equal(t, "Unknown", DiscoveryState(99).String())
}
