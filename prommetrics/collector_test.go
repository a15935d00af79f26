package prommetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/ferry/types"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "ferrytest")

	c.RecordSessionStarted(8)
	c.RecordStateTransition(types.DiscoveryIdle, types.DiscoveryResolving)
	c.RecordDiscoveryRound(0.05, 6, 2)
	c.RecordMetadataQuery(0.01, true)
	c.RecordMetadataQuery(0.02, false)
	c.RecordUnresolvedCount(2)
	c.RecordWorkerStarted("node-a")
	c.RecordActiveWorkers(1)
	c.RecordFetch("node-a", 42, false)
	c.RecordFetch("node-a", 0, true)
	c.RecordStaleLeader("node-a", 3)
	c.RecordWorkerStopped("node-a", "idle")
	c.RecordSessionStopped(12.5)

	require.Equal(t, 1.0, testutil.ToFloat64(c.sessionsStarted))
	require.Equal(t, 0.0, testutil.ToFloat64(c.sessionPartitions))
	require.Equal(t, 6.0, testutil.ToFloat64(c.discoveryResolved))
	require.Equal(t, 2.0, testutil.ToFloat64(c.discoveryFailed))
	require.Equal(t, 2.0, testutil.ToFloat64(c.unresolvedGauge))
	require.Equal(t, 1.0, testutil.ToFloat64(c.activeWorkers))
	require.Equal(t, 1.0, testutil.ToFloat64(c.metadataQueries.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.metadataQueries.WithLabelValues("failure")))
	require.Equal(t, 42.0, testutil.ToFloat64(c.fetchRecords.WithLabelValues("node-a")))
	require.Equal(t, 3.0, testutil.ToFloat64(c.staleLeaders.WithLabelValues("node-a")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.workerEvents.WithLabelValues("stopped", "idle")))
}

func TestNewCollectorDefaults(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry(), "")
	require.Equal(t, "ferry", c.namespace)

	// Duplicate registration on the same registry must not panic twice; the
	// once guard registers exactly one metric set.
	c.RecordSessionStarted(1)
	c.RecordSessionStarted(2)
}
