package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedStats() PoolStats {
	return PoolStats{Open: 3, InUse: 1, Idle: 2, MaxOpen: 10, WaitCount: 5, WaitSeconds: 1.5, Timeouts: 1, IdleRemovals: 4}
}

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(fixedStats, "cart-service", "redis")

	ch := make(chan *prometheus.Desc, 20)
	c.Describe(ch)
	close(ch)

	names := make([]string, 0, 8)
	for d := range ch {
		names = append(names, d.String())
	}
	require.Len(t, names, 8)

	joined := strings.Join(names, "\n")
	for _, want := range []string{
		"db_pool_open_connections",
		"db_pool_in_use_connections",
		"db_pool_idle_connections",
		"db_pool_max_connections",
		"db_pool_wait_count_total",
		"db_pool_wait_duration_seconds_total",
		"db_pool_timeouts_total",
		"db_pool_idle_closed_total",
	} {
		assert.Contains(t, joined, want)
	}
}

func TestPoolStatsCollector_Collect(t *testing.T) {
	c := NewPoolStatsCollector(fixedStats, "cart-service", "redis")

	assert.Equal(t, 8, testutil.CollectAndCount(c))

	expected := `
# HELP db_pool_open_connections Number of established connections
# TYPE db_pool_open_connections gauge
db_pool_open_connections{backend="redis",service="cart-service"} 3
# HELP db_pool_wait_duration_seconds_total Total time spent waiting for connections in seconds
# TYPE db_pool_wait_duration_seconds_total counter
db_pool_wait_duration_seconds_total{backend="redis",service="cart-service"} 1.5
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"db_pool_open_connections", "db_pool_wait_duration_seconds_total"))
}

func TestRegisterPoolMetrics_Idempotent(t *testing.T) {
	c := NewPoolStatsCollector(fixedStats, "register-test", "sqlite")
	require.NoError(t, RegisterPoolMetrics(c))
	t.Cleanup(func() { prometheus.Unregister(c) })

	assert.NoError(t, RegisterPoolMetrics(NewPoolStatsCollector(fixedStats, "register-test", "sqlite")))
}
