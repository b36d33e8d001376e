package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	stats redis.PoolStats
}

func (f *fakeStats) PoolStats() *redis.PoolStats {
	return &f.stats
}

func TestNewPoolStatsCollector_NotNil(t *testing.T) {
	c := NewPoolStatsCollector(&fakeStats{}, "test-service")
	require.NotNil(t, c)
	assert.Equal(t, "test-service", c.service)

	var _ prometheus.Collector = c
}

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(&fakeStats{}, "test-service")

	ch := make(chan *prometheus.Desc, 10)
	c.Describe(ch)
	close(ch)

	var names []string
	for d := range ch {
		names = append(names, d.String())
	}

	require.Len(t, names, 6)
	joined := strings.Join(names, "\n")
	for _, want := range []string{
		"redis_pool_hits_total",
		"redis_pool_misses_total",
		"redis_pool_timeouts_total",
		"redis_pool_total_connections",
		"redis_pool_idle_connections",
		"redis_pool_stale_connections_total",
	} {
		assert.Contains(t, joined, want)
	}
}

func TestPoolStatsCollector_Collect(t *testing.T) {
	stats := &fakeStats{stats: redis.PoolStats{Hits: 7, Misses: 2, TotalConns: 4, IdleConns: 3}}
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewPoolStatsCollector(stats, "storefront")))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 6)

	values := make(map[string]float64)
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		require.Len(t, m.GetLabel(), 1)
		assert.Equal(t, "storefront", m.GetLabel()[0].GetValue())
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			values[mf.GetName()] = m.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			values[mf.GetName()] = m.GetGauge().GetValue()
		}
	}

	assert.Equal(t, 7.0, values["redis_pool_hits_total"])
	assert.Equal(t, 2.0, values["redis_pool_misses_total"])
	assert.Equal(t, 4.0, values["redis_pool_total_connections"])
	assert.Equal(t, 3.0, values["redis_pool_idle_connections"])
	assert.Zero(t, values["redis_pool_timeouts_total"])
}
