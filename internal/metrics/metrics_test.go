package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fixedStats CacheStats

func (f fixedStats) CacheStats() CacheStats { return CacheStats(f) }

func TestExporter_Refresh(t *testing.T) {
	e := NewExporter(fixedStats{Items: 3, Cost: 12, HitRatio: 0.5})
	e.Refresh()

	assert.Equal(t, 3.0, testutil.ToFloat64(e.cacheItems))
	assert.Equal(t, 12.0, testutil.ToFloat64(e.cacheCost))
	assert.Equal(t, 0.5, testutil.ToFloat64(e.hitRatio))

	// без провайдера обновление ничего не делает
	NewExporter(nil).Refresh()
}

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(CapturesTotal.WithLabelValues("point"))
	CapturesTotal.WithLabelValues("point").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CapturesTotal.WithLabelValues("point")))

	MigrationDrops.WithLabelValues("entity").Add(2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(MigrationDrops.WithLabelValues("entity")), 2.0)
}
