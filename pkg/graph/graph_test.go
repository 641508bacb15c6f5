package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tarsy-recall/recall-core/pkg/recallconfig"
)

func TestAddLog_ChainsSequentially(t *testing.T) {
	cfg := recallconfig.Defaults()
	g := New(cfg)
	g.AddLog(1, 1000, "a", []string{"node-1"}, 0)
	g.AddLog(2, 1001, "b", []string{"node-1"}, 0)

	first := g.GetLog(1)
	second := g.GetLog(2)
	assert.Nil(t, first.PrevLogID)
	assert.Equal(t, int64(2), *first.NextLogID)
	assert.Equal(t, int64(1), *second.PrevLogID)
	assert.Nil(t, second.NextLogID)
}

func TestAddLog_SkipsBlacklistedEntities(t *testing.T) {
	cfg := recallconfig.Defaults()
	g := New(cfg)
	g.AddLog(1, 1000, "a", []string{"127.0.0.1", "node-1"}, 0)
	ents := g.GetEntitiesForLog(1)
	assert.NotContains(t, ents, "127.0.0.1")
	assert.Contains(t, ents, "node-1")
}

func TestEntityDegree_GrowsWithIncidentLogs(t *testing.T) {
	cfg := recallconfig.Defaults()
	g := New(cfg)
	g.AddLog(1, 1000, "a", []string{"node-1"}, 0)
	g.AddLog(2, 1001, "b", []string{"node-1"}, 0)
	assert.Equal(t, 2, g.EntityDegree("node-1"))
	assert.Equal(t, []int64{1, 2}, g.GetLogsForEntity("node-1"))
}

func TestTick_EvictsLogsOutsideWindow(t *testing.T) {
	cfg := recallconfig.Defaults()
	cfg.GraphWindowTSec = 100
	g := New(cfg)
	g.AddLog(1, 1000, "a", []string{"node-1"}, 0)
	g.Tick(1000)
	assert.NotNil(t, g.GetLog(1))

	g.Tick(1200)
	assert.Nil(t, g.GetLog(1))
	assert.Equal(t, 0, g.EntityDegree("node-1"))
}

func TestRemoveLog_RelinksChainAroundGap(t *testing.T) {
	cfg := recallconfig.Defaults()
	cfg.GraphWindowTSec = 50
	g := New(cfg)
	g.AddLog(1, 1000, "a", nil, 0)
	g.AddLog(2, 1010, "b", nil, 0)
	g.AddLog(3, 1020, "c", nil, 0)

	g.Tick(1055) // evicts log 1 only (ts 1000 < 1055-50=1005)
	assert.Nil(t, g.GetLog(1))
	mid := g.GetLog(2)
	assert.Nil(t, mid.PrevLogID)
	assert.Equal(t, int64(3), *mid.NextLogID)
}

func TestPruneEdges_LeavesLogResidentButClearsIncidences(t *testing.T) {
	cfg := recallconfig.Defaults()
	cfg.GraphWindowTSec = 10000
	cfg.ThetaW = 0.5
	lam := 0.01
	cfg.DecayLambda = &lam
	g := New(cfg)
	g.AddLog(1, 1000, "a", []string{"node-1"}, 0)

	// age_limit = ceil(-ln(0.5)/0.01) ~= 70, so at now=1100 (dt=100) the
	// edge is well past the floor and should be pruned, but log 1 itself
	// stays resident since the window is 10000s wide.
	g.Tick(1100)
	assert.NotNil(t, g.GetLog(1))
	assert.Empty(t, g.GetEntitiesForLog(1))
	assert.Equal(t, 0, g.EntityDegree("node-1"))
}

func TestPruneEntitiesByActivity_SweepsEvery256Steps(t *testing.T) {
	cfg := recallconfig.Defaults()
	cfg.ActivityEpsilon = 0.5
	cfg.ActivityAlpha = 1.0
	cfg.ActivityBeta = 0.5
	g := New(cfg)
	g.AddLog(1, 1000, "a", []string{"node-1"}, 0)

	for i := int64(2); i <= 256; i++ {
		g.AddLog(i, 1000+i, "filler", nil, 0)
	}
	g.Tick(1300)
	assert.Equal(t, 0, g.EntityDegree("node-1"))
}

func TestStructuralEdgeWeight_DecaysWithAge(t *testing.T) {
	cfg := recallconfig.Defaults()
	lam := 0.1
	cfg.DecayLambda = &lam
	g := New(cfg)
	g.AddLog(1, 1000, "a", []string{"node-1"}, 0)
	w0 := g.StructuralEdgeWeight(1, 1000)
	w10 := g.StructuralEdgeWeight(1, 1010)
	assert.Equal(t, 1.0, w0)
	assert.Less(t, w10, w0)
}
