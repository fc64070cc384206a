package color_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/clock"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/color"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/config"
)

// testContext 测试用任务上下文，只提供颜色分配所需的配置
type testContext struct {
	rc *config.RuntimeConfig
}

func (c *testContext) Clock() *clock.Clock                      { return nil }
func (c *testContext) Scheduler() entity.IScheduler             { return nil }
func (c *testContext) CategoryManager() entity.ICategoryManager { return nil }
func (c *testContext) QueueManager() entity.IQueueManager       { return nil }
func (c *testContext) NpcManager() entity.INpcManager           { return nil }
func (c *testContext) VehicleManager() entity.IVehicleManager   { return nil }
func (c *testContext) ParkingManager() entity.IParkingManager   { return nil }
func (c *testContext) DispatchManager() entity.IDispatchManager { return nil }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig     { return c.rc }

func newTestContext(colorConfig config.Color) *testContext {
	return &testContext{rc: config.NewRuntimeConfig(config.Config{
		Control: config.Control{Step: config.ControlStep{Total: 100, Interval: .1}},
		Color:   colorConfig,
	})}
}

func TestAssignBalanced(t *testing.T) {
	ctx := newTestContext(config.Color{
		EnforceDistribution: true,
		Probabilities:       []float64{.5, .3, .2},
	})
	m := color.NewManager(ctx)

	counts := map[entity.Category]int{}
	const n = 1000
	for i := 0; i < n; i++ {
		counts[m.Assign(entity.KindNpc)]++
	}
	// 均衡分配下观测占比应紧贴目标概率
	assert.InDelta(t, .5, float64(counts[entity.CategoryRed])/n, .02)
	assert.InDelta(t, .3, float64(counts[entity.CategoryYellow])/n, .02)
	assert.InDelta(t, .2, float64(counts[entity.CategoryBlue])/n, .02)
	// 计数器与分配历史一致
	assert.Equal(t, int32(counts[entity.CategoryRed]), m.Count(entity.KindNpc, entity.CategoryRed))
}

func TestAssignKindsIndependent(t *testing.T) {
	ctx := newTestContext(config.Color{
		EnforceDistribution: true,
		Probabilities:       []float64{1, 0, 0},
	})
	m := color.NewManager(ctx)
	assert.Equal(t, entity.CategoryRed, m.Assign(entity.KindVehicle))
	assert.Equal(t, entity.CategoryRed, m.Assign(entity.KindNpc))
	assert.Equal(t, int32(1), m.Count(entity.KindVehicle, entity.CategoryRed))
	assert.Equal(t, int32(1), m.Count(entity.KindNpc, entity.CategoryRed))
}

func TestUnregisterFloor(t *testing.T) {
	ctx := newTestContext(config.Color{Probabilities: []float64{1, 0, 0}})
	m := color.NewManager(ctx)
	m.Assign(entity.KindNpc)
	m.Unregister(entity.KindNpc, entity.CategoryRed)
	assert.Equal(t, int32(0), m.Count(entity.KindNpc, entity.CategoryRed))
	// 下限为零，不会出现负计数
	m.Unregister(entity.KindNpc, entity.CategoryRed)
	assert.Equal(t, int32(0), m.Count(entity.KindNpc, entity.CategoryRed))
	// 非法类别静默忽略
	m.Unregister(entity.KindNpc, entity.CategoryUnspecified)
}

func TestProbabilityNormalization(t *testing.T) {
	// 概率和偏离1.0时自动归一化
	ctx := newTestContext(config.Color{
		EnforceDistribution: true,
		Probabilities:       []float64{5, 3, 2},
	})
	m := color.NewManager(ctx)
	counts := map[entity.Category]int{}
	const n = 1000
	for i := 0; i < n; i++ {
		counts[m.Assign(entity.KindNpc)]++
	}
	assert.InDelta(t, .5, float64(counts[entity.CategoryRed])/n, .02)

	// 概率表长度错误直接panic
	assert.Panics(t, func() {
		color.NewManager(newTestContext(config.Color{Probabilities: []float64{.5, .5}}))
	})
}

func TestMatch(t *testing.T) {
	m := color.NewManager(newTestContext(config.Color{}))
	assert.True(t, m.Match(entity.CategoryRed, entity.CategoryRed))
	assert.False(t, m.Match(entity.CategoryRed, entity.CategoryBlue))
}
