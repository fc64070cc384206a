package dispatch_test

import (
	"fmt"
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/clock"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/color"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/dispatch"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/queue"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/input"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/scheduler"
)

// testContext 测试用任务上下文，组合真实的时钟、调度器、队列与
// 颜色管理器，停车场管理器用记录驶离调用的桩替代
type testContext struct {
	clk   *clock.Clock
	sched *scheduler.Scheduler
	rc    *config.RuntimeConfig
	cm    entity.ICategoryManager
	qm    entity.IQueueManager
	pm    *fakeParking
	dm    entity.IDispatchManager
}

func (c *testContext) Clock() *clock.Clock                      { return c.clk }
func (c *testContext) Scheduler() entity.IScheduler             { return c.sched }
func (c *testContext) CategoryManager() entity.ICategoryManager { return c.cm }
func (c *testContext) QueueManager() entity.IQueueManager       { return c.qm }
func (c *testContext) NpcManager() entity.INpcManager           { return nil }
func (c *testContext) VehicleManager() entity.IVehicleManager   { return nil }
func (c *testContext) ParkingManager() entity.IParkingManager   { return c.pm }
func (c *testContext) DispatchManager() entity.IDispatchManager { return c.dm }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig     { return c.rc }

// step 推进一个时钟步并触发到期续体
func (c *testContext) step() {
	c.clk.InternalStep++
	c.clk.T = float64(c.clk.InternalStep) * c.clk.DT
	c.sched.Fire(c.clk.T)
}

// fakeParking 记录驶离调用的停车场管理器桩
type fakeParking struct {
	departed []entity.IVehicle
}

func (m *fakeParking) Init(*input.Scenario)                                    {}
func (m *fakeParking) GetSlot(int32) entity.IParkingSlot                       { return nil }
func (m *fakeParking) GetSlotOrError(int32) (entity.IParkingSlot, error)       { return nil, nil }
func (m *fakeParking) RequestParking(entity.VehicleSize, entity.Category) bool { return false }
func (m *fakeParking) VehicleArrived(entity.IVehicle, entity.IParkingSlot)     {}
func (m *fakeParking) VehicleDeparting(v entity.IVehicle, _ entity.IParkingSlot) {
	m.departed = append(m.departed, v)
}

// fakeSlot 测试用停车位
type fakeSlot struct {
	vehicle entity.IVehicle
}

func (s *fakeSlot) ID() int32                   { return 1 }
func (s *fakeSlot) Index() int32                { return 0 }
func (s *fakeSlot) Occupied() bool              { return s.vehicle != nil }
func (s *fakeSlot) Vehicle() entity.IVehicle    { return s.vehicle }
func (s *fakeSlot) Position() geometry.Point    { return geometry.Point{} }
func (s *fakeSlot) Heading() float64            { return 0 }
func (s *fakeSlot) EntryPoint() *geometry.Point { return nil }
func (s *fakeSlot) ExitPoint() *geometry.Point  { return nil }

// fakeVehicle 测试用车辆
type fakeVehicle struct {
	id       int32
	category entity.Category
	capacity int32
	status   entity.VehicleStatus
	slot     entity.IParkingSlot
	assigned map[int32]bool
	loaded   bool
}

func newFakeVehicle(id int32, category entity.Category, capacity int32, slot *fakeSlot) *fakeVehicle {
	v := &fakeVehicle{
		id:       id,
		category: category,
		capacity: capacity,
		status:   entity.VehicleStatusParked,
		slot:     slot,
		assigned: make(map[int32]bool),
	}
	slot.vehicle = v
	return v
}

func (v *fakeVehicle) ID() int32                    { return v.id }
func (v *fakeVehicle) Category() entity.Category    { return v.category }
func (v *fakeVehicle) Size() entity.VehicleSize     { return entity.VehicleSizeSmall }
func (v *fakeVehicle) Capacity() int32              { return v.capacity }
func (v *fakeVehicle) FreeSeats() int32             { return v.capacity - int32(len(v.assigned)) }
func (v *fakeVehicle) Status() entity.VehicleStatus { return v.status }
func (v *fakeVehicle) Slot() entity.IParkingSlot    { return v.slot }
func (v *fakeVehicle) XYZ() geometry.Point          { return geometry.Point{} }
func (v *fakeVehicle) Alive() bool                  { return true }
func (v *fakeVehicle) String() string               { return fmt.Sprintf("fakeVehicle{%d}", v.id) }

func (v *fakeVehicle) SeatPosition(seatIndex int32) geometry.Point {
	return geometry.Point{X: float64(seatIndex)}
}

func (v *fakeVehicle) AssignSeat(seatIndex int32) {
	v.assigned[seatIndex] = true
	if v.status == entity.VehicleStatusParked {
		v.status = entity.VehicleStatusLoadingPassengers
	}
}

func (v *fakeVehicle) OccupySeat(int32)        {}
func (v *fakeVehicle) SeatOccupied(int32) bool { return false }
func (v *fakeVehicle) MarkLoadingDone()        { v.loaded = true }

func (v *fakeVehicle) AssignSlot(entity.IParkingSlot, []geometry.Point) {}
func (v *fakeVehicle) StartDeparture([]geometry.Point) {
	v.status = entity.VehicleStatusFollowingDeparturePath
}

// fakeNpc 测试用排队人员
type fakeNpc struct {
	id        int32
	category  entity.Category
	ordinal   int32
	node      entity.QueueNode
	vehicle   entity.IVehicle
	seatIndex int32
}

func newFakeNpc(id int32, category entity.Category) *fakeNpc {
	p := &fakeNpc{id: id, category: category, ordinal: -1, seatIndex: -1}
	p.node.Value = p
	return p
}

func (p *fakeNpc) ID() int32                 { return p.id }
func (p *fakeNpc) Category() entity.Category { return p.category }
func (p *fakeNpc) Status() entity.NpcStatus  { return entity.NpcStatusQueuing }
func (p *fakeNpc) Ordinal() int32            { return p.ordinal }
func (p *fakeNpc) Progress() float64         { return 0 }
func (p *fakeNpc) ReachedTarget() bool       { return true }
func (p *fakeNpc) XYZ() geometry.Point       { return geometry.Point{} }
func (p *fakeNpc) Node() *entity.QueueNode   { return &p.node }
func (p *fakeNpc) Alive() bool               { return true }
func (p *fakeNpc) SetOrdinal(ordinal int32)  { p.ordinal = ordinal }
func (p *fakeNpc) String() string            { return fmt.Sprintf("fakeNpc{%d}", p.id) }

func (p *fakeNpc) StartBoarding(vehicle entity.IVehicle, seatIndex int32, _ geometry.Point) {
	p.vehicle = vehicle
	p.seatIndex = seatIndex
}

func newTestContext(enforceColorMatch bool) *testContext {
	ctx := &testContext{}
	ctx.rc = config.NewRuntimeConfig(config.Config{
		Control: config.Control{
			Step:              config.ControlStep{Total: 1000, Interval: .1},
			EnforceColorMatch: enforceColorMatch,
		},
		Npc: config.Npc{Speed: 1, Gap: 2},
	})
	ctx.clk = clock.New(ctx.rc.C.Step)
	ctx.sched = scheduler.New()
	ctx.cm = color.NewManager(ctx)
	qm := queue.NewManager(ctx)
	qm.Init([]geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	ctx.qm = qm
	ctx.pm = &fakeParking{}
	ctx.dm = dispatch.NewManager(ctx)
	return ctx
}

func TestDispatchColorMatchedBypass(t *testing.T) {
	ctx := newTestContext(true)
	dm := ctx.dm.(*dispatch.DispatchManager)

	red1 := newFakeNpc(1, entity.CategoryRed)
	blue2 := newFakeNpc(2, entity.CategoryBlue)
	red3 := newFakeNpc(3, entity.CategoryRed)
	ctx.qm.Register(red1)
	ctx.qm.Register(blue2)
	ctx.qm.Register(red3)

	slot := &fakeSlot{}
	v := newFakeVehicle(1, entity.CategoryRed, 2, slot)
	dm.RequestService(v, slot)

	// 重复请求静默拒绝
	dm.RequestService(v, slot)
	assert.Equal(t, 1, dm.QueueLen())

	for i := 0; i < 50; i++ {
		ctx.step()
	}

	// 红色乘客越过蓝色队首依序上车，座位序号按指派顺序递增
	assert.Equal(t, entity.IVehicle(v), red1.vehicle)
	assert.Equal(t, int32(0), red1.seatIndex)
	assert.Equal(t, entity.IVehicle(v), red3.vehicle)
	assert.Equal(t, int32(1), red3.seatIndex)
	// 蓝色乘客留在队列并顶到队首
	assert.Nil(t, blue2.vehicle)
	assert.Equal(t, int32(1), ctx.qm.Count())
	assert.Equal(t, int32(0), blue2.Ordinal())
	// 车辆满座后调度收尾
	assert.True(t, v.loaded)
	assert.Empty(t, ctx.pm.departed)
	assert.Equal(t, 0, dm.QueueLen())
}

func TestDispatchStrictFifoWithoutColorMatch(t *testing.T) {
	ctx := newTestContext(false)
	dm := ctx.dm.(*dispatch.DispatchManager)

	red1 := newFakeNpc(1, entity.CategoryRed)
	blue2 := newFakeNpc(2, entity.CategoryBlue)
	ctx.qm.Register(red1)
	ctx.qm.Register(blue2)

	slot := &fakeSlot{}
	v := newFakeVehicle(1, entity.CategoryRed, 2, slot)
	dm.RequestService(v, slot)

	for i := 0; i < 50; i++ {
		ctx.step()
	}

	// 关闭颜色匹配时严格按队首出队
	assert.Equal(t, entity.IVehicle(v), red1.vehicle)
	assert.Equal(t, entity.IVehicle(v), blue2.vehicle)
	assert.Equal(t, int32(0), red1.seatIndex)
	assert.Equal(t, int32(1), blue2.seatIndex)
	assert.Equal(t, int32(0), ctx.qm.Count())
}

func TestDispatchEmptyQueueLeavesEmpty(t *testing.T) {
	ctx := newTestContext(true)
	dm := ctx.dm.(*dispatch.DispatchManager)

	slot := &fakeSlot{}
	v := newFakeVehicle(1, entity.CategoryRed, 2, slot)
	dm.RequestService(v, slot)

	for i := 0; i < 10; i++ {
		ctx.step()
	}

	// 队列为空时立即收尾，从未载客的车辆直接驶离
	assert.True(t, v.loaded)
	assert.Equal(t, []entity.IVehicle{v}, ctx.pm.departed)
	assert.Equal(t, 0, dm.QueueLen())
}

func TestDispatchNoMatchYieldsAndRetries(t *testing.T) {
	ctx := newTestContext(true)
	dm := ctx.dm.(*dispatch.DispatchManager)

	blue1 := newFakeNpc(1, entity.CategoryBlue)
	ctx.qm.Register(blue1)

	slotA := &fakeSlot{}
	yellow := newFakeVehicle(1, entity.CategoryYellow, 2, slotA)
	slotB := &fakeSlot{}
	blue := newFakeVehicle(2, entity.CategoryBlue, 2, slotB)

	dm.RequestService(yellow, slotA)
	dm.RequestService(blue, slotB)

	for i := 0; i < 50; i++ {
		ctx.step()
	}

	// 无匹配乘客的黄车让出处理链，蓝车正常接走蓝色乘客
	assert.Equal(t, entity.IVehicle(blue), blue1.vehicle)
	assert.Empty(t, yellow.assigned)
	assert.True(t, blue.loaded)
	// 队列耗尽后黄车重试收尾，空车驶离
	assert.Equal(t, []entity.IVehicle{yellow}, ctx.pm.departed)
}
