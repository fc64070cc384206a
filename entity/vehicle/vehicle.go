package vehicle

import (
	"fmt"
	"math"
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/container"
)

// 座位网格间距（米），纵向为排距、横向为同排两座间距
const (
	seatRowGap     = 1.0
	seatLateralGap = .8
)

// runtime 运行时基本数据
type runtime struct {
	Status  entity.VehicleStatus // 当前状态
	XYZ     geometry.Point       // 位置坐标
	Heading float64              // 朝向（弧度）
}

// Vehicle 车辆实体
// 功能：表示可载客车辆，支持沿路径点行驶、停车对齐、座位管理与驶离
// 说明：状态与座位数据被调度续体（串行）与乘客上车（并行）两侧访问，
// 用互斥锁保护；路径跟随数据只被自身的更新协程访问，不加锁
type Vehicle struct {
	container.IncrementalItemBase
	ctx entity.ITaskContext
	m   *VehicleManager

	// 静态属性
	id       int32
	category entity.Category    // 颜色类别
	size     entity.VehicleSize // 尺寸
	capacity int32              // 座位总数

	// 路径跟随数据，仅自身更新协程访问
	path      []geometry.Point // 当前跟随的路径点序列
	pathIndex int              // 下一个目标路径点下标
	aligning  bool             // 已到停车点，正在旋转对齐朝向

	// 受mtx保护的共享数据
	status   entity.VehicleStatus // 状态机的权威状态
	slot     entity.IParkingSlot  // 绑定的停车位，未绑定为nil
	assigned []bool               // 座位是否已被指派
	occupied []bool               // 座位是否已有乘客坐定
	pending  int32                // 已指派但尚未坐定的乘客数
	loaded   bool                 // 调度完成标记，不再有新乘客指派
	alive    bool                 // 存活标记
	mtx      sync.Mutex

	// 运行时基本数据
	runtime  runtime // 运行时数据
	snapshot runtime // 快照
}

// newVehicle 创建车辆实体
// 参数：ctx-任务上下文，m-车辆管理器，id-车辆ID，
// size-尺寸，category-颜色类别，pos-初始位置
func newVehicle(ctx entity.ITaskContext, m *VehicleManager, id int32,
	size entity.VehicleSize, category entity.Category, pos geometry.Point) *Vehicle {
	capacity := m.capacityFor(size)
	v := &Vehicle{
		ctx:      ctx,
		m:        m,
		id:       id,
		category: category,
		size:     size,
		capacity: capacity,
		status:   entity.VehicleStatusIdle,
		assigned: make([]bool, capacity),
		occupied: make([]bool, capacity),
		alive:    true,
		runtime: runtime{
			Status: entity.VehicleStatusIdle,
			XYZ:    pos,
		},
	}
	v.snapshot = v.runtime
	return v
}

// prepare 准备阶段：更新快照
func (v *Vehicle) prepare() {
	v.mtx.Lock()
	v.runtime.Status = v.status
	v.mtx.Unlock()
	v.snapshot = v.runtime
}

// update 更新阶段，执行车辆的模拟逻辑
// 功能：按状态推进路径跟随与停车对齐
// 参数：dt-时间步长
// 算法说明：
//  1. MovingToParkingSpace：依次驶向进入路径的各路径点，
//     到达末点后原地旋转对齐停车朝向，对齐完成进入Parked并上报到位
//  2. FollowingDeparturePath：依次驶向驶离路径的各路径点，
//     到达末点（道路出口）后进入Departing并销毁
//
// 其余状态（Parked/LoadingPassengers/PassengersLoaded）由
// 调度续体驱动迁移，更新阶段不做处理
func (v *Vehicle) update(dt float64) {
	switch v.Status() {
	case entity.VehicleStatusMovingToParkingSpace:
		if v.aligning {
			if v.align(dt) {
				v.aligning = false
				v.setStatus(entity.VehicleStatusParked)
				v.ctx.ParkingManager().VehicleArrived(v, v.Slot())
			}
			return
		}
		if v.followPath(dt) {
			v.aligning = true
		}
	case entity.VehicleStatusFollowingDeparturePath:
		if v.followPath(dt) {
			v.setStatus(entity.VehicleStatusDeparting)
			v.m.Remove(v)
		}
	}
}

// followPath 沿路径点序列行驶一步
// 参数：dt-时间步长
// 返回：是否到达路径末点
// 算法说明：中间路径点在剩余距离不足单步移动量时直接消耗并续行，
// 末点按配置的到达距离阈值判定
func (v *Vehicle) followPath(dt float64) bool {
	c := v.ctx.RuntimeConfig().Vehicle
	budget := c.Speed * dt
	for v.pathIndex < len(v.path) {
		target := v.path[v.pathIndex]
		dx := target.X - v.runtime.XYZ.X
		dy := target.Y - v.runtime.XYZ.Y
		d := math.Hypot(dx, dy)
		last := v.pathIndex == len(v.path)-1
		if last && d <= c.ArriveDistance {
			v.runtime.XYZ = target
			return true
		}
		if d <= budget {
			v.runtime.XYZ = target
			budget -= d
			v.pathIndex++
			continue
		}
		if d > 0 {
			v.runtime.Heading = math.Atan2(dy, dx)
			v.runtime.XYZ = geometry.Blend(v.runtime.XYZ, target, budget/d)
		}
		return false
	}
	return true
}

// align 向停车朝向旋转一步
// 参数：dt-时间步长
// 返回：是否对齐完成（角度差进入配置阈值）
func (v *Vehicle) align(dt float64) bool {
	slot := v.Slot()
	if slot == nil {
		log.Errorf("vehicle %d: aligning without slot", v.id)
		return true
	}
	c := v.ctx.RuntimeConfig().Vehicle
	delta := normalizeAngle(slot.Heading() - v.runtime.Heading)
	if math.Abs(delta) <= c.ArriveAngle {
		v.runtime.Heading = slot.Heading()
		return true
	}
	step := c.RotationSpeed * dt
	if math.Abs(delta) <= step {
		v.runtime.Heading = slot.Heading()
		return true
	}
	if delta > 0 {
		v.runtime.Heading = normalizeAngle(v.runtime.Heading + step)
	} else {
		v.runtime.Heading = normalizeAngle(v.runtime.Heading - step)
	}
	return false
}

// normalizeAngle 将角度规范化到(-π, π]
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// ID 获取车辆ID
func (v *Vehicle) ID() int32 {
	return v.id
}

// Category 获取颜色类别
func (v *Vehicle) Category() entity.Category {
	return v.category
}

// Size 获取车辆尺寸
func (v *Vehicle) Size() entity.VehicleSize {
	return v.size
}

// Capacity 获取座位总数
func (v *Vehicle) Capacity() int32 {
	return v.capacity
}

// FreeSeats 获取未被指派的座位数
// 说明：已指派未坐定的座位同样视为不可用，
// 保证调度剩余量与座位可用量的一致
func (v *Vehicle) FreeSeats() int32 {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	free := int32(0)
	for _, a := range v.assigned {
		if !a {
			free++
		}
	}
	return free
}

// Status 获取状态机的权威状态
func (v *Vehicle) Status() entity.VehicleStatus {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.status
}

// setStatus 写入状态机状态
func (v *Vehicle) setStatus(s entity.VehicleStatus) {
	v.mtx.Lock()
	v.status = s
	v.mtx.Unlock()
}

// Slot 获取绑定的停车位，未绑定时为nil
func (v *Vehicle) Slot() entity.IParkingSlot {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.slot
}

// XYZ 获取位置坐标（快照）
func (v *Vehicle) XYZ() geometry.Point {
	return v.snapshot.XYZ
}

// Heading 获取朝向（快照）
func (v *Vehicle) Heading() float64 {
	return v.snapshot.Heading
}

// Alive 存活性检查
func (v *Vehicle) Alive() bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.alive
}

// SeatPosition 获取座位的世界坐标
// 功能：在停车位的局部坐标系中按2列网格展开座位
// 参数：seatIndex-座位序号
// 返回：座位的世界坐标
// 算法说明：seatIndex/2为排号、seatIndex%2为列号，
// 沿停车朝向向后按排距展开，横向按列距左右偏置
func (v *Vehicle) SeatPosition(seatIndex int32) geometry.Point {
	slot := v.Slot()
	if slot == nil {
		log.Errorf("vehicle %d: seat position requested without slot", v.id)
		return v.snapshot.XYZ
	}
	pos := slot.Position()
	h := slot.Heading()
	row := float64(seatIndex / 2)
	col := float64(seatIndex%2) - .5
	forwardX, forwardY := math.Cos(h), math.Sin(h)
	leftX, leftY := -math.Sin(h), math.Cos(h)
	long := -(row + 1) * seatRowGap
	lat := col * seatLateralGap
	return geometry.Point{
		X: pos.X + forwardX*long + leftX*lat,
		Y: pos.Y + forwardY*long + leftY*lat,
		Z: pos.Z,
	}
}

// AssignSeat 预定座位
// 功能：调度指派乘客时预定座位，首个指派触发进入上客状态
// 参数：seatIndex-座位序号
func (v *Vehicle) AssignSeat(seatIndex int32) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if seatIndex < 0 || seatIndex >= v.capacity {
		log.Panicf("vehicle %d: seat index %d out of range [0, %d)", v.id, seatIndex, v.capacity)
		return
	}
	if v.assigned[seatIndex] {
		log.Warnf("vehicle %d: seat %d already assigned", v.id, seatIndex)
		return
	}
	v.assigned[seatIndex] = true
	v.pending++
	if v.status == entity.VehicleStatusParked {
		v.status = entity.VehicleStatusLoadingPassengers
	}
}

// OccupySeat 占用座位
// 功能：乘客走到座位后坐定；若调度已完成且所有指派座位均已坐定，
// 迁移到上客完成状态并登记驶离续体
// 参数：seatIndex-座位序号
// 说明：从乘客的并行更新协程调用
func (v *Vehicle) OccupySeat(seatIndex int32) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if seatIndex < 0 || seatIndex >= v.capacity {
		log.Panicf("vehicle %d: seat index %d out of range [0, %d)", v.id, seatIndex, v.capacity)
		return
	}
	if !v.assigned[seatIndex] {
		log.Warnf("vehicle %d: seat %d occupied without assignment", v.id, seatIndex)
		v.assigned[seatIndex] = true
	} else if v.occupied[seatIndex] {
		log.Warnf("vehicle %d: seat %d occupied twice", v.id, seatIndex)
		return
	} else {
		v.pending--
	}
	v.occupied[seatIndex] = true
	v.checkLoadedLocked()
}

// SeatOccupied 查询座位占用状态
func (v *Vehicle) SeatOccupied(seatIndex int32) bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	if seatIndex < 0 || seatIndex >= v.capacity {
		return false
	}
	return v.occupied[seatIndex]
}

// MarkLoadingDone 标记调度完成
// 功能：调度不再为本车指派新乘客；若所有指派乘客都已坐定，
// 直接完成上客
func (v *Vehicle) MarkLoadingDone() {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	v.loaded = true
	v.checkLoadedLocked()
}

// checkLoadedLocked 上客完成判定（要求已持锁）
// 说明：满足条件时登记下一步触发的驶离续体，续体内做存活性
// 与状态双重检查，车辆被其他流程带走时退化为no-op
func (v *Vehicle) checkLoadedLocked() {
	if !v.loaded || v.pending != 0 || v.status != entity.VehicleStatusLoadingPassengers {
		return
	}
	v.status = entity.VehicleStatusPassengersLoaded
	slot := v.slot
	v.ctx.Scheduler().At(v.ctx.Clock().T, func() {
		if v.Alive() && v.Status() == entity.VehicleStatusPassengersLoaded {
			v.ctx.ParkingManager().VehicleDeparting(v, slot)
		}
	})
}

// AssignSlot 绑定停车位并下发进入路径
// 参数：slot-停车位，approach-进入路径点序列
// 说明：由停车场管理器在串行阶段调用
func (v *Vehicle) AssignSlot(slot entity.IParkingSlot, approach []geometry.Point) {
	v.mtx.Lock()
	v.slot = slot
	v.status = entity.VehicleStatusMovingToParkingSpace
	v.mtx.Unlock()
	v.path = approach
	v.pathIndex = 0
	v.aligning = false
}

// StartDeparture 下发驶离路径
// 参数：path-驶离路径点序列
// 说明：由停车场管理器调用，调用前已释放停车位
func (v *Vehicle) StartDeparture(path []geometry.Point) {
	v.mtx.Lock()
	v.slot = nil
	v.status = entity.VehicleStatusFollowingDeparturePath
	v.mtx.Unlock()
	v.path = path
	v.pathIndex = 0
}

// String 获取车辆的字符串表示
func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{ID:%d, Category:%v, Size:%v, Status:%v}",
		v.id, v.category, v.size, v.Status())
}
