package npc

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/container"
)

// runtime 运行时基本数据
// 功能：记录人员的位置、进度、状态等每步变化的数据
// 说明：更新阶段写runtime，准备阶段整体拷贝到snapshot供他人读取
type runtime struct {
	Status   entity.NpcStatus // 当前状态
	Progress float64          // 沿排队路径的归一化进度[0,1]
	Arrived  bool             // 是否到达当前排队目标
	XYZ      geometry.Point   // 位置坐标

	// 上车目标（Boarding状态有效）
	Vehicle   entity.IVehicle // 目标车辆
	SeatIndex int32           // 目标座位序号
	Seat      geometry.Point  // 目标座位坐标
}

// Npc 排队人员实体
// 功能：表示等待上车的模拟人员，支持排队跟随移动与走向座位两种行为
type Npc struct {
	container.IncrementalItemBase
	ctx entity.ITaskContext
	m   *NpcManager

	// 静态属性
	id       int32
	category entity.Category // 颜色类别

	// 队列数据，仅在串行阶段由队列管理器写入
	ordinal int32            // 队列序号，0为队首，不在队列中为-1
	node    entity.QueueNode // 排队链表节点

	alive bool // 存活标记，销毁后置false

	// 运行时基本数据
	runtime  runtime // 运行时数据
	snapshot runtime // 快照
}

// newNpc 创建并初始化一个新的排队人员
// 功能：分配颜色类别，放置在排队路径起点并注册进队列
// 参数：ctx-任务上下文，m-人员管理器，id-人员ID
// 返回：初始化完成的人员实例
func newNpc(ctx entity.ITaskContext, m *NpcManager, id int32) *Npc {
	p := &Npc{
		ctx:      ctx,
		m:        m,
		id:       id,
		category: ctx.CategoryManager().Assign(entity.KindNpc),
		ordinal:  -1,
		alive:    true,
		runtime: runtime{
			Status:   entity.NpcStatusQueuing,
			Progress: 0,
			XYZ:      ctx.QueueManager().GetPositionByProgress(0),
		},
	}
	p.node.Value = p
	p.snapshot = p.runtime
	ctx.QueueManager().Register(p)
	return p
}

// prepareNode 准备阶段：链表节点键值更新
func (p *Npc) prepareNode() {
	if p.runtime.Status == entity.NpcStatusQueuing {
		p.node.S = p.runtime.Progress
	}
}

// prepare 准备阶段：更新快照
func (p *Npc) prepare() {
	p.snapshot = p.runtime
}

// update 更新阶段，执行人员的模拟逻辑
// 功能：根据人员状态执行排队跟随或走向座位的移动
// 参数：dt-时间步长
// 算法说明：
//  1. Queuing：向队列管理器求解目标进度，按速度逼近目标，
//     更新到位标记与路径上的插值坐标
//  2. Boarding：直线走向座位，到位后占用座位并触发销毁
//
// 说明：读取自身runtime与邻居快照，写入仅限自身runtime
func (p *Npc) update(dt float64) {
	switch p.runtime.Status {
	case entity.NpcStatusQueuing:
		queue := p.ctx.QueueManager()
		target, arrived := queue.SolveTarget(p, dt)
		step := p.ctx.RuntimeConfig().Npc.Speed * dt / queue.PathLength()
		if math.Abs(target-p.runtime.Progress) <= step {
			p.runtime.Progress = target
		} else if target > p.runtime.Progress {
			p.runtime.Progress += step
		} else {
			p.runtime.Progress -= step
		}
		p.runtime.Arrived = arrived
		p.runtime.XYZ = queue.GetPositionByProgress(p.runtime.Progress)
	case entity.NpcStatusBoarding:
		vehicle := p.runtime.Vehicle
		if vehicle == nil || !vehicle.Alive() {
			// 车辆中途被销毁，按预期竞态处理：原地退化为no-op
			log.Warnf("npc %d: boarding target vehicle is gone", p.id)
			p.runtime.Status = entity.NpcStatusFinished
			p.m.Remove(p)
			return
		}
		seat := p.runtime.Seat
		dx := seat.X - p.runtime.XYZ.X
		dy := seat.Y - p.runtime.XYZ.Y
		d := math.Hypot(dx, dy)
		step := p.ctx.RuntimeConfig().Npc.Speed * dt
		if d <= step {
			p.runtime.XYZ = seat
			vehicle.OccupySeat(p.runtime.SeatIndex)
			p.runtime.Status = entity.NpcStatusFinished
			p.m.recordBoarded()
			p.m.Remove(p)
		} else {
			p.runtime.XYZ = geometry.Blend(p.runtime.XYZ, seat, step/d)
		}
	case entity.NpcStatusFinished:
	}
}

// ID 获取人员ID
func (p *Npc) ID() int32 {
	return p.id
}

// Category 获取颜色类别
func (p *Npc) Category() entity.Category {
	return p.category
}

// Status 获取人员状态（快照）
func (p *Npc) Status() entity.NpcStatus {
	return p.snapshot.Status
}

// Ordinal 获取队列序号
// 返回：0为队首，不在队列中为-1
func (p *Npc) Ordinal() int32 {
	return p.ordinal
}

// SetOrdinal 设置队列序号
// 说明：仅由队列管理器在串行阶段调用
func (p *Npc) SetOrdinal(ordinal int32) {
	p.ordinal = ordinal
}

// Progress 获取沿排队路径的归一化进度（快照）
func (p *Npc) Progress() float64 {
	return p.snapshot.Progress
}

// ReachedTarget 是否到达当前排队目标（快照）
func (p *Npc) ReachedTarget() bool {
	return p.snapshot.Arrived
}

// XYZ 获取位置坐标（快照）
func (p *Npc) XYZ() geometry.Point {
	return p.snapshot.XYZ
}

// Node 获取排队链表节点
func (p *Npc) Node() *entity.QueueNode {
	return &p.node
}

// Alive 存活性检查
// 说明：延时续体在触发时通过此方法判断人员是否仍然有效
func (p *Npc) Alive() bool {
	return p.alive
}

// StartBoarding 指派上车
// 功能：离开队列，转入走向座位的状态
// 参数：vehicle-目标车辆，seatIndex-座位序号，seat-座位坐标
// 说明：由调度管理器在串行阶段调用；队列注销由调度方负责
func (p *Npc) StartBoarding(vehicle entity.IVehicle, seatIndex int32, seat geometry.Point) {
	p.runtime.Status = entity.NpcStatusBoarding
	p.runtime.Vehicle = vehicle
	p.runtime.SeatIndex = seatIndex
	p.runtime.Seat = seat
	p.runtime.Arrived = false
}

// String 获取人员的字符串表示
func (p *Npc) String() string {
	return fmt.Sprintf("Npc{ID:%d, Category:%v, Ordinal:%d, Progress:%.3f}",
		p.id, p.category, p.ordinal, p.snapshot.Progress)
}
