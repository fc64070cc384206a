package dispatch

import (
	"sync"

	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
)

// serviceTuple 一次上客服务的调度项
// 说明：remaining从车辆空闲座位数开始递减，座位序号由
// 座位总数-remaining导出，保证指派顺序与座位序号的一致
type serviceTuple struct {
	vehicle   entity.IVehicle
	slot      entity.IParkingSlot
	remaining int32
}

// DispatchManager 上车调度管理器
// 功能：按FIFO顺序为到位车辆逐个指派排队乘客，控制上车节奏
// 说明：调度FIFO可能被并行阶段的到位上报写入，用互斥锁保护
// （共享调度FIFO是并发模型中指明的三个临界区之一）；
// 指派动作本身全部发生在延时续体中，由主循环串行执行
type DispatchManager struct {
	ctx entity.ITaskContext

	fifo       []*serviceTuple // 待处理的服务调度项
	processing bool            // 当前是否有处理链在推进
	mtx        sync.Mutex
}

// NewManager 创建上车调度管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的上车调度管理器实例
func NewManager(ctx entity.ITaskContext) *DispatchManager {
	return &DispatchManager{ctx: ctx}
}

// RequestService 请求上客服务
// 功能：将到位车辆加入调度FIFO；每辆车同一时刻至多一个在途调度项，
// 重复请求静默拒绝
// 参数：vehicle-到位车辆，slot-其停车位
// 说明：可从并行更新协程调用；处理链空闲时登记续体启动处理
func (m *DispatchManager) RequestService(vehicle entity.IVehicle, slot entity.IParkingSlot) {
	m.mtx.Lock()
	for _, t := range m.fifo {
		if t.vehicle == vehicle {
			m.mtx.Unlock()
			log.Debugf("dispatch: vehicle %d already in service fifo", vehicle.ID())
			return
		}
	}
	m.fifo = append(m.fifo, &serviceTuple{
		vehicle:   vehicle,
		slot:      slot,
		remaining: vehicle.FreeSeats(),
	})
	start := !m.processing
	if start {
		m.processing = true
	}
	m.mtx.Unlock()
	if start {
		m.ctx.Scheduler().At(m.ctx.Clock().T, m.processNext)
	}
}

// processNext 处理链单步
// 功能：处理FIFO头部调度项的下一个动作
// 算法说明：
//  1. FIFO为空：清除处理标记，处理链终止
//  2. 头部车辆已销毁或已脱离停车位：弹出过期项，立即续行
//  3. 剩余座位为零：收尾（见finalize）
//  4. 队列已空：提前收尾，已指派的乘客照常上车，车辆不再等待
//  5. 取乘客：启用颜色匹配时取第一个颜色匹配者（越过不匹配的
//     前排乘客），否则取队首；无匹配时弹出本项、延时后重新入队
//     并续行处理链，避免一辆车长期阻塞后续车辆
//  6. 指派：座位序号=总座位数-剩余数；乘客离队走向座位，
//     按上车延时登记下一步续体
func (m *DispatchManager) processNext() {
	m.mtx.Lock()
	if len(m.fifo) == 0 {
		m.processing = false
		m.mtx.Unlock()
		return
	}
	head := m.fifo[0]
	m.mtx.Unlock()

	vehicle, slot := head.vehicle, head.slot
	if !vehicle.Alive() || vehicle.Slot() != slot {
		log.Debugf("dispatch: drop stale tuple of vehicle %d", vehicle.ID())
		m.pop(head)
		m.processNext()
		return
	}
	if head.remaining == 0 {
		m.finalize(head)
		return
	}
	queue := m.ctx.QueueManager()
	if queue.Count() == 0 {
		m.finalize(head)
		return
	}

	cfg := m.ctx.RuntimeConfig()
	var npc entity.INpc
	if cfg.C.EnforceColorMatch {
		npc = queue.FirstMatch(vehicle.Category())
	} else {
		npc = queue.Front()
	}
	now := m.ctx.Clock().T
	if npc == nil {
		// 整个队列没有匹配乘客，让出处理链并延时重试
		m.pop(head)
		m.ctx.Scheduler().At(now+cfg.Dispatch.RetryDelay, func() {
			if vehicle.Alive() && vehicle.Slot() == slot {
				switch vehicle.Status() {
				case entity.VehicleStatusParked, entity.VehicleStatusLoadingPassengers:
					m.RequestService(vehicle, slot)
				}
			}
		})
		m.ctx.Scheduler().At(now+cfg.Dispatch.RetryDelay, m.processNext)
		return
	}

	seatIndex := vehicle.Capacity() - head.remaining
	seat := vehicle.SeatPosition(seatIndex)
	queue.Unregister(npc)
	vehicle.AssignSeat(seatIndex)
	npc.StartBoarding(vehicle, seatIndex, seat)
	head.remaining--
	log.Debugf("dispatch: npc %d -> vehicle %d seat %d", npc.ID(), vehicle.ID(), seatIndex)
	m.ctx.Scheduler().At(now+cfg.Dispatch.BoardingDelay, m.processNext)
}

// finalize 收尾一次上客服务
// 功能：弹出调度项并标记车辆调度完成；从未指派到任何乘客的
// 车辆直接驶离，把停车位让给后续车辆
func (m *DispatchManager) finalize(head *serviceTuple) {
	m.pop(head)
	vehicle, slot := head.vehicle, head.slot
	assigned := vehicle.Capacity() - vehicle.FreeSeats()
	vehicle.MarkLoadingDone()
	if assigned == 0 {
		log.Debugf("dispatch: vehicle %d leaves empty", vehicle.ID())
		m.ctx.ParkingManager().VehicleDeparting(vehicle, slot)
	}
	m.processNext()
}

// pop 弹出FIFO头部的指定调度项
func (m *DispatchManager) pop(head *serviceTuple) {
	m.mtx.Lock()
	if len(m.fifo) > 0 && m.fifo[0] == head {
		m.fifo = m.fifo[1:]
	}
	m.mtx.Unlock()
}

// QueueLen 获取调度FIFO长度
// 说明：统计与测试用
func (m *DispatchManager) QueueLen() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.fifo)
}
