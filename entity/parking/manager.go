package parking

import (
	"fmt"
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/input"
)

// pendingService 等待上客服务的到位车辆
type pendingService struct {
	vehicle entity.IVehicle
	slot    entity.IParkingSlot
}

// ParkingManager 停车场管理器
// 功能：管理所有停车位，负责空位分配、进出路径下发与服务队列推进
// 说明：单服务模式下同一时刻只向调度放行一辆车，其余到位车辆
// 按到达顺序在服务队列中等待；服务队列可能被并行阶段的到位上报
// 写入，用互斥锁保护（共享服务FIFO是并发模型中指明的三个临界区之一）
type ParkingManager struct {
	ctx entity.ITaskContext

	slots    []*ParkingSlot         // 按声明顺序排列的停车位
	data     map[int32]*ParkingSlot // ID到停车位的映射
	corners  []geometry.Point       // 场景四角点
	roadExit *geometry.Point        // 道路出口，可能为nil

	// 单服务模式的服务队列
	pending       []pendingService // 等待服务的到位车辆，FIFO
	serviceActive bool             // 当前是否有车辆正在接受服务
	mtx           sync.Mutex
}

// NewManager 创建停车场管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的停车场管理器实例
func NewManager(ctx entity.ITaskContext) *ParkingManager {
	return &ParkingManager{
		ctx:  ctx,
		data: make(map[int32]*ParkingSlot),
	}
}

// Init 初始化停车位、角点与道路出口
// 参数：scenario-场景数据
func (m *ParkingManager) Init(scenario *input.Scenario) {
	m.corners = input.ToPoints(scenario.Corners)
	if scenario.RoadExit != nil {
		p := scenario.RoadExit.ToPoint()
		m.roadExit = &p
	}
	m.slots = make([]*ParkingSlot, 0, len(scenario.Slots))
	for i, pb := range scenario.Slots {
		s := &ParkingSlot{
			id:       pb.ID,
			index:    int32(i),
			position: pb.Position.ToPoint(),
			heading:  pb.Heading,
		}
		if pb.Entry != nil {
			p := pb.Entry.ToPoint()
			s.entry = &p
		}
		if pb.Exit != nil {
			p := pb.Exit.ToPoint()
			s.exit = &p
		}
		m.slots = append(m.slots, s)
		m.data[s.id] = s
	}
	log.Infof("parking: loaded %d slots", len(m.slots))
}

// GetSlot 根据ID获取停车位
// 参数：id-停车位ID
// 返回：对应的停车位实例，不存在则panic
func (m *ParkingManager) GetSlot(id int32) entity.IParkingSlot {
	if s, err := m.GetSlotOrError(id); err != nil {
		log.Panicf("parking: %v", err)
		return nil
	} else {
		return s
	}
}

// GetSlotOrError 根据ID获取停车位（带错误处理）
// 参数：id-停车位ID
// 返回：停车位实例和错误信息，不存在时返回nil和错误
func (m *ParkingManager) GetSlotOrError(id int32) (entity.IParkingSlot, error) {
	s, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("no parking slot with id %d", id)
	}
	return s, nil
}

// RequestParking 为匹配车辆预定空闲停车位
// 功能：按声明顺序取第一个空闲停车位，与第一辆匹配的空闲车辆绑定，
// 并下发从车辆当前位置出发的进入路径
// 参数：size-车辆尺寸，category-颜色类别，Unspecified表示不限
// 返回：是否完成一次绑定
// 说明：仅限串行阶段调用，保证同一空位不会被重复绑定
func (m *ParkingManager) RequestParking(size entity.VehicleSize, category entity.Category) bool {
	var free *ParkingSlot
	for _, s := range m.slots {
		if !s.Occupied() {
			free = s
			break
		}
	}
	if free == nil {
		return false
	}
	vehicle := m.ctx.VehicleManager().FirstUnassigned(size, category)
	if vehicle == nil {
		return false
	}
	free.setVehicle(vehicle)
	vehicle.AssignSlot(free, ApproachPath(vehicle.XYZ(), free, m.corners))
	log.Debugf("parking: slot %d bound to vehicle %d", free.id, vehicle.ID())
	return true
}

// VehicleArrived 车辆到位上报
// 功能：车辆停入并对齐后，按到达顺序进入上客服务
// 参数：vehicle-到位车辆，slot-其停车位
// 说明：从车辆的并行更新协程调用；单服务模式下已有车辆在
// 接受服务时进入等待队列，否则立即放行给调度
func (m *ParkingManager) VehicleArrived(vehicle entity.IVehicle, slot entity.IParkingSlot) {
	if slot == nil || slot.Vehicle() != vehicle {
		log.Errorf("parking: vehicle %d arrived at unbound slot", vehicle.ID())
		return
	}
	if m.ctx.RuntimeConfig().C.SingleService {
		m.mtx.Lock()
		if m.serviceActive {
			m.pending = append(m.pending, pendingService{vehicle: vehicle, slot: slot})
			m.mtx.Unlock()
			return
		}
		m.serviceActive = true
		m.mtx.Unlock()
	}
	m.ctx.DispatchManager().RequestService(vehicle, slot)
}

// VehicleDeparting 车辆驶离
// 功能：释放停车位、下发驶离路径；单服务模式下经冷却后
// 放行服务队列中的下一辆车
// 参数：vehicle-驶离车辆，slot-其停车位
// 说明：由调度续体在串行阶段调用
func (m *ParkingManager) VehicleDeparting(vehicle entity.IVehicle, slot entity.IParkingSlot) {
	switch vehicle.Status() {
	case entity.VehicleStatusParked, entity.VehicleStatusPassengersLoaded:
	default:
		log.Warnf("parking: vehicle %d departing in status %v, ignored", vehicle.ID(), vehicle.Status())
		return
	}
	if slot == nil || slot.Vehicle() != vehicle {
		log.Warnf("parking: vehicle %d departing from unbound slot, ignored", vehicle.ID())
		return
	}
	slot.(*ParkingSlot).setVehicle(nil)
	vehicle.StartDeparture(DeparturePath(slot, m.roadExit))
	log.Debugf("parking: slot %d released by vehicle %d", slot.ID(), vehicle.ID())
	if m.ctx.RuntimeConfig().C.SingleService {
		cooldown := m.ctx.RuntimeConfig().Dispatch.ServiceCooldown
		m.ctx.Scheduler().At(m.ctx.Clock().T+cooldown, m.advanceService)
	}
}

// advanceService 推进服务队列
// 功能：放行服务队列中第一辆仍然有效的到位车辆；队列耗尽时
// 清除服务占用标记
// 说明：跳过已销毁或已脱离停车位的过期表项
func (m *ParkingManager) advanceService() {
	for {
		m.mtx.Lock()
		if len(m.pending) == 0 {
			m.serviceActive = false
			m.mtx.Unlock()
			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.mtx.Unlock()
		if next.vehicle.Alive() && next.slot.Vehicle() == next.vehicle &&
			next.vehicle.Status() == entity.VehicleStatusParked {
			m.ctx.DispatchManager().RequestService(next.vehicle, next.slot)
			return
		}
		log.Debugf("parking: skip stale service entry for vehicle %d", next.vehicle.ID())
	}
}

// FreeSlots 获取当前空闲停车位数量
// 说明：统计与测试用
func (m *ParkingManager) FreeSlots() int32 {
	n := int32(0)
	for _, s := range m.slots {
		if !s.Occupied() {
			n++
		}
	}
	return n
}
