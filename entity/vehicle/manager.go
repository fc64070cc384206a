package vehicle

import (
	"fmt"
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/container"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/input"
)

// globalRuntime 管理器级统计数据
type globalRuntime struct {
	NumDeparted int32 // 已完成驶离的车辆总数
}

// VehicleManager 车辆管理器
// 功能：管理所有车辆，负责初始加载、动态召唤、停车请求与销毁回收
type VehicleManager struct {
	ctx entity.ITaskContext

	data     map[int32]*Vehicle                    // ID到车辆的映射
	vehicles *container.IncrementalArray[*Vehicle] // 车辆增量数组

	spawn  geometry.Point // 车辆生成点
	nextID int32          // 下一个自动分配的车辆ID

	// 销毁缓冲，更新阶段写入，准备阶段统一从data中清除
	removed    []*Vehicle
	removedMtx sync.Mutex

	runtime  globalRuntime
	snapshot globalRuntime
	mtx      sync.Mutex
}

// NewManager 创建车辆管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的车辆管理器实例
func NewManager(ctx entity.ITaskContext) *VehicleManager {
	return &VehicleManager{
		ctx:      ctx,
		data:     make(map[int32]*Vehicle),
		vehicles: container.NewIncrementalArray[*Vehicle](),
		nextID:   1,
	}
}

// Init 初始化生成点与车辆列表
// 功能：解析场景中的车辆定义并在生成点创建全部车辆
// 参数：scenario-场景数据
// 说明：未指定颜色的车辆交给颜色分配器补全；
// ID取场景给定值，自动分配的ID从场景最大ID+1开始
func (m *VehicleManager) Init(scenario *input.Scenario) {
	m.spawn = scenario.VehicleSpawn.ToPoint()
	for _, pb := range scenario.Vehicles {
		size, ok := entity.ParseVehicleSize(pb.Size)
		if !ok {
			log.Warnf("vehicle %d: unknown size %q, fallback to %v", pb.ID, pb.Size, size)
		}
		category := entity.CategoryUnspecified
		if pb.Category != "" {
			if c, ok := entity.ParseCategory(pb.Category); ok {
				category = c
			} else {
				log.Warnf("vehicle %d: unknown category %q, will be assigned", pb.ID, pb.Category)
			}
		}
		if category == entity.CategoryUnspecified {
			category = m.ctx.CategoryManager().Assign(entity.KindVehicle)
		}
		v := newVehicle(m.ctx, m, pb.ID, size, category, m.spawn)
		m.data[v.id] = v
		m.vehicles.Add(v)
		if pb.ID >= m.nextID {
			m.nextID = pb.ID + 1
		}
	}
	m.vehicles.Prepare()
	log.Infof("vehicle: loaded %d vehicles", len(m.data))
}

// capacityFor 查询尺寸对应的座位数
// 说明：配置的容量表优先，未配置时用尺寸默认值
func (m *VehicleManager) capacityFor(size entity.VehicleSize) int32 {
	if c, ok := m.ctx.RuntimeConfig().Vehicle.Capacity[size.String()]; ok && c > 0 {
		return c
	}
	return size.DefaultCapacity()
}

// Get 根据ID获取车辆
// 参数：id-车辆ID
// 返回：对应的车辆实例，不存在则panic
func (m *VehicleManager) Get(id int32) entity.IVehicle {
	if v, err := m.GetOrError(id); err != nil {
		log.Panicf("vehicle: %v", err)
		return nil
	} else {
		return v
	}
}

// GetOrError 根据ID获取车辆（带错误处理）
// 参数：id-车辆ID
// 返回：车辆实例和错误信息，不存在时返回nil和错误
func (m *VehicleManager) GetOrError(id int32) (entity.IVehicle, error) {
	v, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("no vehicle with id %d", id)
	}
	return v, nil
}

// Summon 动态召唤一辆车
// 功能：在生成点创建新车辆并加入管理，下一步准备阶段起参与更新
// 参数：size-尺寸，category-颜色类别，Unspecified时由分配器补全
// 返回：新创建的车辆
// 说明：仅限串行阶段调用（续体或外部控制）
func (m *VehicleManager) Summon(size entity.VehicleSize, category entity.Category) entity.IVehicle {
	if category == entity.CategoryUnspecified {
		category = m.ctx.CategoryManager().Assign(entity.KindVehicle)
	}
	v := newVehicle(m.ctx, m, m.nextID, size, category, m.spawn)
	m.nextID++
	m.data[v.id] = v
	m.vehicles.Add(v)
	log.Debugf("vehicle: summoned %v", v)
	return v
}

// Remove 销毁车辆
// 功能：标记车辆死亡并从增量数组、颜色计数中移除，记录驶离统计
// 说明：可在并行更新阶段由车辆自身调用；data的清理推迟到准备阶段
func (m *VehicleManager) Remove(vehicle entity.IVehicle) {
	v, ok := vehicle.(*Vehicle)
	if !ok {
		log.Panicf("vehicle: remove called with foreign entity %v", vehicle)
		return
	}
	v.mtx.Lock()
	v.alive = false
	v.mtx.Unlock()
	m.vehicles.Remove(v)
	m.ctx.CategoryManager().Unregister(entity.KindVehicle, v.category)
	m.removedMtx.Lock()
	m.removed = append(m.removed, v)
	m.removedMtx.Unlock()
	m.mtx.Lock()
	m.runtime.NumDeparted++
	m.mtx.Unlock()
}

// FirstUnassigned 查找第一辆未分配停车位的匹配车辆
// 功能：在空闲车辆中按ID从小到大查找尺寸一致且颜色匹配的一辆
// 参数：size-尺寸，category-颜色类别，Unspecified表示不限颜色
// 返回：匹配的车辆，无匹配返回nil
func (m *VehicleManager) FirstUnassigned(size entity.VehicleSize, category entity.Category) entity.IVehicle {
	var best *Vehicle
	for _, v := range m.vehicles.Data() {
		if v.Status() != entity.VehicleStatusIdle || v.Slot() != nil {
			continue
		}
		if v.size != size {
			continue
		}
		if category != entity.CategoryUnspecified &&
			!m.ctx.CategoryManager().Match(v.category, category) {
			continue
		}
		if best == nil || v.id < best.id {
			best = v
		}
	}
	if best == nil {
		return nil
	}
	return best
}

// Prepare 准备阶段
// 功能：清理已销毁车辆、应用增量数组、刷新所有车辆快照
func (m *VehicleManager) Prepare() {
	m.removedMtx.Lock()
	for _, v := range m.removed {
		delete(m.data, v.id)
	}
	m.removed = m.removed[:0]
	m.removedMtx.Unlock()
	m.vehicles.Prepare()
	parallel.GoFor(m.vehicles.Data(), func(v *Vehicle) { v.prepare() })
	m.mtx.Lock()
	m.snapshot = m.runtime
	m.mtx.Unlock()
}

// Update 更新阶段，执行所有车辆的模拟逻辑
// 功能：先串行为每辆空闲车辆发起停车请求，再并行推进所有车辆
// 参数：dt-时间步长
// 说明：停车请求的绑定由停车场管理器完成，绑定到的可能是
// 其他同规格车辆；串行执行保证同一空位不会被重复绑定
func (m *VehicleManager) Update(dt float64) {
	for _, v := range m.vehicles.Data() {
		if v.Status() == entity.VehicleStatusIdle && v.Slot() == nil {
			m.ctx.ParkingManager().RequestParking(v.size, v.category)
		}
	}
	parallel.GoFor(m.vehicles.Data(), func(v *Vehicle) { v.update(dt) })
}

// NumDeparted 获取已完成驶离的车辆总数
func (m *VehicleManager) NumDeparted() int32 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.snapshot.NumDeparted
}

// Count 获取当前存活车辆数
func (m *VehicleManager) Count() int {
	return len(m.data)
}
