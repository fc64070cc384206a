package entity

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/input"
)

// Manager依赖倒置

// entity/color/manager.go的依赖倒置
type ICategoryManager interface {
	// 为kind分配一个颜色类别，按配置概率均衡分布
	Assign(kind CategoryKind) Category
	// 注销一次分配，对应计数减一，下限为零（静默no-op）
	Unregister(kind CategoryKind, c Category)
	// 判断两个颜色类别是否匹配
	Match(a, b Category) bool
}

// entity/queue/manager.go的依赖倒置
type IQueueManager interface {
	Init(line []geometry.Point) // 初始化排队路径

	// 队列成员管理

	Register(npc INpc)   // 追加到队尾并分配序号，重复注册静默拒绝
	Unregister(npc INpc) // 按身份移除并重排其后所有人员的序号

	// 查询

	// 输入队列序号，查找人员，越界则panic
	Get(ordinal int32) INpc
	// 输入队列序号，查找人员，越界则返回error
	GetOrError(ordinal int32) (INpc, error)
	OrdinalOf(npc INpc) int32 // 查询人员序号，不在队列中返回-1
	Count() int32             // 队列长度
	Front() INpc              // 队首人员，空队列返回nil
	// 从队首向队尾查找第一个颜色匹配的人员，无匹配返回nil
	FirstMatch(c Category) INpc

	// 位置求解

	// 计算npc在本步的目标进度与到位判定（读取前方人员的快照）
	SolveTarget(npc INpc, dt float64) (target float64, arrived bool)
	PathLength() float64                            // 排队路径总长（米）
	GetPositionByProgress(p float64) geometry.Point // 将归一化进度转换为坐标
}

// entity/npc/manager.go的依赖倒置
type INpcManager interface {
	Init() // 初始化生成计划

	// 输入人员ID，查找人员，如果不存在则panic
	Get(id int32) INpc
	// 输入人员ID，查找人员，如果不存在则返回error
	GetOrError(id int32) (INpc, error)

	// 上车完成或显式移除，销毁在下一步准备阶段生效
	Remove(npc INpc)

	PrepareNode()      // 准备阶段：增量数组与链表节点更新
	Prepare()          // 准备阶段：snapshot更新
	Update(dt float64) // 更新阶段

	// 统计

	NumBoarded() int32 // 已完成上车的人数
}

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	Init(scenario *input.Scenario) // 初始化生成点与车辆列表

	// 输入车辆ID，查找车辆，如果不存在则panic
	Get(id int32) IVehicle
	// 输入车辆ID，查找车辆，如果不存在则返回error
	GetOrError(id int32) (IVehicle, error)

	// 动态召唤一辆车（相当于原工程中的点击召车），返回新车辆
	Summon(size VehicleSize, category Category) IVehicle
	// 驶离完成的车辆移除，销毁在下一步准备阶段生效
	Remove(vehicle IVehicle)
	// 查找第一辆未分配停车位的指定尺寸（与颜色，Unspecified表示不限）车辆
	FirstUnassigned(size VehicleSize, category Category) IVehicle

	Prepare()          // 准备阶段
	Update(dt float64) // 更新阶段

	// 统计

	NumDeparted() int32 // 已完成驶离的车辆数
}

// entity/parking/manager.go的依赖倒置
type IParkingManager interface {
	Init(scenario *input.Scenario) // 初始化停车位、角点与道路出口

	// 输入停车位ID，查找停车位，如果不存在则panic
	GetSlot(id int32) IParkingSlot
	// 输入停车位ID，查找停车位，如果不存在则返回error
	GetSlotOrError(id int32) (IParkingSlot, error)

	// 为第一辆未分配的匹配车辆预定第一个空闲停车位，
	// 成功则绑定并下发进入路径，无空位或无车时返回false
	RequestParking(size VehicleSize, category Category) bool
	// 车辆到位：进入Parked状态并按到达顺序排入服务队列
	VehicleArrived(vehicle IVehicle, slot IParkingSlot)
	// 车辆驶离：释放停车位、解绑车辆、冷却后推进下一辆待服务车辆
	VehicleDeparting(vehicle IVehicle, slot IParkingSlot)
}

// entity/dispatch/manager.go的依赖倒置
type IDispatchManager interface {
	// 请求为停在slot上的vehicle上客，按FIFO顺序逐个指派乘客
	RequestService(vehicle IVehicle, slot IParkingSlot)
}
