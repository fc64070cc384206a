package entity

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/container"
)

// Category 颜色类别
// 用于排队人员与车辆的匹配，上车时要求两者类别一致
type Category int32

const (
	CategoryUnspecified Category = -1 // 未指定（由颜色分配器分配）

	CategoryRed    Category = 0 // 红色
	CategoryYellow Category = 1 // 黄色
	CategoryBlue   Category = 2 // 蓝色

	// 颜色类别总数
	NumCategories = 3
)

// String 获取颜色类别的字符串表示
func (c Category) String() string {
	switch c {
	case CategoryRed:
		return "red"
	case CategoryYellow:
		return "yellow"
	case CategoryBlue:
		return "blue"
	default:
		return "unspecified"
	}
}

// ParseCategory 解析颜色类别字符串
// 返回：对应的颜色类别，无法识别时返回CategoryUnspecified与false
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "red":
		return CategoryRed, true
	case "yellow":
		return CategoryYellow, true
	case "blue":
		return CategoryBlue, true
	default:
		return CategoryUnspecified, false
	}
}

// CategoryKind 颜色计数对象的种类
// 说明：车辆与排队人员的类别计数相互独立
type CategoryKind int32

const (
	KindVehicle CategoryKind = 0 // 车辆
	KindNpc     CategoryKind = 1 // 排队人员

	// 计数种类总数
	NumCategoryKinds = 2
)

// VehicleSize 车辆尺寸
type VehicleSize int32

const (
	VehicleSizeSmall  VehicleSize = 0 // 小型，默认4座
	VehicleSizeMedium VehicleSize = 1 // 中型，默认6座
	VehicleSizeLarge  VehicleSize = 2 // 大型，默认8座
)

// String 获取车辆尺寸的字符串表示
func (s VehicleSize) String() string {
	switch s {
	case VehicleSizeSmall:
		return "small"
	case VehicleSizeMedium:
		return "medium"
	case VehicleSizeLarge:
		return "large"
	default:
		return "unknown"
	}
}

// DefaultCapacity 获取尺寸对应的默认座位数
// 返回：默认座位数（small=4 medium=6 large=8）
func (s VehicleSize) DefaultCapacity() int32 {
	switch s {
	case VehicleSizeSmall:
		return 4
	case VehicleSizeMedium:
		return 6
	case VehicleSizeLarge:
		return 8
	default:
		return 0
	}
}

// ParseVehicleSize 解析车辆尺寸字符串
// 返回：对应的车辆尺寸，无法识别时返回small与false
func ParseVehicleSize(s string) (VehicleSize, bool) {
	switch s {
	case "small":
		return VehicleSizeSmall, true
	case "medium":
		return VehicleSizeMedium, true
	case "large":
		return VehicleSizeLarge, true
	default:
		return VehicleSizeSmall, false
	}
}

// VehicleStatus 车辆状态机状态
// 状态迁移由到位事件与调度完成事件驱动：
// Idle → MovingToParkingSpace → Parked → LoadingPassengers →
// PassengersLoaded → FollowingDeparturePath → Departing →（销毁）
type VehicleStatus int32

const (
	VehicleStatusIdle                   VehicleStatus = 0 // 空闲，未分配停车位
	VehicleStatusMovingToParkingSpace   VehicleStatus = 1 // 沿进入路径驶向停车位
	VehicleStatusParked                 VehicleStatus = 2 // 已停入，等待上客
	VehicleStatusLoadingPassengers      VehicleStatus = 3 // 上客中
	VehicleStatusPassengersLoaded       VehicleStatus = 4 // 上客完成，等待驶离
	VehicleStatusFollowingDeparturePath VehicleStatus = 5 // 沿驶离路径行驶
	VehicleStatusDeparting              VehicleStatus = 6 // 已到达道路出口，待销毁
)

// String 获取车辆状态的字符串表示
func (s VehicleStatus) String() string {
	switch s {
	case VehicleStatusIdle:
		return "idle"
	case VehicleStatusMovingToParkingSpace:
		return "moving_to_parking_space"
	case VehicleStatusParked:
		return "parked"
	case VehicleStatusLoadingPassengers:
		return "loading_passengers"
	case VehicleStatusPassengersLoaded:
		return "passengers_loaded"
	case VehicleStatusFollowingDeparturePath:
		return "following_departure_path"
	case VehicleStatusDeparting:
		return "departing"
	default:
		return "unknown"
	}
}

// NpcStatus 排队人员状态
type NpcStatus int32

const (
	NpcStatusQueuing  NpcStatus = 0 // 排队中
	NpcStatusBoarding NpcStatus = 1 // 走向座位
	NpcStatusFinished NpcStatus = 2 // 上车完成，待销毁
)

// 排队链表节点类型
type QueueNode = container.ListNode[INpc]

// 排队链表类型
type QueueList = container.List[INpc]

// entity/npc/npc.go的依赖倒置
type INpc interface {
	// 自身属性

	ID() int32           // 获取人员ID
	Category() Category  // 获取颜色类别
	Status() NpcStatus   // 获取状态
	Ordinal() int32      // 获取在队列中的序号，0为队首
	Progress() float64   // 获取沿排队路径的归一化进度[0,1]
	ReachedTarget() bool // 是否已到达当前目标位置
	XYZ() geometry.Point // 获取位置坐标
	Node() *QueueNode    // 获取排队链表节点
	Alive() bool         // 存活性检查，延时续体使用

	// 队列管理器专用

	SetOrdinal(ordinal int32) // 设置队列序号，仅由队列管理器调用

	// 调度

	// 指派上车：离开队列，走向vehicle的seatIndex号座位
	StartBoarding(vehicle IVehicle, seatIndex int32, seat geometry.Point)

	// print

	String() string
}

// entity/vehicle/vehicle.go的依赖倒置
type IVehicle interface {
	// 自身属性

	ID() int32             // 获取车辆ID
	Category() Category    // 获取颜色类别
	Size() VehicleSize     // 获取尺寸
	Capacity() int32       // 获取座位总数
	FreeSeats() int32      // 获取未被占用或指派的座位数
	Status() VehicleStatus // 获取状态
	Slot() IParkingSlot    // 获取分配的停车位，未分配时为nil
	XYZ() geometry.Point   // 获取位置坐标
	Alive() bool           // 存活性检查，延时续体使用

	// 座位

	SeatPosition(seatIndex int32) geometry.Point // 获取座位的世界坐标
	AssignSeat(seatIndex int32)                  // 预定座位（调度指派时）
	OccupySeat(seatIndex int32)                  // 占用座位（乘客到位时）
	SeatOccupied(seatIndex int32) bool           // 查询座位占用状态

	// 状态迁移

	AssignSlot(slot IParkingSlot, approach []geometry.Point) // 绑定停车位并下发进入路径
	MarkLoadingDone()                                        // 调度完成，不再有新乘客指派
	StartDeparture(path []geometry.Point)                    // 下发驶离路径

	// print

	String() string
}

// entity/parking/slot.go的依赖倒置
type IParkingSlot interface {
	ID() int32                   // 获取停车位ID
	Index() int32                // 获取停车位序号
	Occupied() bool              // 是否被占用/预定
	Vehicle() IVehicle           // 获取绑定的车辆（弱引用），未绑定时为nil
	Position() geometry.Point    // 获取停车点坐标
	Heading() float64            // 获取停车朝向（弧度）
	EntryPoint() *geometry.Point // 获取进入路径点，可能为nil
	ExitPoint() *geometry.Point  // 获取驶离路径点，可能为nil
}
