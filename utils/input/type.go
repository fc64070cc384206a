package input

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
)

// Point 场景中的三维坐标点
// 功能：场景数据中位置的序列化形式，可同时从YAML与BSON解码
type Point struct {
	X float64 `yaml:"x" bson:"x"`
	Y float64 `yaml:"y" bson:"y"`
	Z float64 `yaml:"z,omitempty" bson:"z,omitempty"`
}

// ToPoint 转换为几何点
// 返回：geometry.Point形式的坐标
func (p Point) ToPoint() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y, Z: p.Z}
}

// ToPoints 批量转换坐标点
// 功能：将场景坐标点列表转换为几何点列表
func ToPoints(ps []Point) []geometry.Point {
	return lo.Map(ps, func(p Point, _ int) geometry.Point {
		return p.ToPoint()
	})
}

// Slot 停车位数据
// 功能：定义单个停车位的位置、朝向与进出路径点
// 说明：Entry/Exit为可选，缺失时进入/驶离路径中跳过对应路径点
type Slot struct {
	ID       int32   `yaml:"id" bson:"id"`                           // 停车位ID
	Position Point   `yaml:"position" bson:"position"`               // 停车点
	Heading  float64 `yaml:"heading" bson:"heading"`                 // 停车朝向（弧度）
	Entry    *Point  `yaml:"entry,omitempty" bson:"entry,omitempty"` // 进入路径点
	Exit     *Point  `yaml:"exit,omitempty" bson:"exit,omitempty"`   // 驶离路径点
}

// Vehicle 车辆数据
// 功能：定义单辆车的尺寸与可选的颜色类别
// 说明：Size取值small/medium/large；Category取值red/yellow/blue，
// 缺失时由颜色分配器按概率分配
type Vehicle struct {
	ID       int32  `yaml:"id" bson:"id"`                                 // 车辆ID
	Size     string `yaml:"size" bson:"size"`                             // 尺寸
	Category string `yaml:"category,omitempty" bson:"category,omitempty"` // 颜色类别
}

// Scenario 场景数据
// 功能：一次仿真所需的全部静态场景描述
// 说明：对应Unity工程中关卡内的各类场景引用，
// 四个角点中前两个为汇聚角点（connector），其余角点先绕行到对应汇聚角点
type Scenario struct {
	QueuePath    []Point   `yaml:"queue_path" bson:"queue_path"`                   // 排队路径折线
	RoadExit     *Point    `yaml:"road_exit,omitempty" bson:"road_exit,omitempty"` // 共享道路出口
	VehicleSpawn Point     `yaml:"vehicle_spawn" bson:"vehicle_spawn"`             // 车辆出生点
	Corners      []Point   `yaml:"corners" bson:"corners"`                         // 四个角点
	Slots        []Slot    `yaml:"slots" bson:"slots"`                             // 停车位列表
	Vehicles     []Vehicle `yaml:"vehicles" bson:"vehicles"`                       // 车辆列表
}
