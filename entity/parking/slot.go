package parking

import (
	"fmt"
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
)

// ParkingSlot 停车位实体
// 功能：表示一个可停车的泊位，记录停车点坐标、朝向与进出路径点
// 说明：车辆绑定是弱引用，车辆销毁前由停车场管理器负责解绑；
// 绑定指针可能被并行阶段的到位上报读取，用互斥锁保护
type ParkingSlot struct {
	id       int32
	index    int32           // 在场景中的声明顺序，空位按此顺序分配
	position geometry.Point  // 停车点坐标
	heading  float64         // 停车朝向（弧度）
	entry    *geometry.Point // 进入路径点，可能为nil
	exit     *geometry.Point // 驶离路径点，可能为nil

	vehicle entity.IVehicle // 绑定的车辆，未绑定为nil
	mtx     sync.Mutex
}

// ID 获取停车位ID
func (s *ParkingSlot) ID() int32 {
	return s.id
}

// Index 获取停车位序号
func (s *ParkingSlot) Index() int32 {
	return s.index
}

// Occupied 是否被占用或预定
// 说明：从车辆绑定成功（开始驶入）起即视为占用
func (s *ParkingSlot) Occupied() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.vehicle != nil
}

// Vehicle 获取绑定的车辆，未绑定时为nil
func (s *ParkingSlot) Vehicle() entity.IVehicle {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.vehicle
}

// setVehicle 写入车辆绑定，nil表示解绑
func (s *ParkingSlot) setVehicle(v entity.IVehicle) {
	s.mtx.Lock()
	s.vehicle = v
	s.mtx.Unlock()
}

// Position 获取停车点坐标
func (s *ParkingSlot) Position() geometry.Point {
	return s.position
}

// Heading 获取停车朝向（弧度）
func (s *ParkingSlot) Heading() float64 {
	return s.heading
}

// EntryPoint 获取进入路径点，可能为nil
func (s *ParkingSlot) EntryPoint() *geometry.Point {
	return s.entry
}

// ExitPoint 获取驶离路径点，可能为nil
func (s *ParkingSlot) ExitPoint() *geometry.Point {
	return s.exit
}

// String 获取停车位的字符串表示
func (s *ParkingSlot) String() string {
	return fmt.Sprintf("ParkingSlot{ID:%d, Index:%d, Occupied:%v}", s.id, s.index, s.Occupied())
}
