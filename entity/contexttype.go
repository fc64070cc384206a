package entity

import (
	"github.com/tsinghua-fib-lab/carjam-sim-oss/clock"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/config"
)

// 延时续体调度接口
// 说明：续体在每步更新阶段开始时由主循环串行触发；
// 续体内部必须对引用的实体做存活性检查，实体已销毁时退化为no-op
type IScheduler interface {
	// 注册在指定仿真时刻触发的一次性回调
	At(t float64, fn func())
}

type ITaskContext interface {
	Clock() *clock.Clock
	Scheduler() IScheduler
	CategoryManager() ICategoryManager
	QueueManager() IQueueManager
	NpcManager() INpcManager
	VehicleManager() IVehicleManager
	ParkingManager() IParkingManager
	DispatchManager() IDispatchManager
	RuntimeConfig() *config.RuntimeConfig
}
