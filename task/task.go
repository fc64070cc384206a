package task

import (
	"github.com/tsinghua-fib-lab/carjam-sim-oss/clock"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/color"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/dispatch"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/npc"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/parking"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/queue"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/input"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/scheduler"
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代全局变量
// 说明：管理仿真系统的所有组件，包括时钟、调度器与各实体管理器
type Context struct {
	// 任务名
	job string

	// 时钟
	clock *clock.Clock
	// 延时续体调度器
	scheduler *scheduler.Scheduler

	// 颜色分配管理器
	categoryManager entity.ICategoryManager
	// 排队管理器
	queueManager entity.IQueueManager
	// 排队人员管理器
	npcManager entity.INpcManager
	// 车辆管理器
	vehicleManager entity.IVehicleManager
	// 停车场管理器
	parkingManager entity.IParkingManager
	// 上车调度管理器
	dispatchManager entity.IDispatchManager

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 用于初始化的输入
	initRes *input.Input
}

// NewContext 创建新的仿真任务上下文
// 功能：初始化仿真系统的所有组件和配置
// 参数：job-任务名称，c-配置对象
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 创建Context实例并初始化时钟与调度器
// 2. 加载场景输入数据
// 3. 创建各实体管理器（颜色、排队、人员、车辆、停车场、调度）
func NewContext(job string, c config.Config) *Context {
	ctx := &Context{
		job: job,
	}
	ctx.clock = clock.New(c.Control.Step)
	ctx.scheduler = scheduler.New()

	// 下载所有模拟器启动所需的数据
	ctx.initRes = input.Init(c)

	ctx.runtimeConfig = config.NewRuntimeConfig(c)

	// 新建各类模拟对象
	ctx.categoryManager = color.NewManager(ctx)
	ctx.queueManager = queue.NewManager(ctx)
	ctx.npcManager = npc.NewManager(ctx)
	ctx.vehicleManager = vehicle.NewManager(ctx)
	ctx.parkingManager = parking.NewManager(ctx)
	ctx.dispatchManager = dispatch.NewManager(ctx)

	return ctx
}

func (ctx *Context) GetInput() *input.Input {
	return ctx.initRes
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Scheduler() entity.IScheduler {
	return ctx.scheduler
}

func (ctx *Context) CategoryManager() entity.ICategoryManager {
	return ctx.categoryManager
}

func (ctx *Context) QueueManager() entity.IQueueManager {
	return ctx.queueManager
}

func (ctx *Context) NpcManager() entity.INpcManager {
	return ctx.npcManager
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

func (ctx *Context) ParkingManager() entity.IParkingManager {
	return ctx.parkingManager
}

func (ctx *Context) DispatchManager() entity.IDispatchManager {
	return ctx.dispatchManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Init 初始化各管理器
// 功能：按依赖顺序完成场景数据到各管理器的装载
// 算法说明：
// 1. 重置时钟
// 2. 排队管理器装载排队路径
// 3. 停车场管理器装载停车位、角点与道路出口
// 4. 车辆管理器装载生成点与车辆列表（可能触发颜色分配）
// 5. 人员管理器装载生成计划
func (ctx *Context) Init() {
	ctx.clock.Init()

	scenario := ctx.initRes.Scenario

	log.Infof("QueuePath: %v points", len(scenario.QueuePath))
	log.Infof("Slot: %v", len(scenario.Slots))
	log.Infof("Vehicle: %v", len(scenario.Vehicles))

	ctx.queueManager.Init(input.ToPoints(scenario.QueuePath))
	ctx.parkingManager.Init(scenario)
	ctx.vehicleManager.Init(scenario)
	ctx.npcManager.Init()
}
