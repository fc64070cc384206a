package task

import (
	"flag"
	"sync"
)

const (
	SelfName = "carjam" // 本程序在模拟任务中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：在每个仿真步骤开始时进行准备工作
// 算法说明：
//  1. 更新时钟：增加内部步数并计算当前时间
//  2. 心跳日志：定期输出系统状态信息
//  3. 串行执行人员管理器的节点准备（增量数组生效、销毁清理、
//     链表键值刷新），随后并行刷新人员与车辆的快照
//
// 说明：确保所有实体快照在更新阶段前与上一步的运行时数据一致
func (ctx *Context) prepare() {
	ctx.clock.InternalStep++
	ctx.clock.T = float64(ctx.clock.InternalStep) * ctx.clock.DT

	if ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f)",
			ctx.clock.InternalStep,
			hour, minute, second,
		)
	}

	// Prepare
	ctx.npcManager.PrepareNode()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.npcManager.Prepare() // npc
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.vehicleManager.Prepare() // vehicle
	}()
	wg.Wait()
}

// update 更新阶段，每步执行一次
// 功能：在每个仿真步骤中执行主要的仿真逻辑
// 算法说明：
//  1. 串行触发所有到期的延时续体（上车指派、驶离、服务推进等），
//     续体对快照与共享结构的修改先于并行更新发生
//  2. 并行更新：并发执行人员与车辆管理器的更新操作
//     - 人员管理器：生成计划与排队/上车移动
//     - 车辆管理器：停车请求与路径跟随
//
// 说明：这是仿真的核心阶段，执行所有实体的状态更新
func (ctx *Context) update() {
	ctx.scheduler.Fire(ctx.clock.T)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.npcManager.Update(ctx.clock.DT) // npc
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.vehicleManager.Update(ctx.clock.DT) // vehicle
	}()
	wg.Wait()
}

// Run 运行
func (ctx *Context) Run() {
	// 初始化
	ctx.Init()
	for {
		ctx.prepare()
		ctx.update()
		log.Debugf("step %d: update complete", ctx.clock.InternalStep)
		if ctx.clock.InternalStep+1 >= ctx.clock.END_STEP {
			break
		}
	}
	log.Infof(
		"engine complete: %d npcs boarded, %d vehicles departed",
		ctx.npcManager.NumBoarded(),
		ctx.vehicleManager.NumDeparted(),
	)
}
