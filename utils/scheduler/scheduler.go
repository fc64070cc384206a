// 延时续体调度器，在仿真时钟上实现定时一次性回调
package scheduler

import (
	"sync"

	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/container"
)

// Scheduler 延时续体调度器
// 功能：按仿真时间调度一次性回调，用于上车节奏、服务队列推进等延时逻辑
// 说明：续体统一在每步更新阶段开始时由主循环串行触发，不引入额外线程；
// 注册操作可能来自并行更新中的任意协程，因此内部用互斥锁保护定时器队列。
// 续体不支持显式取消，依赖回调内部的存活性检查退化为no-op
type Scheduler struct {
	queue *container.PriorityQueue[func()] // 定时器队列，优先级为触发时刻
	mtx   sync.Mutex
}

// New 创建调度器
// 返回：初始化完成的调度器实例
func New() *Scheduler {
	return &Scheduler{
		queue: container.NewPriorityQueue[func()](),
	}
}

// At 注册在指定仿真时刻触发的续体
// 参数：t-触发时刻（仿真秒），fn-回调函数
func (s *Scheduler) At(t float64, fn func()) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.queue.HeapPush(fn, t)
}

// Len 获取未触发的续体数量
// 返回：队列长度
func (s *Scheduler) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.queue.Len()
}

// Fire 触发所有到期的续体
// 功能：弹出并执行所有触发时刻不晚于当前时间的续体
// 参数：now-当前仿真时间（秒）
// 说明：回调在调用方（主循环）所在协程串行执行；
// 回调内部注册的新续体如果也已到期，会在本次Fire中一并执行
func (s *Scheduler) Fire(now float64) {
	for {
		s.mtx.Lock()
		if s.queue.Len() == 0 || s.queue.FirstPriority() > now {
			s.mtx.Unlock()
			return
		}
		fn, _ := s.queue.HeapPop()
		s.mtx.Unlock()
		fn()
	}
}
