package npc

import (
	"fmt"
	"sync"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/container"
)

// globalRuntime 管理器级统计数据
type globalRuntime struct {
	NumBoarded int32 // 已完成上车的人员总数
}

// NpcManager 排队人员管理器
// 功能：管理所有排队人员，负责按生成计划产生人员、推进模拟与销毁回收
type NpcManager struct {
	ctx entity.ITaskContext

	data map[int32]*Npc                    // ID到人员的映射
	npcs *container.IncrementalArray[*Npc] // 人员增量数组

	nextID int32 // 下一个自动分配的人员ID

	// 生成计划
	spawnRemaining int32   // 剩余待生成人数
	spawnCountdown float64 // 距下次生成的剩余时间

	// 销毁缓冲，更新阶段写入，准备阶段统一从data中清除
	removed    []*Npc
	removedMtx sync.Mutex

	runtime  globalRuntime
	snapshot globalRuntime
	mtx      sync.Mutex
}

// NewManager 创建排队人员管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的排队人员管理器实例
func NewManager(ctx entity.ITaskContext) *NpcManager {
	return &NpcManager{
		ctx:    ctx,
		data:   make(map[int32]*Npc),
		npcs:   container.NewIncrementalArray[*Npc](),
		nextID: 1,
	}
}

// Init 初始化生成计划
// 功能：读取配置中的生成总数与间隔，首个人员在模拟开始后立即生成
func (m *NpcManager) Init() {
	c := m.ctx.RuntimeConfig().Npc.Spawn
	m.spawnRemaining = c.Count
	m.spawnCountdown = 0
	log.Infof("npc: spawn plan: %d npcs, interval %.2fs", c.Count, c.Interval)
}

// Get 根据ID获取人员
// 参数：id-人员ID
// 返回：对应的人员实例，不存在则panic
func (m *NpcManager) Get(id int32) entity.INpc {
	if p, err := m.GetOrError(id); err != nil {
		log.Panicf("npc: %v", err)
		return nil
	} else {
		return p
	}
}

// GetOrError 根据ID获取人员（带错误处理）
// 参数：id-人员ID
// 返回：人员实例和错误信息，不存在时返回nil和错误
func (m *NpcManager) GetOrError(id int32) (entity.INpc, error) {
	p, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("no npc with id %d", id)
	}
	return p, nil
}

// Remove 销毁人员
// 功能：标记人员死亡并从增量数组与颜色计数中移除
// 说明：可在并行更新阶段由人员自身调用；data的清理推迟到准备阶段
func (m *NpcManager) Remove(p entity.INpc) {
	npc, ok := p.(*Npc)
	if !ok {
		log.Panicf("npc: remove called with foreign entity %v", p)
		return
	}
	npc.alive = false
	m.npcs.Remove(npc)
	m.ctx.CategoryManager().Unregister(entity.KindNpc, npc.category)
	m.removedMtx.Lock()
	m.removed = append(m.removed, npc)
	m.removedMtx.Unlock()
}

// recordBoarded 记录一次完成上车
func (m *NpcManager) recordBoarded() {
	m.mtx.Lock()
	m.runtime.NumBoarded++
	m.mtx.Unlock()
}

// PrepareNode 准备阶段第一部分
// 功能：应用增量数组的添加删除、清理已销毁人员、刷新链表节点键值
func (m *NpcManager) PrepareNode() {
	m.removedMtx.Lock()
	for _, p := range m.removed {
		delete(m.data, p.id)
	}
	m.removed = m.removed[:0]
	m.removedMtx.Unlock()
	m.npcs.Prepare()
	parallel.GoFor(m.npcs.Data(), func(p *Npc) { p.prepareNode() })
}

// Prepare 准备阶段第二部分：更新所有人员快照
func (m *NpcManager) Prepare() {
	parallel.GoFor(m.npcs.Data(), func(p *Npc) { p.prepare() })
	m.mtx.Lock()
	m.snapshot = m.runtime
	m.mtx.Unlock()
}

// Update 更新阶段，执行所有人员的模拟逻辑
// 功能：先串行执行生成计划，再并行推进所有人员
// 参数：dt-时间步长
// 说明：生成在并行段之前完成，保证队列链表修改不与并行读取交错；
// 新生成的人员从下一步的准备阶段起进入并行更新
func (m *NpcManager) Update(dt float64) {
	if m.spawnRemaining > 0 {
		m.spawnCountdown -= dt
		for m.spawnCountdown <= 0 && m.spawnRemaining > 0 {
			m.spawn()
			m.spawnRemaining--
			m.spawnCountdown += m.ctx.RuntimeConfig().Npc.Spawn.Interval
		}
	}
	parallel.GoFor(m.npcs.Data(), func(p *Npc) { p.update(dt) })
}

// spawn 生成一个新的排队人员
func (m *NpcManager) spawn() {
	p := newNpc(m.ctx, m, m.nextID)
	m.nextID++
	m.data[p.id] = p
	m.npcs.Add(p)
	log.Debugf("npc: spawned %v", p)
}

// NumBoarded 获取已完成上车的人员总数
func (m *NpcManager) NumBoarded() int32 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.snapshot.NumBoarded
}

// Count 获取当前存活人员数
func (m *NpcManager) Count() int {
	return len(m.data)
}
