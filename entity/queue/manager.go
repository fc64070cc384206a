package queue

import (
	"fmt"
	"math"
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
)

// 间隙判定的进度容差，前方人员进度超出其序号预测值这么多时认为出现间隙
const gapTolerance = 1e-3

// QueueManager 排队管理器
// 功能：维护沿排队路径的有序人员队列，负责注册、注销、序号重排与位置求解
// 说明：队列用按进度键值的双向链表维护，头节点为队首（进度目标1.0）；
// 不变式：人员序号恒等于其在链表中的位置，且无重复成员。
// 链表只在串行阶段（人员生成、调度续体）被修改，互斥锁用于防御
// 将来引入并行修改时的竞态（共享队列结构是并发模型中指明的三个临界区之一）
type QueueManager struct {
	ctx entity.ITaskContext

	line        []geometry.Point // 排队路径折线
	lineLengths []float64        // 折线累计长度
	length      float64          // 路径总长（米）
	spacing     float64          // 归一化排队间距

	list entity.QueueList // 排队链表，头为队首
	mtx  sync.Mutex
}

// NewManager 创建排队管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的排队管理器实例
func NewManager(ctx entity.ITaskContext) *QueueManager {
	return &QueueManager{
		ctx:  ctx,
		list: entity.QueueList{ID: "queue line"},
	}
}

// Init 初始化排队路径
// 功能：计算路径折线的累计长度与归一化排队间距
// 参数：line-排队路径折线，至少两个点
func (m *QueueManager) Init(line []geometry.Point) {
	if len(line) < 2 {
		log.Panicf("queue: path needs at least 2 points, got %d", len(line))
	}
	m.line = line
	m.lineLengths = geometry.GetPolylineLengths2D(line)
	m.length = m.lineLengths[len(m.lineLengths)-1]
	if m.length <= 0 {
		log.Panicf("queue: path length must be positive, got %f", m.length)
	}
	m.spacing = m.ctx.RuntimeConfig().Npc.Gap / m.length
}

// Register 注册排队人员
// 功能：将人员追加到队尾并分配序号
// 参数：npc-排队人员
// 说明：重复注册静默拒绝；新人序号 = 注册后队列长度-1
func (m *QueueManager) Register(npc entity.INpc) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	node := npc.Node()
	if m.list.Contains(node) {
		log.Debugf("queue: npc %d already registered", npc.ID())
		return
	}
	node.S = npc.Progress()
	m.list.PushBack(node)
	npc.SetOrdinal(int32(m.list.Len() - 1))
}

// Unregister 注销排队人员
// 功能：按身份移除人员，并将其后所有人员的序号前移一位
// 参数：npc-排队人员
// 说明：不在队列中时静默no-op；O(n)重排在目标队列长度（≤20）下可接受
func (m *QueueManager) Unregister(npc entity.INpc) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	node := npc.Node()
	if !m.list.Contains(node) {
		log.Debugf("queue: npc %d not in queue", npc.ID())
		return
	}
	walk := node.Next()
	m.list.Remove(node)
	for ; walk != nil; walk = walk.Next() {
		walk.Value.SetOrdinal(walk.Value.Ordinal() - 1)
	}
	npc.SetOrdinal(-1)
}

// Get 根据队列序号获取人员
// 参数：ordinal-队列序号，0为队首
// 返回：对应的人员实例，越界则panic
func (m *QueueManager) Get(ordinal int32) entity.INpc {
	if npc, err := m.GetOrError(ordinal); err != nil {
		log.Panicf("queue: %v", err)
		return nil
	} else {
		return npc
	}
}

// GetOrError 根据队列序号获取人员（带错误处理）
// 参数：ordinal-队列序号
// 返回：人员实例和错误信息，越界时返回nil和错误
func (m *QueueManager) GetOrError(ordinal int32) (entity.INpc, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	node := m.list.At(int(ordinal))
	if node == nil {
		return nil, fmt.Errorf("no ordinal %d in queue of length %d", ordinal, m.list.Len())
	}
	return node.Value, nil
}

// OrdinalOf 查询人员在队列中的序号
// 返回：队列序号，不在队列中返回-1
func (m *QueueManager) OrdinalOf(npc entity.INpc) int32 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if !m.list.Contains(npc.Node()) {
		return -1
	}
	return npc.Ordinal()
}

// Count 获取队列长度
// 返回：当前排队人数
func (m *QueueManager) Count() int32 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return int32(m.list.Len())
}

// Front 获取队首人员
// 返回：队首人员，空队列返回nil
func (m *QueueManager) Front() entity.INpc {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if node := m.list.First(); node != nil {
		return node.Value
	}
	return nil
}

// FirstMatch 查找第一个颜色匹配的人员
// 功能：从队首向队尾线性扫描，返回第一个颜色类别为c的人员
// 参数：c-颜色类别
// 返回：匹配的人员，无匹配返回nil
func (m *QueueManager) FirstMatch(c entity.Category) entity.INpc {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for node := m.list.First(); node != nil; node = node.Next() {
		if m.ctx.CategoryManager().Match(node.Value.Category(), c) {
			return node.Value
		}
	}
	return nil
}

// SolveTarget 计算人员本步的目标进度与到位判定
// 功能：排队位置求解，消除人员离队后的队列间隙
// 参数：npc-排队人员，dt-时间步长
// 返回：目标进度与是否到位
// 算法说明：
//  1. 队首目标进度恒为1.0（路径终点）
//  2. 其余人员目标 = max(0, 前方人员进度 - 间距)
//  3. 间隙检测：前方人员进度超过其序号的预测值
//     （1 - 序号*间距，说明其已提前离队去上车）时，
//     按本人序号的预测值重新取目标，避免跟随冻结
//  4. 到位判定：|当前 - 目标| 小于单步移动量；
//     若前方人员已到位且两人间距足够接近，传播到位标记以避免振荡
//
// 说明：读取的均为上一步准备阶段的快照，可在并行更新中安全调用
func (m *QueueManager) SolveTarget(npc entity.INpc, dt float64) (target float64, arrived bool) {
	step := m.ctx.RuntimeConfig().Npc.Speed * dt / m.length
	cur := npc.Progress()
	node := npc.Node()
	prev := node.Prev()
	if prev == nil {
		target = 1
		arrived = math.Abs(cur-target) < step
		return
	}
	ahead := prev.Value
	aheadProgress := ahead.Progress()
	target = math.Max(0, aheadProgress-m.spacing)
	// 间隙检测
	predicted := 1 - float64(ahead.Ordinal())*m.spacing
	if aheadProgress > predicted+gapTolerance {
		target = math.Max(0, 1-float64(npc.Ordinal())*m.spacing)
	}
	arrived = math.Abs(cur-target) < step
	if !arrived && ahead.ReachedTarget() &&
		math.Abs(aheadProgress-cur-m.spacing) < 2*step {
		// 前方已到位且间距接近目标间距，传播到位标记
		arrived = true
	}
	return
}

// PathLength 获取排队路径总长
// 返回：路径总长（米）
func (m *QueueManager) PathLength() float64 {
	return m.length
}

// GetPositionByProgress 将归一化进度转换为坐标
// 功能：在排队路径折线上按进度插值
// 参数：p-归一化进度[0,1]
// 返回：对应的坐标点
// 算法说明：
// 1. 进度转换为沿路径的距离s
// 2. 在累计长度表中定位所在线段
// 3. 在线段内线性插值
func (m *QueueManager) GetPositionByProgress(p float64) geometry.Point {
	s := lo.Clamp(p, 0, 1) * m.length
	for i := 1; i < len(m.lineLengths); i++ {
		if s <= m.lineLengths[i] {
			sLow, sHigh := m.lineLengths[i-1], m.lineLengths[i]
			k := .0
			if sHigh > sLow {
				k = (s - sLow) / (sHigh - sLow)
			}
			return geometry.Blend(m.line[i-1], m.line[i], k)
		}
	}
	return m.line[len(m.line)-1]
}
