package color

import (
	"math"
	"sync"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/randengine"
)

// 概率和允许的偏差，超出则归一化并告警
const probabilitySumTolerance = .01

// CategoryManager 颜色分配管理器
// 功能：为车辆与排队人员分配颜色类别，保证各类别分配数接近配置概率
// 说明：车辆与人员分别计数；计数器可能被并行更新阶段的注销操作访问，
// 因此用互斥锁保护（见仿真并发模型中对共享计数器的约定）
type CategoryManager struct {
	ctx entity.ITaskContext

	enforceDistribution bool      // 是否按概率均衡分配
	probabilities       []float64 // 归一化后的各类别目标概率

	// 分类别计数，[种类][类别]
	counters [entity.NumCategoryKinds][entity.NumCategories]int32
	mtx      sync.Mutex

	generator *randengine.Engine
}

// NewManager 创建颜色分配管理器实例
// 功能：读取配置中的概率表并归一化，初始化计数器与随机数引擎
// 参数：ctx-任务上下文
// 返回：新创建的颜色分配管理器实例
// 算法说明：
// 1. 概率表长度不足类别数时panic
// 2. 概率和与1.0偏差超过0.01时告警并归一化
func NewManager(ctx entity.ITaskContext) *CategoryManager {
	c := ctx.RuntimeConfig().Color
	probs := c.Probabilities
	if len(probs) == 0 {
		// 未配置时按均匀分布处理
		probs = make([]float64, entity.NumCategories)
		for i := range probs {
			probs[i] = 1. / entity.NumCategories
		}
	}
	if len(probs) != entity.NumCategories {
		log.Panicf("color: probabilities length %d does not match category count %d", len(probs), entity.NumCategories)
	}
	sum := .0
	for _, p := range probs {
		sum += p
	}
	if sum <= 0 {
		log.Panicf("color: probabilities sum %f must be positive", sum)
	}
	normalized := make([]float64, len(probs))
	if math.Abs(sum-1) > probabilitySumTolerance {
		log.Warnf("color: probabilities sum to %f, auto-normalizing", sum)
	}
	for i, p := range probs {
		normalized[i] = p / sum
	}
	return &CategoryManager{
		ctx:                 ctx,
		enforceDistribution: c.EnforceDistribution,
		probabilities:       normalized,
		generator:           randengine.New(uint64(entity.NumCategories)),
	}
}

// Assign 分配一个颜色类别
// 功能：为指定种类（车辆/人员）分配颜色类别并递增对应计数
// 参数：kind-计数种类
// 返回：分配的颜色类别
// 算法说明：
//  1. 不启用均衡分配或该种类还没有任何分配时，按概率加权随机
//  2. 否则计算每个类别的观测占比，在占比低于目标概率的类别中
//     选择占比/目标概率最小的一个；并列时取声明顺序靠前者
//  3. 占比全部不低于目标概率时（浮点边界情况），回退为加权随机
func (m *CategoryManager) Assign(kind entity.CategoryKind) entity.Category {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	counts := &m.counters[kind]
	total := int32(0)
	for _, n := range counts {
		total += n
	}
	if !m.enforceDistribution || total == 0 {
		c := entity.Category(m.generator.DiscreteDistribution(m.probabilities))
		counts[c]++
		return c
	}

	best := entity.CategoryUnspecified
	bestScore := mathutil.INF
	for i := 0; i < entity.NumCategories; i++ {
		ratio := float64(counts[i]) / float64(total)
		if ratio < m.probabilities[i] {
			if score := ratio / m.probabilities[i]; score < bestScore {
				bestScore = score
				best = entity.Category(i)
			}
		}
	}
	if best == entity.CategoryUnspecified {
		best = entity.Category(m.generator.DiscreteDistribution(m.probabilities))
	}
	counts[best]++
	return best
}

// Unregister 注销一次分配
// 功能：对应计数减一，下限为零
// 参数：kind-计数种类，c-颜色类别
// 说明：减到零以下时静默no-op，不报错（实体销毁可能与计数重置交错）
func (m *CategoryManager) Unregister(kind entity.CategoryKind, c entity.Category) {
	if c < 0 || c >= entity.NumCategories {
		return
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.counters[kind][c] > 0 {
		m.counters[kind][c]--
	}
}

// Match 判断两个颜色类别是否匹配
// 返回：相等则为true
func (m *CategoryManager) Match(a, b entity.Category) bool {
	return a == b
}

// Count 获取指定种类与类别的当前计数
// 说明：统计与测试用
func (m *CategoryManager) Count(kind entity.CategoryKind, c entity.Category) int32 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.counters[kind][c]
}
