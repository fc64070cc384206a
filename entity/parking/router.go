package parking

import (
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
)

// 驶入驶离路径规划
// 场景的四个角点中，前两个（0、1）是靠近停车区入口的连接角点，
// 后两个（2、3）是远端角点；车辆从远端角点进入时必须经由
// 对应的连接角点（2→0、3→1）绕行，避免穿越停车区

// ApproachPath 规划从当前位置驶入停车位的路径点序列
// 功能：选取距离最近的角点作为入场点，远端角点补入连接角点，
// 再依次经停车位的进入路径点到达停车点
// 参数：pos-车辆当前位置，slot-目标停车位，corners-场景四角点
// 返回：路径点序列，末点为停车点
func ApproachPath(pos geometry.Point, slot entity.IParkingSlot, corners []geometry.Point) []geometry.Point {
	path := make([]geometry.Point, 0, 4)
	if len(corners) == 4 {
		nearest := 0
		best := distance2D(pos, corners[0])
		for i := 1; i < 4; i++ {
			if d := distance2D(pos, corners[i]); d < best {
				best = d
				nearest = i
			}
		}
		path = append(path, corners[nearest])
		switch nearest {
		case 2:
			path = append(path, corners[0])
		case 3:
			path = append(path, corners[1])
		}
	}
	if entry := slot.EntryPoint(); entry != nil {
		path = append(path, *entry)
	}
	path = append(path, slot.Position())
	return path
}

// DeparturePath 规划从停车位驶离到道路出口的路径点序列
// 功能：先经停车位的驶离路径点（如有），再驶向道路出口
// 参数：slot-停车位，roadExit-道路出口，可能为nil
// 返回：路径点序列，出口缺失时以驶离路径点收尾
func DeparturePath(slot entity.IParkingSlot, roadExit *geometry.Point) []geometry.Point {
	path := make([]geometry.Point, 0, 2)
	if exit := slot.ExitPoint(); exit != nil {
		path = append(path, *exit)
	}
	if roadExit != nil {
		path = append(path, *roadExit)
	}
	if len(path) == 0 {
		// 出口信息完全缺失，原地完成驶离
		path = append(path, slot.Position())
	}
	return path
}

// distance2D 计算两点的平面距离
func distance2D(a, b geometry.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
