package parking_test

import (
	"testing"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/entity/parking"
)

// fakeSlot 测试用停车位
type fakeSlot struct {
	position geometry.Point
	heading  float64
	entry    *geometry.Point
	exit     *geometry.Point
}

func (s *fakeSlot) ID() int32                   { return 1 }
func (s *fakeSlot) Index() int32                { return 0 }
func (s *fakeSlot) Occupied() bool              { return false }
func (s *fakeSlot) Vehicle() entity.IVehicle    { return nil }
func (s *fakeSlot) Position() geometry.Point    { return s.position }
func (s *fakeSlot) Heading() float64            { return s.heading }
func (s *fakeSlot) EntryPoint() *geometry.Point { return s.entry }
func (s *fakeSlot) ExitPoint() *geometry.Point  { return s.exit }

// 场景四角点：0、1为汇聚角点，2、3为远端角点
var corners = []geometry.Point{
	{X: 0, Y: 0},
	{X: 20, Y: 0},
	{X: 0, Y: 20},
	{X: 20, Y: 20},
}

func TestApproachPathNearConnector(t *testing.T) {
	entry := geometry.Point{X: 5, Y: 5}
	slot := &fakeSlot{position: geometry.Point{X: 5, Y: 10}, entry: &entry}
	// 最近角点是汇聚角点0，直接经角点、进入点到停车点
	path := parking.ApproachPath(geometry.Point{X: -5, Y: 0}, slot, corners)
	assert.Equal(t, []geometry.Point{
		{X: 0, Y: 0},
		{X: 5, Y: 5},
		{X: 5, Y: 10},
	}, path)
}

func TestApproachPathFarCornerDetours(t *testing.T) {
	slot := &fakeSlot{position: geometry.Point{X: 5, Y: 10}}
	// 最近角点是远端角点2，需经对应汇聚角点0绕行
	path := parking.ApproachPath(geometry.Point{X: -5, Y: 20}, slot, corners)
	assert.Equal(t, []geometry.Point{
		{X: 0, Y: 20},
		{X: 0, Y: 0},
		{X: 5, Y: 10},
	}, path)

	// 远端角点3对应汇聚角点1
	path = parking.ApproachPath(geometry.Point{X: 25, Y: 20}, slot, corners)
	assert.Equal(t, []geometry.Point{
		{X: 20, Y: 20},
		{X: 20, Y: 0},
		{X: 5, Y: 10},
	}, path)
}

func TestDeparturePath(t *testing.T) {
	exit := geometry.Point{X: 5, Y: 15}
	roadExit := geometry.Point{X: 50, Y: 50}
	slot := &fakeSlot{position: geometry.Point{X: 5, Y: 10}, exit: &exit}

	path := parking.DeparturePath(slot, &roadExit)
	assert.Equal(t, []geometry.Point{exit, roadExit}, path)

	// 无驶离路径点时直接驶向道路出口
	path = parking.DeparturePath(&fakeSlot{position: geometry.Point{X: 5, Y: 10}}, &roadExit)
	assert.Equal(t, []geometry.Point{roadExit}, path)

	// 出口信息完全缺失时原地收尾
	path = parking.DeparturePath(&fakeSlot{position: geometry.Point{X: 5, Y: 10}}, nil)
	assert.Equal(t, []geometry.Point{{X: 5, Y: 10}}, path)
}
