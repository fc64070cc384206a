package input_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/config"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/input"
)

const scenarioYaml = `
queue_path:
  - {x: 0, y: 0}
  - {x: 10, y: 0}
road_exit: {x: 50, y: 50}
vehicle_spawn: {x: -10, y: 0}
corners:
  - {x: 0, y: 10}
  - {x: 20, y: 10}
  - {x: 0, y: 30}
  - {x: 20, y: 30}
slots:
  - id: 1
    position: {x: 5, y: 20}
    heading: 1.57
    entry: {x: 5, y: 15}
    exit: {x: 5, y: 25}
  - id: 2
    position: {x: 10, y: 20}
    heading: 1.57
vehicles:
  - id: 1
    size: small
    category: red
  - id: 2
    size: medium
  - id: 3
    size: large
    category: blue
`

func writeScenario(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yml")
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestInputFromFile(t *testing.T) {
	path := writeScenario(t, scenarioYaml)
	res := input.Init(config.Config{
		Input: config.Input{Scenario: config.InputPath{File: path}},
	})
	s := res.Scenario
	assert.Len(t, s.QueuePath, 2)
	assert.NotNil(t, s.RoadExit)
	assert.Len(t, s.Corners, 4)
	assert.Len(t, s.Slots, 2)
	assert.Len(t, s.Vehicles, 3)
	assert.Equal(t, "red", s.Vehicles[0].Category)
	assert.Equal(t, "", s.Vehicles[1].Category)
	assert.Nil(t, s.Slots[1].Entry)
	assert.NotNil(t, s.Slots[0].Exit)
}

func TestInputVehicleFilter(t *testing.T) {
	path := writeScenario(t, scenarioYaml)
	res := input.Init(config.Config{
		Input:   config.Input{Scenario: config.InputPath{File: path}},
		Control: config.Control{VehicleIDs: []int32{3, 1, 99}},
	})
	s := res.Scenario
	assert.Len(t, s.Vehicles, 2)
	assert.Equal(t, int32(3), s.Vehicles[0].ID)
	assert.Equal(t, int32(1), s.Vehicles[1].ID)
}

func TestInputValidate(t *testing.T) {
	// 排队路径点不足
	badPath := writeScenario(t, `
queue_path:
  - {x: 0, y: 0}
vehicle_spawn: {x: 0, y: 0}
corners:
  - {x: 0, y: 10}
  - {x: 20, y: 10}
  - {x: 0, y: 30}
  - {x: 20, y: 30}
slots: []
vehicles: []
`)
	assert.Panics(t, func() {
		input.Init(config.Config{Input: config.Input{Scenario: config.InputPath{File: badPath}}})
	})

	// 角点数量错误
	badCorners := writeScenario(t, `
queue_path:
  - {x: 0, y: 0}
  - {x: 10, y: 0}
vehicle_spawn: {x: 0, y: 0}
corners:
  - {x: 0, y: 10}
  - {x: 20, y: 10}
slots: []
vehicles: []
`)
	assert.Panics(t, func() {
		input.Init(config.Config{Input: config.Input{Scenario: config.InputPath{File: badCorners}}})
	})

	// 停车位ID重复
	dupSlots := writeScenario(t, `
queue_path:
  - {x: 0, y: 0}
  - {x: 10, y: 0}
vehicle_spawn: {x: 0, y: 0}
corners:
  - {x: 0, y: 10}
  - {x: 20, y: 10}
  - {x: 0, y: 30}
  - {x: 20, y: 30}
slots:
  - id: 1
    position: {x: 5, y: 20}
    heading: 0
  - id: 1
    position: {x: 10, y: 20}
    heading: 0
vehicles: []
`)
	assert.Panics(t, func() {
		input.Init(config.Config{Input: config.Input{Scenario: config.InputPath{File: dupSlots}}})
	})
}

func TestToPoints(t *testing.T) {
	ps := input.ToPoints([]input.Point{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5}})
	assert.Len(t, ps, 2)
	assert.Equal(t, 1.0, ps[0].X)
	assert.Equal(t, 3.0, ps[0].Z)
	assert.Equal(t, 5.0, ps[1].Y)
}
