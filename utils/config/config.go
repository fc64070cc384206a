package config

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "config")

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，包含补全默认值后的各配置段
// 说明：将YAML配置转换为运行时可用的配置对象，进行默认值填充与合法性检查
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置

	Npc      Npc      // 排队人员配置
	Vehicle  Vehicle  // 车辆配置
	Dispatch Dispatch // 上车调度配置
	Color    Color    // 颜色分配配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，进行配置验证和默认值填充
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 算法说明：
// 1. 创建运行时配置对象并复制各配置段
// 2. 对未指定的速度、间距、延时等字段填充默认值
// 3. 对非法配置（步长<=0）直接panic终止
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	rc.All = config
	rc.C = config.Control
	rc.Npc = config.Npc
	rc.Vehicle = config.Vehicle
	rc.Dispatch = config.Dispatch
	rc.Color = config.Color

	if rc.C.Step.Interval <= 0 {
		log.Panicf("control.step.interval must be positive, got %v", rc.C.Step.Interval)
	}
	if rc.Npc.Speed <= 0 {
		rc.Npc.Speed = 1.2
	}
	if rc.Npc.Gap <= 0 {
		rc.Npc.Gap = .6
	}
	if rc.Npc.Spawn.Interval <= 0 {
		rc.Npc.Spawn.Interval = 2
	}
	if rc.Vehicle.Speed <= 0 {
		rc.Vehicle.Speed = 8
	}
	if rc.Vehicle.RotationSpeed <= 0 {
		rc.Vehicle.RotationSpeed = 1.5
	}
	if rc.Vehicle.ArriveDistance <= 0 {
		rc.Vehicle.ArriveDistance = .5
	}
	if rc.Vehicle.ArriveAngle <= 0 {
		rc.Vehicle.ArriveAngle = .1
	}
	if rc.Dispatch.BoardingDelay <= 0 {
		rc.Dispatch.BoardingDelay = .4
	}
	if rc.Dispatch.RetryDelay <= 0 {
		rc.Dispatch.RetryDelay = 1
	}
	if rc.Dispatch.ServiceCooldown <= 0 {
		rc.Dispatch.ServiceCooldown = 1.5
	}

	return rc
}
