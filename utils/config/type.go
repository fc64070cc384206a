package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义场景数据输入路径的配置结构，支持多种数据源
// 说明：支持MongoDB数据库和文件系统两种数据源，文件优先级高于MongoDB
type InputPath struct {
	DB   string `yaml:"db"`             // 数据库名
	Col  string `yaml:"col"`            // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
// 功能：返回配置的数据库名称
// 返回：数据库名称字符串
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
// 功能：返回配置的集合名称
// 返回：集合名称字符串
func (p InputPath) GetColl() string {
	return p.Col
}

// Input 指定模拟器所有输入数据的配置项
// 功能：定义仿真系统的所有输入数据配置
// 说明：包含场景（排队路径、停车位、车辆列表等）输入数据的配置
type Input struct {
	URI      string    `yaml:"uri"`      // MongoDB连接字符串
	Scenario InputPath `yaml:"scenario"` // 场景
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：控制仿真的时间范围、步长和精度
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
// 说明：包含时间控制、上车匹配策略、停车位服务策略等核心配置
type Control struct {
	Step ControlStep `yaml:"step"`
	// 上车时是否要求乘客颜色与车辆颜色一致
	EnforceColorMatch bool `yaml:"enforce_color_match,omitempty"`
	// 是否同一时刻只允许一个停车位上客
	SingleService bool `yaml:"single_service,omitempty"`
	// 只加载指定ID的车辆，为空则加载全部
	VehicleIDs []int32 `yaml:"vehicle_ids,omitempty"`
}

// Npc 排队人员配置
// 功能：定义排队人员的移动与生成参数
type Npc struct {
	Speed float64 `yaml:"speed"` // 沿排队路径的移动速度（米/秒）
	Gap   float64 `yaml:"gap"`   // 排队间距（米），按路径总长归一化后使用
	Spawn Spawn   `yaml:"spawn"` // 生成计划
}

// Spawn 排队人员生成计划
type Spawn struct {
	Count    int32   `yaml:"count"`    // 生成总数
	Interval float64 `yaml:"interval"` // 生成间隔（秒）
}

// Vehicle 车辆配置
// 功能：定义车辆的运动参数、容量表与到达判定阈值
type Vehicle struct {
	Speed         float64 `yaml:"speed"`          // 沿路径点移动速度（米/秒）
	RotationSpeed float64 `yaml:"rotation_speed"` // 停车对齐时的转动速度（弧度/秒）
	// 车辆尺寸到座位数的映射，key为small/medium/large，缺省为4/6/8
	Capacity       map[string]int32 `yaml:"capacity,omitempty"`
	ArriveDistance float64          `yaml:"arrive_distance"` // 路径点到达距离阈值（米）
	ArriveAngle    float64          `yaml:"arrive_angle"`    // 停车到位角度阈值（弧度）
}

// Dispatch 上车调度配置
// 功能：定义上车节奏与服务队列推进的各类延时
type Dispatch struct {
	BoardingDelay   float64 `yaml:"boarding_delay"`   // 相邻两名乘客上车之间的延时（秒）
	RetryDelay      float64 `yaml:"retry_delay"`      // 无匹配乘客时推进下一辆车的延时（秒）
	ServiceCooldown float64 `yaml:"service_cooldown"` // 车辆驶离后启动下一辆车服务的冷却（秒）
}

// Color 颜色分配配置
// 功能：定义颜色类别的分配概率与均衡策略
type Color struct {
	// 是否按概率均衡分配，关闭后每次都按概率随机
	EnforceDistribution bool `yaml:"enforce_distribution,omitempty"`
	// 各颜色类别的目标概率，要求和为1.0（偏差过大时自动归一化并告警）
	Probabilities []float64 `yaml:"probabilities"`
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含输入、控制、人员、车辆、调度、颜色等所有配置项
type Config struct {
	Input    Input    `yaml:"input"`    // 输入
	Control  Control  `yaml:"control"`  // 模拟过程控制
	Npc      Npc      `yaml:"npc"`      // 排队人员
	Vehicle  Vehicle  `yaml:"vehicle"`  // 车辆
	Dispatch Dispatch `yaml:"dispatch"` // 上车调度
	Color    Color    `yaml:"color"`    // 颜色分配
}
