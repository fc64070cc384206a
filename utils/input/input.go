package input

import (
	"context"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v2"
)

var log = logrus.WithField("module", "input")

const mongoConnectTimeout = 30 * time.Second

// Input 输入数据
// 功能：存储仿真所需的所有输入数据
// 说明：目前仅包含场景数据，支持从文件或数据库加载
type Input struct {
	Scenario *Scenario
}

// Init 加载数据
// 功能：根据配置初始化并加载所有输入数据
// 参数：c-配置对象
// 返回：加载完成的输入数据指针
// 算法说明：
// 1. 场景数据加载：
//   - 文件加载：从指定YAML文件加载场景（优先级高于MongoDB）
//   - 数据库加载：从MongoDB集合中加载单个场景文档
//
// 2. 车辆筛选：只加载配置中指定ID的车辆，为空则加载全部
// 3. 数据验证：检查排队路径、角点数量、ID唯一性等
// 说明：这是数据加载的主入口，确保仿真所需的所有数据都正确加载
func Init(c config.Config) (res *Input) {
	res = &Input{}

	if c.Input.Scenario.File != "" {
		res.Scenario = loadFromFile(c.Input.Scenario.File)
	} else if c.Input.URI != "" {
		res.Scenario = loadFromMongo(c.Input.URI, c.Input.Scenario)
	} else {
		log.Panic("input: scenario file or mongodb uri must be specified")
	}

	// 车辆筛选
	if len(c.Control.VehicleIDs) > 0 {
		dataMap := lo.SliceToMap(res.Scenario.Vehicles, func(v Vehicle) (int32, Vehicle) {
			return v.ID, v
		})
		okData, failedIDs := utils.Find(dataMap, res.Scenario.Vehicles, c.Control.VehicleIDs)
		if len(failedIDs) > 0 {
			log.Warnf("input: vehicle ids %v not found in scenario", failedIDs)
		}
		res.Scenario.Vehicles = okData
	}

	validate(res.Scenario)
	return
}

// loadFromFile 从YAML文件加载场景
// 参数：path-文件路径
// 返回：解析后的场景数据，失败则panic
func loadFromFile(path string) *Scenario {
	file, err := os.ReadFile(path)
	if err != nil {
		log.Panicf("input: failed to load scenario from file: %v", err)
	}
	var s Scenario
	if err := yaml.UnmarshalStrict(file, &s); err != nil {
		log.Panicf("input: failed to parse scenario file: %v", err)
	}
	return &s
}

// loadFromMongo 从MongoDB加载场景
// 功能：连接数据库并从指定集合中读取单个场景文档
// 参数：uri-连接字符串，path-数据库与集合配置
// 返回：解码后的场景数据，失败则panic
func loadFromMongo(uri string, path config.InputPath) *Scenario {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Panicf("input: failed to connect to mongodb: %v", err)
	}
	defer client.Disconnect(context.Background())

	log.Infof("start fetching from %s.%s", path.GetDb(), path.GetColl())
	coll := client.Database(path.GetDb()).Collection(path.GetColl())
	var s Scenario
	if err := coll.FindOne(ctx, bson.D{}).Decode(&s); err != nil {
		log.Panicf("input: failed to load scenario from %s.%s: %v", path.GetDb(), path.GetColl(), err)
	}
	log.Infof("finish fetching from %s.%s", path.GetDb(), path.GetColl())
	return &s
}

// validate 校验场景数据
// 功能：检查场景数据的完整性与一致性，不合法时panic
// 算法说明：
// 1. 排队路径至少两个点
// 2. 角点必须恰好四个（前两个为汇聚角点）
// 3. 停车位ID、车辆ID不得重复
func validate(s *Scenario) {
	if len(s.QueuePath) < 2 {
		log.Panicf("input: queue path needs at least 2 points, got %d", len(s.QueuePath))
	}
	if len(s.Corners) != 4 {
		log.Panicf("input: scenario needs exactly 4 corners, got %d", len(s.Corners))
	}
	slotIDs := make(map[int32]struct{})
	for _, slot := range s.Slots {
		if _, ok := slotIDs[slot.ID]; ok {
			log.Panicf("input: slots have duplicated ids %d, please check data", slot.ID)
		}
		slotIDs[slot.ID] = struct{}{}
	}
	vehicleIDs := make(map[int32]struct{})
	for _, v := range s.Vehicles {
		if _, ok := vehicleIDs[v.ID]; ok {
			log.Panicf("input: vehicles have duplicated ids %d, please check data", v.ID)
		}
		vehicleIDs[v.ID] = struct{}{}
	}
	if s.RoadExit == nil {
		log.Warn("input: scenario has no road exit, departure paths may be empty")
	}
}
