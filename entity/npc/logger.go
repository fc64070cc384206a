package npc

import "github.com/sirupsen/logrus"

// log 排队人员模块的日志记录器
var log = logrus.WithField("module", "npc")
