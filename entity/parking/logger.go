package parking

import "github.com/sirupsen/logrus"

// log 停车场模块的日志记录器
var log = logrus.WithField("module", "parking")
