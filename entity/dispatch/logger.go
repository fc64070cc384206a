package dispatch

import "github.com/sirupsen/logrus"

// log 上车调度模块的日志记录器
var log = logrus.WithField("module", "dispatch")
