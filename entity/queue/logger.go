package queue

import "github.com/sirupsen/logrus"

// log 排队模块的日志记录器
var log = logrus.WithField("module", "queue")
