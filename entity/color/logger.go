package color

import "github.com/sirupsen/logrus"

// log 颜色分配模块的日志记录器
var log = logrus.WithField("module", "color")
