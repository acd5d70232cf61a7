package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger 创建结构化日志器
// 设计说明：
// 1. JSON格式输出，便于集中采集
// 2. 级别来自配置（debug/info/warn/error），解析失败时回退到info
// 3. 终端客户端把日志写到stderr，避免污染交互输出
func NewLogger(level, output string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	switch output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		logger.SetOutput(os.Stderr)
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}
