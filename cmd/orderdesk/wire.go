//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 说明：
// 1. Wire在编译期生成依赖组装代码，零运行时开销
// 2. 运行 `wire gen ./cmd/orderdesk` 生成wire_gen.go
// 3. main.go当前仍使用手动组装，两者的依赖链完全一致

package main

import (
	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	"github.com/lixiang/orderdesk/internal/application/auth"
	"github.com/lixiang/orderdesk/internal/application/orderlist"
	"github.com/lixiang/orderdesk/internal/infrastructure/config"
	"github.com/lixiang/orderdesk/internal/infrastructure/credential"
	"github.com/lixiang/orderdesk/internal/infrastructure/transport"
	"github.com/lixiang/orderdesk/internal/logging"
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	config.Load,             // 加载配置文件
	provideLogger,           // 结构化日志
	newCredentialStore,      // 凭证存储（file|redis）
	provideGateway,          // 出站请求网关
	orderlist.NewFetcher,    // 列表拉取器
	orderlist.NewController, // 列表状态控制器
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	auth.NewLoginUseCase,
	auth.NewCurrentUserUseCase,
	auth.NewLogoutUseCase,
)

// provideLogger 从配置创建日志器
// config.Config包含多个字段，Wire无法自动提取，需要手写Provider
func provideLogger(cfg *config.Config) *logrus.Logger {
	return logging.NewLogger(cfg.Log.Level, cfg.Log.Output)
}

// provideGateway 从配置创建请求网关
func provideGateway(cfg *config.Config, creds credential.Store, logger *logrus.Logger) *transport.Gateway {
	return transport.NewGateway(cfg.API.BaseURL, cfg.API.Timeout, creds, logger)
}

// provideApp 组装交互循环依赖
func provideApp(
	login *auth.LoginUseCase,
	currentUser *auth.CurrentUserUseCase,
	logout *auth.LogoutUseCase,
	list *orderlist.Controller,
	gateway *transport.Gateway,
) *app {
	return &app{
		login:       login,
		currentUser: currentUser,
		logout:      logout,
		list:        list,
		gateway:     gateway,
	}
}

// InitializeApp 初始化整个终端应用
// Wire会分析依赖链并在wire_gen.go中生成组装代码
func InitializeApp() (*app, error) {
	wire.Build(
		infrastructureSet,
		applicationSet,
		provideApp,
	)
	return nil, nil
}
