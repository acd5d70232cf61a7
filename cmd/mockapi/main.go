package main

import (
	"fmt"
	"log"

	"github.com/lixiang/orderdesk/internal/infrastructure/config"
	"github.com/lixiang/orderdesk/internal/mockapi"
	"github.com/lixiang/orderdesk/pkg/jwt"
	"github.com/lixiang/orderdesk/pkg/metrics"
)

// main mock订单服务入口
// 在本机复刻远程订单服务的行为，供终端客户端联调使用
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	fmt.Printf("✓ 配置加载成功\n")
	fmt.Printf("  - 服务端口: %d\n", cfg.MockAPI.Port)
	fmt.Printf("  - 运行模式: %s\n", cfg.MockAPI.Mode)

	// 2. 初始化指标
	metrics.InitMetrics()

	// 3. 初始化存储并填充演示数据
	store := mockapi.NewStore()
	if err := mockapi.Seed(store); err != nil {
		log.Fatalf("填充演示数据失败: %v", err)
	}

	// 4. 组装路由
	jwtManager := jwt.NewManager(cfg.MockAPI.JWTSecret, cfg.MockAPI.AccessTokenExpire)
	r := mockapi.NewRouter(store, jwtManager, cfg.MockAPI.Mode)

	// 5. 启动服务
	addr := fmt.Sprintf(":%d", cfg.MockAPI.Port)
	fmt.Printf("\n🚀 mock订单服务启动成功！\n")
	fmt.Printf("   访问地址: http://localhost%s\n", addr)
	fmt.Printf("   健康检查: http://localhost%s/ping\n", addr)
	fmt.Printf("   登录接口: POST http://localhost%s/api/v1/auth/login\n", addr)
	fmt.Printf("   订单搜索: GET  http://localhost%s/api/v1/orders/search (需要登录)\n", addr)
	fmt.Printf("   演示账号: admin/admin123（管理员）、clerk/clerk123（店员）\n")
	fmt.Printf("\n按Ctrl+C停止服务\n\n")

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
}
