package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构
// 设计说明：使用Viper管理配置，支持YAML文件、环境变量覆盖
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Credential CredentialConfig `mapstructure:"credential"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	MockAPI    MockAPIConfig    `mapstructure:"mockapi"`
}

// APIConfig 远程订单服务的访问配置
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"` // 如 http://localhost:5000
	Timeout time.Duration `mapstructure:"timeout"`  // 单次请求超时（超时会被重放一次）
}

// CredentialConfig 凭证持久化配置
// store=file：凭证落在本机文件（默认，对应浏览器的localStorage）
// store=redis：多台收银终端共享会话时使用
type CredentialConfig struct {
	Store string `mapstructure:"store"` // file | redis
	Path  string `mapstructure:"path"`  // file存储的路径
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Output string `mapstructure:"output"` // stdout | stderr
}

// MockAPIConfig 本地mock服务配置（开发与集成测试用）
type MockAPIConfig struct {
	Port              int           `mapstructure:"port"`
	Mode              string        `mapstructure:"mode"` // debug | release | test
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AccessTokenExpire time.Duration `mapstructure:"access_token_expire"`
}

// Load 加载配置文件
// 支持：
// 1. 默认加载config/config.yaml
// 2. 环境变量覆盖（如ORDERDESK_API_BASE_URL）
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 合理的默认值，保证没有配置文件也能跑通本地联调
	v.SetDefault("api.base_url", "http://localhost:5000")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("credential.store", "file")
	v.SetDefault("credential.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("mockapi.port", 5000)
	v.SetDefault("mockapi.mode", "debug")
	v.SetDefault("mockapi.jwt_secret", "orderdesk-dev-secret")
	v.SetDefault("mockapi.access_token_expire", "2h")

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时使用默认值，其余读取错误照常返回
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 环境变量绑定（如ORDERDESK_API_BASE_URL → api.base_url）
	v.SetEnvPrefix("ORDERDESK")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url不能为空")
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("无效的请求超时: %v", cfg.API.Timeout)
	}

	switch cfg.Credential.Store {
	case "file", "redis":
	default:
		return fmt.Errorf("无效的凭证存储类型: %s", cfg.Credential.Store)
	}

	return nil
}
