package credential

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lixiang/orderdesk/internal/infrastructure/config"
	apperrors "github.com/lixiang/orderdesk/pkg/errors"
)

// NewClient 创建Redis客户端
// 设计说明：
// 1. 配置连接池参数（PoolSize、MinIdleConns）
// 2. 配置超时参数（DialTimeout、ReadTimeout、WriteTimeout）
// 3. 测试连接可用性
func NewClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	return client, nil
}

// RedisStore Redis凭证存储
// 使用场景：门店多台收银终端共用一个操作员会话时，
// 凭证放在Redis里，任意终端登录后其它终端立即可用。
// Key设计：credential:{terminal_group}
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore 创建Redis凭证存储
// group区分不同门店/柜组，为空时使用default
func NewRedisStore(client *redis.Client, group string) *RedisStore {
	if group == "" {
		group = "default"
	}
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("credential:%s", group),
	}
}

// Save 保存凭证
// 不设TTL：凭证本身带exp，失效由服务端401触发清除
func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return apperrors.Wrap(err, "保存凭证失败")
	}
	return nil
}

// Load 读取凭证（不存在时返回空串）
func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", apperrors.Wrap(err, "读取凭证失败")
	}
	return token, nil
}

// Clear 清除凭证
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return apperrors.Wrap(err, "清除凭证失败")
	}
	return nil
}
