package credential

import "context"

// Store 凭证存储
// 设计说明：
// 1. 登录成功后保存Bearer凭证，进程重启后仍可恢复（对应浏览器的localStorage）
// 2. 登出或收到凭证失效响应时清除
// 3. Load在没有凭证时返回空串，不算错误——未登录是正常状态
type Store interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}
