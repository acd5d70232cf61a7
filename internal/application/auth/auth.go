package auth

import (
	"context"

	"github.com/lixiang/orderdesk/internal/infrastructure/credential"
	"github.com/lixiang/orderdesk/internal/infrastructure/transport"
)

// User 当前登录用户
// 字段名与服务端user.to_dict()保持一致
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"` // user | admin
}

// IsAdmin 是否有管理员权限（更新/删除订单需要）
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// LoginUseCase 登录用例
// 设计说明：
// 1. 调用登录接口换取access_token
// 2. 凭证写入持久存储，进程重启后仍然有效
type LoginUseCase struct {
	gateway *transport.Gateway
	creds   credential.Store
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(gateway *transport.Gateway, creds credential.Store) *LoginUseCase {
	return &LoginUseCase{gateway: gateway, creds: creds}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, username, password string) (*User, error) {
	var resp loginResponse
	err := uc.gateway.Post(ctx, transport.EndpointLogin, "/api/v1/auth/login",
		loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}

	if err := uc.creds.Save(ctx, resp.AccessToken); err != nil {
		return nil, err
	}

	return &resp.User, nil
}

// CurrentUserUseCase 恢复会话用例
// 启动时带着存储的凭证查询当前用户，
// 成功说明凭证仍然有效（对应页面刷新后的自动登录）
type CurrentUserUseCase struct {
	gateway *transport.Gateway
	creds   credential.Store
}

// NewCurrentUserUseCase 创建恢复会话用例
func NewCurrentUserUseCase(gateway *transport.Gateway, creds credential.Store) *CurrentUserUseCase {
	return &CurrentUserUseCase{gateway: gateway, creds: creds}
}

// Execute 查询当前会话用户
// 没有存储凭证时返回(nil, nil)，表示未登录而非错误
func (uc *CurrentUserUseCase) Execute(ctx context.Context) (*User, error) {
	token, err := uc.creds.Load(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	var resp struct {
		User User `json:"user"`
	}
	if err := uc.gateway.Get(ctx, transport.EndpointCurrentUser, "/api/v1/auth/me", nil, &resp); err != nil {
		return nil, err
	}

	return &resp.User, nil
}

// LogoutUseCase 登出用例：清除本地凭证
// 服务端JWT无状态，登出只需丢弃凭证
type LogoutUseCase struct {
	creds credential.Store
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(creds credential.Store) *LogoutUseCase {
	return &LogoutUseCase{creds: creds}
}

// Execute 执行登出
func (uc *LogoutUseCase) Execute(ctx context.Context) error {
	return uc.creds.Clear(ctx)
}
