package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/lixiang/orderdesk/pkg/errors"
)

// Manager JWT管理器
// 设计说明：
// 1. 远程服务只签发单个Access Token（登录响应中的access_token）
// 2. 客户端持有密钥时可以完整校验（mockapi场景）
// 3. 客户端不持有密钥时只做本地过期检查（InspectExpiry），签名校验交给服务端
type Manager struct {
	secret            string        // JWT签名密钥
	accessTokenExpire time.Duration // Access Token有效期
}

// NewManager 创建JWT管理器
func NewManager(secret string, accessTokenExpire time.Duration) *Manager {
	return &Manager{
		secret:            secret,
		accessTokenExpire: accessTokenExpire,
	}
}

// Claims 自定义JWT Claims
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"` // staff | admin
	jwt.RegisteredClaims
}

// GenerateToken 签发Access Token
func (m *Manager) GenerateToken(userID uint, username, role string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "orderdesk",
			Subject:   fmt.Sprintf("%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", apperrors.Wrap(err, "签发Token失败")
	}

	return tokenString, nil
}

// ParseToken 解析并验证Token
// 学习要点：
// 1. 验证签名算法（防止alg=none攻击）
// 2. 验证过期时间（exp）和生效时间（nbf）
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})

	if err != nil {
		return nil, apperrors.ErrAuthExpired
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, apperrors.ErrAuthExpired
}

// InspectExpiry 不验证签名，仅读取Token的过期时间
// 使用场景：客户端在发请求前快速判断凭证是否已过期，
// 避免一次注定失败的网络往返。签名真伪由服务端裁决。
func InspectExpiry(tokenString string) (time.Time, error) {
	parser := jwt.NewParser()

	var claims Claims
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		return time.Time{}, apperrors.WrapCode(apperrors.ErrCodeAuthExpired, err, "凭证格式错误")
	}

	if claims.ExpiresAt == nil {
		// 没有exp字段的Token视为长期有效
		return time.Time{}, nil
	}

	return claims.ExpiresAt.Time, nil
}

// IsExpiredLocally 判断Token在本地时钟下是否已过期
func IsExpiredLocally(tokenString string, now time.Time) bool {
	exp, err := InspectExpiry(tokenString)
	if err != nil {
		return true
	}
	if exp.IsZero() {
		return false
	}
	return now.After(exp)
}
