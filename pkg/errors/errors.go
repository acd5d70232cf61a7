package errors

import (
	"errors"
	"fmt"
	"strings"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于程序判断错误类型（不要直接依赖HTTP状态码）
// 2. Message是展示给店员的提示信息
// 3. Err是内部错误，仅记录到日志，不展示到界面（防止泄露敏感信息）
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装底层错误（如网络错误、序列化错误）
// 用途：将传输层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// WrapCode 用指定错误码包装底层错误
func WrapCode(code int, err error, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 请求被服务端拒绝（认证、权限、参数校验）
// - 5xxxx: 服务端或传输层故障

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal = 50000 // 内部错误
	ErrCodeServer   = 50001 // 服务端错误（任意非2xx且无更具体分类）
	ErrCodeNetwork  = 50002 // 网络错误（请求已发出但没有收到响应）
	ErrCodeTimeout  = 50003 // 请求超时（网关据此决定是否重放）

	// 认证授权错误（40100-40199）
	ErrCodeAuthExpired = 40100 // 凭证失效或过期（HTTP 401）
	ErrCodeForbidden   = 40104 // 无权限（HTTP 403，更新/删除订单需要管理员）

	// 资源错误（40400-40499）
	ErrCodeNotFound      = 40400 // 资源不存在(通用)
	ErrCodeOrderNotFound = 40403 // 订单不存在

	// 参数校验错误（42200-42299）
	ErrCodeValidation  = 42200 // 请求被拒绝（HTTP 422）
	ErrCodeInvalidDate = 42201 // 日期格式错误（由服务端消息内容识别）
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	ErrInternal = New(ErrCodeInternal, "系统内部错误")
	ErrServer   = New(ErrCodeServer, "服务端错误，请稍后重试")
	ErrNetwork  = New(ErrCodeNetwork, "网络错误，请检查连接")
	ErrTimeout  = New(ErrCodeTimeout, "请求超时")

	ErrAuthExpired = New(ErrCodeAuthExpired, "登录已过期，请重新登录")
	ErrForbidden   = New(ErrCodeForbidden, "无权限执行此操作")

	ErrOrderNotFound = New(ErrCodeOrderNotFound, "订单不存在")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// Code 提取业务错误码（非AppError返回ErrCodeInternal）
func Code(err error) int {
	return GetAppError(err).Code
}

// IsAuthExpired 判断是否为凭证失效
func IsAuthExpired(err error) bool {
	return Code(err) == ErrCodeAuthExpired
}

// IsTimeout 判断是否为超时（网关仅对这一类错误重放一次）
func IsTimeout(err error) bool {
	return Code(err) == ErrCodeTimeout
}

// IsValidation 判断是否为参数校验错误
func IsValidation(err error) bool {
	code := Code(err)
	return code == ErrCodeValidation || code == ErrCodeInvalidDate
}

// FromStatus 按HTTP状态码归类服务端拒绝
// 设计说明：
// 1. message优先采用服务端返回的提示，为空时使用默认文案
// 2. 422的"Invalid ... date format"消息单独归类，界面可以提示换个日期
// 3. 非2xx且无更具体分类的一律归为服务端错误
func FromStatus(status int, message string) *AppError {
	switch status {
	case 401:
		return ErrAuthExpired
	case 403:
		if message == "" {
			return ErrForbidden
		}
		return New(ErrCodeForbidden, message)
	case 404:
		if message == "" {
			return New(ErrCodeNotFound, "资源不存在")
		}
		return New(ErrCodeNotFound, message)
	case 422:
		if strings.Contains(message, "Invalid") && strings.Contains(message, "date format") {
			return New(ErrCodeInvalidDate, "日期格式错误，请重新选择日期或清除筛选")
		}
		if message == "" {
			return New(ErrCodeValidation, "请求参数校验失败")
		}
		return New(ErrCodeValidation, message)
	default:
		if message == "" {
			return New(ErrCodeServer, fmt.Sprintf("服务端错误（HTTP %d）", status))
		}
		return New(ErrCodeServer, message)
	}
}
