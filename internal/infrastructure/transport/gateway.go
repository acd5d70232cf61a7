package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lixiang/orderdesk/internal/infrastructure/credential"
	apperrors "github.com/lixiang/orderdesk/pkg/errors"
	"github.com/lixiang/orderdesk/pkg/jwt"
	"github.com/lixiang/orderdesk/pkg/metrics"
)

// Gateway 出站请求网关
// 设计说明：
// 1. 每次请求自动附加存储的Bearer凭证和X-Request-ID
// 2. 失败归类为凭证失效/参数校验/网络/服务端四类（pkg/errors）
// 3. 仅对超时重放一次：重放显式复用捕获的原始请求参数，
//    保证重放的就是失败的那一个请求
// 4. 凭证失效时清除存储并触发回调，同一凭证只触发一次
//    （并发在途请求拿同一过期凭证返回401时不会重复触发）
type Gateway struct {
	baseURL string
	client  *http.Client
	creds   credential.Store
	logger  *logrus.Logger

	onAuthExpired func() // 失效回调（界面据此跳转登录页）

	mu               sync.Mutex
	lastExpiredToken string // 已触发过回调的凭证
}

// Option Gateway可选配置
type Option func(*Gateway)

// WithAuthExpiredHook 设置凭证失效回调
func WithAuthExpiredHook(fn func()) Option {
	return func(g *Gateway) { g.onAuthExpired = fn }
}

// WithHTTPClient 替换底层HTTP客户端（测试注入用）
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.client = client }
}

// NewGateway 创建请求网关
func NewGateway(baseURL string, timeout time.Duration, creds credential.Store, logger *logrus.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		creds:   creds,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// request 一次逻辑请求的全部参数
// 超时重放时整个结构体原样复用，不依赖任何外部可变状态
type request struct {
	method    string
	endpoint  string // 指标用的端点名（orders_search/order_detail/...）
	path      string
	query     url.Values
	body      []byte // 已序列化的请求体（重放时直接复用）
	requestID string
	token     string
}

// Get 发起GET请求并把2xx响应体解码到out
func (g *Gateway) Get(ctx context.Context, endpoint, path string, query url.Values, out interface{}) error {
	return g.do(ctx, http.MethodGet, endpoint, path, query, nil, out)
}

// Post 发起POST请求
func (g *Gateway) Post(ctx context.Context, endpoint, path string, body, out interface{}) error {
	return g.do(ctx, http.MethodPost, endpoint, path, nil, body, out)
}

// Put 发起PUT请求
func (g *Gateway) Put(ctx context.Context, endpoint, path string, body, out interface{}) error {
	return g.do(ctx, http.MethodPut, endpoint, path, nil, body, out)
}

// Delete 发起DELETE请求
func (g *Gateway) Delete(ctx context.Context, endpoint, path string) error {
	return g.do(ctx, http.MethodDelete, endpoint, path, nil, nil, nil)
}

func (g *Gateway) do(ctx context.Context, method, endpoint, path string, query url.Values, body, out interface{}) error {
	token, err := g.creds.Load(ctx)
	if err != nil {
		return err
	}

	// 凭证已过期时直接走失效流程，省掉一次注定401的往返
	if token != "" && jwt.IsExpiredLocally(token, time.Now()) {
		g.handleAuthExpired(ctx, token)
		return apperrors.ErrAuthExpired
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, "序列化请求体失败")
		}
	}

	req := request{
		method:    method,
		endpoint:  endpoint,
		path:      path,
		query:     query,
		body:      payload,
		requestID: uuid.NewString(),
		token:     token,
	}

	start := time.Now()
	status, respBody, err := g.send(ctx, req)
	if err != nil && apperrors.IsTimeout(err) {
		// 超时重放一次：复用req，重放的就是刚才失败的请求
		metrics.IncTimeoutRetry()
		g.logger.WithFields(logrus.Fields{
			"request_id": req.requestID,
			"method":     method,
			"path":       path,
		}).Warn("请求超时，重放一次")
		status, respBody, err = g.send(ctx, req)
	}

	if err == nil && status == http.StatusUnauthorized {
		metrics.IncAuthExpired()
		g.handleAuthExpired(ctx, token)
		err = apperrors.ErrAuthExpired
	} else if err == nil && (status < 200 || status > 299) {
		err = apperrors.FromStatus(status, extractMessage(respBody))
		g.logger.WithFields(logrus.Fields{
			"request_id": req.requestID,
			"method":     method,
			"path":       path,
			"status":     status,
		}).Warn("请求被服务端拒绝")
	}

	metrics.ObserveRequest(method, endpoint, classify(err), time.Since(start).Seconds())

	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apperrors.Wrap(err, "解析响应失败")
		}
	}

	return nil
}

// send 发送一次请求（不含重放逻辑）
func (g *Gateway) send(ctx context.Context, req request) (int, []byte, error) {
	u := g.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var reader io.Reader
	if req.body != nil {
		reader = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, reader)
	if err != nil {
		return 0, nil, apperrors.Wrap(err, "构造请求失败")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", req.requestID)
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, apperrors.WrapCode(apperrors.ErrCodeTimeout, err, "请求超时")
		}
		// 请求已发出但没有收到响应：连接失败、DNS失败等
		return 0, nil, apperrors.WrapCode(apperrors.ErrCodeNetwork, err, "网络错误，请检查连接")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apperrors.WrapCode(apperrors.ErrCodeNetwork, err, "读取响应失败")
	}

	return resp.StatusCode, respBody, nil
}

// handleAuthExpired 清除凭证并触发一次回调
// 同一凭证只触发一次：并发在途请求带着同一过期凭证返回401时，
// 第二个401不会再次清除/回调
func (g *Gateway) handleAuthExpired(ctx context.Context, token string) {
	g.mu.Lock()
	if token == "" || g.lastExpiredToken == token {
		g.mu.Unlock()
		return
	}
	g.lastExpiredToken = token
	g.mu.Unlock()

	if err := g.creds.Clear(ctx); err != nil {
		g.logger.WithError(err).Warn("清除失效凭证失败")
	}

	g.logger.Info("登录凭证已失效")

	if g.onAuthExpired != nil {
		g.onAuthExpired()
	}
}

// isTimeout 判断传输层错误是否为超时
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// classify 把错误映射为指标的outcome标签
func classify(err error) string {
	if err == nil {
		return "success"
	}
	switch apperrors.Code(err) {
	case apperrors.ErrCodeAuthExpired:
		return "auth_expired"
	case apperrors.ErrCodeValidation, apperrors.ErrCodeInvalidDate:
		return "validation"
	case apperrors.ErrCodeNetwork:
		return "network"
	case apperrors.ErrCodeTimeout:
		return "timeout"
	default:
		return "server"
	}
}

// extractMessage 提取服务端{"message": "..."}错误信息
func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}

// Endpoint名称常量（指标标签用）
const (
	EndpointLogin        = "auth_login"
	EndpointCurrentUser  = "auth_me"
	EndpointOrdersSearch = "orders_search"
	EndpointOrderDetail  = "order_detail"
	EndpointOrderUpdate  = "order_update"
	EndpointOrderDelete  = "order_delete"
)
