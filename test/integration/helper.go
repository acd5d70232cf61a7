package integration

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/lixiang/orderdesk/internal/application/auth"
	"github.com/lixiang/orderdesk/internal/application/orderlist"
	"github.com/lixiang/orderdesk/internal/infrastructure/transport"
	"github.com/lixiang/orderdesk/internal/mockapi"
	"github.com/lixiang/orderdesk/pkg/jwt"
)

// 集成测试辅助工具
// 在进程内起一个mock订单服务，把完整的客户端依赖链
// （凭证存储 → 网关 → 用例/控制器）接到它上面，走真实的HTTP往返。

// MemStore 内存凭证存储
type MemStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Client 一套完整的客户端依赖链
type Client struct {
	Creds   *MemStore
	Gateway *transport.Gateway
	Login   *auth.LoginUseCase
	Me      *auth.CurrentUserUseCase
	Logout  *auth.LogoutUseCase
	List    *orderlist.Controller
}

// NewTestServer 起一个填充了演示数据的mock订单服务
func NewTestServer(t *testing.T) (*httptest.Server, *mockapi.Store) {
	t.Helper()

	store := mockapi.NewStore()
	require.NoError(t, mockapi.Seed(store), "填充演示数据失败")

	jwtManager := jwt.NewManager("integration-secret", time.Hour)
	srv := httptest.NewServer(mockapi.NewRouter(store, jwtManager, gin.TestMode))
	t.Cleanup(srv.Close)

	return srv, store
}

// NewTestClient 组装接到srv上的客户端依赖链
func NewTestClient(t *testing.T, srv *httptest.Server, opts ...transport.Option) *Client {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	creds := &MemStore{}
	gateway := transport.NewGateway(srv.URL, 10*time.Second, creds, logger, opts...)

	return &Client{
		Creds:   creds,
		Gateway: gateway,
		Login:   auth.NewLoginUseCase(gateway, creds),
		Me:      auth.NewCurrentUserUseCase(gateway, creds),
		Logout:  auth.NewLogoutUseCase(creds),
		List:    orderlist.NewController(orderlist.NewFetcher(gateway), logger),
	}
}

// LoginAs 登录指定账号（演示数据：admin/admin123、clerk/clerk123）
func (c *Client) LoginAs(t *testing.T, username, password string) *auth.User {
	t.Helper()

	user, err := c.Login.Execute(context.Background(), username, password)
	require.NoError(t, err, "登录失败")
	return user
}
