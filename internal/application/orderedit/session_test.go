package orderedit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixiang/orderdesk/internal/domain/order"
	"github.com/lixiang/orderdesk/internal/infrastructure/transport"
)

// memStore 内存凭证存储（测试用）
type memStore struct {
	mu    sync.Mutex
	token string
}

func (s *memStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// orderO100 两条明细：单价10×2 + 单价5×1 = 25
const orderO100 = `{
	"order": {
		"OrderID": "O-100",
		"SaleDate": "2024-03-01",
		"OrderDetails": [
			{"ItemID": "1", "ISBN": "978-1", "Price": 10, "Quantity": 2,
			 "Book": {"Title": "Go in Action", "Author": {"FullName": "William Kennedy"}}},
			{"ItemID": "5", "ISBN": "978-5", "Price": 5, "Quantity": 1,
			 "Book": {"Title": "The Go Programming Language", "Author": {"FullName": "Alan Donovan"}}}
		]
	}
}`

// testBackend 记录编辑会话发出的保存请求
type testBackend struct {
	mu         sync.Mutex
	updates    []order.Update
	deletes    []string
	failStatus int    // 非0时PUT/DELETE返回该状态码
	failBody   string // 失败响应体
}

func (b *testBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/orders/O-100", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, orderO100)
		case http.MethodPut:
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.failStatus != 0 {
				w.WriteHeader(b.failStatus)
				io.WriteString(w, b.failBody)
				return
			}
			var update order.Update
			json.NewDecoder(r.Body).Decode(&update)
			b.updates = append(b.updates, update)
			io.WriteString(w, `{"message": "Order updated successfully"}`)
		case http.MethodDelete:
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.failStatus != 0 {
				w.WriteHeader(b.failStatus)
				io.WriteString(w, b.failBody)
				return
			}
			b.deletes = append(b.deletes, "O-100")
			io.WriteString(w, `{"message": "Order deleted successfully"}`)
		}
	})
	return mux
}

func newTestSession(t *testing.T, backend *testBackend, opts ...Option) *Session {
	t.Helper()

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	gateway := transport.NewGateway(srv.URL, 5*time.Second, &memStore{}, quietLogger())
	session := NewSession(gateway, "O-100", opts...)
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("加载订单失败: %v", err)
	}
	return session
}

// TestSession_LoadBuildsWorkingSet 加载后进入Ready，工作副本与明细一致
func TestSession_LoadBuildsWorkingSet(t *testing.T) {
	session := newTestSession(t, &testBackend{})

	if session.Phase() != PhaseReady {
		t.Fatalf("加载后应为Ready，实际: %s", session.Phase())
	}
	if got := session.OrderTotal().String(); got != "25" {
		t.Errorf("初始总价应为25，实际: %s", got)
	}
	if qty, ok := session.Quantity("1"); !ok || qty != 2 {
		t.Errorf("明细1数量应为2，实际: %d (%v)", qty, ok)
	}
}

// TestSession_ChangeQuantityRecomputesTotal 改数量后总价按当前数量重算
func TestSession_ChangeQuantityRecomputesTotal(t *testing.T) {
	session := newTestSession(t, &testBackend{})

	session.ChangeQuantity("1", 3)
	if got := session.OrderTotal().String(); got != "35" {
		t.Errorf("改数量后总价应为35，实际: %s", got)
	}
}

// TestSession_ChangeQuantityIgnoresInvalid 数量<1或明细不存在时静默忽略
func TestSession_ChangeQuantityIgnoresInvalid(t *testing.T) {
	session := newTestSession(t, &testBackend{})

	session.ChangeQuantity("1", 0)
	session.ChangeQuantity("1", -3)
	session.ChangeQuantity("999", 7)

	if qty, _ := session.Quantity("1"); qty != 2 {
		t.Errorf("非法修改后数量应保持2，实际: %d", qty)
	}
	if got := session.OrderTotal().String(); got != "25" {
		t.Errorf("非法修改后总价应保持25，实际: %s", got)
	}
}

// TestSession_RemovalNeedsConfirmation 删除必须两段确认；取消不产生任何修改
func TestSession_RemovalNeedsConfirmation(t *testing.T) {
	session := newTestSession(t, &testBackend{})

	session.RequestRemoval("5")
	if session.PendingRemoval() != "5" {
		t.Fatalf("应进入待确认状态，实际: %q", session.PendingRemoval())
	}

	// 确认前明细仍在
	if _, ok := session.Quantity("5"); !ok {
		t.Error("确认前明细不应被删除")
	}

	session.CancelRemoval()
	if session.PendingRemoval() != "" {
		t.Error("取消后应回到Idle")
	}
	if _, ok := session.Quantity("5"); !ok {
		t.Error("取消后明细应完好")
	}
}

// TestSession_ConfirmMismatchIsNoop 确认的明细号与待确认项不一致时不生效
func TestSession_ConfirmMismatchIsNoop(t *testing.T) {
	session := newTestSession(t, &testBackend{})

	session.RequestRemoval("5")
	session.ConfirmRemoval("1")

	if _, ok := session.Quantity("1"); !ok {
		t.Error("明细1不应被删除")
	}
	if _, ok := session.Quantity("5"); !ok {
		t.Error("明细5不应被删除")
	}
}

// TestSession_ConfirmedRemovalExcludesItem 确认删除后明细离开工作集，总价随之变化
// 快速连点：第二次确认是no-op
func TestSession_ConfirmedRemovalExcludesItem(t *testing.T) {
	session := newTestSession(t, &testBackend{})

	session.ChangeQuantity("1", 3)
	session.RequestRemoval("5")
	session.ConfirmRemoval("5")
	session.ConfirmRemoval("5") // 连点

	if _, ok := session.Quantity("5"); ok {
		t.Error("确认删除后明细5应离开工作集")
	}
	if got := session.OrderTotal().String(); got != "30" {
		t.Errorf("删除后总价应为30，实际: %s", got)
	}
	if len(session.Items()) != 1 {
		t.Errorf("幸存明细应剩1条，实际: %d", len(session.Items()))
	}
}

// TestSession_SaveSendsSurvivors 保存时只带幸存明细，数量为当前值，日期原样回传
func TestSession_SaveSendsSurvivors(t *testing.T) {
	backend := &testBackend{}
	session := newTestSession(t, backend)

	session.ChangeQuantity("1", 3)
	session.RequestRemoval("5")
	session.ConfirmRemoval("5")

	outcome, err := session.Save(context.Background())
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if outcome != SaveUpdated {
		t.Fatalf("应走更新路径，实际: %d", outcome)
	}
	if session.Phase() != PhaseSaved {
		t.Errorf("保存成功后应为Saved，实际: %s", session.Phase())
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.updates) != 1 {
		t.Fatalf("应发出1次更新，实际: %d", len(backend.updates))
	}
	update := backend.updates[0]
	if update.OrderID != "O-100" || update.SaleDate != "2024-03-01" {
		t.Errorf("载荷订单号/日期不符: %+v", update)
	}
	if len(update.Items) != 1 || update.Items[0].ItemID != "1" || update.Items[0].Quantity != 3 {
		t.Errorf("载荷明细不符: %+v", update.Items)
	}
	if len(backend.deletes) != 0 {
		t.Error("更新路径不应发出删除")
	}
}

// TestSession_EmptyWorkingSetDeletesOrder 工作集为空时保存退化为整单删除
func TestSession_EmptyWorkingSetDeletesOrder(t *testing.T) {
	backend := &testBackend{}
	session := newTestSession(t, backend)

	for _, id := range []string{"1", "5"} {
		session.RequestRemoval(id)
		session.ConfirmRemoval(id)
	}

	outcome, err := session.Save(context.Background())
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if outcome != SaveDeleted {
		t.Fatalf("应走整单删除路径，实际: %d", outcome)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.deletes) != 1 || len(backend.updates) != 0 {
		t.Errorf("应只发出1次删除: deletes=%d updates=%d", len(backend.deletes), len(backend.updates))
	}
}

// TestSession_SaveFailureKeepsEdits 保存失败进入Failed，编辑内容完整保留，可重试
func TestSession_SaveFailureKeepsEdits(t *testing.T) {
	backend := &testBackend{
		failStatus: http.StatusForbidden,
		failBody:   `{"message": "Admin privileges required"}`,
	}
	session := newTestSession(t, backend)

	session.ChangeQuantity("1", 4)
	if _, err := session.Save(context.Background()); err == nil {
		t.Fatal("403应返回错误")
	}

	if session.Phase() != PhaseFailed {
		t.Fatalf("保存失败后应为Failed，实际: %s", session.Phase())
	}
	if session.FailureMessage() != "Admin privileges required" {
		t.Errorf("失败提示应采用服务端文案，实际: %q", session.FailureMessage())
	}
	if qty, _ := session.Quantity("1"); qty != 4 {
		t.Errorf("失败后编辑内容应保留，实际数量: %d", qty)
	}

	// Failed状态下可以继续编辑并重试
	backend.mu.Lock()
	backend.failStatus = 0
	backend.mu.Unlock()

	session.ChangeQuantity("1", 5)
	if _, err := session.Save(context.Background()); err != nil {
		t.Fatalf("重试应成功: %v", err)
	}
}

// TestSession_SaveReentrancyRejected 保存在途时再次Save被拒绝
func TestSession_SaveReentrancyRejected(t *testing.T) {
	blocked := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/orders/O-100", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, orderO100)
			return
		}
		close(blocked)
		<-release
		io.WriteString(w, `{"message": "Order updated successfully"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gateway := transport.NewGateway(srv.URL, 5*time.Second, &memStore{}, quietLogger())
	session := NewSession(gateway, "O-100")
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("加载订单失败: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := session.Save(context.Background())
		done <- err
	}()

	<-blocked
	if _, err := session.Save(context.Background()); err != ErrSaveInFlight {
		t.Errorf("保存在途时应返回ErrSaveInFlight，实际: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("第一次保存应成功: %v", err)
	}
}

// TestSession_SavedHookFiresAfterDelay 成功提示展示期满后触发跳转回调
func TestSession_SavedHookFiresAfterDelay(t *testing.T) {
	fired := make(chan struct{})
	session := newTestSession(t, &testBackend{},
		WithSavedDelay(10*time.Millisecond),
		WithSavedHook(func() { close(fired) }),
	)

	if _, err := session.Save(context.Background()); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Error("展示期满后应触发跳转回调")
	}
}
