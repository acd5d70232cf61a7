package orderedit

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lixiang/orderdesk/internal/domain/order"
	"github.com/lixiang/orderdesk/internal/infrastructure/transport"
	apperrors "github.com/lixiang/orderdesk/pkg/errors"
)

// Phase 编辑会话的主状态机
// Loading → Ready → Saving → {Saved | Failed}；Failed可回到Ready重试
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseSaving
	PhaseSaved
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "Loading"
	case PhaseReady:
		return "Ready"
	case PhaseSaving:
		return "Saving"
	case PhaseSaved:
		return "Saved"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// SaveOutcome 保存采取的策略
type SaveOutcome int

const (
	SaveNone    SaveOutcome = iota
	SaveUpdated             // 发出了更新请求
	SaveDeleted             // 工作集为空，退化为整单删除
)

// SavedDisplayDelay 保存成功提示的展示时长，之后才离开页面
const SavedDisplayDelay = 1500 * time.Millisecond

// ErrSaveInFlight 已有保存在途时再次调用Save
var ErrSaveInFlight = apperrors.New(apperrors.ErrCodeInternal, "正在保存，请勿重复提交")

// ErrNotReady 会话不在可编辑状态
var ErrNotReady = apperrors.New(apperrors.ErrCodeInternal, "订单尚未加载完成")

// Session 订单编辑会话
// 设计说明：
// 1. baseline是加载到的原始明细（价格在会话内不可变）
// 2. working是幸存明细的itemID→数量映射，数量恒≥1；
//    working为空时唯一合法的保存动作是整单删除
// 3. 删除明细必须经过两段确认（RequestRemoval→ConfirmRemoval），
//    这是交互安全契约，快速连点也不会误删
// 4. 保存失败不丢弃编辑内容，店员可以重试或放弃
type Session struct {
	mu sync.Mutex

	gateway *transport.Gateway

	orderID  string
	saleDate string
	baseline []order.LineItem

	working map[string]int // itemID → 数量（只含幸存明细）
	pending string         // 等待确认删除的itemID，空串=Idle

	phase   Phase
	failMsg string

	savedDelay time.Duration
	onSaved    func() // 保存成功展示期满后的跳转回调
}

// Option Session可选配置
type Option func(*Session)

// WithSavedHook 设置保存成功后的跳转回调
func WithSavedHook(fn func()) Option {
	return func(s *Session) { s.onSaved = fn }
}

// WithSavedDelay 覆盖成功提示展示时长（测试用）
func WithSavedDelay(d time.Duration) Option {
	return func(s *Session) { s.savedDelay = d }
}

// NewSession 创建编辑会话（处于Loading状态，需调用Load）
func NewSession(gateway *transport.Gateway, orderID string, opts ...Option) *Session {
	s := &Session{
		gateway:    gateway,
		orderID:    orderID,
		phase:      PhaseLoading,
		savedDelay: SavedDisplayDelay,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load 加载订单并建立工作副本
func (s *Session) Load(ctx context.Context) error {
	var resp struct {
		Order order.Order `json:"order"`
	}
	if err := s.gateway.Get(ctx, transport.EndpointOrderDetail, "/api/v1/orders/"+s.orderID, nil, &resp); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.saleDate = resp.Order.SaleDate
	s.baseline = resp.Order.OrderDetails
	s.working = make(map[string]int, len(s.baseline))
	for _, li := range s.baseline {
		s.working[li.ItemID] = li.Qty()
	}
	s.phase = PhaseReady

	return nil
}

// Phase 当前状态
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// FailureMessage 上次保存失败的提示（Failed状态下有效）
func (s *Session) FailureMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failMsg
}

// OrderID 会话对应的订单号
func (s *Session) OrderID() string {
	return s.orderID
}

// Items 幸存明细（按baseline顺序，数量取working当前值）
func (s *Session) Items() []order.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]order.LineItem, 0, len(s.working))
	for _, li := range s.baseline {
		qty, ok := s.working[li.ItemID]
		if !ok {
			continue
		}
		li.Quantity = qty
		items = append(items, li)
	}
	return items
}

// Quantity 某明细的当前数量（不在工作集时返回0,false）
func (s *Session) Quantity(itemID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qty, ok := s.working[itemID]
	return qty, ok
}

// ChangeQuantity 修改明细数量
// 数量<1时静默忽略（不是错误）；不在工作集的明细同样忽略
func (s *Session) ChangeQuantity(itemID string, newQuantity int) {
	if newQuantity < 1 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable() {
		return
	}
	if _, ok := s.working[itemID]; !ok {
		return
	}
	s.working[itemID] = newQuantity
}

// OrderTotal 订单总价 = Σ baseline单价 × working数量
// 每次调用都重新计算，没有可能漂移的缓存
func (s *Session) OrderTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, li := range s.baseline {
		qty, ok := s.working[li.ItemID]
		if !ok {
			continue
		}
		total = total.Add(li.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// =========================================
// 删除确认子状态机：Idle → PendingConfirmation(itemID) → Idle
// =========================================

// RequestRemoval 请求删除某明细，进入待确认状态
// 不在工作集的明细直接忽略
func (s *Session) RequestRemoval(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable() {
		return
	}
	if _, ok := s.working[itemID]; !ok {
		return
	}
	s.pending = itemID
}

// CancelRemoval 取消待确认的删除，不产生任何修改
func (s *Session) CancelRemoval() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = ""
}

// PendingRemoval 当前待确认删除的itemID（空串=无）
func (s *Session) PendingRemoval() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// ConfirmRemoval 确认删除
// 只在itemID与待确认项一致时生效；没有待确认项或不一致时是no-op。
// 快速连点下也不会二次删除：第一次确认后pending已清空
func (s *Session) ConfirmRemoval(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editable() {
		return
	}
	if s.pending == "" || s.pending != itemID {
		return
	}

	delete(s.working, itemID)
	s.pending = ""
}

// editable Ready或Failed状态下允许继续编辑（调用方需持有锁）
func (s *Session) editable() bool {
	return s.phase == PhaseReady || s.phase == PhaseFailed
}

// =========================================
// 保存
// =========================================

// Save 决定保存策略并持久化
// 1. 已有保存在途时直接拒绝（不排队）
// 2. working为空 → 整单删除（退化删除）
// 3. 否则构造唯一形态的更新载荷：订单号、原销售日期、幸存明细
// 4. 失败进入Failed并保留全部编辑内容；成功进入Saved，
//    展示期满后触发跳转回调
func (s *Session) Save(ctx context.Context) (SaveOutcome, error) {
	s.mu.Lock()

	if s.phase == PhaseSaving {
		s.mu.Unlock()
		return SaveNone, ErrSaveInFlight
	}
	if s.phase != PhaseReady && s.phase != PhaseFailed {
		s.mu.Unlock()
		return SaveNone, ErrNotReady
	}

	s.phase = PhaseSaving
	s.failMsg = ""

	deleteWholeOrder := len(s.working) == 0
	payload := s.buildUpdateLocked()

	s.mu.Unlock()

	var err error
	outcome := SaveUpdated
	if deleteWholeOrder {
		outcome = SaveDeleted
		err = s.gateway.Delete(ctx, transport.EndpointOrderDelete, "/api/v1/orders/"+s.orderID)
	} else {
		err = s.gateway.Put(ctx, transport.EndpointOrderUpdate, "/api/v1/orders/"+s.orderID, payload, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.phase = PhaseFailed
		s.failMsg = saveFailureMessage(err)
		return SaveNone, err
	}

	s.phase = PhaseSaved
	if s.onSaved != nil {
		time.AfterFunc(s.savedDelay, s.onSaved)
	}

	return outcome, nil
}

// buildUpdateLocked 构造更新载荷（调用方需持有锁）
// 幸存明细按baseline顺序输出，数量取working当前值，销售日期原样回传
func (s *Session) buildUpdateLocked() order.Update {
	items := make([]order.UpdateItem, 0, len(s.working))
	for _, li := range s.baseline {
		qty, ok := s.working[li.ItemID]
		if !ok {
			continue
		}
		items = append(items, order.UpdateItem{
			ItemID:   li.ItemID,
			ISBN:     li.ISBN,
			Quantity: qty,
		})
	}

	return order.Update{
		OrderID:  s.orderID,
		SaleDate: s.saleDate,
		Items:    items,
	}
}

// saveFailureMessage 保存失败的展示文案
// 优先采用服务端返回的提示；更新订单是管理员操作，
// 没有提示时回退到权限不足的文案
func saveFailureMessage(err error) string {
	appErr := apperrors.GetAppError(err)
	if appErr.Message != "" {
		return appErr.Message
	}
	return "无权限执行此操作，请联系管理员"
}
