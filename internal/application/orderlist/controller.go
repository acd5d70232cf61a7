package orderlist

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// RefreshState 一次性刷新信号的状态机
// 从编辑页保存成功返回列表时置为Pending，消费一次后回到Idle，
// 避免同一信号反复触发拉取
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshPending
)

// Controller 列表查询状态控制器
// 设计说明：
// 1. 独占FilterState，所有修改都经过它；除翻页外的修改把页码重置为1
// 2. 每次让规范化查询描述发生变化的修改都会递增版本号
// 3. 拉取结果只有在版本号仍是最新时才会被采纳——
//    迟到的旧查询响应直接丢弃，绝不覆盖新状态（防止乱序回包闪烁）
type Controller struct {
	mu         sync.Mutex
	state      FilterState
	version    uint64
	totalPages int // 0表示还没有任何已采纳的结果
	displayed  *Result
	refresh    RefreshState

	fetcher *Fetcher
	logger  *logrus.Logger
}

// NewController 创建控制器（挂载即持有默认FilterState）
func NewController(fetcher *Fetcher, logger *logrus.Logger) *Controller {
	return &Controller{
		state:   DefaultFilterState(),
		fetcher: fetcher,
		logger:  logger,
	}
}

// State 当前筛选状态的副本
func (c *Controller) State() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Displayed 当前展示的结果（可能为nil）
func (c *Controller) Displayed() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayed
}

// mutate 统一的状态修改入口
// 只有规范化查询描述真的变了才递增版本号——
// 描述相等意味着不需要重新拉取
func (c *Controller) mutate(fn func(*FilterState)) FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := Describe(c.state)
	fn(&c.state)
	if !Describe(c.state).Equal(before) {
		c.version++
	}

	return c.state
}

// SetSearchTerm 修改搜索词（页码重置为1）
func (c *Controller) SetSearchTerm(term string) FilterState {
	return c.mutate(func(s *FilterState) {
		s.SearchTerm = term
		s.Page = 1
	})
}

// SetSearchType 修改搜索维度（页码重置为1）
func (c *Controller) SetSearchType(kind SearchType) FilterState {
	return c.mutate(func(s *FilterState) {
		s.SearchType = kind
		s.Page = 1
	})
}

// SetDateFilter 修改日期筛选（页码重置为1）
// single清掉区间字段，range清掉单日字段，none清掉全部
func (c *Controller) SetDateFilter(filter DateFilter) FilterState {
	return c.mutate(func(s *FilterState) {
		switch filter.Kind {
		case DateSingle:
			s.Date = DateFilter{Kind: DateSingle, Single: filter.Single}
		case DateRange:
			s.Date = DateFilter{Kind: DateRange, Start: filter.Start, End: filter.End}
		default:
			s.Date = DateFilter{Kind: DateNone}
		}
		s.Page = 1
	})
}

// SetPage 翻页（唯一不重置页码的修改）
// 钳制到[1, totalPages]；还没有已采纳结果时只钳制下界
func (c *Controller) SetPage(n int) FilterState {
	return c.mutate(func(s *FilterState) {
		if n < 1 {
			n = 1
		}
		if c.totalPages > 0 && n > c.totalPages {
			n = c.totalPages
		}
		s.Page = n
	})
}

// SetPerPage 修改每页条数（页码重置为1）
// 不在固定选项内的值直接忽略
func (c *Controller) SetPerPage(n int) FilterState {
	if !ValidPerPage(n) {
		return c.State()
	}
	return c.mutate(func(s *FilterState) {
		s.PerPage = n
		s.Page = 1
	})
}

// ClearAllFilters 清除全部筛选，回到默认状态（保留每页条数）
func (c *Controller) ClearAllFilters() FilterState {
	return c.mutate(func(s *FilterState) {
		s.SearchTerm = ""
		s.SearchType = SearchByOrder
		s.Date = DateFilter{Kind: DateNone}
		s.Page = 1
	})
}

// SignalRefresh 标记数据已变化（编辑页保存成功后返回时调用）
func (c *Controller) SignalRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh = RefreshPending
}

// ConsumeRefreshSignal 原子地消费一次刷新信号
// 返回true时调用方应触发一次拉取；信号随即清除，
// 后续重复进入不会再触发（防止刷新循环）
func (c *Controller) ConsumeRefreshSignal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refresh != RefreshPending {
		return false
	}
	c.refresh = RefreshIdle
	c.version++
	return true
}

// Snapshot 取当前描述和版本号，供一次拉取使用
func (c *Controller) Snapshot() (Descriptor, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Describe(c.state), c.version
}

// Adopt 尝试采纳一次拉取结果
// 只有version仍是最新时才生效；过期响应返回false且不改任何展示状态。
// 采纳时同步服务端可能钳制过的per_page（不重置页码）
func (c *Controller) Adopt(version uint64, result *Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if version != c.version {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"stale_version":   version,
				"current_version": c.version,
			}).Debug("丢弃过期查询响应")
		}
		return false
	}

	c.displayed = result
	c.totalPages = result.TotalPages
	if result.PerPage > 0 && result.PerPage != c.state.PerPage {
		c.state.PerPage = result.PerPage
	}

	return true
}

// Fetch 按当前状态拉取并尝试采纳
// 返回值adopted=false表示拉取期间状态已变化，结果被丢弃
func (c *Controller) Fetch(ctx context.Context) (result *Result, adopted bool, err error) {
	descriptor, version := c.Snapshot()

	result, err = c.fetcher.Fetch(ctx, descriptor)
	if err != nil {
		return nil, false, err
	}

	if !c.Adopt(version, result) {
		return nil, false, nil
	}

	return result, true, nil
}
