package orderlist

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lixiang/orderdesk/internal/domain/order"
	"github.com/lixiang/orderdesk/internal/infrastructure/transport"
)

// Row 列表中的一行：订单加上本地重算的总价
type Row struct {
	order.Order
	TotalPrice decimal.Decimal
}

// Result 一次查询的归一化结果
// count/total_pages/per_page采用服务端返回值
// （服务端会把per_page钳制到[5,100]，客户端照单全收）
type Result struct {
	Rows       []Row
	Count      int
	Page       int
	TotalPages int
	PerPage    int
}

// searchResponse 服务端搜索响应的线格式
type searchResponse struct {
	Count      int           `json:"count"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	TotalPages int           `json:"total_pages"`
	Orders     []order.Order `json:"orders"`
}

// Fetcher 订单列表拉取器
// 对规范化查询描述执行一次读取，并归一化分页结果
type Fetcher struct {
	gateway *transport.Gateway
}

// NewFetcher 创建拉取器
func NewFetcher(gateway *transport.Gateway) *Fetcher {
	return &Fetcher{gateway: gateway}
}

// Fetch 执行查询
// 每个订单的总价在本地按明细重算，不信任服务端可能过期的聚合值，
// 保证与数量缺省（缺失按1计）的口径一致
func (f *Fetcher) Fetch(ctx context.Context, d Descriptor) (*Result, error) {
	var resp searchResponse
	if err := f.gateway.Get(ctx, transport.EndpointOrdersSearch, "/api/v1/orders/search", d.Params(), &resp); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		rows = append(rows, Row{Order: o, TotalPrice: o.TotalPrice()})
	}

	result := &Result{
		Rows:       rows,
		Count:      resp.Count,
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		PerPage:    resp.PerPage,
	}
	if result.TotalPages < 1 {
		result.TotalPages = 1
	}

	return result, nil
}
