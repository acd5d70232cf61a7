package order

import (
	"github.com/shopspring/decimal"
)

// 本包定义远程订单服务的数据模型。
// JSON字段名与服务端返回保持一致（PascalCase），不做本地改名，
// 这样抓包看到什么，代码里就是什么。

// Author 作者（展示用）
type Author struct {
	FullName string `json:"FullName"`
}

// Book 图书（展示用）
type Book struct {
	Title  string  `json:"Title"`
	Author *Author `json:"Author,omitempty"`
}

// Price 可空价格
// 服务端在版本缺价时返回null，按0计（与界面展示逻辑一致）
type Price struct {
	decimal.Decimal
}

// UnmarshalJSON null → 0
func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		p.Decimal = decimal.Zero
		return nil
	}
	return p.Decimal.UnmarshalJSON(data)
}

// LineItem 订单明细行
type LineItem struct {
	ItemID   string `json:"ItemID"`
	ISBN     string `json:"ISBN"`
	Price    Price  `json:"Price"`
	Quantity int    `json:"Quantity"`
	Book     *Book  `json:"Book,omitempty"`
}

// Qty 生效数量：服务端缺失或为0时按1计
func (li LineItem) Qty() int {
	if li.Quantity <= 0 {
		return 1
	}
	return li.Quantity
}

// LineTotal 行小计 = 单价 × 数量
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Qty())))
}

// Title 图书标题（缺失时给占位文案）
func (li LineItem) Title() string {
	if li.Book == nil || li.Book.Title == "" {
		return "Unknown Book"
	}
	return li.Book.Title
}

// AuthorName 作者姓名（缺失时给占位文案）
func (li LineItem) AuthorName() string {
	if li.Book == nil || li.Book.Author == nil || li.Book.Author.FullName == "" {
		return "Unknown Author"
	}
	return li.Book.Author.FullName
}

// Order 订单
// 列表和详情共用同一形态；SaleDate为YYYY-MM-DD字符串（可能为空）
type Order struct {
	OrderID      string     `json:"OrderID"`
	SaleDate     string     `json:"SaleDate"`
	OrderDetails []LineItem `json:"OrderDetails"`
}

// TotalPrice 订单总价 = Σ 单价×数量
// 总是本地重算，不信任服务端可能过期的聚合值
func (o Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.OrderDetails {
		total = total.Add(li.LineTotal())
	}
	return total
}

// ItemCount 订单内商品总件数 = Σ 数量
func (o Order) ItemCount() int {
	count := 0
	for _, li := range o.OrderDetails {
		count += li.Qty()
	}
	return count
}

// =========================================
// 更新载荷（PUT /api/v1/orders/{id}）
// =========================================

// UpdateItem 更新载荷中的明细行
type UpdateItem struct {
	ItemID   string `json:"ItemID"`
	ISBN     string `json:"ISBN"`
	Quantity int    `json:"Quantity"`
}

// Update 订单更新载荷
// 契约固定为这一种形态；SaleDate原样回传，不在编辑中修改
type Update struct {
	OrderID  string       `json:"OrderID"`
	SaleDate string       `json:"SaleDate"`
	Items    []UpdateItem `json:"items"`
}
