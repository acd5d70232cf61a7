package orderlist

import (
	"net/url"
	"strconv"
	"strings"
)

// SearchType 搜索维度
type SearchType string

const (
	SearchByOrder  SearchType = "order"  // 按订单号
	SearchByBook   SearchType = "book"   // 按书名
	SearchByAuthor SearchType = "author" // 按作者姓氏
)

// DateFilterKind 日期筛选类型
type DateFilterKind string

const (
	DateNone   DateFilterKind = "none"
	DateSingle DateFilterKind = "single"
	DateRange  DateFilterKind = "range"
)

// DateFilter 日期筛选（带标签的变体）
// single只用Single字段，range只用Start/End，none三者皆空
type DateFilter struct {
	Kind   DateFilterKind
	Single string // YYYY-MM-DD
	Start  string
	End    string
}

// PerPageOptions 每页条数的固定选项
var PerPageOptions = []int{5, 10, 25, 50, 100}

// ValidPerPage 判断是否为合法的每页条数
func ValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}

// FilterState 列表的筛选与分页状态
// 只由Controller修改；除翻页外的任何修改都会把页码重置为1
type FilterState struct {
	SearchTerm string
	SearchType SearchType
	Date       DateFilter
	Page       int
	PerPage    int
}

// DefaultFilterState 挂载时的初始状态
func DefaultFilterState() FilterState {
	return FilterState{
		SearchType: SearchByOrder,
		Date:       DateFilter{Kind: DateNone},
		Page:       1,
		PerPage:    10,
	}
}

// Descriptor 规范化查询描述
// FilterState的不可变快照，决定一次请求的全部参数；
// 两个Descriptor的Key相等时无需重新拉取
type Descriptor struct {
	params url.Values
	key    string
}

// Params 返回查询参数的副本
func (d Descriptor) Params() url.Values {
	copied := url.Values{}
	for k, vs := range d.params {
		copied[k] = append([]string(nil), vs...)
	}
	return copied
}

// Key 规范化字符串（参数按名称排序），用于相等性比较
func (d Descriptor) Key() string {
	return d.key
}

// Equal 两个描述是否对应同一查询
func (d Descriptor) Equal(other Descriptor) bool {
	return d.key == other.key
}

// Describe 从FilterState导出规范化查询描述（纯函数）
// 规则：
// 1. 总是带page和per_page
// 2. 搜索词trim后非空时，按SearchType只带search/book_title/author_last_name之一
// 3. 单日筛选是退化的一日区间：start_date=end_date=d；区间原样下发；none不带日期
func Describe(state FilterState) Descriptor {
	params := url.Values{}
	params.Set("page", strconv.Itoa(state.Page))
	params.Set("per_page", strconv.Itoa(state.PerPage))

	if term := strings.TrimSpace(state.SearchTerm); term != "" {
		switch state.SearchType {
		case SearchByBook:
			params.Set("book_title", term)
		case SearchByAuthor:
			params.Set("author_last_name", term)
		default:
			params.Set("search", term)
		}
	}

	switch state.Date.Kind {
	case DateSingle:
		if state.Date.Single != "" {
			params.Set("start_date", state.Date.Single)
			params.Set("end_date", state.Date.Single)
		}
	case DateRange:
		if state.Date.Start != "" && state.Date.End != "" {
			params.Set("start_date", state.Date.Start)
			params.Set("end_date", state.Date.End)
		}
	}

	return Descriptor{params: params, key: params.Encode()}
}
