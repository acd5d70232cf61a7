package orderlist

import (
	"testing"
)

// TestDescribe_AlwaysCarriesPagination 任何状态的描述都带page和per_page
func TestDescribe_AlwaysCarriesPagination(t *testing.T) {
	d := Describe(DefaultFilterState())

	params := d.Params()
	if params.Get("page") != "1" {
		t.Errorf("默认状态page应为1，实际: %s", params.Get("page"))
	}
	if params.Get("per_page") != "10" {
		t.Errorf("默认状态per_page应为10，实际: %s", params.Get("per_page"))
	}
}

// TestDescribe_SingleSearchParam 搜索词非空时只带一个搜索参数，维度决定参数名
func TestDescribe_SingleSearchParam(t *testing.T) {
	tests := []struct {
		name     string
		kind     SearchType
		want     string
		excluded []string
	}{
		{"按订单号", SearchByOrder, "search", []string{"book_title", "author_last_name"}},
		{"按书名", SearchByBook, "book_title", []string{"search", "author_last_name"}},
		{"按作者", SearchByAuthor, "author_last_name", []string{"search", "book_title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := DefaultFilterState()
			state.SearchTerm = "  kennedy  "
			state.SearchType = tt.kind

			params := Describe(state).Params()
			if params.Get(tt.want) != "kennedy" {
				t.Errorf("%s应为trim后的搜索词，实际: %q", tt.want, params.Get(tt.want))
			}
			for _, name := range tt.excluded {
				if params.Has(name) {
					t.Errorf("不应携带%s参数", name)
				}
			}
		})
	}
}

// TestDescribe_BlankTermOmitsSearch 纯空白搜索词不产生任何搜索参数
func TestDescribe_BlankTermOmitsSearch(t *testing.T) {
	state := DefaultFilterState()
	state.SearchTerm = "   "
	state.SearchType = SearchByBook

	params := Describe(state).Params()
	for _, name := range []string{"search", "book_title", "author_last_name"} {
		if params.Has(name) {
			t.Errorf("空白搜索词不应携带%s", name)
		}
	}
}

// TestDescribe_SingleDateIsDegenerateRange 单日筛选下发为一日区间
func TestDescribe_SingleDateIsDegenerateRange(t *testing.T) {
	state := DefaultFilterState()
	state.Date = DateFilter{Kind: DateSingle, Single: "2024-03-05"}

	params := Describe(state).Params()
	if params.Get("start_date") != "2024-03-05" || params.Get("end_date") != "2024-03-05" {
		t.Errorf("单日筛选应下发start_date=end_date=2024-03-05，实际: %s / %s",
			params.Get("start_date"), params.Get("end_date"))
	}
}

// TestDescribe_RangePassedThrough 区间原样下发（包括start>end的情况，由服务端裁决）
func TestDescribe_RangePassedThrough(t *testing.T) {
	state := DefaultFilterState()
	state.Date = DateFilter{Kind: DateRange, Start: "2024-03-20", End: "2024-03-01"}

	params := Describe(state).Params()
	if params.Get("start_date") != "2024-03-20" || params.Get("end_date") != "2024-03-01" {
		t.Errorf("区间应原样下发，实际: %s / %s",
			params.Get("start_date"), params.Get("end_date"))
	}
}

// TestDescribe_NoneOmitsDates 无日期筛选时不带日期参数
func TestDescribe_NoneOmitsDates(t *testing.T) {
	params := Describe(DefaultFilterState()).Params()
	if params.Has("start_date") || params.Has("end_date") {
		t.Error("无日期筛选不应携带日期参数")
	}
}

// TestDescriptor_Equal 相同状态产生相同描述，任一参数变化产生不同描述
func TestDescriptor_Equal(t *testing.T) {
	a := DefaultFilterState()
	b := DefaultFilterState()
	if !Describe(a).Equal(Describe(b)) {
		t.Error("相同状态的描述应相等")
	}

	b.Page = 2
	if Describe(a).Equal(Describe(b)) {
		t.Error("页码不同的描述不应相等")
	}
}

// TestValidPerPage 每页条数只接受固定选项
func TestValidPerPage(t *testing.T) {
	for _, n := range PerPageOptions {
		if !ValidPerPage(n) {
			t.Errorf("%d应为合法的每页条数", n)
		}
	}
	for _, n := range []int{0, 1, 7, 15, 1000, -5} {
		if ValidPerPage(n) {
			t.Errorf("%d不应为合法的每页条数", n)
		}
	}
}
