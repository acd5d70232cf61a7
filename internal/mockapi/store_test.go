package mockapi

import (
	"strings"
	"testing"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	if err := Seed(store); err != nil {
		t.Fatalf("填充演示数据失败: %v", err)
	}
	return store
}

// TestStore_Authenticate bcrypt校验用户名密码
func TestStore_Authenticate(t *testing.T) {
	store := seededStore(t)

	if _, ok := store.Authenticate("admin", "admin123"); !ok {
		t.Error("正确密码应通过校验")
	}
	if _, ok := store.Authenticate("admin", "wrong"); ok {
		t.Error("错误密码不应通过校验")
	}
	if _, ok := store.Authenticate("nobody", "admin123"); ok {
		t.Error("不存在的账号不应通过校验")
	}
}

// TestStore_SearchSortedByDateThenID 结果按销售日期、订单号排序
func TestStore_SearchSortedByDateThenID(t *testing.T) {
	store := seededStore(t)

	result, err := store.Search(SearchQuery{})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}

	if result.Count != 3 {
		t.Fatalf("应命中3单，实际: %d", result.Count)
	}
	want := []string{"O-1001", "O-1002", "O-1003"}
	for i, o := range result.Orders {
		if o.OrderID != want[i] {
			t.Errorf("第%d单应为%s，实际: %s", i, want[i], o.OrderID)
		}
	}
}

// TestStore_SearchPerPageClamped per_page钳制到[5,100]
func TestStore_SearchPerPageClamped(t *testing.T) {
	store := seededStore(t)

	result, err := store.Search(SearchQuery{PerPage: 2})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if result.PerPage != 5 {
		t.Errorf("per_page=2应钳制到5，实际: %d", result.PerPage)
	}

	result, _ = store.Search(SearchQuery{PerPage: 500})
	if result.PerPage != 100 {
		t.Errorf("per_page=500应钳制到100，实际: %d", result.PerPage)
	}
}

// TestStore_SearchEndDateInclusive 区间含end_date当天
func TestStore_SearchEndDateInclusive(t *testing.T) {
	store := seededStore(t)

	result, err := store.Search(SearchQuery{StartDate: "2024-03-05", EndDate: "2024-03-15"})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if result.Count != 2 {
		t.Errorf("应命中O-1002和O-1003（含结束当天），实际: %d", result.Count)
	}
}

// TestStore_SearchBadDate 格式错误的日期返回ErrBadDate，消息指明字段
func TestStore_SearchBadDate(t *testing.T) {
	store := seededStore(t)

	_, err := store.Search(SearchQuery{StartDate: "03/05/2024"})
	if err == nil {
		t.Fatal("格式错误的start_date应报错")
	}
	if err.Error() != "Invalid start_date format. Expected YYYY-MM-DD" {
		t.Errorf("错误消息不符: %q", err.Error())
	}

	_, err = store.Search(SearchQuery{EndDate: "yesterday"})
	if err == nil || !strings.Contains(err.Error(), "end_date") {
		t.Errorf("end_date错误消息不符: %v", err)
	}
}

// TestStore_SearchByTitleAndAuthor 书名/作者姓氏为不区分大小写的子串匹配
func TestStore_SearchByTitleAndAuthor(t *testing.T) {
	store := seededStore(t)

	result, _ := store.Search(SearchQuery{BookTitle: "go in action"})
	if result.Count != 1 || result.Orders[0].OrderID != "O-1001" {
		t.Errorf("按书名搜索结果不符: %+v", result.Orders)
	}

	result, _ = store.Search(SearchQuery{AuthorLastName: "DONOVAN"})
	if result.Count != 2 {
		t.Errorf("按作者搜索应命中2单，实际: %d", result.Count)
	}
}

// TestStore_UpdateReplacesItems 更新是整体替换：未提交的明细消失
func TestStore_UpdateReplacesItems(t *testing.T) {
	store := seededStore(t)

	updated, err := store.UpdateOrder("O-1001", "", []Item{
		{ItemID: "1", ISBN: "978-0134190440", Quantity: 7},
	})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 7 {
		t.Errorf("更新后明细不符: %+v", updated.Items)
	}
}

// TestStore_UpdateRejectsUnknownISBN 未知ISBN整体拒绝，消息列出全部非法值
func TestStore_UpdateRejectsUnknownISBN(t *testing.T) {
	store := seededStore(t)

	_, err := store.UpdateOrder("O-1001", "", []Item{
		{ItemID: "1", ISBN: "000-bad", Quantity: 1},
	})
	if err == nil || !strings.Contains(err.Error(), "Invalid ISBNs: 000-bad") {
		t.Errorf("非法ISBN错误消息不符: %v", err)
	}

	// 拒绝后原订单未被改动
	o, _ := store.GetOrder("O-1001")
	if len(o.Items) != 2 {
		t.Errorf("拒绝的更新不应改动订单: %+v", o.Items)
	}
}

// TestStore_UpdateDefaultsQuantity 数量<1的明细按1落库
func TestStore_UpdateDefaultsQuantity(t *testing.T) {
	store := seededStore(t)

	updated, err := store.UpdateOrder("O-1002", "", []Item{
		{ItemID: "1", ISBN: "978-1491941959", Quantity: 0},
	})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.Items[0].Quantity != 1 {
		t.Errorf("数量0应按1落库，实际: %d", updated.Items[0].Quantity)
	}
}

// TestStore_DeleteOrder 删除后不可再查
func TestStore_DeleteOrder(t *testing.T) {
	store := seededStore(t)

	if !store.DeleteOrder("O-1003") {
		t.Fatal("删除存在的订单应成功")
	}
	if _, ok := store.GetOrder("O-1003"); ok {
		t.Error("删除后订单不应存在")
	}
	if store.DeleteOrder("O-1003") {
		t.Error("重复删除应返回false")
	}
}
