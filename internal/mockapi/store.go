package mockapi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// mockapi在内存中复刻远程订单服务的行为，
// 供本地联调和集成测试使用。数据形态与真实服务逐字段对齐。

// User 账号
type User struct {
	ID           uint
	Username     string
	Email        string
	PasswordHash []byte
	Role         string // user | admin
}

// ToDict 输出与服务端user.to_dict()一致的形态
func (u User) ToDict() map[string]interface{} {
	return map[string]interface{}{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
	}
}

// Edition 版本（按ISBN索引，带价格和展示信息）
type Edition struct {
	ISBN           string
	Price          float64
	Title          string
	AuthorFullName string
	AuthorLastName string
}

// Item 订单明细行（存储形态）
type Item struct {
	ItemID   string
	ISBN     string
	Quantity int
}

// Order 订单（存储形态）
type Order struct {
	OrderID  string
	SaleDate time.Time
	Items    []Item
}

// SearchQuery 搜索参数
type SearchQuery struct {
	Search         string
	BookTitle      string
	AuthorLastName string
	StartDate      string
	EndDate        string
	Page           int
	PerPage        int
}

// SearchResult 搜索结果
type SearchResult struct {
	Orders     []Order
	Count      int
	Page       int
	PerPage    int
	TotalPages int
}

// ErrBadDate 日期格式错误（handler据此返回422）
type ErrBadDate struct{ Field string }

func (e ErrBadDate) Error() string {
	return fmt.Sprintf("Invalid %s format. Expected YYYY-MM-DD", e.Field)
}

// Store 内存数据存储
type Store struct {
	mu       sync.RWMutex
	users    map[string]User
	editions map[string]Edition
	orders   map[string]*Order
}

// NewStore 创建空存储
func NewStore() *Store {
	return &Store{
		users:    make(map[string]User),
		editions: make(map[string]Edition),
		orders:   make(map[string]*Order),
	}
}

// AddUser 添加账号（密码以bcrypt散列存储，与真实服务一致）
func (s *Store) AddUser(id uint, username, email, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = User{ID: id, Username: username, Email: email, PasswordHash: hash, Role: role}
	return nil
}

// Authenticate 校验用户名密码
func (s *Store) Authenticate(username, password string) (User, bool) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return User{}, false
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return User{}, false
	}
	return u, true
}

// UserByID 按ID查账号
func (s *Store) UserByID(id uint) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// AddEdition 添加版本
func (s *Store) AddEdition(e Edition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editions[e.ISBN] = e
}

// EditionByISBN 按ISBN查版本
func (s *Store) EditionByISBN(isbn string) (Edition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.editions[isbn]
	return e, ok
}

// PutOrder 写入订单
func (s *Store) PutOrder(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := o
	copied.Items = append([]Item(nil), o.Items...)
	s.orders[o.OrderID] = &copied
}

// GetOrder 按订单号查询
func (s *Store) GetOrder(orderID string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, false
	}
	copied := *o
	copied.Items = append([]Item(nil), o.Items...)
	return copied, true
}

// DeleteOrder 删除订单
func (s *Store) DeleteOrder(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return false
	}
	delete(s.orders, orderID)
	return true
}

// UpdateOrder 整体替换订单明细（与真实服务的PUT语义一致：先删后插）
func (s *Store) UpdateOrder(orderID string, saleDate string, items []Item) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("order not found")
	}

	var invalid []string
	for _, item := range items {
		if _, ok := s.editions[item.ISBN]; !ok {
			invalid = append(invalid, item.ISBN)
		}
	}
	if len(invalid) > 0 {
		return Order{}, fmt.Errorf("Invalid ISBNs: %s", strings.Join(invalid, ", "))
	}

	if saleDate != "" {
		if parsed, err := time.Parse("2006-01-02", saleDate); err == nil {
			o.SaleDate = parsed
		}
	}

	o.Items = make([]Item, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if item.ItemID == "" {
			item.ItemID = fmt.Sprintf("%d", i+1)
		}
		o.Items[i] = item
	}

	copied := *o
	copied.Items = append([]Item(nil), o.Items...)
	return copied, nil
}

// Search 按过滤条件搜索订单
// 行为对齐真实服务：
// 1. search为订单号子串匹配；book_title/author_last_name为不区分大小写的子串匹配
// 2. 日期区间两端各自独立生效，end_date含当天（+1天后取小于）
// 3. 格式错误的日期返回ErrBadDate（→ HTTP 422）
// 4. per_page钳制到[5,100]，排序固定为SaleDate、OrderID
func (s *Store) Search(q SearchQuery) (SearchResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = 10
	}
	if q.PerPage < 5 {
		q.PerPage = 5
	}
	if q.PerPage > 100 {
		q.PerPage = 100
	}

	var start, end time.Time
	if q.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", q.StartDate)
		if err != nil {
			return SearchResult{}, ErrBadDate{Field: "start_date"}
		}
		start = parsed
	}
	if q.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", q.EndDate)
		if err != nil {
			return SearchResult{}, ErrBadDate{Field: "end_date"}
		}
		end = parsed.AddDate(0, 0, 1)
	}

	s.mu.RLock()
	var matched []Order
	for _, o := range s.orders {
		if q.Search != "" && !strings.Contains(strings.ToLower(o.OrderID), strings.ToLower(q.Search)) {
			continue
		}
		if !start.IsZero() && o.SaleDate.Before(start) {
			continue
		}
		if !end.IsZero() && !o.SaleDate.Before(end) {
			continue
		}
		if q.BookTitle != "" && !s.orderMatchesTitleLocked(o, q.BookTitle) {
			continue
		}
		if q.AuthorLastName != "" && !s.orderMatchesAuthorLocked(o, q.AuthorLastName) {
			continue
		}

		copied := *o
		copied.Items = append([]Item(nil), o.Items...)
		matched = append(matched, copied)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SaleDate.Equal(matched[j].SaleDate) {
			return matched[i].SaleDate.Before(matched[j].SaleDate)
		}
		return matched[i].OrderID < matched[j].OrderID
	})

	count := len(matched)
	totalPages := (count + q.PerPage - 1) / q.PerPage
	if totalPages < 1 {
		totalPages = 1
	}

	offset := (q.Page - 1) * q.PerPage
	if offset > count {
		offset = count
	}
	limit := offset + q.PerPage
	if limit > count {
		limit = count
	}

	return SearchResult{
		Orders:     matched[offset:limit],
		Count:      count,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: totalPages,
	}, nil
}

func (s *Store) orderMatchesTitleLocked(o *Order, title string) bool {
	needle := strings.ToLower(title)
	for _, item := range o.Items {
		if e, ok := s.editions[item.ISBN]; ok {
			if strings.Contains(strings.ToLower(e.Title), needle) {
				return true
			}
		}
	}
	return false
}

func (s *Store) orderMatchesAuthorLocked(o *Order, lastName string) bool {
	needle := strings.ToLower(lastName)
	for _, item := range o.Items {
		if e, ok := s.editions[item.ISBN]; ok {
			if strings.Contains(strings.ToLower(e.AuthorLastName), needle) {
				return true
			}
		}
	}
	return false
}

// Seed 填充演示数据
// 账号：admin/admin123（管理员）、clerk/clerk123（普通店员）
func Seed(s *Store) error {
	if err := s.AddUser(1, "admin", "admin@orderdesk.local", "admin123", "admin"); err != nil {
		return err
	}
	if err := s.AddUser(2, "clerk", "clerk@orderdesk.local", "clerk123", "user"); err != nil {
		return err
	}

	s.AddEdition(Edition{ISBN: "978-0134190440", Price: 39.99, Title: "The Go Programming Language", AuthorFullName: "Alan Donovan", AuthorLastName: "Donovan"})
	s.AddEdition(Edition{ISBN: "978-1617291784", Price: 29.50, Title: "Go in Action", AuthorFullName: "William Kennedy", AuthorLastName: "Kennedy"})
	s.AddEdition(Edition{ISBN: "978-1491941959", Price: 44.00, Title: "Designing Data-Intensive Applications", AuthorFullName: "Martin Kleppmann", AuthorLastName: "Kleppmann"})
	s.AddEdition(Edition{ISBN: "978-0135957059", Price: 37.25, Title: "The Pragmatic Programmer", AuthorFullName: "David Thomas", AuthorLastName: "Thomas"})

	day := func(v string) time.Time {
		t, _ := time.Parse("2006-01-02", v)
		return t
	}

	s.PutOrder(Order{OrderID: "O-1001", SaleDate: day("2024-03-01"), Items: []Item{
		{ItemID: "1", ISBN: "978-0134190440", Quantity: 2},
		{ItemID: "2", ISBN: "978-1617291784", Quantity: 1},
	}})
	s.PutOrder(Order{OrderID: "O-1002", SaleDate: day("2024-03-05"), Items: []Item{
		{ItemID: "1", ISBN: "978-1491941959", Quantity: 1},
	}})
	s.PutOrder(Order{OrderID: "O-1003", SaleDate: day("2024-03-15"), Items: []Item{
		{ItemID: "1", ISBN: "978-0135957059", Quantity: 3},
		{ItemID: "2", ISBN: "978-0134190440", Quantity: 1},
	}})

	return nil
}
