package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lixiang/orderdesk/pkg/jwt"
	"github.com/lixiang/orderdesk/pkg/response"
)

// Handler mock服务的HTTP处理器
type Handler struct {
	store      *Store
	jwtManager *jwt.Manager
}

// NewHandler 创建处理器
func NewHandler(store *Store, jwtManager *jwt.Manager) *Handler {
	return &Handler{store: store, jwtManager: jwtManager}
}

// orderDict 输出与真实服务order.to_dict()一致的形态
func (h *Handler) orderDict(o Order) gin.H {
	details := make([]gin.H, 0, len(o.Items))
	for _, item := range o.Items {
		detail := gin.H{
			"OrderID":  o.OrderID,
			"ItemID":   item.ItemID,
			"ISBN":     item.ISBN,
			"Quantity": item.Quantity,
			"Book":     nil,
			"Price":    nil,
		}
		if e, ok := h.store.EditionByISBN(item.ISBN); ok {
			detail["Price"] = e.Price
			detail["Book"] = gin.H{
				"Title":  e.Title,
				"Author": gin.H{"FullName": e.AuthorFullName},
			}
		}
		details = append(details, detail)
	}

	saleDate := interface{}(nil)
	if !o.SaleDate.IsZero() {
		saleDate = o.SaleDate.Format("2006-01-02")
	}

	return gin.H{
		"OrderID":      o.OrderID,
		"SaleDate":     saleDate,
		"OrderDetails": details,
	}
}

// =========================================
// 认证
// =========================================

// Login 登录
// POST /api/v1/auth/login {"username","password"} → {"access_token","user"}
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		response.Message(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, ok := h.store.Authenticate(req.Username, req.Password)
	if !ok {
		response.Message(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		response.Message(c, http.StatusInternalServerError, "Token generation failed")
		return
	}

	response.OK(c, gin.H{
		"message":      "Login successful",
		"access_token": token,
		"user":         user.ToDict(),
	})
}

// CurrentUser 当前会话
// GET /api/v1/auth/me → {"user"}
func (h *Handler) CurrentUser(c *gin.Context) {
	user, ok := h.userFromContext(c)
	if !ok {
		response.Message(c, http.StatusNotFound, "User not found")
		return
	}
	response.OK(c, gin.H{"user": user.ToDict()})
}

// =========================================
// 订单
// =========================================

// SearchOrders 搜索订单
// GET /api/v1/orders/search
func (h *Handler) SearchOrders(c *gin.Context) {
	q := SearchQuery{
		Search:         c.Query("search"),
		BookTitle:      c.Query("book_title"),
		AuthorLastName: c.Query("author_last_name"),
		StartDate:      c.Query("start_date"),
		EndDate:        c.Query("end_date"),
		Page:           intQuery(c, "page", 1),
		PerPage:        intQuery(c, "per_page", 10),
	}

	result, err := h.store.Search(q)
	if err != nil {
		var badDate ErrBadDate
		if errors.As(err, &badDate) {
			response.Message(c, http.StatusUnprocessableEntity, badDate.Error())
			return
		}
		response.Message(c, http.StatusInternalServerError, err.Error())
		return
	}

	orders := make([]gin.H, 0, len(result.Orders))
	for _, o := range result.Orders {
		orders = append(orders, h.orderDict(o))
	}

	page := response.NewPage(orders, result.Count, result.Page, result.PerPage)
	page.TotalPages = result.TotalPages
	response.OK(c, page)
}

// GetOrder 订单详情
// GET /api/v1/orders/:id → {"order"}
func (h *Handler) GetOrder(c *gin.Context) {
	o, ok := h.store.GetOrder(c.Param("id"))
	if !ok {
		response.Message(c, http.StatusNotFound, "Order not found")
		return
	}
	response.OK(c, gin.H{"order": h.orderDict(o)})
}

// UpdateOrder 更新订单明细（管理员）
// PUT /api/v1/orders/:id {"OrderID","SaleDate","items":[...]}
func (h *Handler) UpdateOrder(c *gin.Context) {
	var req struct {
		SaleDate string `json:"SaleDate"`
		Items    []struct {
			ItemID   string `json:"ItemID"`
			ISBN     string `json:"ISBN"`
			Quantity int    `json:"Quantity"`
		} `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	items := make([]Item, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, Item{ItemID: item.ItemID, ISBN: item.ISBN, Quantity: item.Quantity})
	}

	updated, err := h.store.UpdateOrder(c.Param("id"), req.SaleDate, items)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.Message(c, http.StatusNotFound, "Order not found")
			return
		}
		response.Message(c, http.StatusBadRequest, err.Error())
		return
	}

	response.OK(c, gin.H{
		"message": "Order updated successfully",
		"order":   h.orderDict(updated),
	})
}

// DeleteOrder 删除订单（管理员）
// DELETE /api/v1/orders/:id
func (h *Handler) DeleteOrder(c *gin.Context) {
	if !h.store.DeleteOrder(c.Param("id")) {
		response.Message(c, http.StatusNotFound, "Order not found")
		return
	}
	response.OK(c, gin.H{"message": "Order deleted successfully"})
}

// =========================================
// 中间件
// =========================================

// RequireAuth 要求携带有效Bearer凭证
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortMessage(c, http.StatusUnauthorized, "Missing Authorization Header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.AbortMessage(c, http.StatusUnauthorized, "Invalid token format")
			return
		}

		claims, err := h.jwtManager.ParseToken(parts[1])
		if err != nil {
			response.AbortMessage(c, http.StatusUnauthorized, "Token has expired or is invalid")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireAdmin 要求管理员权限（更新/删除订单）
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != "admin" {
			response.AbortMessage(c, http.StatusForbidden, "Admin privileges required")
			return
		}
		c.Next()
	}
}

func (h *Handler) userFromContext(c *gin.Context) (User, bool) {
	id, ok := c.Get("user_id")
	if !ok {
		return User{}, false
	}
	uid, ok := id.(uint)
	if !ok {
		return User{}, false
	}
	return h.store.UserByID(uid)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
