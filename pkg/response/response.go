package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 本包为mockapi提供与真实服务一致的响应形态。
// 设计说明：
// 1. 真实服务（Flask）返回扁平JSON，错误统一为{"message": "..."}加HTTP状态码
// 2. mockapi必须逐字节模仿这套形态，客户端的错误归类才能被如实测到
// 3. 因此这里不做统一的{code,message,data}信封

// OK 200响应
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Created 201响应
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

// Message 带HTTP状态码的{"message"}响应
// 用法：
//
//	response.Message(c, http.StatusNotFound, "Order not found")
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// AbortMessage 中间件中断并返回{"message"}
func AbortMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// =========================================
// 分页响应结构
// =========================================

// Page 订单搜索的分页信封
// 字段名与真实服务保持一致（count/page/per_page/total_pages/orders）
type Page struct {
	Count      int         `json:"count"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
	Orders     interface{} `json:"orders"`
}

// NewPage 创建分页信封（向上取整计算总页数）
func NewPage(orders interface{}, count, page, perPage int) *Page {
	totalPages := (count + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	return &Page{
		Count:      count,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		Orders:     orders,
	}
}
