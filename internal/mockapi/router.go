package mockapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixiang/orderdesk/pkg/jwt"
)

// NewRouter 组装mock服务的路由
func NewRouter(store *Store, jwtManager *jwt.Manager, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	h := NewHandler(store, jwtManager)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Login)
			auth.GET("/me", h.RequireAuth(), h.CurrentUser)
		}

		orders := v1.Group("/orders", h.RequireAuth())
		{
			orders.GET("/search", h.SearchOrders)
			orders.GET("/:id", h.GetOrder)
			orders.PUT("/:id", h.RequireAdmin(), h.UpdateOrder)
			orders.DELETE("/:id", h.RequireAdmin(), h.DeleteOrder)
		}
	}

	return r
}
