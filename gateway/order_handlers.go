package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/storefront/pkg/shop"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) placeOrder(c *gin.Context) {
	var req shop.PlaceOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		g.badRequest(c, "malformed request body")
		return
	}

	order, err := g.orders.PlaceOrder(c.Request.Context(), currentSession(c), req)
	if err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order placed successfully",
		"order":   order,
	})
}

func (g *Gateway) listOrders(c *gin.Context) {
	orders, err := g.orders.ListOrders(c.Request.Context())
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

func (g *Gateway) orderHistory(c *gin.Context) {
	orders, err := g.orders.History(c.Request.Context(), currentSession(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

func (g *Gateway) deleteOrder(c *gin.Context) {
	if err := g.orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) liveOrders(c *gin.Context) {
	if g.hub == nil {
		g.unavailable(c, "live order feed is not enabled")
		return
	}
	g.hub.Serve(c.Writer, c.Request)
}

func (g *Gateway) auditTrail(c *gin.Context) {
	if g.audit == nil {
		g.unavailable(c, "audit log is not configured")
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 {
		g.badRequest(c, "limit must be a positive integer")
		return
	}

	logs, err := g.audit.GetAuditLogs(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": logs})
}
