package gateway

import (
	"errors"
	"strconv"
	"time"

	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/shop"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionMiddleware resolves the session cookie, if any, and attaches the
// session to the request context. Unknown or expired ids are treated as guests.
func (g *Gateway) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(g.config.Session.CookieName)
		if err != nil || id == "" {
			c.Next()
			return
		}

		sess, err := g.auth.Resolve(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, shop.ErrUnauthorized) {
				g.logger.Warn("Session lookup failed", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(shop.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

func currentSession(c *gin.Context) *models.Session {
	return shop.SessionFrom(c.Request.Context())
}

// requireAdmin rejects the request before any handler runs unless the
// caller holds an admin session.
func (g *Gateway) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.auth.RequireAdmin(currentSession(c)); err != nil {
			g.respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (g *Gateway) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c) == nil {
			g.respondError(c, shop.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		role := "guest"
		if sess := currentSession(c); sess != nil {
			role = sess.User.Role
		}

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("role", role),
		)
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
