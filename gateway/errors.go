package gateway

import (
	"errors"
	"net/http"

	"github.com/example/storefront/pkg/shop"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, shop.ErrInvalidInput),
		errors.Is(err, shop.ErrDuplicateEmail),
		errors.Is(err, shop.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shop.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shop.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shop.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {success:false, message}. Server errors are logged and
// replaced by a generic message.
func (g *Gateway) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		message = "Internal server error"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

func (g *Gateway) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

func (g *Gateway) unavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": message})
}
