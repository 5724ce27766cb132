package gateway

import (
	"net/http"

	"github.com/example/storefront/pkg/shop"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (g *Gateway) register(c *gin.Context) {
	var req shop.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		g.badRequest(c, "malformed request body")
		return
	}

	if _, err := g.auth.Register(c.Request.Context(), req); err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
	})
}

func (g *Gateway) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.badRequest(c, "malformed request body")
		return
	}

	sess, err := g.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		g.respondError(c, err)
		return
	}

	g.setSessionCookie(c, sess.ID, int(g.config.Session.TTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    sess.User,
		"role":    sess.User.Role,
	})
}

// logout always succeeds and clears the cookie, with or without a session.
func (g *Gateway) logout(c *gin.Context) {
	if id, err := c.Cookie(g.config.Session.CookieName); err == nil {
		if err := g.auth.Logout(c.Request.Context(), id); err != nil {
			g.respondError(c, err)
			return
		}
	}

	g.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) status(c *gin.Context) {
	c.JSON(http.StatusOK, g.auth.Status(currentSession(c)))
}

func (g *Gateway) setSessionCookie(c *gin.Context, value string, maxAge int) {
	// cross-site credentialed requests need SameSite=None, which browsers
	// only accept on secure cookies
	if g.config.Session.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(g.config.Session.CookieName, value, maxAge, "/", "", g.config.Session.Secure, true)
}
