package gateway

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/shop"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImageSize = 5 << 20

func (g *Gateway) listProducts(c *gin.Context) {
	products, err := g.catalog.List(c.Request.Context())
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": products})
}

func (g *Gateway) getProduct(c *gin.Context) {
	product, err := g.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

func (g *Gateway) createProduct(c *gin.Context) {
	var req shop.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		g.badRequest(c, "malformed request body")
		return
	}

	product, err := g.catalog.Create(c.Request.Context(), req)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": product})
}

func (g *Gateway) updateProduct(c *gin.Context) {
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		g.badRequest(c, "malformed request body")
		return
	}

	product, err := g.catalog.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	if err := g.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) exportProducts(c *gin.Context) {
	// buffer first so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := g.catalog.Export(c.Request.Context(), &buf); err != nil {
		g.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=products.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (g *Gateway) uploadProductImage(c *gin.Context) {
	if g.images == nil {
		g.unavailable(c, "image storage is not configured")
		return
	}

	id := c.Param("id")
	if _, err := g.catalog.Get(c.Request.Context(), id); err != nil {
		g.respondError(c, err)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		g.badRequest(c, "image file is required")
		return
	}
	if header.Size > maxImageSize {
		g.badRequest(c, "image must be 5MB or smaller")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		g.badRequest(c, "file must be an image")
		return
	}

	file, err := header.Open()
	if err != nil {
		g.respondError(c, err)
		return
	}
	defer file.Close()

	url, err := g.images.Upload(c.Request.Context(), id, header.Filename, file, header.Size, contentType)
	if err != nil {
		g.respondError(c, err)
		return
	}

	product, err := g.catalog.SetImage(c.Request.Context(), id, url)
	if err != nil {
		g.logger.Warn("Image uploaded but product update failed", zap.String("product_id", id), zap.String("url", url))
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}
