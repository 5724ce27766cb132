package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/shop"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// ImageUploader is satisfied by *storage.ImageStore.
type ImageUploader interface {
	Upload(ctx context.Context, productID, filename string, r io.Reader, size int64, contentType string) (string, error)
}

// AuditReader is satisfied by *repository.MongoRepository.
type AuditReader interface {
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*repository.AuditLog, error)
}

type HealthCheck func(ctx context.Context) error

// Options carries the services behind the HTTP API. Images, Audit and Hub
// are optional; their routes answer 503 when absent.
type Options struct {
	Auth    *shop.AuthService
	Catalog *shop.CatalogService
	Orders  *shop.OrderService
	Metrics *metrics.Metrics
	Hub     *Hub
	Images  ImageUploader
	Audit   AuditReader
	Checks  map[string]HealthCheck
}

type Gateway struct {
	config  *config.Config
	logger  *zap.Logger
	router  *gin.Engine
	server  *http.Server
	auth    *shop.AuthService
	catalog *shop.CatalogService
	orders  *shop.OrderService
	metrics *metrics.Metrics
	hub     *Hub
	images  ImageUploader
	audit   AuditReader
	checks  map[string]HealthCheck
}

func NewGateway(cfg *config.Config, logger *zap.Logger, opts Options) *Gateway {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Gateway.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	g := &Gateway{
		config:  cfg,
		logger:  logger,
		router:  router,
		auth:    opts.Auth,
		catalog: opts.Catalog,
		orders:  opts.Orders,
		metrics: opts.Metrics,
		hub:     opts.Hub,
		images:  opts.Images,
		audit:   opts.Audit,
		checks:  opts.Checks,
	}

	router.Use(g.sessionMiddleware())
	router.Use(loggerMiddleware(logger))
	if g.metrics != nil {
		router.Use(metricsMiddleware(g.metrics))
	}

	return g
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)
	if g.metrics != nil {
		g.router.GET("/metrics", gin.WrapH(g.metrics.Handler()))
	}

	admin := g.requireAdmin()

	// legacy paths used by the static storefront pages
	g.router.GET("/products", g.listProducts)
	g.router.POST("/order", g.placeOrder)
	g.router.POST("/logout", g.logout)
	g.router.GET("/status", g.status)

	api := g.router.Group("/api")
	{
		api.POST("/register", g.register)
		api.POST("/login", g.login)
		api.POST("/logout", g.logout)
		api.GET("/status", g.status)

		api.GET("/products", g.listProducts)
		api.GET("/products/:id", g.getProduct)

		api.POST("/order", g.placeOrder)
		api.GET("/orders/history", g.requireSession(), g.orderHistory)
		api.GET("/orders", admin, g.listOrders)
		api.DELETE("/orders/:id", admin, g.deleteOrder)

		api.GET("/users", admin, g.listUsers)
	}

	adm := g.router.Group("/admin", admin)
	{
		adm.POST("/products", g.createProduct)
		adm.GET("/products/export", g.exportProducts)
		adm.PUT("/products/:id", g.updateProduct)
		adm.DELETE("/products/:id", g.deleteProduct)
		adm.POST("/products/:id/image", g.uploadProductImage)

		adm.GET("/orders", g.listOrders)
		adm.GET("/orders/live", g.liveOrders)
		adm.GET("/audit/:id", g.auditTrail)
	}

	if g.config.Gateway.Swagger {
		g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	g.server = &http.Server{
		Addr:         g.config.Gateway.Addr(),
		Handler:      g.router,
		ReadTimeout:  g.config.Gateway.ReadTimeout,
		WriteTimeout: g.config.Gateway.WriteTimeout,
	}

	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.hub != nil {
		g.hub.Close()
	}
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}
