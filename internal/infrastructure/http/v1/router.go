// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/domain/billing"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/catalogs/supplier"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/infrastructure/http/v1/dto"
	"pharmaledger/internal/infrastructure/http/v1/handlers"
	"pharmaledger/internal/infrastructure/http/v1/middleware"
	"pharmaledger/pkg/logger"
)

// Services are the domain services the API exposes.
type Services struct {
	Purchases *purchase.Reconciler
	Bills     *billing.Engine
	Inventory *inventory.Service
	Customers *customer.Service
	Suppliers *supplier.Service
	Products  *product.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services Services

	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator turns bearer tokens into actors
	TokenValidator middleware.TokenValidator

	// Idempotency is nil when X-Idempotency-Key is not honoured
	Idempotency middleware.IdempotencyStore

	// AllowedOrigins for CORS; empty allows any origin
	AllowedOrigins []string

	// HealthChecks are pinged by /health/ready
	HealthChecks map[string]handlers.Pinger

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!). Recovery sits inside ErrorHandler
	// so a recovered panic is still rendered.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	v1 := router.Group("/api/v1")

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := v1.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.TokenValidator))
	if cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerPurchaseRoutes(protected, base, cfg.Services.Purchases)
	registerBillRoutes(protected, base, cfg.Services.Bills)
	registerInventoryRoutes(protected, base, cfg.Services.Inventory)
	registerCustomerRoutes(protected, base, cfg.Services.Customers)
	RegisterCatalogRoutes(protected.Group("/suppliers"), handlers.NewSupplierHandler(base, cfg.Services.Suppliers))
	registerProductRoutes(protected, base, cfg.Services.Products)

	return router, nil
}

func registerPurchaseRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, svc *purchase.Reconciler) {
	h := handlers.NewPurchaseHandler(base, svc)
	g := r.Group("/purchases")
	{
		g.GET("", h.List)
		g.POST("", h.Create)
		// Static segment before /:id.
		g.GET("/price-history", h.PriceHistory)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}
}

func registerBillRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, svc *billing.Engine) {
	h := handlers.NewBillHandler(base, svc)
	g := r.Group("/bills")
	{
		g.GET("", h.List)
		g.POST("", h.Create)
		g.POST("/preview", h.Preview)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
		g.POST("/:id/mark-paid", h.MarkPaid)
	}
}

func registerInventoryRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, svc *inventory.Service) {
	h := handlers.NewInventoryHandler(base, svc)
	g := r.Group("/inventory")
	{
		g.GET("", h.List)
		g.GET("/search", h.Search)
		g.GET("/alerts", h.Alerts)
		g.GET("/export", h.Export)
		g.GET("/:id", h.Get)
		g.DELETE("/:id", h.Delete)
	}
}

func registerCustomerRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, svc *customer.Service) {
	h := handlers.NewCustomerHandler(base, svc)
	g := r.Group("/customers")
	{
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/search", h.Search)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
		g.POST("/:id/clear-debt", middleware.RequireRole(appctx.RoleAdmin), h.ClearDebt)
	}
}

func registerProductRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, svc *product.Service) {
	h := handlers.NewProductHandler(base, svc)
	g := r.Group("/products")
	// Static segment before /:id.
	g.GET("/search", h.Search)
	RegisterCatalogRoutes(g, h)
}
