package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// AdminAPI holds everything the admin HTTP API serves
type AdminAPI struct {
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	System         *handler.SystemHandler
	Sync           *handler.SyncHandler
	Orders         *handler.OrderHandler
	Customers      *handler.CustomerHandler
	Tracing        middleware.TracingConfig
	TrustedProxies []string
	MaxBodyBytes   int64
}

// NewAdminEngine builds the gin engine of the admin API.
//
//	GET  /health
//	GET  /api/v1/system/info
//	POST /api/v1/sync/:type        (scope sync)
//	GET  /api/v1/sync/status       (scope sync)
//	POST /api/v1/orders            (scope orders)
//	GET  /api/v1/orders/:id        (scope orders)
//	POST /api/v1/orders/:id/submit (scope orders)
//	GET  /api/v1/orders/:id/preview
//	PUT  /api/v1/orders/:id/lines/:line_id/gift-card
//	POST /api/v1/customers         (scope orders)
func NewAdminEngine(api AdminAPI) *gin.Engine {
	log := api.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxBody := api.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodyBytes
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(api.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(api.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request logger must exist before anything logs,
	// and the span must exist before attributes are injected.
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(api.Tracing))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(maxBody))

	engine.GET("/health", api.System.Health)

	Mount(engine, "v1",
		[]gin.HandlerFunc{
			middleware.JWTAuthMiddleware(api.Tokens, log),
			middleware.TracingAttributeInjector(),
		},
		Area{Prefix: "/system", Routes: []Route{
			{http.MethodGet, "/info", api.System.GetSystemInfo},
		}},
		Area{Prefix: "/sync", Scope: auth.ScopeSync, Routes: []Route{
			{http.MethodGet, "/status", api.Sync.Status},
			{http.MethodPost, "/:type", api.Sync.Trigger},
		}},
		Area{Prefix: "/orders", Scope: auth.ScopeOrders, Routes: []Route{
			{http.MethodPost, "", api.Orders.Ingest},
			{http.MethodGet, "/:id", api.Orders.Get},
			{http.MethodPost, "/:id/submit", api.Orders.Submit},
			{http.MethodGet, "/:id/preview", api.Orders.Preview},
			{http.MethodPut, "/:id/lines/:line_id/gift-card", api.Orders.SetGiftCardNumber},
		}},
		Area{Prefix: "/customers", Scope: auth.ScopeOrders, Routes: []Route{
			{http.MethodPost, "", api.Customers.Register},
		}},
	)

	return engine
}
