package http

import (
	"github.com/gin-gonic/gin"

	"github.com/keygate-io/keygate/internal/infrastructure/config"
	"github.com/keygate-io/keygate/internal/interfaces/http/handlers"
	"github.com/keygate-io/keygate/internal/interfaces/http/middleware"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// Router owns the gin engine and the route table.
type Router struct {
	engine *gin.Engine
	logger logger.Interface

	verifyHandler    *handlers.VerifyHandler
	licenseHandler   *handlers.LicenseHandler
	productHandler   *handlers.ProductHandler
	blacklistHandler *handlers.BlacklistHandler
	statsHandler     *handlers.StatsHandler
	healthHandler    *handlers.HealthHandler

	rateLimit gin.HandlerFunc
	devAuth   gin.HandlerFunc
}

// RouterParams carries the router dependencies.
type RouterParams struct {
	Logger           logger.Interface
	VerifyHandler    *handlers.VerifyHandler
	LicenseHandler   *handlers.LicenseHandler
	ProductHandler   *handlers.ProductHandler
	BlacklistHandler *handlers.BlacklistHandler
	StatsHandler     *handlers.StatsHandler
	HealthHandler    *handlers.HealthHandler
	RateLimit        gin.HandlerFunc
	DevAuth          gin.HandlerFunc
}

// NewRouter creates a new router instance
func NewRouter(p RouterParams) *Router {
	return &Router{
		engine:           gin.New(),
		logger:           p.Logger,
		verifyHandler:    p.VerifyHandler,
		licenseHandler:   p.LicenseHandler,
		productHandler:   p.ProductHandler,
		blacklistHandler: p.BlacklistHandler,
		statsHandler:     p.StatsHandler,
		healthHandler:    p.HealthHandler,
		rateLimit:        p.RateLimit,
		devAuth:          p.DevAuth,
	}
}

// Engine exposes the underlying gin engine to the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(cfg *config.Config) {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.engine.GET("/healthz", r.healthHandler.Check)

	r.setupClientRoutes()
	r.setupDevRoutes()
}

// setupClientRoutes configures the public verification endpoint
func (r *Router) setupClientRoutes() {
	client := r.engine.Group("/api/client")
	{
		if r.rateLimit != nil {
			client.POST("/verify", r.rateLimit, r.verifyHandler.Verify)
		} else {
			client.POST("/verify", r.verifyHandler.Verify)
		}
	}
}

// setupDevRoutes configures the operator API behind secret key auth
func (r *Router) setupDevRoutes() {
	dev := r.engine.Group("/api/dev")
	dev.Use(r.devAuth)
	{
		dev.GET("/licenses", r.licenseHandler.List)
		dev.POST("/licenses", r.licenseHandler.Create)
		dev.DELETE("/licenses", r.licenseHandler.Delete)

		dev.GET("/products", r.productHandler.List)
		dev.POST("/products", r.productHandler.Create)

		dev.GET("/blacklist", r.blacklistHandler.List)
		dev.POST("/blacklist", r.blacklistHandler.Create)
		dev.DELETE("/blacklist/:id", r.blacklistHandler.Delete)

		dev.GET("/stats", r.statsHandler.Get)
	}
}
