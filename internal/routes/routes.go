// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"print-bridge/internal/config"
	"print-bridge/internal/handler"
	"print-bridge/internal/middleware"
	"print-bridge/internal/service"
	"print-bridge/internal/utils"
)

// NotFoundHint is returned with every 404
const NotFoundHint = "Use POST /print"

// Router holds all dependencies for routing
type Router struct {
	config           *config.Config
	logger           *zap.Logger
	printService     *service.PrintService
	discoveryService *service.DiscoveryService
	wsHandler        *handler.WebSocketHandler
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	printService *service.PrintService,
	discoveryService *service.DiscoveryService,
	wsHandler *handler.WebSocketHandler,
) *Router {
	return &Router{
		config:           config,
		logger:           logger,
		printService:     printService,
		discoveryService: discoveryService,
		wsHandler:        wsHandler,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	r.addMiddleware(router)
	r.addRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		utils.NotFoundResponse(c, NotFoundHint)
	})

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.LoggingMiddleware(utils.NewServiceLogger(r.logger, "http-server")))
	router.Use(middleware.CORSMiddleware(&r.config.Security))
	router.Use(middleware.BodyLimitMiddleware(r.config.Server.MaxBodyBytes))

	r.logger.Debug("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.printService, r.config, r.logger)
	printHandler := handler.NewPrintHandler(r.printService, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.discoveryService, r.logger)

	// Health checks stay unauthenticated for orchestrators
	healthHandler.RegisterRoutes(router)

	secured := router.Group("")
	secured.Use(middleware.AuthMiddleware(&r.config.Security, utils.NewSecurityLogger(r.logger)))
	{
		// Unversioned endpoint used by point of sale clients
		secured.POST("/print", printHandler.Print)

		apiV1 := secured.Group("/api/v1")
		printHandler.RegisterRoutes(apiV1)
		discoveryHandler.RegisterRoutes(apiV1)

		if r.wsHandler != nil {
			r.wsHandler.RegisterRoutes(secured)
		}
	}

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
