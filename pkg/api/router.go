package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/urmzd/nxbridge/docs"
	"github.com/urmzd/nxbridge/pkg/api/handlers"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/device/schema"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine     *gin.Engine
	controller device.Controller
	subscriber device.EventSubscriber
	validator  *schema.Validator
	labels     db.LabelStore
	history    db.EventStore
}

// NewRouter creates a new API router. labels and history may be nil when
// no database is configured; the endpoints that need them reply 503.
func NewRouter(
	controller device.Controller,
	subscriber device.EventSubscriber,
	validator *schema.Validator,
	labels db.LabelStore,
	history db.EventStore,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:     engine,
		controller: controller,
		subscriber: subscriber,
		validator:  validator,
		labels:     labels,
		history:    history,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(r.controller)
	r.engine.GET("/health", healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		devicesHandler := handlers.NewDevicesHandler(r.controller, r.labels)
		controlHandler := handlers.NewControlHandler(r.controller, r.validator)
		devices := v1.Group("/devices")
		{
			devices.GET("", devicesHandler.ListDevices)
			devices.GET("/:kind/:id", devicesHandler.GetDevice)
			devices.PATCH("/:kind/:id", devicesHandler.RenameDevice)
			devices.GET("/:kind/:id/attributes/:attribute", controlHandler.QueryAttribute)
		}

		v1.POST("/commands", controlHandler.SendCommand)

		eventsHandler := handlers.NewEventsHandler(r.subscriber, r.history)
		events := v1.Group("/events")
		{
			events.GET("", eventsHandler.History)
			events.GET("/stream", eventsHandler.Stream)
			events.GET("/ws", eventsHandler.WebSocket)
		}
	}
}

// Handler returns the router as an http.Handler for use with http.Server.
func (r *Router) Handler() http.Handler {
	return r.engine
}
