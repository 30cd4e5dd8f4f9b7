package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/taskdesk/todo-service/internal/api/handler"
	"github.com/taskdesk/todo-service/internal/api/middleware"
	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"

	_ "github.com/taskdesk/todo-service/docs"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth      ports.AuthService
	Todos     ports.TodoService
	Profile   ports.ProfileService
	Admin     ports.AdminService
	Sessions  middleware.SessionProvider
	Readiness map[string]handler.Pinger

	Location       *time.Location
	AllowedOrigins []string
	AuthLimiter    *middleware.RateLimiter
	Log            zerolog.Logger

	// Metrics defaults to the process-wide Prometheus registry.
	Metrics MetricsRegistry
}

// MetricsRegistry is where HTTP metrics are registered and scraped from.
type MetricsRegistry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

type defaultRegistry struct {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	metrics := d.Metrics
	if metrics == nil {
		metrics = defaultRegistry{prometheus.DefaultRegisterer, prometheus.DefaultGatherer}
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "todo_http",
		Registerer: metrics,
	}))

	// --- Ops (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Readiness).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: metrics}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth (public) ---
	authHandler := handler.NewAuthHandler(d.Auth)
	public := e.Group("/auth")
	if d.AuthLimiter != nil {
		public.Use(d.AuthLimiter.Middleware())
	}
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/google", authHandler.Google)
	public.POST("/password/reset", authHandler.RequestReset)
	public.POST("/password/update", authHandler.UpdatePassword)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Auth(d.Auth))
	v1.POST("/auth/logout", authHandler.Logout)

	live := v1.Group("", middleware.Session(d.Sessions))
	can := middleware.RequireCapability

	todoHandler := handler.NewTodoHandler(d.Todos, d.Location)
	todos := live.Group("/todos", can(domain.ActionManageTodos))
	todos.GET("", todoHandler.List)
	todos.POST("", todoHandler.Create)
	todos.GET("/:id", todoHandler.Get)
	todos.PUT("/:id", todoHandler.Update)
	todos.PATCH("/:id/completed", todoHandler.Toggle)
	todos.DELETE("/:id", todoHandler.Delete)

	dashboardHandler := handler.NewDashboardHandler(d.Todos, d.Admin)
	live.GET("/dashboard/stats", dashboardHandler.Stats, can(domain.ActionManageTodos))

	profileHandler := handler.NewProfileHandler(d.Profile)
	me := live.Group("/me", can(domain.ActionManageProfile))
	me.GET("", profileHandler.Get)
	me.PUT("", profileHandler.Update)
	me.POST("/avatar", profileHandler.UploadAvatar)

	notificationHandler := handler.NewNotificationHandler()
	notifications := live.Group("/notifications", can(domain.ActionReadNotifications))
	notifications.GET("", notificationHandler.List)
	notifications.DELETE("", notificationHandler.Clear)
	notifications.GET("/unread", notificationHandler.Unread)
	notifications.GET("/stream", notificationHandler.Stream)
	notifications.POST("/refresh", notificationHandler.Refresh)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)
	notifications.POST("/drawer", notificationHandler.OpenDrawer)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	adminHandler := handler.NewAdminHandler(d.Admin)
	admin := live.Group("/admin")
	admin.GET("/users/count", adminHandler.CountUsers, can(domain.ActionCountUsers))
	admin.PUT("/users/:id/role", adminHandler.UpdateRole, can(domain.ActionManageRoles))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
