package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/salonbook/webapp/docs"
	"github.com/salonbook/webapp/internal/api/handler"
	"github.com/salonbook/webapp/internal/api/middleware"
	"github.com/salonbook/webapp/internal/core/domain"
	"github.com/salonbook/webapp/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers. Mongo and Redis
// are optional and only feed the readiness check.
type Deps struct {
	Sessions ports.SessionProvider
	Storage  ports.StorageBackend
	Themes   ports.ThemeBroadcaster
	Session  middleware.SessionOptions
	Mongo    *mongo.Database
	Redis    *redis.Client
	Log      zerolog.Logger
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
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.Secure())

	// --- Handlers ---
	authHandler := handler.NewAuthHandler()
	pageHandler := handler.NewPageHandler()
	themeHandler := handler.NewThemeHandler(d.Storage, d.Themes, d.Log)
	session := middleware.Session(d.Sessions, d.Session)

	// --- Role redirect resolver ---
	e.GET("/", pageHandler.Home, session)
	e.GET(domain.RouteDashboard, pageHandler.Home, session)

	// --- Guest pages ---
	e.GET(domain.RouteLogin, pageHandler.Login, session, middleware.GuestOnly())
	e.GET(domain.RouteRegister, pageHandler.Register, session, middleware.GuestOnly())
	e.GET(domain.RouteChangePassword, pageHandler.ChangePassword, session)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login, session, middleware.GuestOnly())
	e.POST("/auth/register", authHandler.Register, session, middleware.GuestOnly())
	e.POST("/auth/logout", authHandler.Logout, session)
	e.GET("/auth/me", authHandler.Me, session, middleware.RequireAuth())
	e.PUT("/auth/profile", authHandler.UpdateProfile, session, middleware.RequireAuth())
	e.POST("/auth/business/refresh", authHandler.RefreshBusiness, session,
		middleware.RequireAuth(domain.RoleBusinessOwner, domain.RoleStaff))

	// --- Dashboards, one per role ---
	for role, path := range domain.Dashboards() {
		e.GET(path, pageHandler.Dashboard(role), session, middleware.RequireAuth(role))
	}

	// --- Theme side-channel ---
	e.GET("/theme", themeHandler.Current, session)
	e.GET("/theme/events", themeHandler.Events, session)

	// --- Ops (no session) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(handler.MongoCheck(d.Mongo), handler.RedisCheck(d.Redis))

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
