package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/liveclass/backend/internal/auth"
	"github.com/liveclass/backend/internal/meetings"
	"github.com/liveclass/backend/internal/middleware"
	"github.com/liveclass/backend/internal/recordings"
	"github.com/liveclass/backend/internal/sessions"
	"github.com/liveclass/backend/pkg/response"
)

// Routes is implemented by the domain handlers.
type Routes interface {
	Register(rg gin.IRoutes)
}

// NewRouter builds the gin engine. /health and /metrics are public; everything else requires a
// bearer token when jwtService is non-nil.
func NewRouter(corsOrigins string, jwtService *auth.JWTService, logger *zap.Logger, routes ...Routes) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(corsOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	if jwtService != nil {
		api.Use(middleware.JWT(jwtService))
	}
	for _, r := range routes {
		r.Register(api)
	}
	return router
}

// Router returns the API router for the app's services. Auth is enabled only when JWT_SECRET is set.
func (a *App) Router() *gin.Engine {
	var jwtService *auth.JWTService
	if a.Config.JWT.Secret != "" {
		jwtService = a.JWT
	} else {
		a.Logger.Warn("JWT_SECRET not set; API is unauthenticated")
	}
	return NewRouter(a.Config.Server.CORSAllowedOrigins, jwtService, a.Logger,
		sessions.NewHandler(a.Sessions),
		meetings.NewHandler(a.Meetings),
		recordings.NewHandler(a.Pipeline, a.Logger),
	)
}
