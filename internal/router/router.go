package router

import (
	"inspector/config"
	"inspector/internal/handler"
	"inspector/internal/middleware"
	"inspector/internal/telemetry"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewRouter,
	NewHealthRouter,
	NewInspectorRouter,
)

// 透過依賴注入將 middleware 與各子路由組裝成 gin.Engine
func NewRouter(
	config *config.Configuration,
	metric *telemetry.Metric,
	traceEntry *middleware.TraceEntry,
	recorder *middleware.Recorder,
	logger *middleware.Logger,
	cors *middleware.Cors,
	recovery *middleware.Recovery,
	healthRouter *HealthRouter,
	inspectorRouter *InspectorRouter,
	staticHandler *handler.StaticHandler,
) *gin.Engine {

	switch config.App.Env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	// 只看 socket 位址，不信任 X-Forwarded-For
	_ = router.SetTrustedProxies(nil)

	router.Use(traceEntry.Handler())
	// recorder 在 recovery 外層：panic 轉成的 500 也會被記錄
	router.Use(recorder.Handler())
	router.Use(logger.LoggerHandler())
	router.Use(cors.CorsHandler())
	router.Use(recovery.ErrorHandler())

	router.GET("/metrics", gin.WrapH(metric.Handler()))

	healthRouter.RegisterHealthRoutes(router)
	inspectorRouter.RegisterRoutes(router)
	router.NoRoute(staticHandler.Fallback)

	if config.App.PprofEnabled {
		pprof.Register(router)
	}
	return router
}
