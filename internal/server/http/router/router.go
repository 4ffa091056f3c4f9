package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	pkgAuth "github.com/polkiloo/orderpay/internal/pkg/auth"
	"github.com/polkiloo/orderpay/internal/server/http/handlers"
	"github.com/polkiloo/orderpay/internal/server/http/middleware"
	"github.com/polkiloo/orderpay/internal/telemetry"
)

// Params lists router dependencies.
type Params struct {
	fx.In

	Facade         handlers.OrderPayFacade
	Verifier       pkgAuth.TokenVerifier
	Gatherer       prometheus.Gatherer
	TracerProvider trace.TracerProvider
	Logger         *zap.Logger
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(otelgin.Middleware(telemetry.ServiceName, otelgin.WithTracerProvider(p.TracerProvider)))
	engine.Use(middleware.RequestLogger(p.Logger.Named("http")))
	engine.Use(middleware.DecompressRequest(middleware.DefaultBodyLimit))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	checkoutHandler := handlers.NewCheckoutHandler(p.Facade)
	callbackHandler := handlers.NewCallbackHandler(p.Facade)
	adminHandler := handlers.NewAdminHandler(p.Facade)
	healthHandler := handlers.NewHealthHandler(p.Facade)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{})))

	api := engine.Group("/api")
	api.POST("/orders", checkoutHandler.CreateOrder)
	api.POST("/orders/:number/payments", checkoutHandler.InitiatePayment)
	api.POST("/orders/:number/payments/:reference/retry", checkoutHandler.RetryPayment)
	api.GET("/orders/:number/tracking", checkoutHandler.Tracking)

	engine.POST("/payments/callback/:gateway", callbackHandler.Handle)

	admin := engine.Group("/admin")
	admin.Use(middleware.AdminRequired(p.Verifier))
	admin.GET("/orders/:number", adminHandler.Order)
	admin.GET("/orders/:number/payments", adminHandler.Payments)
	admin.GET("/orders/:number/timeline", adminHandler.Timeline)
	admin.POST("/orders/:number/stage", adminHandler.Stage)
	admin.POST("/orders/:number/items/:item/stage", adminHandler.ItemStage)
	admin.POST("/orders/:number/milestones", adminHandler.Milestone)
	admin.GET("/payments/:reference", adminHandler.Payment)

	return engine
}
