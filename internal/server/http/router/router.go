package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/metrics"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/handlers"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.MarketplaceFacade, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	var observer middleware.RequestObserver
	if m != nil {
		observer = m
	}
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger, observer))
	engine.Use(middleware.CORS(cfg.CORSAllowOrigins))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	offerHandler := handlers.NewOfferHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	walletHandler := handlers.NewWalletHandler(facade)
	notificationHandler := handlers.NewNotificationHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)
	if m != nil {
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := engine.Group("/api")
	api.POST("/payments/webhook", paymentHandler.Webhook)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))

	offers := authed.Group("/offers")
	offers.POST("", offerHandler.Create)
	offers.GET("", offerHandler.List)
	offers.GET("/:id", offerHandler.Get)
	offers.POST("/:id/counter", offerHandler.Counter)
	offers.POST("/:id/accept", offerHandler.Accept)
	offers.POST("/:id/reject", offerHandler.Reject)
	offers.POST("/:id/withdraw", offerHandler.Withdraw)

	orders := authed.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.PATCH("/:id/production", orderHandler.UpdateProduction)
	orders.POST("/:id/status", orderHandler.AdvanceStatus)
	orders.POST("/:id/ship", orderHandler.Ship)
	orders.POST("/:id/delivered", orderHandler.Delivered)
	orders.POST("/:id/confirm", orderHandler.Confirm)
	orders.POST("/:id/dispute", orderHandler.Dispute)
	orders.POST("/:id/cancel", orderHandler.Cancel)

	wallet := authed.Group("/wallet")
	wallet.GET("", walletHandler.Summary)
	wallet.GET("/transactions", walletHandler.Transactions)
	wallet.POST("/withdraw", walletHandler.Withdraw)
	wallet.GET("/verify", walletHandler.Verify)

	authed.GET("/fees/preview", walletHandler.FeePreview)
	authed.GET("/notifications", notificationHandler.List)

	return engine
}
