package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"

	"tixengine/cmd/middleware"
	"tixengine/internal/handler"
)

type Routers struct {
	Handler *handler.Handler
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/orders", r.Handler.CreateOrder)
	apiGroup.POST("/payments/callback", r.Handler.PaymentCallback)
	apiGroup.POST("/scan", r.Handler.Scan)
	apiGroup.POST("/refunds", r.Handler.Refund)
	apiGroup.POST("/payout-requests", r.Handler.RequestPayout)
	apiGroup.POST("/payouts/:id/approve", r.Handler.ApprovePayout)
	apiGroup.GET("/partners/:id/dashboard", r.Handler.Dashboard)

	apiGroup.POST("/events", r.Handler.CreateEvent)
	apiGroup.POST("/events/:id/tiers", r.Handler.CreateTier)
	apiGroup.POST("/events/:id/promos", r.Handler.CreatePromo)

	app.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return app
}
