package router

import (
	"github.com/labstack/echo/v4"

	"tradepost/internal/adapter/api/handler"
	"tradepost/internal/adapter/api/middleware"
)

// SetupTradeRouter initializes trade history and rating routes
func SetupTradeRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	tradeHandler := handler.GetTradeHandler()

	trades := e.Group("/v1/trades")
	trades.Use(authMiddleware.Authenticate)

	trades.GET("", tradeHandler.ListHistory)
	trades.GET("/pending-ratings/count", tradeHandler.PendingRatingCount)
	trades.POST("/:id/rate", tradeHandler.RateTrade)
}
