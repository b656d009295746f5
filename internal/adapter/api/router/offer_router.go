package router

import (
	"github.com/labstack/echo/v4"

	"tradepost/internal/adapter/api/handler"
	"tradepost/internal/adapter/api/middleware"
)

// SetupOfferRouter initializes trade offer routes
func SetupOfferRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	offerHandler := handler.GetOfferHandler()

	offers := e.Group("/v1/offers")
	offers.Use(authMiddleware.Authenticate)

	offers.POST("", offerHandler.CreateOffer)
	offers.GET("/market", offerHandler.ListMarket)
	offers.GET("/mine", offerHandler.ListMine)
	offers.GET("/:id", offerHandler.GetOffer)
	offers.POST("/:id/cancel", offerHandler.CancelOffer)
	offers.POST("/:id/accept", offerHandler.AcceptOffer)
}
