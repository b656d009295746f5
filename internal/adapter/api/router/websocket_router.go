package router

import (
	"github.com/labstack/echo/v4"

	"tradepost/internal/adapter/api/handler"
)

func SetupMarketFeedRouter(e *echo.Echo, feedHandler *handler.MarketFeedHandler) {
	e.GET("/v1/ws/market", feedHandler.HandleMarketFeed)
}
