package router

import (
	"github.com/labstack/echo/v4"

	"tradepost/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupOfferRouter(e, authMiddleware)
	SetupTradeRouter(e, authMiddleware)
	SetupHealthRouter(e)
}
