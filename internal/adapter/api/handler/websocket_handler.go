package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"tradepost/internal/adapter/api/middleware"
	ws "tradepost/internal/infrastructure/websocket"
	"tradepost/pkg/errors"
)

// MarketFeedHandler upgrades authenticated clients onto the market feed.
type MarketFeedHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production
	},
}

func NewMarketFeedHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware) *MarketFeedHandler {
	return &MarketFeedHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
	}
}

// HandleMarketFeed authenticates via the token query parameter (browsers
// cannot set headers on websocket upgrades) and joins the feed.
func (h *MarketFeedHandler) HandleMarketFeed(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.wsManager)

	return nil
}
