package handler

import (
	"github.com/labstack/echo/v4"

	"tradepost/internal/usecase"
	"tradepost/pkg/errors"
	"tradepost/pkg/response"
	"tradepost/pkg/utils"
)

type TradeHandler struct {
	historyUseCase *usecase.HistoryUseCase
}

func NewTradeHandler(historyUseCase *usecase.HistoryUseCase) *TradeHandler {
	return &TradeHandler{
		historyUseCase: historyUseCase,
	}
}

func (h *TradeHandler) ListHistory(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	records, total, err := h.historyUseCase.ListHistory(c.Request().Context(), userID, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, records, total, pagination.Page, pagination.PageSize)
}

type rateTradeRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty"`
}

func (h *TradeHandler) RateTrade(c echo.Context) error {
	historyID := c.Param("id")
	if historyID == "" {
		return response.Error(c, errors.BadRequest("History ID is required", nil))
	}

	var req rateTradeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	if err := h.historyUseCase.RateTrade(c.Request().Context(), userID, historyID, req.Rating, req.Comment); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"rated": true})
}

func (h *TradeHandler) PendingRatingCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.historyUseCase.PendingRatingCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"count": count})
}
