package handler

import (
	"github.com/labstack/echo/v4"

	"tradepost/internal/domain/entity"
	"tradepost/internal/usecase"
	"tradepost/pkg/errors"
	"tradepost/pkg/response"
	"tradepost/pkg/utils"
)

type OfferHandler struct {
	offerUseCase      *usecase.OfferUseCase
	settlementUseCase *usecase.SettlementUseCase
}

func NewOfferHandler(offerUseCase *usecase.OfferUseCase, settlementUseCase *usecase.SettlementUseCase) *OfferHandler {
	return &OfferHandler{
		offerUseCase:      offerUseCase,
		settlementUseCase: settlementUseCase,
	}
}

type itemStackRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	ItemType string `json:"item_type" validate:"required,oneof=normal ai"`
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Category string `json:"category,omitempty"`
	Rarity   string `json:"rarity,omitempty"`
	Icon     string `json:"icon,omitempty"`
}

func (r itemStackRequest) toStack() entity.ItemStack {
	return entity.ItemStack{
		ItemID:   r.ItemID,
		ItemType: r.ItemType,
		Name:     r.Name,
		Quantity: r.Quantity,
		Category: r.Category,
		Rarity:   r.Rarity,
		Icon:     r.Icon,
	}
}

func toStacks(reqs []itemStackRequest) []entity.ItemStack {
	if len(reqs) == 0 {
		return nil
	}
	stacks := make([]entity.ItemStack, len(reqs))
	for i, r := range reqs {
		stacks[i] = r.toStack()
	}
	return stacks
}

type createOfferRequest struct {
	OfferingItems   []itemStackRequest `json:"offering_items" validate:"required,min=1,dive"`
	RequestingItems []itemStackRequest `json:"requesting_items,omitempty" validate:"omitempty,dive"`
	ExpiresHours    int                `json:"expires_hours" validate:"required,oneof=6 12 24 48 72"`
	Message         string             `json:"message,omitempty"`
}

func (h *OfferHandler) CreateOffer(c echo.Context) error {
	var req createOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	offer, err := h.offerUseCase.CreateOffer(c.Request().Context(), userID, usecase.CreateOfferInput{
		OfferingItems:   toStacks(req.OfferingItems),
		RequestingItems: toStacks(req.RequestingItems),
		ExpiresHours:    req.ExpiresHours,
		Message:         req.Message,
	})

	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, offer)
}

func (h *OfferHandler) ListMarket(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	offers, total, err := h.offerUseCase.ListMarket(c.Request().Context(), userID, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, offers, total, pagination.Page, pagination.PageSize)
}

func (h *OfferHandler) ListMine(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	offers, total, err := h.offerUseCase.ListMine(c.Request().Context(), userID, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, offers, total, pagination.Page, pagination.PageSize)
}

func (h *OfferHandler) GetOffer(c echo.Context) error {
	offerID := c.Param("id")
	if offerID == "" {
		return response.Error(c, errors.BadRequest("Offer ID is required", nil))
	}

	offer, err := h.offerUseCase.GetOffer(c.Request().Context(), offerID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, offer)
}

func (h *OfferHandler) CancelOffer(c echo.Context) error {
	offerID := c.Param("id")
	if offerID == "" {
		return response.Error(c, errors.BadRequest("Offer ID is required", nil))
	}

	userID := c.Get("uid").(string)

	if err := h.offerUseCase.CancelOffer(c.Request().Context(), userID, offerID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": entity.OfferStatusCancelled})
}

type acceptOfferRequest struct {
	BuyerItems []itemStackRequest `json:"buyer_items,omitempty" validate:"omitempty,dive"`
}

func (h *OfferHandler) AcceptOffer(c echo.Context) error {
	offerID := c.Param("id")
	if offerID == "" {
		return response.Error(c, errors.BadRequest("Offer ID is required", nil))
	}

	var req acceptOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	history, err := h.settlementUseCase.AcceptOffer(c.Request().Context(), userID, offerID, toStacks(req.BuyerItems))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"history_id": history.ID})
}
