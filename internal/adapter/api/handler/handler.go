package handler

import (
	"tradepost/internal/usecase"
)

var (
	offerHandler *OfferHandler
	tradeHandler *TradeHandler
)

func Setup(
	offerUseCase *usecase.OfferUseCase,
	settlementUseCase *usecase.SettlementUseCase,
	historyUseCase *usecase.HistoryUseCase,
) {
	offerHandler = NewOfferHandler(offerUseCase, settlementUseCase)
	tradeHandler = NewTradeHandler(historyUseCase)
}

func GetOfferHandler() *OfferHandler {
	return offerHandler
}

func GetTradeHandler() *TradeHandler {
	return tradeHandler
}
