package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/service"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accounts AccountServicer
	history  HistoryServicer
}

func NewAccountHandler(accounts AccountServicer, history HistoryServicer) *AccountHandler {
	return &AccountHandler{accounts: accounts, history: history}
}

type BalanceResponse struct {
	Status   string `json:"status"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// Balance GET RouteGroup + BalanceRoute.
func (h *AccountHandler) Balance(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	account, err := h.accounts.GetBalance(reqCtx, currentUserID)
	if err != nil {
		abortWithServiceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		Status:   statusSuccess,
		Balance:  domain.FormatAmount(account.Balance),
		Currency: account.Currency,
	})
}

type HistoryParams struct {
	Limit  uint  `binding:"omitempty,min=1,max=200" form:"limit"`
	Before int64 `binding:"omitempty,min=1"         form:"before"`
}

type HistoryItemResponse struct {
	EntryID          int64  `json:"entryId"`
	TransactionID    int64  `json:"transactionId"`
	Type             string `json:"type"`
	EntryType        string `json:"entryType"`
	Amount           string `json:"amount"`
	Status           string `json:"status"`
	Counterparty     string `json:"counterparty"`
	SystemOriginated bool   `json:"systemOriginated"`
	CreatedAt        string `json:"createdAt"`
}

type HistoryResponse struct {
	Status string                `json:"status"`
	Items  []HistoryItemResponse `json:"items"`
	// NextBefore курсор следующей страницы. Отсутствует, если страница неполная.
	NextBefore *int64 `json:"nextBefore,omitempty"`
}

// History GET RouteGroup + HistoryRoute. Проводки пользователя от новых к старым.
func (h *AccountHandler) History(c *gin.Context) {
	var params HistoryParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}
	currentUserID := getUserIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	items, err := h.history.ListEntries(reqCtx, service.ListHistoryArgs{
		UserID:        currentUserID,
		Limit:         params.Limit,
		BeforeEntryID: params.Before,
	})
	if err != nil {
		abortWithServiceErr(c, err)
		return
	}

	response := HistoryResponse{Status: statusSuccess, Items: make([]HistoryItemResponse, len(items))}
	for i, item := range items {
		counterparty := item.CounterpartyEmail
		if item.SystemOriginated {
			counterparty = domain.SystemCounterpartyLabel
		}
		response.Items[i] = HistoryItemResponse{
			EntryID:          item.Entry.ID,
			TransactionID:    item.Transaction.ID,
			Type:             string(item.Transaction.Type),
			EntryType:        string(item.Entry.EntryType),
			Amount:           domain.FormatAmount(item.Entry.Amount),
			Status:           string(item.Transaction.Status),
			Counterparty:     counterparty,
			SystemOriginated: item.SystemOriginated,
			CreatedAt:        item.Entry.CreatedAt.Format(time.RFC3339),
		}
	}

	limit := params.Limit
	if limit == 0 {
		limit = service.DefaultHistoryLimit
	}
	if len(items) > 0 && uint(len(items)) == limit {
		next := items[len(items)-1].Entry.ID
		response.NextBefore = &next
	}
	c.JSON(http.StatusOK, response)
}
