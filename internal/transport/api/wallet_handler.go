package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	svs TransactionServicer
}

func NewWalletHandler(svs TransactionServicer) *WalletHandler {
	return &WalletHandler{svs: svs}
}

type TopUpParams struct {
	UserID string           `binding:"required" json:"userId"`
	Amount *decimal.Decimal `binding:"required" json:"amount"`
}

// TopUp POST RouteGroup + TopUpRoute. Пополнение собственного счета.
func (h *WalletHandler) TopUp(c *gin.Context) {
	var params TopUpParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}
	userID, ok := checkSubject(c, params.UserID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transaction, err := h.svs.TopUp(ctx, service.TopUpArgs{
		UserID:         userID,
		Amount:         *params.Amount,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	h.respond(c, transaction, err, "top-up completed")
}

type TransferParams struct {
	SenderID       string           `binding:"required"                     json:"senderId"`
	RecipientEmail string           `binding:"required,email,max_bytes=255" json:"recipientEmail"`
	Amount         *decimal.Decimal `binding:"required"                     json:"amount"`
}

// Transfer POST RouteGroup + TransferRoute. Перевод другому пользователю по email.
func (h *WalletHandler) Transfer(c *gin.Context) {
	var params TransferParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}
	senderID, ok := checkSubject(c, params.SenderID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transaction, err := h.svs.Transfer(ctx, service.TransferArgs{
		SenderID:       senderID,
		RecipientEmail: params.RecipientEmail,
		Amount:         *params.Amount,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	h.respond(c, transaction, err, "transfer completed")
}

type PurchaseParams struct {
	BuyerID       string           `binding:"required"                     json:"buyerId"`
	MerchantEmail string           `binding:"required,email,max_bytes=255" json:"merchantEmail"`
	Amount        *decimal.Decimal `binding:"required"                     json:"amount"`
}

// Purchase POST RouteGroup + PurchaseRoute. Оплата мерчанту.
func (h *WalletHandler) Purchase(c *gin.Context) {
	var params PurchaseParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}
	buyerID, ok := checkSubject(c, params.BuyerID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transaction, err := h.svs.Purchase(ctx, service.PurchaseArgs{
		BuyerID:        buyerID,
		MerchantEmail:  params.MerchantEmail,
		Amount:         *params.Amount,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	h.respond(c, transaction, err, "purchase completed")
}

func (h *WalletHandler) respond(c *gin.Context, transaction *domain.Transaction, err error, msg string) {
	if err != nil {
		// повтор с тем же ключом идемпотентности: деньги уже переведены, отдаем исходную транзакцию
		var dupErr *domain.DuplicateTransactionError
		if errors.As(err, &dupErr) {
			c.JSON(http.StatusOK, transactionResponse(dupErr.Transaction, "already processed"))
			return
		}
		abortWithServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionResponse(transaction, msg))
}
