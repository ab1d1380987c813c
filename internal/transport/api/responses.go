package api

import (
	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/transport/api/middlewares"
)

const statusSuccess = "success"

// StatusResponse тело ответа денежных операций.
type StatusResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	TransactionID *int64 `json:"transaction_id,omitempty"`
	Balance       string `json:"balance,omitempty"`
}

func errorResponse(msg string) StatusResponse {
	return StatusResponse{Status: middlewares.StatusError, Message: msg}
}

func transactionResponse(transaction *domain.Transaction, msg string) StatusResponse {
	id := transaction.ID
	return StatusResponse{Status: statusSuccess, Message: msg, TransactionID: &id}
}
