package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPasswordMissMatch = errors.New("password mismatch")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknown           = errors.New("unknown error")

	ErrInvalidAmount          = errors.New("invalid amount")
	ErrAccountNotFound        = errors.New("account not found")
	ErrRecipientNotFound      = errors.New("recipient not found")
	ErrMerchantNotFound       = errors.New("merchant not found")
	ErrSelfTransferNotAllowed = errors.New("transfer to own account is not allowed")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrIdempotencyKeyConflict = errors.New("idempotency key already used for another operation")

	// ErrImbalancedEntry нарушение контракта двойной записи. Валидный вызывающий код его не получает,
	// поэтому наружу он отдается только как внутренняя ошибка.
	ErrImbalancedEntry = errors.New("imbalanced ledger entry")

	// ErrStorageUnavailable временная ошибка хранилища. Ничего не было зафиксировано, повтор безопасен.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InsufficientFundsError детализирует нехватку средств на счете.
type InsufficientFundsError struct {
	AccountID int64
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds on account %d: available %s, requested %s, shortfall %s",
		e.AccountID,
		e.Available.StringFixed(AmountScale),
		e.Requested.StringFixed(AmountScale),
		e.Shortfall().StringFixed(AmountScale),
	)
}

func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// DuplicateTransactionError возвращается при повторе операции с уже использованным ключом идемпотентности.
// Transaction содержит ранее зафиксированную транзакцию.
type DuplicateTransactionError struct {
	Transaction *Transaction
}

func NewDuplicateTransactionError(transaction *Transaction) error {
	return &DuplicateTransactionError{Transaction: transaction}
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf(
		"transaction with idempotency key %s already exists for user %s",
		e.Transaction.IdempotencyKey,
		e.Transaction.InitiatorID,
	)
}

// IsBusinessError сообщает, является ли ошибка отказом по бизнес-правилу. Такие ошибки отдаются
// вызывающему как результат операции и никогда не повторяются автоматически.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrRecipientNotFound) ||
		errors.Is(err, ErrMerchantNotFound) ||
		errors.Is(err, ErrSelfTransferNotAllowed) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrIdempotencyKeyConflict)
}
