package repoargs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateAccount struct {
	UserID   uuid.UUID
	Currency string
	IsSystem bool
}

// AccountBalanceSum сохраненный баланс счета и сумма его проводок со знаком.
type AccountBalanceSum struct {
	AccountID int64
	Balance   decimal.Decimal
	EntrySum  decimal.Decimal
}
