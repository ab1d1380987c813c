package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SystemUserID идентификатор системного пользователя, владельца счетов внешнего пополнения.
// Запись создается миграцией.
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

const (
	SystemUserEmail = "system@wallet.local"
	// SystemCounterpartyLabel подпись контрагента для проводок, пришедших извне леджера.
	SystemCounterpartyLabel = "System/Bank"
)

type User struct {
	ID                uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Email             string
	FullName          string
	EncryptedPassword string
	IsSystem          bool
}

type Account struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uuid.UUID
	Currency  string
	Balance   decimal.Decimal
	IsSystem  bool
}

type Transaction struct {
	ID             int64
	CreatedAt      time.Time
	Type           TransactionType
	InitiatorID    uuid.UUID
	Amount         decimal.Decimal
	Status         TransactionStatus
	IdempotencyKey string
}

type LedgerEntry struct {
	ID            int64
	CreatedAt     time.Time
	TransactionID int64
	AccountID     int64
	EntryType     EntryType
	Amount        decimal.Decimal
}

// SignedAmount сумма проводки со знаком, с которым она входит в баланс счета.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	return e.Amount.Mul(decimal.NewFromInt(e.EntryType.Sign()))
}

// Leg одна сторона транзакции до записи в леджер.
type Leg struct {
	AccountID int64
	EntryType EntryType
	Amount    decimal.Decimal
}

func (l Leg) SignedAmount() decimal.Decimal {
	return l.Amount.Mul(decimal.NewFromInt(l.EntryType.Sign()))
}

// HistoryItem проводка пользователя вместе с транзакцией и разрешенным контрагентом.
type HistoryItem struct {
	Entry             LedgerEntry
	Transaction       Transaction
	InitiatorEmail    string
	CounterpartyEmail string
	SystemOriginated  bool
}
