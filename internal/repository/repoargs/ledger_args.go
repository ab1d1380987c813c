package repoargs

import (
	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateTransaction struct {
	Type           domain.TransactionType
	InitiatorID    uuid.UUID
	Amount         decimal.Decimal
	Status         domain.TransactionStatus
	IdempotencyKey string
}

type CreateEntry struct {
	TransactionID int64
	AccountID     int64
	EntryType     domain.EntryType
	Amount        decimal.Decimal
}

// EntryBatchQueryRow вызывается для каждой вставленной проводки пакета в порядке аргументов.
type EntryBatchQueryRow func(i int, entry *domain.LedgerEntry, err error)

type ListHistory struct {
	AccountID int64
	Limit     uint
	// BeforeID курсор: выбираются проводки с id строго меньше. 0 означает первую страницу.
	BeforeID int64
}

// HistoryRow проводка со своей транзакцией и владельцами сторон, как ее возвращает хранилище.
type HistoryRow struct {
	Entry              domain.LedgerEntry
	Transaction        domain.Transaction
	InitiatorEmail     string
	CounterpartyUserID uuid.UUID
	CounterpartyEmail  string
}

// UnbalancedTransaction транзакция, у которой сумма кредитов не равна сумме дебетов.
type UnbalancedTransaction struct {
	TransactionID int64
	CreditSum     decimal.Decimal
	DebitSum      decimal.Decimal
}
