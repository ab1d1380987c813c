package domain

type TransactionType string

const (
	TransactionTypeTopUp    TransactionType = "TOP_UP"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypePurchase TransactionType = "PURCHASE"
)

// IsValid сообщает, относится ли значение к закрытому набору типов транзакций.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopUp, TransactionTypeTransfer, TransactionTypePurchase:
		return true
	default:
		return false
	}
}

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

func (s TransactionStatus) IsValid() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// EntryType сторона проводки. DEBIT уменьшает баланс счета, CREDIT увеличивает.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

func (e EntryType) IsValid() bool {
	return e == EntryTypeDebit || e == EntryTypeCredit
}

// Sign возвращает знак, с которым сумма проводки влияет на баланс: -1 для DEBIT, 1 для CREDIT
// и 0 для неизвестного значения.
func (e EntryType) Sign() int64 {
	switch e {
	case EntryTypeDebit:
		return -1
	case EntryTypeCredit:
		return 1
	default:
		return 0
	}
}

// Opposite возвращает противоположную сторону проводки.
func (e EntryType) Opposite() EntryType {
	if e == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}
