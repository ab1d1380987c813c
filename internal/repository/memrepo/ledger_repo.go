package memrepo

import (
	"context"
	"fmt"
	"slices"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/google/uuid"
)

type LedgerRepository struct {
	acc accessor
}

func (l *LedgerRepository) CreateTransaction(
	_ context.Context,
	args repoargs.CreateTransaction,
) (*domain.Transaction, error) {
	var transaction domain.Transaction
	err := l.acc.write(func(st *state) error {
		if args.IdempotencyKey != "" {
			if _, ok := findByIdempotencyKey(st, args.InitiatorID, args.IdempotencyKey); ok {
				return fmt.Errorf("[memrepo/creating %s transaction] %w: idempotency key %s",
					args.Type, domain.ErrDuplicateKey, args.IdempotencyKey)
			}
		}
		st.lastTxID++
		transaction = domain.Transaction{
			ID:             st.lastTxID,
			CreatedAt:      l.acc.now(),
			Type:           args.Type,
			InitiatorID:    args.InitiatorID,
			Amount:         args.Amount,
			Status:         args.Status,
			IdempotencyKey: args.IdempotencyKey,
		}
		st.transactions[transaction.ID] = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// CreateEntries добавляет проводки. Ошибка любой проводки отменяет весь пакет.
func (l *LedgerRepository) CreateEntries(
	_ context.Context,
	entries []repoargs.CreateEntry,
	fn repoargs.EntryBatchQueryRow,
) error {
	created := make([]domain.LedgerEntry, 0, len(entries))
	err := l.acc.write(func(st *state) error {
		for _, args := range entries {
			if _, ok := st.transactions[args.TransactionID]; !ok {
				return fmt.Errorf("[memrepo/creating ledger entry] %w: transaction %d does not exist",
					domain.ErrUnknown, args.TransactionID)
			}
			if _, ok := st.accounts[args.AccountID]; !ok {
				return fmt.Errorf("[memrepo/creating ledger entry] %w: account %d does not exist",
					domain.ErrUnknown, args.AccountID)
			}
			st.lastEntryID++
			entry := domain.LedgerEntry{
				ID:            st.lastEntryID,
				CreatedAt:     l.acc.now(),
				TransactionID: args.TransactionID,
				AccountID:     args.AccountID,
				EntryType:     args.EntryType,
				Amount:        args.Amount,
			}
			st.entries = append(st.entries, entry)
			created = append(created, entry)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i := range created {
		fn(i, &created[i], nil)
	}
	return nil
}

func (l *LedgerRepository) FindByIdempotencyKey(
	_ context.Context,
	initiatorID uuid.UUID,
	key string,
) (*domain.Transaction, error) {
	var transaction domain.Transaction
	err := l.acc.read(func(st *state) error {
		found, ok := findByIdempotencyKey(st, initiatorID, key)
		if !ok {
			return notFound("finding transaction by idempotency key %s", key)
		}
		transaction = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (l *LedgerRepository) FindEntriesByTransaction(
	_ context.Context,
	transactionID int64,
) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := l.acc.read(func(st *state) error {
		for _, entry := range st.entries {
			if entry.TransactionID == transactionID {
				entries = append(entries, entry)
			}
		}
		return nil
	})
	return entries, err
}

func (l *LedgerRepository) ListHistory(_ context.Context, args repoargs.ListHistory) ([]repoargs.HistoryRow, error) {
	var rows []repoargs.HistoryRow
	err := l.acc.read(func(st *state) error {
		// проводки хранятся в порядке возрастания id
		for i := len(st.entries) - 1; i >= 0 && uint(len(rows)) < args.Limit; i-- {
			entry := st.entries[i]
			if entry.AccountID != args.AccountID || (args.BeforeID != 0 && entry.ID >= args.BeforeID) {
				continue
			}
			transaction := st.transactions[entry.TransactionID]
			row := repoargs.HistoryRow{
				Entry:          entry,
				Transaction:    transaction,
				InitiatorEmail: st.users[transaction.InitiatorID].Email,
			}
			if other, ok := oppositeLeg(st, entry); ok {
				owner := st.users[st.accounts[other.AccountID].UserID]
				row.CounterpartyUserID = owner.ID
				row.CounterpartyEmail = owner.Email
			}
			rows = append(rows, row)
		}
		return nil
	})
	return rows, err
}

func (l *LedgerRepository) BalanceSum(_ context.Context, accountID int64) (*repoargs.AccountBalanceSum, error) {
	res := repoargs.AccountBalanceSum{AccountID: accountID}
	err := l.acc.read(func(st *state) error {
		account, ok := st.accounts[accountID]
		if !ok {
			return notFound("summing entries of account %d", accountID)
		}
		res.Balance = account.Balance
		for _, entry := range st.entries {
			if entry.AccountID == accountID {
				res.EntrySum = res.EntrySum.Add(entry.SignedAmount())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (l *LedgerRepository) FindUnbalanced(_ context.Context, limit uint) ([]repoargs.UnbalancedTransaction, error) {
	var res []repoargs.UnbalancedTransaction
	err := l.acc.read(func(st *state) error {
		sums := make(map[int64]*repoargs.UnbalancedTransaction)
		for _, entry := range st.entries {
			sum, ok := sums[entry.TransactionID]
			if !ok {
				sum = &repoargs.UnbalancedTransaction{TransactionID: entry.TransactionID}
				sums[entry.TransactionID] = sum
			}
			if entry.EntryType == domain.EntryTypeCredit {
				sum.CreditSum = sum.CreditSum.Add(entry.Amount)
			} else {
				sum.DebitSum = sum.DebitSum.Add(entry.Amount)
			}
		}
		ids := make([]int64, 0, len(sums))
		for id, sum := range sums {
			if !sum.CreditSum.Equal(sum.DebitSum) {
				ids = append(ids, id)
			}
		}
		slices.Sort(ids)
		for _, id := range ids {
			if uint(len(res)) >= limit {
				break
			}
			res = append(res, *sums[id])
		}
		return nil
	})
	return res, err
}

func findByIdempotencyKey(st *state, initiatorID uuid.UUID, key string) (domain.Transaction, bool) {
	for _, transaction := range st.transactions {
		if transaction.InitiatorID == initiatorID && transaction.IdempotencyKey == key {
			return transaction, true
		}
	}
	return domain.Transaction{}, false
}

func oppositeLeg(st *state, entry domain.LedgerEntry) (domain.LedgerEntry, bool) {
	for _, other := range st.entries {
		if other.TransactionID == entry.TransactionID && other.EntryType != entry.EntryType {
			return other, true
		}
	}
	return domain.LedgerEntry{}, false
}
