package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/logger"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LedgerWriter единственное место, где меняются балансы. Все записи выполняются внутри переданной
// единицы работы и фиксируются или откатываются вместе с ней.
type LedgerWriter struct {
	l *logrus.Entry
}

func NewLedgerWriter(l *logrus.Logger) *LedgerWriter {
	return &LedgerWriter{l: logger.Component(l, "service", "ledger_writer")}
}

type RecordArgs struct {
	Type           domain.TransactionType
	InitiatorID    uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string
	Legs           []domain.Leg
}

type RecordResult struct {
	Transaction *domain.Transaction
	Entries     []domain.LedgerEntry
}

// Record записывает транзакцию и ее проводки и применяет изменения балансов. Счета блокируются в порядке
// возрастания id. Возвращает domain.ErrImbalancedEntry при нарушении двойной записи,
// *domain.InsufficientFundsError при нехватке средств и domain.ErrAccountNotFound для неизвестного счета.
func (w *LedgerWriter) Record(ctx context.Context, tx uow.TX, args RecordArgs) (*RecordResult, error) {
	if err := checkBalanced(args); err != nil {
		w.l.WithError(err).
			WithField("type", args.Type).
			WithField("legs", args.Legs).
			Error("ledger contract violation")
		return nil, err
	}

	accountRepo, err := uow.GetAs[AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}
	ledgerRepo, err := uow.GetAs[LedgerRepository](tx, uow.RepositoryName(repoargs.LedgerRepoName))
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	deltas := netDeltas(args.Legs)
	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	locked, err := accountRepo.LockByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}
	if len(locked) != len(ids) {
		return nil, fmt.Errorf("recording transaction: %w", domain.ErrAccountNotFound)
	}

	for _, account := range locked {
		delta := deltas[account.ID]
		if account.IsSystem || !delta.IsNegative() {
			continue
		}
		if account.Balance.Add(delta).IsNegative() {
			return nil, &domain.InsufficientFundsError{
				AccountID: account.ID,
				Available: account.Balance,
				Requested: delta.Neg(),
			}
		}
	}

	transaction, err := ledgerRepo.CreateTransaction(ctx, repoargs.CreateTransaction{
		Type:           args.Type,
		InitiatorID:    args.InitiatorID,
		Amount:         args.Amount,
		Status:         domain.TransactionStatusCompleted,
		IdempotencyKey: args.IdempotencyKey,
	})
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	entryArgs := make([]repoargs.CreateEntry, len(args.Legs))
	for i, leg := range args.Legs {
		entryArgs[i] = repoargs.CreateEntry{
			TransactionID: transaction.ID,
			AccountID:     leg.AccountID,
			EntryType:     leg.EntryType,
			Amount:        leg.Amount,
		}
	}
	entries := make([]domain.LedgerEntry, len(args.Legs))
	var entryErrs []error
	batchErr := ledgerRepo.CreateEntries(ctx, entryArgs, func(i int, entry *domain.LedgerEntry, err error) {
		if err != nil {
			entryErrs = append(entryErrs, err)
			return
		}
		entries[i] = *entry
	})
	if err = errors.Join(append(entryErrs, batchErr)...); err != nil {
		return nil, fmt.Errorf("recording ledger entries: %w", err)
	}

	for _, id := range ids {
		if deltas[id].IsZero() {
			continue
		}
		if _, err = accountRepo.Adjust(ctx, id, deltas[id]); err != nil {
			return nil, fmt.Errorf("adjusting balance: %w", err)
		}
	}

	return &RecordResult{Transaction: transaction, Entries: entries}, nil
}

func checkBalanced(args RecordArgs) error {
	if !args.Type.IsValid() {
		return fmt.Errorf("%w: unknown transaction type %q", domain.ErrImbalancedEntry, args.Type)
	}
	if err := domain.ValidateAmount(args.Amount); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrImbalancedEntry, err)
	}

	debits, credits := decimal.Zero, decimal.Zero
	var hasDebit, hasCredit bool
	for _, leg := range args.Legs {
		if err := domain.ValidateAmount(leg.Amount); err != nil {
			return fmt.Errorf("%w: leg of account %d: %w", domain.ErrImbalancedEntry, leg.AccountID, err)
		}
		switch leg.EntryType {
		case domain.EntryTypeDebit:
			hasDebit = true
			debits = debits.Add(leg.Amount)
		case domain.EntryTypeCredit:
			hasCredit = true
			credits = credits.Add(leg.Amount)
		default:
			return fmt.Errorf("%w: unknown entry type %q", domain.ErrImbalancedEntry, leg.EntryType)
		}
	}

	if !hasDebit || !hasCredit {
		return fmt.Errorf("%w: at least one debit and one credit leg required", domain.ErrImbalancedEntry)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits %s != credits %s",
			domain.ErrImbalancedEntry, domain.FormatAmount(debits), domain.FormatAmount(credits))
	}
	if !credits.Equal(args.Amount) {
		return fmt.Errorf("%w: legs move %s, transaction amount is %s",
			domain.ErrImbalancedEntry, domain.FormatAmount(credits), domain.FormatAmount(args.Amount))
	}
	return nil
}

func netDeltas(legs []domain.Leg) map[int64]decimal.Decimal {
	deltas := make(map[int64]decimal.Decimal, len(legs))
	for _, leg := range legs {
		deltas[leg.AccountID] = deltas[leg.AccountID].Add(leg.SignedAmount())
	}
	return deltas
}
