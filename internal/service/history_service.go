package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit uint = 50
	MaxHistoryLimit     uint = 200
)

type HistoryService struct {
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
	currency    string
}

func NewHistoryService(u uow.UOW, currency string) (*HistoryService, error) {
	accountRepo, err := uow.GetRepositoryAs[AccountRepository](u, uow.RepositoryName(repoargs.AccountRepoName))
	if err != nil {
		return nil, fmt.Errorf("history service: %w", err)
	}
	ledgerRepo, err := uow.GetRepositoryAs[LedgerRepository](u, uow.RepositoryName(repoargs.LedgerRepoName))
	if err != nil {
		return nil, fmt.Errorf("history service: %w", err)
	}
	return &HistoryService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		currency:    currency,
	}, nil
}

type ListHistoryArgs struct {
	UserID uuid.UUID
	// Limit 0 означает DefaultHistoryLimit, значения больше MaxHistoryLimit обрезаются.
	Limit uint
	// BeforeEntryID курсор следующей страницы: id последней полученной проводки. 0 дает первую страницу.
	BeforeEntryID int64
}

// ListEntries возвращает проводки по счету юзера от новых к старым с разрешенным контрагентом.
func (h *HistoryService) ListEntries(ctx context.Context, args ListHistoryArgs) ([]domain.HistoryItem, error) {
	account, err := h.accountRepo.FindByUserID(ctx, args.UserID, h.currency)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing history: %w", domain.ErrAccountNotFound)
		}
		return nil, storageErr("listing history", err)
	}

	rows, err := h.ledgerRepo.ListHistory(ctx, repoargs.ListHistory{
		AccountID: account.ID,
		Limit:     clampLimit(args.Limit),
		BeforeID:  args.BeforeEntryID,
	})
	if err != nil {
		return nil, storageErr("listing history", err)
	}

	items := make([]domain.HistoryItem, len(rows))
	for i, row := range rows {
		items[i] = resolveCounterparty(row)
	}
	return items, nil
}

// resolveCounterparty единое правило контрагента. Кредит от пополнения пришел извне леджера. Прочий кредит
// пришел от инициатора транзакции. Дебет ушел владельцу противоположной стороны.
func resolveCounterparty(row repoargs.HistoryRow) domain.HistoryItem {
	item := domain.HistoryItem{
		Entry:          row.Entry,
		Transaction:    row.Transaction,
		InitiatorEmail: row.InitiatorEmail,
	}

	switch {
	case row.Entry.EntryType == domain.EntryTypeCredit && row.Transaction.Type == domain.TransactionTypeTopUp:
		item.SystemOriginated = true
	case row.Entry.EntryType == domain.EntryTypeCredit:
		item.CounterpartyEmail = row.InitiatorEmail
	case row.CounterpartyUserID == domain.SystemUserID:
		item.SystemOriginated = true
	default:
		item.CounterpartyEmail = row.CounterpartyEmail
	}
	return item
}

func clampLimit(limit uint) uint {
	if limit == 0 {
		return DefaultHistoryLimit
	}
	return min(limit, MaxHistoryLimit)
}
