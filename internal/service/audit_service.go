package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

// AuditService read-only проверки инвариантов леджера для фоновой сверки.
type AuditService struct {
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
}

func NewAuditService(u uow.UOW) (*AuditService, error) {
	accountRepo, err := uow.GetRepositoryAs[AccountRepository](u, uow.RepositoryName(repoargs.AccountRepoName))
	if err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}
	ledgerRepo, err := uow.GetRepositoryAs[LedgerRepository](u, uow.RepositoryName(repoargs.LedgerRepoName))
	if err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}
	return &AuditService{accountRepo: accountRepo, ledgerRepo: ledgerRepo}, nil
}

func (a *AuditService) ListAccounts(ctx context.Context, afterID int64, limit uint) ([]domain.Account, error) {
	accounts, err := a.accountRepo.ListAfter(ctx, afterID, limit)
	if err != nil {
		return nil, storageErr("listing accounts", err)
	}
	return accounts, nil
}

// VerifyAccount возвращает сохраненный баланс счета и сумму его проводок.
func (a *AuditService) VerifyAccount(ctx context.Context, accountID int64) (*repoargs.AccountBalanceSum, error) {
	sum, err := a.ledgerRepo.BalanceSum(ctx, accountID)
	if err != nil {
		return nil, storageErr("verifying account", err)
	}
	return sum, nil
}

func (a *AuditService) FindUnbalanced(ctx context.Context, limit uint) ([]repoargs.UnbalancedTransaction, error) {
	res, err := a.ledgerRepo.FindUnbalanced(ctx, limit)
	if err != nil {
		return nil, storageErr("finding unbalanced transactions", err)
	}
	return res, nil
}
