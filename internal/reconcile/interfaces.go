package reconcile

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
)

// Auditor read-only доступ к леджеру, которого достаточно для сверки.
type Auditor interface {
	ListAccounts(ctx context.Context, afterID int64, limit uint) ([]domain.Account, error)
	VerifyAccount(ctx context.Context, accountID int64) (*repoargs.AccountBalanceSum, error)
	FindUnbalanced(ctx context.Context, limit uint) ([]repoargs.UnbalancedTransaction, error)
}
