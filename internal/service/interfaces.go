package service

import (
	"context"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePassword(password string, hashedPassword string) bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, args repoargs.CreateAccount) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, currency string) (*domain.Account, error)
	FindSystemAccount(ctx context.Context, currency string) (*domain.Account, error)
	LockByIDs(ctx context.Context, ids []int64) ([]domain.Account, error)
	GetBalance(ctx context.Context, id int64) (decimal.Decimal, error)
	Adjust(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)
	ListAfter(ctx context.Context, afterID int64, limit uint) ([]domain.Account, error)
}

type LedgerRepository interface {
	CreateTransaction(ctx context.Context, args repoargs.CreateTransaction) (*domain.Transaction, error)
	CreateEntries(ctx context.Context, entries []repoargs.CreateEntry, fn repoargs.EntryBatchQueryRow) error
	FindByIdempotencyKey(ctx context.Context, initiatorID uuid.UUID, key string) (*domain.Transaction, error)
	FindEntriesByTransaction(ctx context.Context, transactionID int64) ([]domain.LedgerEntry, error)
	ListHistory(ctx context.Context, args repoargs.ListHistory) ([]repoargs.HistoryRow, error)
	BalanceSum(ctx context.Context, accountID int64) (*repoargs.AccountBalanceSum, error)
	FindUnbalanced(ctx context.Context, limit uint) ([]repoargs.UnbalancedTransaction, error)
}
