package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/service"
)

// UserServicer интерфейс исключительно для моков.
type UserServicer interface {
	Register(ctx context.Context, args service.RegisterUserArgs) (*domain.User, string, error)
	Login(ctx context.Context, args service.LoginUserArgs) (*domain.User, string, error)
}

type AccountServicer interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
}

type TransactionServicer interface {
	TopUp(ctx context.Context, args service.TopUpArgs) (*domain.Transaction, error)
	Transfer(ctx context.Context, args service.TransferArgs) (*domain.Transaction, error)
	Purchase(ctx context.Context, args service.PurchaseArgs) (*domain.Transaction, error)
}

type HistoryServicer interface {
	ListEntries(ctx context.Context, args service.ListHistoryArgs) ([]domain.HistoryItem, error)
}
