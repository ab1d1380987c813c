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

type AccountService struct {
	uow         uow.UOW
	accountRepo AccountRepository
	currency    string
}

func NewAccountService(u uow.UOW, currency string) (*AccountService, error) {
	accountRepo, err := uow.GetRepositoryAs[AccountRepository](u, uow.RepositoryName(repoargs.AccountRepoName))
	if err != nil {
		return nil, fmt.Errorf("account service: %w", err)
	}
	return &AccountService{
		uow:         u,
		accountRepo: accountRepo,
		currency:    currency,
	}, nil
}

// GetBalance возвращает счет юзера в валюте сервиса. Отсутствие счета дает domain.ErrAccountNotFound.
func (a *AccountService) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	account, err := a.accountRepo.FindByUserID(ctx, userID, a.currency)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("getting balance: %w", domain.ErrAccountNotFound)
		}
		return nil, storageErr("getting balance", err)
	}
	return account, nil
}

// EnsureSystemAccount создает системный счет пополнений в валюте сервиса, если его еще нет.
func (a *AccountService) EnsureSystemAccount(ctx context.Context) (*domain.Account, error) {
	var account *domain.Account
	err := a.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		accountRepo, repoErr := uow.GetAs[AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
		if repoErr != nil {
			return repoErr //nolint:wrapcheck
		}

		var findErr error
		account, findErr = accountRepo.FindSystemAccount(c, a.currency)
		if findErr == nil {
			return nil
		}
		if !errors.Is(findErr, domain.ErrRecordNotFound) {
			return findErr //nolint:wrapcheck
		}

		var createErr error
		account, createErr = accountRepo.CreateAccount(c, repoargs.CreateAccount{
			UserID:   domain.SystemUserID,
			Currency: a.currency,
			IsSystem: true,
		})
		return createErr //nolint:wrapcheck
	})
	if err != nil {
		return nil, storageErr("ensuring system account", err)
	}
	return account, nil
}
