package memrepo

import (
	"context"
	"fmt"
	"slices"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	acc accessor
}

func (a *AccountRepository) CreateAccount(_ context.Context, args repoargs.CreateAccount) (*domain.Account, error) {
	var account domain.Account
	err := a.acc.write(func(st *state) error {
		if _, ok := st.users[args.UserID]; !ok {
			return fmt.Errorf("[memrepo/creating account] %w: user %s does not exist", domain.ErrUnknown, args.UserID)
		}
		if _, ok := findAccount(st, args.UserID, args.Currency); ok {
			return fmt.Errorf("[memrepo/creating account] %w: user %s, currency %s",
				domain.ErrDuplicateKey, args.UserID, args.Currency)
		}
		st.lastAccountID++
		now := a.acc.now()
		account = domain.Account{
			ID:        st.lastAccountID,
			CreatedAt: now,
			UpdatedAt: now,
			UserID:    args.UserID,
			Currency:  args.Currency,
			Balance:   decimal.Zero,
			IsSystem:  args.IsSystem,
		}
		st.accounts[account.ID] = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (a *AccountRepository) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	return a.findOne(func(st *state) (domain.Account, bool) {
		account, ok := st.accounts[id]
		return account, ok
	}, "finding account %d", id)
}

func (a *AccountRepository) FindByUserID(_ context.Context, userID uuid.UUID, currency string) (*domain.Account, error) {
	return a.findOne(func(st *state) (domain.Account, bool) {
		return findAccount(st, userID, currency)
	}, "finding account of user %s", userID)
}

func (a *AccountRepository) FindSystemAccount(_ context.Context, currency string) (*domain.Account, error) {
	return a.findOne(func(st *state) (domain.Account, bool) {
		for _, id := range sortedAccountIDs(st) {
			if account := st.accounts[id]; account.IsSystem && account.Currency == currency {
				return account, true
			}
		}
		return domain.Account{}, false
	}, "finding system account %s", currency)
}

// LockByIDs возвращает счета в порядке возрастания id. Единицы работы и так выполняются по одной,
// отдельные блокировки строк не нужны.
func (a *AccountRepository) LockByIDs(_ context.Context, ids []int64) ([]domain.Account, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var accounts []domain.Account
	err := a.acc.read(func(st *state) error {
		for _, id := range sorted {
			if account, ok := st.accounts[id]; ok {
				accounts = append(accounts, account)
			}
		}
		return nil
	})
	return accounts, err
}

func (a *AccountRepository) GetBalance(_ context.Context, id int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := a.acc.read(func(st *state) error {
		account, ok := st.accounts[id]
		if !ok {
			return fmt.Errorf("[memrepo/getting balance of %d] %w", id, domain.ErrAccountNotFound)
		}
		balance = account.Balance
		return nil
	})
	return balance, err
}

func (a *AccountRepository) Adjust(_ context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := a.acc.write(func(st *state) error {
		account, ok := st.accounts[id]
		if !ok {
			return fmt.Errorf("[memrepo/adjusting balance of %d] %w", id, domain.ErrAccountNotFound)
		}
		next := account.Balance.Add(delta)
		if !account.IsSystem && next.IsNegative() {
			return &domain.InsufficientFundsError{
				AccountID: id,
				Available: account.Balance,
				Requested: delta.Neg(),
			}
		}
		if !domain.FitsAmountColumn(next) {
			return fmt.Errorf("[memrepo/adjusting balance of %d] %w: balance %s out of range",
				id, domain.ErrInvalidAmount, next.String())
		}
		account.Balance = next
		account.UpdatedAt = a.acc.now()
		st.accounts[id] = account
		balance = next
		return nil
	})
	return balance, err
}

func (a *AccountRepository) ListAfter(_ context.Context, afterID int64, limit uint) ([]domain.Account, error) {
	var accounts []domain.Account
	err := a.acc.read(func(st *state) error {
		for _, id := range sortedAccountIDs(st) {
			if uint(len(accounts)) >= limit {
				break
			}
			if id > afterID {
				accounts = append(accounts, st.accounts[id])
			}
		}
		return nil
	})
	return accounts, err
}

func (a *AccountRepository) findOne(
	match func(st *state) (domain.Account, bool),
	format string,
	args ...any,
) (*domain.Account, error) {
	var account domain.Account
	err := a.acc.read(func(st *state) error {
		found, ok := match(st)
		if !ok {
			return notFound(format, args...)
		}
		account = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func findAccount(st *state, userID uuid.UUID, currency string) (domain.Account, bool) {
	for _, account := range st.accounts {
		if account.UserID == userID && account.Currency == currency {
			return account, true
		}
	}
	return domain.Account{}, false
}

func sortedAccountIDs(st *state) []int64 {
	ids := make([]int64, 0, len(st.accounts))
	for id := range st.accounts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
