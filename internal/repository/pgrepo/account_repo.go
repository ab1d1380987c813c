package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, created_at, updated_at, user_id, currency, balance, is_system`

type AccountRepository struct {
	conn uow.DBTX
}

func NewAccountRepository(conn uow.DBTX) *AccountRepository {
	return &AccountRepository{conn: conn}
}

// CreateAccount создает счет с нулевым балансом. Второй счет пользователя в той же валюте
// дает domain.ErrDuplicateKey.
func (a *AccountRepository) CreateAccount(ctx context.Context, args repoargs.CreateAccount) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx,
		`INSERT INTO accounts (user_id, currency, is_system)
		VALUES ($1, $2, $3)
		RETURNING `+accountColumns,
		args.UserID, args.Currency, args.IsSystem,
	)
	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "creating account for user %s", args.UserID)
	}
	return account, nil
}

func (a *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "finding account %d", id)
	}
	return account, nil
}

func (a *AccountRepository) FindByUserID(
	ctx context.Context,
	userID uuid.UUID,
	currency string,
) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND currency = $2`,
		userID, currency,
	)
	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "finding account of user %s", userID)
	}
	return account, nil
}

func (a *AccountRepository) FindSystemAccount(ctx context.Context, currency string) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE is_system AND currency = $1 ORDER BY id LIMIT 1`,
		currency,
	)
	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "finding system account %s", currency)
	}
	return account, nil
}

// LockByIDs блокирует строки счетов на запись до конца транзакции. Блокировки берутся в порядке
// возрастания id, поэтому встречные операции над одной парой счетов не приводят к дедлоку.
func (a *AccountRepository) LockByIDs(ctx context.Context, ids []int64) ([]domain.Account, error) {
	rows, err := a.conn.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		ids,
	)
	if err != nil {
		return nil, convertErr(err, "locking accounts")
	}
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, convertErr(err, "locking accounts")
	}
	return accounts, nil
}

func (a *AccountRepository) GetBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := a.conn.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("[repository/getting balance of %d] %w", id, domain.ErrAccountNotFound)
		}
		return decimal.Zero, convertErr(err, "getting balance of %d", id)
	}
	return balance, nil
}

// Adjust прибавляет к балансу delta со знаком и возвращает новый баланс. Проверка неотрицательности
// выполняется тем же UPDATE. Возвращает domain.ErrInsufficientFunds и domain.ErrAccountNotFound.
func (a *AccountRepository) Adjust(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := a.conn.QueryRow(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND (is_system OR balance + $2 >= 0)
		RETURNING balance`,
		id, delta,
	).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, convertErr(err, "adjusting balance of %d", id)
	}

	current, getErr := a.GetBalance(ctx, id)
	if getErr != nil {
		return decimal.Zero, getErr
	}
	return decimal.Zero, &domain.InsufficientFundsError{
		AccountID: id,
		Available: current,
		Requested: delta.Neg(),
	}
}

// ListAfter возвращает до limit счетов с id больше afterID в порядке возрастания id.
func (a *AccountRepository) ListAfter(ctx context.Context, afterID int64, limit uint) ([]domain.Account, error) {
	l, err := safeConvertUintToInt32(limit)
	if err != nil {
		return nil, fmt.Errorf("[repository/listing accounts] %w", err)
	}
	rows, err := a.conn.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id > $1 ORDER BY id LIMIT $2`,
		afterID, l,
	)
	if err != nil {
		return nil, convertErr(err, "listing accounts after %d", afterID)
	}
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, convertErr(err, "listing accounts after %d", afterID)
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.UserID,
		&account.Currency,
		&account.Balance,
		&account.IsSystem,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &account, nil
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) { //nolint:wrapcheck
		account, err := scanAccount(row)
		if err != nil {
			return domain.Account{}, err
		}
		return *account, nil
	})
}
