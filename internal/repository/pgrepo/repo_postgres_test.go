package pgrepo

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

// testDatabaseEnv DSN пустой базы для тестов запросов. Без него набор пропускается.
const testDatabaseEnv = "TEST_DATABASE_URI"

type PostgresTestSuite struct {
	suite.Suite
	pool     *pgxpool.Pool
	users    *UserRepository
	accounts *AccountRepository
	ledger   *LedgerRepository
}

func TestPostgresSuite(t *testing.T) {
	if os.Getenv(testDatabaseEnv) == "" {
		t.Skipf("%s is not set", testDatabaseEnv)
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) SetupSuite() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := Connect(ctx, ConnectArgs{
		DSN:           os.Getenv(testDatabaseEnv),
		MigrationsDir: "../../db/migrations",
		MaxAttempts:   1,
	}, logger)
	s.Require().NoError(err)
	s.pool = pool
	s.users = NewUserRepository(pool)
	s.accounts = NewAccountRepository(pool)
	s.ledger = NewLedgerRepository(pool)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresTestSuite) createAccount(isSystem bool) (*domain.User, *domain.Account) {
	ctx := context.Background()
	user, err := s.users.CreateUser(ctx, repoargs.CreateUser{
		Email:    gofakeit.Email(),
		FullName: gofakeit.Name(),
		Password: "hash",
	})
	s.Require().NoError(err)
	account, err := s.accounts.CreateAccount(ctx, repoargs.CreateAccount{
		UserID:   user.ID,
		Currency: domain.DefaultCurrency,
		IsSystem: isSystem,
	})
	s.Require().NoError(err)
	return user, account
}

func (s *PostgresTestSuite) TestAdjust() {
	ctx := context.Background()
	_, account := s.createAccount(false)

	balance, err := s.accounts.Adjust(ctx, account.ID, decimal.RequireFromString("10.50"))
	s.Require().NoError(err)
	s.True(balance.Equal(decimal.RequireFromString("10.50")))

	_, err = s.accounts.Adjust(ctx, account.ID, decimal.NewFromInt(-11))
	var fundsErr *domain.InsufficientFundsError
	s.Require().ErrorAs(err, &fundsErr)
	s.True(fundsErr.Shortfall().Equal(decimal.RequireFromString("0.50")))

	current, err := s.accounts.GetBalance(ctx, account.ID)
	s.Require().NoError(err)
	s.True(current.Equal(decimal.RequireFromString("10.50")))

	_, err = s.accounts.Adjust(ctx, account.ID, domain.MaxAmount)
	s.Require().ErrorIs(err, domain.ErrInvalidAmount)

	_, err = s.accounts.Adjust(ctx, -1, decimal.NewFromInt(1))
	s.Require().ErrorIs(err, domain.ErrAccountNotFound)
}

func (s *PostgresTestSuite) TestAdjustSystemAccountGoesNegative() {
	_, system := s.createAccount(true)

	balance, err := s.accounts.Adjust(context.Background(), system.ID, decimal.NewFromInt(-100))
	s.Require().NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(-100)))
}

func (s *PostgresTestSuite) TestLockByIDsOrdered() {
	_, first := s.createAccount(false)
	_, second := s.createAccount(false)

	tx, err := s.pool.Begin(context.Background())
	s.Require().NoError(err)
	defer func() { _ = tx.Rollback(context.Background()) }()

	locked, err := NewAccountRepository(tx).LockByIDs(context.Background(), []int64{second.ID, first.ID})
	s.Require().NoError(err)
	s.Require().Len(locked, 2)
	s.Equal(first.ID, locked[0].ID)
	s.Equal(second.ID, locked[1].ID)
}

func (s *PostgresTestSuite) TestIdempotencyKeyNullable() {
	ctx := context.Background()
	user, _ := s.createAccount(false)
	args := repoargs.CreateTransaction{
		Type:        domain.TransactionTypeTopUp,
		InitiatorID: user.ID,
		Amount:      decimal.NewFromInt(5),
		Status:      domain.TransactionStatusCompleted,
	}

	_, err := s.ledger.CreateTransaction(ctx, args)
	s.Require().NoError(err)
	_, err = s.ledger.CreateTransaction(ctx, args)
	s.Require().NoError(err)

	args.IdempotencyKey = "k1"
	created, err := s.ledger.CreateTransaction(ctx, args)
	s.Require().NoError(err)
	_, err = s.ledger.CreateTransaction(ctx, args)
	s.Require().ErrorIs(err, domain.ErrDuplicateKey)

	found, err := s.ledger.FindByIdempotencyKey(ctx, user.ID, "k1")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
}

func (s *PostgresTestSuite) TestListHistory() {
	ctx := context.Background()
	sender, senderAccount := s.createAccount(false)
	recipient, recipientAccount := s.createAccount(false)

	var entryIDs []int64
	for _, amount := range []int64{10, 20, 30} {
		transaction, err := s.ledger.CreateTransaction(ctx, repoargs.CreateTransaction{
			Type:        domain.TransactionTypeTransfer,
			InitiatorID: sender.ID,
			Amount:      decimal.NewFromInt(amount),
			Status:      domain.TransactionStatusCompleted,
		})
		s.Require().NoError(err)

		err = s.ledger.CreateEntries(ctx, []repoargs.CreateEntry{
			{TransactionID: transaction.ID, AccountID: senderAccount.ID, EntryType: domain.EntryTypeDebit,
				Amount: decimal.NewFromInt(amount)},
			{TransactionID: transaction.ID, AccountID: recipientAccount.ID, EntryType: domain.EntryTypeCredit,
				Amount: decimal.NewFromInt(amount)},
		}, func(i int, entry *domain.LedgerEntry, err error) {
			s.Require().NoError(err)
			if i == 0 {
				entryIDs = append(entryIDs, entry.ID)
			}
		})
		s.Require().NoError(err)
	}

	page, err := s.ledger.ListHistory(ctx, repoargs.ListHistory{AccountID: senderAccount.ID, Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(entryIDs[2], page[0].Entry.ID)
	s.Equal(entryIDs[1], page[1].Entry.ID)
	s.Equal(domain.EntryTypeDebit, page[0].Entry.EntryType)
	s.Equal(sender.Email, page[0].InitiatorEmail)
	s.Equal(recipient.ID, page[0].CounterpartyUserID)
	s.Equal(recipient.Email, page[0].CounterpartyEmail)

	rest, err := s.ledger.ListHistory(ctx, repoargs.ListHistory{
		AccountID: senderAccount.ID,
		Limit:     2,
		BeforeID:  page[1].Entry.ID,
	})
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.Equal(entryIDs[0], rest[0].Entry.ID)
	s.True(rest[0].Transaction.Amount.Equal(decimal.NewFromInt(10)))

	sum, err := s.ledger.BalanceSum(ctx, senderAccount.ID)
	s.Require().NoError(err)
	s.True(sum.EntrySum.Equal(decimal.NewFromInt(-60)))
}
