package memrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	uow   *UnitOfWork
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	s.store = NewStore()
	s.uow = NewUnitOfWork(s.store)
}

func (s *StoreTestSuite) accounts() *AccountRepository {
	repo, err := uow.GetRepositoryAs[*AccountRepository](s.uow, uow.RepositoryName(repoargs.AccountRepoName))
	s.Require().NoError(err)
	return repo
}

func (s *StoreTestSuite) createAccount() *domain.Account {
	users, err := uow.GetRepositoryAs[*UserRepository](s.uow, uow.RepositoryName(repoargs.UserRepoName))
	s.Require().NoError(err)
	user, err := users.CreateUser(context.Background(), repoargs.CreateUser{
		Email:    gofakeit.Email(),
		FullName: gofakeit.Name(),
		Password: gofakeit.Password(true, true, true, false, false, 12),
	})
	s.Require().NoError(err)

	account, err := s.accounts().CreateAccount(context.Background(), repoargs.CreateAccount{
		UserID:   user.ID,
		Currency: domain.DefaultCurrency,
	})
	s.Require().NoError(err)
	return account
}

func (s *StoreTestSuite) TestSystemUserSeeded() {
	users, err := uow.GetRepositoryAs[*UserRepository](s.uow, uow.RepositoryName(repoargs.UserRepoName))
	s.Require().NoError(err)

	user, err := users.FindUserByEmail(context.Background(), "SYSTEM@wallet.local")
	s.Require().NoError(err)
	s.Equal(domain.SystemUserID, user.ID)
	s.True(user.IsSystem)
}

func (s *StoreTestSuite) TestDuplicateEmail() {
	users, err := uow.GetRepositoryAs[*UserRepository](s.uow, uow.RepositoryName(repoargs.UserRepoName))
	s.Require().NoError(err)

	_, err = users.CreateUser(context.Background(), repoargs.CreateUser{Email: domain.SystemUserEmail})
	s.Require().ErrorIs(err, domain.ErrDuplicateKey)
}

func (s *StoreTestSuite) TestAdjust() {
	account := s.createAccount()
	repo := s.accounts()

	balance, err := repo.Adjust(context.Background(), account.ID, decimal.RequireFromString("10.50"))
	s.Require().NoError(err)
	s.True(balance.Equal(decimal.RequireFromString("10.50")))

	_, err = repo.Adjust(context.Background(), account.ID, decimal.RequireFromString("-11"))
	var fundsErr *domain.InsufficientFundsError
	s.Require().ErrorAs(err, &fundsErr)
	s.True(fundsErr.Shortfall().Equal(decimal.RequireFromString("0.50")))

	_, err = repo.Adjust(context.Background(), 999, decimal.NewFromInt(1))
	s.Require().ErrorIs(err, domain.ErrAccountNotFound)
}

func (s *StoreTestSuite) TestAdjustOutOfRange() {
	account := s.createAccount()
	repo := s.accounts()

	_, err := repo.Adjust(context.Background(), account.ID, domain.MaxAmount)
	s.Require().NoError(err)

	_, err = repo.Adjust(context.Background(), account.ID, decimal.RequireFromString("0.01"))
	s.Require().ErrorIs(err, domain.ErrInvalidAmount)

	balance, err := repo.GetBalance(context.Background(), account.ID)
	s.Require().NoError(err)
	s.True(balance.Equal(domain.MaxAmount))
}

func (s *StoreTestSuite) TestRollback() {
	account := s.createAccount()
	boom := errors.New("boom")

	err := s.uow.Do(context.Background(), func(ctx context.Context, tx uow.TX) error {
		repo, err := uow.GetAs[*AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
		s.Require().NoError(err)
		_, err = repo.Adjust(ctx, account.ID, decimal.NewFromInt(100))
		s.Require().NoError(err)
		return boom
	})
	s.Require().ErrorIs(err, boom)

	balance, err := s.accounts().GetBalance(context.Background(), account.ID)
	s.Require().NoError(err)
	s.True(balance.IsZero())
}

func (s *StoreTestSuite) TestCommit() {
	account := s.createAccount()

	err := s.uow.Do(context.Background(), func(ctx context.Context, tx uow.TX) error {
		repo, err := uow.GetAs[*AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
		if err != nil {
			return err
		}
		_, err = repo.Adjust(ctx, account.ID, decimal.NewFromInt(100))
		return err
	})
	s.Require().NoError(err)

	balance, err := s.accounts().GetBalance(context.Background(), account.ID)
	s.Require().NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(100)))
}

func (s *StoreTestSuite) TestDoRespectsContext() {
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = s.uow.Do(context.Background(), func(context.Context, uow.TX) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.uow.Do(ctx, func(context.Context, uow.TX) error { return nil })
	s.Require().ErrorIs(err, context.DeadlineExceeded)
}

func (s *StoreTestSuite) TestHistoryNewestFirst() {
	first := s.createAccount()
	second := s.createAccount()

	ctx := context.Background()
	ledger, err := uow.GetRepositoryAs[*LedgerRepository](s.uow, uow.RepositoryName(repoargs.LedgerRepoName))
	s.Require().NoError(err)

	for range 3 {
		transaction, txErr := ledger.CreateTransaction(ctx, repoargs.CreateTransaction{
			Type:   domain.TransactionTypeTransfer,
			Amount: decimal.NewFromInt(1),
			Status: domain.TransactionStatusCompleted,
		})
		s.Require().NoError(txErr)
		s.Require().NoError(ledger.CreateEntries(ctx, []repoargs.CreateEntry{
			{TransactionID: transaction.ID, AccountID: first.ID, EntryType: domain.EntryTypeDebit, Amount: decimal.NewFromInt(1)},
			{TransactionID: transaction.ID, AccountID: second.ID, EntryType: domain.EntryTypeCredit, Amount: decimal.NewFromInt(1)},
		}, func(int, *domain.LedgerEntry, error) {}))
	}

	page, err := ledger.ListHistory(ctx, repoargs.ListHistory{AccountID: first.ID, Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Greater(page[0].Entry.ID, page[1].Entry.ID)
	s.Equal(second.UserID, page[0].CounterpartyUserID)

	rest, err := ledger.ListHistory(ctx, repoargs.ListHistory{AccountID: first.ID, Limit: 2, BeforeID: page[1].Entry.ID})
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.Less(rest[0].Entry.ID, page[1].Entry.ID)

	unbalanced, err := ledger.FindUnbalanced(ctx, 10)
	s.Require().NoError(err)
	s.Empty(unbalanced)
}
