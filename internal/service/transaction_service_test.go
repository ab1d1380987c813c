package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/memrepo"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/internal/service/psswd"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// LedgerTestSuite прогоняет операции через настоящие сервисы поверх хранилища в памяти.
type LedgerTestSuite struct {
	suite.Suite
	uow          *memrepo.UnitOfWork
	writer       *LedgerWriter
	users        *UserService
	accounts     *AccountService
	transactions *TransactionService
	history      *HistoryService
	audit        *AuditService
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) SetupTest() {
	s.uow = memrepo.NewUnitOfWork(memrepo.NewStore())

	l := logrus.New()
	l.SetOutput(io.Discard)
	s.writer = NewLedgerWriter(l)

	var err error
	s.users, err = NewUserService(s.uow, []byte("secret"), psswd.BcryptHasher{Cost: bcrypt.MinCost}, domain.DefaultCurrency)
	s.Require().NoError(err)
	s.accounts, err = NewAccountService(s.uow, domain.DefaultCurrency)
	s.Require().NoError(err)
	s.transactions, err = NewTransactionService(s.uow, s.writer, domain.DefaultCurrency)
	s.Require().NoError(err)
	s.history, err = NewHistoryService(s.uow, domain.DefaultCurrency)
	s.Require().NoError(err)
	s.audit, err = NewAuditService(s.uow)
	s.Require().NoError(err)

	_, err = s.accounts.EnsureSystemAccount(context.Background())
	s.Require().NoError(err)
}

func (s *LedgerTestSuite) register() *domain.User {
	user, _, err := s.users.Register(context.Background(), RegisterUserArgs{
		Email:    gofakeit.Email(),
		Password: gofakeit.Password(true, true, true, false, false, 10),
		FullName: gofakeit.Name(),
	})
	s.Require().NoError(err)
	return user
}

func (s *LedgerTestSuite) topUp(user *domain.User, amount string) {
	_, err := s.transactions.TopUp(context.Background(), TopUpArgs{
		UserID: user.ID,
		Amount: decimal.RequireFromString(amount),
	})
	s.Require().NoError(err)
}

func (s *LedgerTestSuite) balance(user *domain.User) decimal.Decimal {
	account, err := s.accounts.GetBalance(context.Background(), user.ID)
	s.Require().NoError(err)
	return account.Balance
}

func (s *LedgerTestSuite) entries(user *domain.User) []domain.HistoryItem {
	items, err := s.history.ListEntries(context.Background(), ListHistoryArgs{UserID: user.ID})
	s.Require().NoError(err)
	return items
}

// assertInvariants проверяет, что баланс каждого счета равен сумме его проводок и что ни одна
// транзакция не разбалансирована.
func (s *LedgerTestSuite) assertInvariants() {
	ctx := context.Background()
	accounts, err := s.audit.ListAccounts(ctx, 0, 1000)
	s.Require().NoError(err)
	for _, account := range accounts {
		sum, verifyErr := s.audit.VerifyAccount(ctx, account.ID)
		s.Require().NoError(verifyErr)
		s.Truef(sum.Balance.Equal(sum.EntrySum), "account %d: balance %s, entries %s",
			account.ID, sum.Balance, sum.EntrySum)
		if !account.IsSystem {
			s.False(sum.Balance.IsNegative())
		}
	}
	unbalanced, err := s.audit.FindUnbalanced(ctx, 10)
	s.Require().NoError(err)
	s.Empty(unbalanced)
}

func (s *LedgerTestSuite) TestRegisterStartsWithZeroBalance() {
	user := s.register()
	s.True(s.balance(user).IsZero())
	s.Empty(s.entries(user))
}

func (s *LedgerTestSuite) TestTopUp() {
	user := s.register()

	transaction, err := s.transactions.TopUp(context.Background(), TopUpArgs{
		UserID: user.ID,
		Amount: decimal.RequireFromString("100.00"),
	})
	s.Require().NoError(err)
	s.Equal(domain.TransactionTypeTopUp, transaction.Type)
	s.Equal(domain.TransactionStatusCompleted, transaction.Status)

	s.True(s.balance(user).Equal(decimal.NewFromInt(100)))

	items := s.entries(user)
	s.Require().Len(items, 1)
	s.Equal(domain.EntryTypeCredit, items[0].Entry.EntryType)
	s.True(items[0].Entry.Amount.Equal(decimal.NewFromInt(100)))
	s.True(items[0].SystemOriginated)
	s.Empty(items[0].CounterpartyEmail)

	system, err := s.uowSystemAccount()
	s.Require().NoError(err)
	s.True(system.Balance.Equal(decimal.NewFromInt(-100)))
	s.assertInvariants()
}

func (s *LedgerTestSuite) uowSystemAccount() (*domain.Account, error) {
	repo, err := uow.GetRepositoryAs[AccountRepository](s.uow, uow.RepositoryName(repoargs.AccountRepoName))
	if err != nil {
		return nil, err
	}
	return repo.FindSystemAccount(context.Background(), domain.DefaultCurrency)
}

func (s *LedgerTestSuite) TestInvalidAmount() {
	user := s.register()
	recipient := s.register()
	s.topUp(user, "10")

	for _, amount := range []string{"0", "-5", "1.001"} {
		s.Run(amount, func() {
			_, err := s.transactions.TopUp(context.Background(), TopUpArgs{
				UserID: user.ID,
				Amount: decimal.RequireFromString(amount),
			})
			s.Require().ErrorIs(err, domain.ErrInvalidAmount)

			_, err = s.transactions.Transfer(context.Background(), TransferArgs{
				SenderID:       user.ID,
				RecipientEmail: recipient.Email,
				Amount:         decimal.RequireFromString(amount),
			})
			s.Require().ErrorIs(err, domain.ErrInvalidAmount)
		})
	}
	s.True(s.balance(user).Equal(decimal.NewFromInt(10)))
	s.Len(s.entries(user), 1)
}

func (s *LedgerTestSuite) TestTransferInsufficientFunds() {
	sender := s.register()
	recipient := s.register()
	s.topUp(sender, "50")

	// повтор отказа дает тот же результат и не оставляет следов
	for range 3 {
		_, err := s.transactions.Transfer(context.Background(), TransferArgs{
			SenderID:       sender.ID,
			RecipientEmail: recipient.Email,
			Amount:         decimal.NewFromInt(100),
		})
		var fundsErr *domain.InsufficientFundsError
		s.Require().ErrorAs(err, &fundsErr)
		s.Require().ErrorIs(err, domain.ErrInsufficientFunds)
		s.True(fundsErr.Available.Equal(decimal.NewFromInt(50)))
		s.True(fundsErr.Shortfall().Equal(decimal.NewFromInt(50)))
	}

	s.True(s.balance(sender).Equal(decimal.NewFromInt(50)))
	s.True(s.balance(recipient).IsZero())
	s.Len(s.entries(sender), 1)
	s.Empty(s.entries(recipient))
	s.assertInvariants()
}

func (s *LedgerTestSuite) TestTransferRejections() {
	sender := s.register()
	s.topUp(sender, "100")

	cases := []struct {
		name    string
		email   string
		wantErr error
	}{
		{name: "unknown recipient", email: "nobody@example.com", wantErr: domain.ErrRecipientNotFound},
		{name: "system recipient", email: domain.SystemUserEmail, wantErr: domain.ErrRecipientNotFound},
		{name: "self", email: sender.Email, wantErr: domain.ErrSelfTransferNotAllowed},
	}
	for _, tt := range cases {
		s.Run(tt.name, func() {
			_, err := s.transactions.Transfer(context.Background(), TransferArgs{
				SenderID:       sender.ID,
				RecipientEmail: tt.email,
				Amount:         decimal.NewFromInt(10),
			})
			s.Require().ErrorIs(err, tt.wantErr)
			s.True(domain.IsBusinessError(err))
			s.NotErrorIs(err, domain.ErrStorageUnavailable)
		})
	}

	s.True(s.balance(sender).Equal(decimal.NewFromInt(100)))
	s.Len(s.entries(sender), 1)
}

func (s *LedgerTestSuite) TestPurchase() {
	buyer := s.register()
	merchant := s.register()
	s.topUp(buyer, "20")

	_, err := s.transactions.Purchase(context.Background(), PurchaseArgs{
		BuyerID:       buyer.ID,
		MerchantEmail: "shop@nowhere.test",
		Amount:        decimal.NewFromInt(5),
	})
	s.Require().ErrorIs(err, domain.ErrMerchantNotFound)

	_, err = s.transactions.Purchase(context.Background(), PurchaseArgs{
		BuyerID:       buyer.ID,
		MerchantEmail: buyer.Email,
		Amount:        decimal.NewFromInt(5),
	})
	s.Require().ErrorIs(err, domain.ErrSelfTransferNotAllowed)

	transaction, err := s.transactions.Purchase(context.Background(), PurchaseArgs{
		BuyerID:       buyer.ID,
		MerchantEmail: merchant.Email,
		Amount:        decimal.RequireFromString("7.25"),
	})
	s.Require().NoError(err)
	s.Equal(domain.TransactionTypePurchase, transaction.Type)

	s.True(s.balance(buyer).Equal(decimal.RequireFromString("12.75")))
	s.True(s.balance(merchant).Equal(decimal.RequireFromString("7.25")))

	items := s.entries(buyer)
	s.Require().Len(items, 2)
	s.Equal(domain.EntryTypeDebit, items[0].Entry.EntryType)
	s.Equal(merchant.Email, items[0].CounterpartyEmail)
	s.assertInvariants()
}

func (s *LedgerTestSuite) TestHistoryAfterTopUpAndTransfer() {
	alice := s.register()
	bob := s.register()
	s.topUp(alice, "100")

	_, err := s.transactions.Transfer(context.Background(), TransferArgs{
		SenderID:       alice.ID,
		RecipientEmail: bob.Email,
		Amount:         decimal.NewFromInt(30),
	})
	s.Require().NoError(err)

	items := s.entries(alice)
	s.Require().Len(items, 2)

	s.Equal(domain.EntryTypeDebit, items[0].Entry.EntryType)
	s.Equal(domain.TransactionTypeTransfer, items[0].Transaction.Type)
	s.Equal(bob.Email, items[0].CounterpartyEmail)
	s.False(items[0].SystemOriginated)

	s.Equal(domain.EntryTypeCredit, items[1].Entry.EntryType)
	s.Equal(domain.TransactionTypeTopUp, items[1].Transaction.Type)
	s.True(items[1].SystemOriginated)
	s.Greater(items[0].Entry.ID, items[1].Entry.ID)

	bobItems := s.entries(bob)
	s.Require().Len(bobItems, 1)
	s.Equal(domain.EntryTypeCredit, bobItems[0].Entry.EntryType)
	s.Equal(alice.Email, bobItems[0].CounterpartyEmail)

	s.True(s.balance(alice).Equal(decimal.NewFromInt(70)))
	s.True(s.balance(bob).Equal(decimal.NewFromInt(30)))
	s.assertInvariants()

	page, err := s.history.ListEntries(context.Background(), ListHistoryArgs{UserID: alice.ID, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	next, err := s.history.ListEntries(context.Background(), ListHistoryArgs{
		UserID:        alice.ID,
		Limit:         1,
		BeforeEntryID: page[0].Entry.ID,
	})
	s.Require().NoError(err)
	s.Require().Len(next, 1)
	s.Equal(items[1].Entry.ID, next[0].Entry.ID)
}

func (s *LedgerTestSuite) TestConcurrentTransfers() {
	sender := s.register()
	recipient := s.register()
	s.topUp(sender, "100")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.transactions.Transfer(context.Background(), TransferArgs{
				SenderID:       sender.ID,
				RecipientEmail: recipient.Email,
				Amount:         decimal.NewFromInt(60),
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case domain.IsBusinessError(err):
			s.Require().ErrorIs(err, domain.ErrInsufficientFunds)
			rejected++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, rejected)
	s.True(s.balance(sender).Equal(decimal.NewFromInt(40)))
	s.True(s.balance(recipient).Equal(decimal.NewFromInt(60)))
	s.assertInvariants()
}

func (s *LedgerTestSuite) TestIdempotentReplay() {
	sender := s.register()
	recipient := s.register()
	s.topUp(sender, "100")

	args := TransferArgs{
		SenderID:       sender.ID,
		RecipientEmail: recipient.Email,
		Amount:         decimal.NewFromInt(25),
		IdempotencyKey: "transfer-1",
	}
	first, err := s.transactions.Transfer(context.Background(), args)
	s.Require().NoError(err)

	_, err = s.transactions.Transfer(context.Background(), args)
	var dupErr *domain.DuplicateTransactionError
	s.Require().ErrorAs(err, &dupErr)
	s.Equal(first.ID, dupErr.Transaction.ID)

	args.Amount = decimal.NewFromInt(26)
	_, err = s.transactions.Transfer(context.Background(), args)
	s.Require().ErrorIs(err, domain.ErrIdempotencyKeyConflict)

	s.True(s.balance(sender).Equal(decimal.NewFromInt(75)))
	s.Len(s.entries(recipient), 1)
	s.assertInvariants()
}

func (s *LedgerTestSuite) TestIdempotencyKeyReusedForAnotherPayee() {
	sender := s.register()
	first := s.register()
	second := s.register()
	s.topUp(sender, "100")

	_, err := s.transactions.Transfer(context.Background(), TransferArgs{
		SenderID:       sender.ID,
		RecipientEmail: first.Email,
		Amount:         decimal.NewFromInt(10),
		IdempotencyKey: "k1",
	})
	s.Require().NoError(err)

	_, err = s.transactions.Transfer(context.Background(), TransferArgs{
		SenderID:       sender.ID,
		RecipientEmail: second.Email,
		Amount:         decimal.NewFromInt(10),
		IdempotencyKey: "k1",
	})
	s.Require().ErrorIs(err, domain.ErrIdempotencyKeyConflict)
	var dupErr *domain.DuplicateTransactionError
	s.False(errors.As(err, &dupErr))

	_, err = s.transactions.Purchase(context.Background(), PurchaseArgs{
		BuyerID:        sender.ID,
		MerchantEmail:  second.Email,
		Amount:         decimal.NewFromInt(5),
		IdempotencyKey: "p1",
	})
	s.Require().NoError(err)
	_, err = s.transactions.Purchase(context.Background(), PurchaseArgs{
		BuyerID:        sender.ID,
		MerchantEmail:  first.Email,
		Amount:         decimal.NewFromInt(5),
		IdempotencyKey: "p1",
	})
	s.Require().ErrorIs(err, domain.ErrIdempotencyKeyConflict)

	s.True(s.balance(sender).Equal(decimal.NewFromInt(85)))
	s.True(s.balance(first).Equal(decimal.NewFromInt(10)))
	s.True(s.balance(second).Equal(decimal.NewFromInt(5)))
	s.assertInvariants()
}

func (s *LedgerTestSuite) TestTopUpAboveMaxAmountRejected() {
	user := s.register()
	s.topUp(user, domain.MaxAmount.String())

	_, err := s.transactions.TopUp(context.Background(), TopUpArgs{
		UserID: user.ID,
		Amount: decimal.RequireFromString("0.01"),
	})
	s.Require().ErrorIs(err, domain.ErrInvalidAmount)

	_, err = s.transactions.TopUp(context.Background(), TopUpArgs{
		UserID: user.ID,
		Amount: decimal.RequireFromString("100000000000000000000000"),
	})
	s.Require().ErrorIs(err, domain.ErrInvalidAmount)

	s.True(s.balance(user).Equal(domain.MaxAmount))
	s.assertInvariants()
}

func (s *LedgerTestSuite) TestRecordRejectsImbalancedLegs() {
	user := s.register()
	recipient := s.register()
	s.topUp(user, "100")
	own, err := s.accounts.GetBalance(context.Background(), user.ID)
	s.Require().NoError(err)
	other, err := s.accounts.GetBalance(context.Background(), recipient.ID)
	s.Require().NoError(err)

	cases := []struct {
		name string
		legs []domain.Leg
	}{
		{name: "unequal", legs: []domain.Leg{
			{AccountID: own.ID, EntryType: domain.EntryTypeDebit, Amount: decimal.NewFromInt(10)},
			{AccountID: other.ID, EntryType: domain.EntryTypeCredit, Amount: decimal.NewFromInt(9)},
		}},
		{name: "one sided", legs: []domain.Leg{
			{AccountID: other.ID, EntryType: domain.EntryTypeCredit, Amount: decimal.NewFromInt(10)},
		}},
		{name: "unknown side", legs: []domain.Leg{
			{AccountID: own.ID, EntryType: "SIDEWAYS", Amount: decimal.NewFromInt(10)},
			{AccountID: other.ID, EntryType: domain.EntryTypeCredit, Amount: decimal.NewFromInt(10)},
		}},
	}
	for _, tt := range cases {
		s.Run(tt.name, func() {
			err := s.uow.Do(context.Background(), func(ctx context.Context, tx uow.TX) error {
				_, recErr := s.writer.Record(ctx, tx, RecordArgs{
					Type:        domain.TransactionTypeTransfer,
					InitiatorID: user.ID,
					Amount:      decimal.NewFromInt(10),
					Legs:        tt.legs,
				})
				return recErr
			})
			s.Require().ErrorIs(err, domain.ErrImbalancedEntry)
		})
	}

	s.True(s.balance(user).Equal(decimal.NewFromInt(100)))
	s.True(s.balance(recipient).IsZero())
	s.assertInvariants()
}
