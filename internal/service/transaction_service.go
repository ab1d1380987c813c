package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService пополнения, переводы и покупки. Каждая операция выполняется одной единицей работы
// и завершается одним результатом: зафиксированной транзакцией или ошибкой без побочных эффектов.
type TransactionService struct {
	uow        uow.UOW
	ledgerRepo LedgerRepository
	writer     *LedgerWriter
	currency   string
}

func NewTransactionService(u uow.UOW, writer *LedgerWriter, currency string) (*TransactionService, error) {
	ledgerRepo, err := uow.GetRepositoryAs[LedgerRepository](u, uow.RepositoryName(repoargs.LedgerRepoName))
	if err != nil {
		return nil, fmt.Errorf("transaction service: %w", err)
	}
	return &TransactionService{
		uow:        u,
		ledgerRepo: ledgerRepo,
		writer:     writer,
		currency:   currency,
	}, nil
}

type TopUpArgs struct {
	UserID         uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string
}

// TopUp зачисляет amount на счет юзера с системного счета пополнений.
func (s *TransactionService) TopUp(ctx context.Context, args TopUpArgs) (*domain.Transaction, error) {
	const op = "top up"
	if err := domain.ValidateAmount(args.Amount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.execute(ctx, op, args.UserID, domain.TransactionTypeTopUp, args.Amount, args.IdempotencyKey,
		func(c context.Context, tx uow.TX) ([]domain.Leg, error) {
			accountRepo, err := uow.GetAs[AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
			if err != nil {
				return nil, err //nolint:wrapcheck
			}
			own, err := s.ownAccount(c, accountRepo, args.UserID)
			if err != nil {
				return nil, err
			}
			system, err := accountRepo.FindSystemAccount(c, s.currency)
			if err != nil {
				return nil, fmt.Errorf("finding funding account: %w", err)
			}
			return []domain.Leg{
				{AccountID: system.ID, EntryType: domain.EntryTypeDebit, Amount: args.Amount},
				{AccountID: own.ID, EntryType: domain.EntryTypeCredit, Amount: args.Amount},
			}, nil
		})
}

type TransferArgs struct {
	SenderID       uuid.UUID
	RecipientEmail string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// Transfer переводит amount со счета отправителя на счет получателя, найденного по email.
func (s *TransactionService) Transfer(ctx context.Context, args TransferArgs) (*domain.Transaction, error) {
	return s.pay(ctx, "transfer", domain.TransactionTypeTransfer, payArgs{
		payerID:        args.SenderID,
		payeeEmail:     args.RecipientEmail,
		amount:         args.Amount,
		idempotencyKey: args.IdempotencyKey,
		payeeNotFound:  domain.ErrRecipientNotFound,
	})
}

type PurchaseArgs struct {
	BuyerID        uuid.UUID
	MerchantEmail  string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// Purchase оплата мерчанту. Отличается от перевода типом транзакции и ошибкой ненайденного получателя.
func (s *TransactionService) Purchase(ctx context.Context, args PurchaseArgs) (*domain.Transaction, error) {
	return s.pay(ctx, "purchase", domain.TransactionTypePurchase, payArgs{
		payerID:        args.BuyerID,
		payeeEmail:     args.MerchantEmail,
		amount:         args.Amount,
		idempotencyKey: args.IdempotencyKey,
		payeeNotFound:  domain.ErrMerchantNotFound,
	})
}

type payArgs struct {
	payerID        uuid.UUID
	payeeEmail     string
	amount         decimal.Decimal
	idempotencyKey string
	payeeNotFound  error
}

func (s *TransactionService) pay(
	ctx context.Context,
	op string,
	tType domain.TransactionType,
	args payArgs,
) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(args.amount); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.execute(ctx, op, args.payerID, tType, args.amount, args.idempotencyKey,
		func(c context.Context, tx uow.TX) ([]domain.Leg, error) {
			accountRepo, err := uow.GetAs[AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
			if err != nil {
				return nil, err //nolint:wrapcheck
			}
			userRepo, err := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
			if err != nil {
				return nil, err //nolint:wrapcheck
			}

			payer, err := s.ownAccount(c, accountRepo, args.payerID)
			if err != nil {
				return nil, err
			}

			payee, err := userRepo.FindUserByEmail(c, args.payeeEmail)
			if err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w: %s", args.payeeNotFound, args.payeeEmail)
				}
				return nil, err //nolint:wrapcheck
			}
			if payee.IsSystem {
				return nil, fmt.Errorf("%w: %s", args.payeeNotFound, args.payeeEmail)
			}
			if payee.ID == args.payerID {
				return nil, domain.ErrSelfTransferNotAllowed
			}

			payeeAccount, err := accountRepo.FindByUserID(c, payee.ID, s.currency)
			if err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w: %s has no %s account", args.payeeNotFound, args.payeeEmail, s.currency)
				}
				return nil, err //nolint:wrapcheck
			}

			return []domain.Leg{
				{AccountID: payer.ID, EntryType: domain.EntryTypeDebit, Amount: args.amount},
				{AccountID: payeeAccount.ID, EntryType: domain.EntryTypeCredit, Amount: args.amount},
			}, nil
		})
}

type legsResolver func(ctx context.Context, tx uow.TX) ([]domain.Leg, error)

// execute общая часть операций: сбор сторон, проверка ключа идемпотентности и запись в леджер
// в одной единице работы.
func (s *TransactionService) execute(
	ctx context.Context,
	op string,
	initiatorID uuid.UUID,
	tType domain.TransactionType,
	amount decimal.Decimal,
	idempotencyKey string,
	resolve legsResolver,
) (*domain.Transaction, error) {
	var (
		transaction *domain.Transaction
		legs        []domain.Leg
	)
	err := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		var err error
		legs, err = resolve(c, tx)
		if err != nil {
			return err
		}

		if idempotencyKey != "" {
			ledgerRepo, repoErr := uow.GetAs[LedgerRepository](tx, uow.RepositoryName(repoargs.LedgerRepoName))
			if repoErr != nil {
				return repoErr //nolint:wrapcheck
			}
			replay := replayArgs{initiatorID: initiatorID, tType: tType, amount: amount, key: idempotencyKey, legs: legs}
			if replayErr := s.checkReplay(c, ledgerRepo, replay); replayErr != nil {
				return replayErr
			}
		}

		res, err := s.writer.Record(c, tx, RecordArgs{
			Type:           tType,
			InitiatorID:    initiatorID,
			Amount:         amount,
			IdempotencyKey: idempotencyKey,
			Legs:           legs,
		})
		if err != nil {
			return err
		}
		transaction = res.Transaction
		return nil
	})

	// параллельный запрос с тем же ключом успел зафиксироваться первым
	if err != nil && idempotencyKey != "" && errors.Is(err, domain.ErrDuplicateKey) && legs != nil {
		replay := replayArgs{initiatorID: initiatorID, tType: tType, amount: amount, key: idempotencyKey, legs: legs}
		if replayErr := s.checkReplay(ctx, s.ledgerRepo, replay); replayErr != nil {
			err = replayErr
		}
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return transaction, nil
}

type replayArgs struct {
	initiatorID uuid.UUID
	tType       domain.TransactionType
	amount      decimal.Decimal
	key         string
	legs        []domain.Leg
}

// checkReplay возвращает *domain.DuplicateTransactionError, если ключ уже использован для той же
// операции между теми же счетами, domain.ErrIdempotencyKeyConflict, если для другой, и nil, если ключ свободен.
func (s *TransactionService) checkReplay(ctx context.Context, ledgerRepo LedgerRepository, args replayArgs) error {
	existing, err := ledgerRepo.FindByIdempotencyKey(ctx, args.initiatorID, args.key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil
		}
		return err //nolint:wrapcheck
	}
	if existing.Type != args.tType || !existing.Amount.Equal(args.amount) {
		return fmt.Errorf("%w: key %s", domain.ErrIdempotencyKeyConflict, args.key)
	}

	entries, err := ledgerRepo.FindEntriesByTransaction(ctx, existing.ID)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if !sameLegs(entries, args.legs) {
		return fmt.Errorf("%w: key %s used for other accounts", domain.ErrIdempotencyKeyConflict, args.key)
	}
	return domain.NewDuplicateTransactionError(existing)
}

// sameLegs сравнивает проводки записанной транзакции со сторонами нового запроса без учета порядка.
func sameLegs(entries []domain.LedgerEntry, legs []domain.Leg) bool {
	if len(entries) != len(legs) {
		return false
	}
	used := make([]bool, len(entries))
	for _, leg := range legs {
		found := false
		for i, e := range entries {
			if used[i] || e.AccountID != leg.AccountID || e.EntryType != leg.EntryType || !e.Amount.Equal(leg.Amount) {
				continue
			}
			used[i] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *TransactionService) ownAccount(
	ctx context.Context,
	accountRepo AccountRepository,
	userID uuid.UUID,
) (*domain.Account, error) {
	account, err := accountRepo.FindByUserID(ctx, userID, s.currency)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrAccountNotFound, userID)
		}
		return nil, err //nolint:wrapcheck
	}
	return account, nil
}
