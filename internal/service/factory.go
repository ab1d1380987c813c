package service

import (
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/service/psswd"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/sirupsen/logrus"
)

type AppServices struct {
	UserService        *UserService
	AccountService     *AccountService
	TransactionService *TransactionService
	HistoryService     *HistoryService
	AuditService       *AuditService
}

type FactoryArgs struct {
	UOW       uow.UOW
	JWTSecret []byte
	Currency  string
	Logger    *logrus.Logger
}

func Factory(args FactoryArgs) (*AppServices, error) {
	userService, userServiceErr := NewUserService(args.UOW, args.JWTSecret, psswd.BcryptHasher{}, args.Currency)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	accountService, accountServiceErr := NewAccountService(args.UOW, args.Currency)
	if accountServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", accountServiceErr.Error())
	}

	transactionService, trServiceErr := NewTransactionService(args.UOW, NewLedgerWriter(args.Logger), args.Currency)
	if trServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", trServiceErr.Error())
	}

	historyService, historyServiceErr := NewHistoryService(args.UOW, args.Currency)
	if historyServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", historyServiceErr.Error())
	}

	auditService, auditServiceErr := NewAuditService(args.UOW)
	if auditServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", auditServiceErr.Error())
	}

	return &AppServices{
		UserService:        userService,
		AccountService:     accountService,
		TransactionService: transactionService,
		HistoryService:     historyService,
		AuditService:       auditService,
	}, nil
}
