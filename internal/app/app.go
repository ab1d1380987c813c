package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/groph-wallet/internal/config"
	"github.com/fsdevblog/groph-wallet/internal/reconcile"
	"github.com/fsdevblog/groph-wallet/internal/repository/memrepo"
	"github.com/fsdevblog/groph-wallet/internal/repository/pgrepo"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/internal/service"
	"github.com/fsdevblog/groph-wallet/internal/transport/api"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

const (
	startupTimeout    = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
)

var (
	_ service.UserRepository    = (*pgrepo.UserRepository)(nil)
	_ service.AccountRepository = (*pgrepo.AccountRepository)(nil)
	_ service.LedgerRepository  = (*pgrepo.LedgerRepository)(nil)
	_ service.UserRepository    = (*memrepo.UserRepository)(nil)
	_ service.AccountRepository = (*memrepo.AccountRepository)(nil)
	_ service.LedgerRepository  = (*memrepo.LedgerRepository)(nil)

	_ uow.UOW = (*uow.UnitOfWork)(nil)
	_ uow.UOW = (*memrepo.UnitOfWork)(nil)
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

// Run поднимает хранилище, HTTP сервер и фоновую сверку леджера и ждет сигнала остановки.
// При штатной остановке возвращает context.Canceled.
func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.WithFields(logrus.Fields{
		"runAddress":        a.Config.RunAddress,
		"inMemory":          a.Config.InMemory,
		"currency":          a.Config.Currency,
		"reconcileInterval": a.Config.ReconcileInterval,
		"reconcileWorkers":  a.Config.ReconcileWorkers,
	}).Info("Starting app")

	unitOfWork, closeStorage, storageErr := a.initStorage(notifyCtx)
	if storageErr != nil {
		return fmt.Errorf("app run: %s", storageErr.Error())
	}
	defer closeStorage()

	services, sErr := service.Factory(service.FactoryArgs{
		UOW:       unitOfWork,
		JWTSecret: []byte(a.Config.JWTUserSecret),
		Currency:  a.Config.Currency,
		Logger:    a.Logger,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	startCtx, cancel := context.WithTimeout(notifyCtx, startupTimeout)
	defer cancel()
	if _, err := services.AccountService.EnsureSystemAccount(startCtx); err != nil {
		return fmt.Errorf("app run: %s", err.Error())
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:             a.Logger,
		UserService:        services.UserService,
		AccountService:     services.AccountService,
		TransactionService: services.TransactionService,
		HistoryService:     services.HistoryService,
		JWTSecretKey:       []byte(a.Config.JWTUserSecret),
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	server := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	reconciler := reconcile.New(services.AuditService, a.Logger).
		SetWorkers(a.Config.ReconcileWorkers).
		SetInterval(a.Config.ReconcileInterval)

	g, gCtx := errgroup.WithContext(notifyCtx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return reconciler.Run(gCtx)
	})

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck
	}
	return notifyCtx.Err() //nolint:wrapcheck
}

// initStorage выбирает хранилище по конфигурации. Возвращаемая функция освобождает ресурсы хранилища.
func (a *App) initStorage(ctx context.Context) (uow.UOW, func(), error) {
	if a.Config.InMemory {
		a.Logger.Warn("Using in-memory storage, data will be lost on exit")
		return memrepo.NewUnitOfWork(memrepo.NewStore()), func() {}, nil
	}

	conn, connErr := pgrepo.Connect(ctx, pgrepo.ConnectArgs{
		DSN:           a.Config.DatabaseDSN,
		MigrationsDir: a.Config.MigrationsDir,
	}, a.Logger)
	if connErr != nil {
		return nil, nil, fmt.Errorf("init storage: %w", connErr)
	}

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("init storage: %w", uowErr)
	}
	return unitOfWork, conn.Close, nil
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	// user repo
	userRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewUserRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.UserRepoName), userRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	// account repo
	accountRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewAccountRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.AccountRepoName), accountRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	// ledger repo
	ledgerRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewLedgerRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.LedgerRepoName), ledgerRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	return unitOfWork, nil
}
