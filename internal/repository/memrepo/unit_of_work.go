package memrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

var ErrForeignRepository = errors.New("[memrepo] only built-in repositories are supported")

type UnitOfWork struct {
	store *Store
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Register оставлен для совместимости с uow.UOW. Репозитории хранилища в памяти встроены, фабрики
// поверх uow.DBTX ему не нужны.
func (u *UnitOfWork) Register(name uow.RepositoryName, factory uow.RepositoryFactory) error {
	if factory == nil {
		return uow.ErrNilRepositoryFactory
	}
	if _, err := build(name, nil); err == nil {
		return uow.ErrRepositoryAlreadyRegistered
	}
	return ErrForeignRepository
}

// Do выполняет fn над копией состояния и фиксирует копию, если fn завершилась без ошибки. Ожидание
// очереди прерывается отменой ctx.
func (u *UnitOfWork) Do(ctx context.Context, fn func(context.Context, uow.TX) error) error {
	select {
	case u.store.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("[memrepo] begin transaction: %w", ctx.Err())
	}
	defer func() { <-u.store.sem }()

	u.store.mu.RLock()
	draft := u.store.current.clone()
	u.store.mu.RUnlock()

	tx := &transaction{
		acc:   txAccessor{draft: draft, clock: u.store.now},
		built: make(map[uow.RepositoryName]uow.Repository),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("[memrepo] commit transaction: %w", err)
	}

	u.store.mu.Lock()
	u.store.current = draft
	u.store.mu.Unlock()
	return nil
}

func (u *UnitOfWork) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	return build(name, liveAccessor{store: u.store})
}

type transaction struct {
	acc   accessor
	built map[uow.RepositoryName]uow.Repository
}

func (t *transaction) Get(name uow.RepositoryName) (uow.Repository, error) {
	if repo, ok := t.built[name]; ok {
		return repo, nil
	}
	repo, err := build(name, t.acc)
	if err != nil {
		return nil, err
	}
	t.built[name] = repo
	return repo, nil
}

func build(name uow.RepositoryName, acc accessor) (uow.Repository, error) {
	switch repoargs.RepositoryName(name) {
	case repoargs.UserRepoName:
		return &UserRepository{acc: acc}, nil
	case repoargs.AccountRepoName:
		return &AccountRepository{acc: acc}, nil
	case repoargs.LedgerRepoName:
		return &LedgerRepository{acc: acc}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}
