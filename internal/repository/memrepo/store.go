// Package memrepo хранилище леджера в памяти процесса. Реализует те же репозитории, что и pgrepo, и
// uow.UOW поверх снимков состояния: единица работы получает копию, при фиксации копия заменяет текущее
// состояние. Единицы работы выполняются строго по одной.
package memrepo

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/google/uuid"
)

type state struct {
	users         map[uuid.UUID]domain.User
	accounts      map[int64]domain.Account
	transactions  map[int64]domain.Transaction
	entries       []domain.LedgerEntry
	lastAccountID int64
	lastTxID      int64
	lastEntryID   int64
}

func newState() *state {
	return &state{
		users:        make(map[uuid.UUID]domain.User),
		accounts:     make(map[int64]domain.Account),
		transactions: make(map[int64]domain.Transaction),
	}
}

// clone полная копия состояния. Каждая единица работы стоит O(всей истории), для локальных запусков и тестов
// этого достаточно.
func (s *state) clone() *state {
	c := &state{
		users:         make(map[uuid.UUID]domain.User, len(s.users)),
		accounts:      make(map[int64]domain.Account, len(s.accounts)),
		transactions:  make(map[int64]domain.Transaction, len(s.transactions)),
		entries:       make([]domain.LedgerEntry, len(s.entries)),
		lastAccountID: s.lastAccountID,
		lastTxID:      s.lastTxID,
		lastEntryID:   s.lastEntryID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	copy(c.entries, s.entries)
	return c
}

type Store struct {
	mu      sync.RWMutex
	current *state
	// sem единственный слот на запись. Его держит либо единица работы, либо одиночная запись вне нее.
	sem chan struct{}
	now func() time.Time
}

func NewStore() *Store {
	st := newState()
	now := time.Now().UTC()
	st.users[domain.SystemUserID] = domain.User{
		ID:        domain.SystemUserID,
		CreatedAt: now,
		UpdatedAt: now,
		Email:     domain.SystemUserEmail,
		FullName:  domain.SystemCounterpartyLabel,
		IsSystem:  true,
	}
	return &Store{
		current: st,
		sem:     make(chan struct{}, 1),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// accessor дает репозиториям доступ к состоянию. Вне единицы работы это текущее состояние хранилища,
// внутри нее приватная копия.
type accessor interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
	now() time.Time
}

type liveAccessor struct {
	store *Store
}

func (l liveAccessor) read(fn func(st *state) error) error {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	return fn(l.store.current)
}

// write применяет fn к копии и фиксирует ее, если fn не вернула ошибку.
func (l liveAccessor) write(fn func(st *state) error) error {
	l.store.sem <- struct{}{}
	defer func() { <-l.store.sem }()

	l.store.mu.RLock()
	draft := l.store.current.clone()
	l.store.mu.RUnlock()

	if err := fn(draft); err != nil {
		return err
	}
	l.store.mu.Lock()
	l.store.current = draft
	l.store.mu.Unlock()
	return nil
}

func (l liveAccessor) now() time.Time {
	return l.store.now()
}

type txAccessor struct {
	draft *state
	clock func() time.Time
}

func (t txAccessor) read(fn func(st *state) error) error {
	return fn(t.draft)
}

func (t txAccessor) write(fn func(st *state) error) error {
	return fn(t.draft)
}

func (t txAccessor) now() time.Time {
	return t.clock()
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("[memrepo/%s] %w", fmt.Sprintf(format, args...), domain.ErrRecordNotFound)
}
