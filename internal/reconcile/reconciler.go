// Package reconcile фоновая сверка инвариантов леджера: баланс каждого счета равен сумме его проводок,
// кредиты каждой транзакции равны дебетам.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/logger"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const (
	defaultServiceTimeout         = 3 * time.Second
	defaultInterval               = 30 * time.Second
	defaultLimitPerIteration uint = 100
	defaultWorkers           uint = 4
	intervalJitter                = 0.1
)

// Stats счетчики сверки с момента запуска.
type Stats struct {
	Passes     uint64
	Audited    uint64
	Mismatched uint64
	Unbalanced uint64
	Failed     uint64
}

type Reconciler struct {
	svs               Auditor
	l                 *logrus.Entry
	limitPerIteration uint
	workers           uint
	interval          time.Duration

	passes     atomic.Uint64
	audited    atomic.Uint64
	mismatched atomic.Uint64
	unbalanced atomic.Uint64
	failed     atomic.Uint64
}

func New(svs Auditor, l *logrus.Logger) *Reconciler {
	return &Reconciler{
		svs:               svs,
		l:                 logger.Component(l, "reconcile", "reconciler"),
		limitPerIteration: defaultLimitPerIteration,
		workers:           defaultWorkers,
		interval:          defaultInterval,
	}
}

// SetLimitPerIteration устанавливает кол-во счетов, сверяемых за одну страницу.
func (r *Reconciler) SetLimitPerIteration(limit uint) *Reconciler {
	if limit > 0 {
		r.limitPerIteration = limit
	}
	return r
}

// SetWorkers устанавливает кол-во воркеров, параллельно сверяющих счета.
func (r *Reconciler) SetWorkers(workers uint) *Reconciler {
	if workers > 0 {
		r.workers = workers
	}
	return r
}

// SetInterval устанавливает паузу между проходами.
func (r *Reconciler) SetInterval(interval time.Duration) *Reconciler {
	if interval > 0 {
		r.interval = interval
	}
	return r
}

func (r *Reconciler) Stats() Stats {
	return Stats{
		Passes:     r.passes.Load(),
		Audited:    r.audited.Load(),
		Mismatched: r.mismatched.Load(),
		Unbalanced: r.unbalanced.Load(),
		Failed:     r.failed.Load(),
	}
}

// Run запускает сверку в бесконечном цикле до отмены контекста. Всегда возвращает nil.
//
// Каждый проход:
//  1. Постранично (SetLimitPerIteration) читает счета в порядке id.
//  2. Раздает страницу N воркерам (SetWorkers), каждый сравнивает баланс счета с суммой проводок.
//  3. Собирает результаты и пишет расхождения в лог с уровнем error.
//  4. Ищет транзакции, у которых кредиты не равны дебетам.
func (r *Reconciler) Run(ctx context.Context) error {
	r.l.WithFields(logrus.Fields{
		"limitPerIteration": r.limitPerIteration,
		"workers":           r.workers,
		"interval":          r.interval,
	}).Info("Starting")

	for {
		if err := r.process(ctx); err != nil && !errors.Is(err, ErrNoAccounts) && ctx.Err() == nil {
			r.l.WithError(err).Error("process error")
		}

		select {
		case <-ctx.Done():
			r.l.WithFields(r.statsFields()).Info("Got stop signal, exiting...")
			return nil
		case <-time.After(jitter(r.interval, intervalJitter)):
		}
	}
}

// process один полный проход по всем счетам и транзакциям. Возвращает ErrNoAccounts, если счетов нет.
func (r *Reconciler) process(ctx context.Context) error {
	r.passes.Inc()

	var afterID int64
	for {
		accounts, err := r.produce(ctx, afterID)
		if err != nil {
			if errors.Is(err, ErrNoAccounts) && afterID > 0 {
				break
			}
			return fmt.Errorf("process: %w", err)
		}

		r.collect(r.runWorkers(ctx, accounts))

		if uint(len(accounts)) < r.limitPerIteration {
			break
		}
		afterID = accounts[len(accounts)-1].ID
	}

	if err := r.checkTransactions(ctx); err != nil {
		return fmt.Errorf("process: %w", err)
	}
	r.l.WithFields(r.statsFields()).Debug("Pass finished")
	return nil
}

type workerResult struct {
	WorkerID uint
	Account  *domain.Account
	Mismatch *BalanceMismatchError
	Error    error
}

// runWorkers fan-out/fan-in: раздает счета воркерам и ждет окончания их работы.
func (r *Reconciler) runWorkers(ctx context.Context, accounts []domain.Account) []workerResult {
	var taskCh = make(chan *domain.Account, len(accounts))
	for i := range accounts {
		taskCh <- &accounts[i]
	}
	close(taskCh)

	wg := new(sync.WaitGroup)
	wg.Add(int(r.workers)) // nolint:gosec

	var resultCh = make(chan workerResult, len(accounts))

	for i := range r.workers {
		go r.worker(ctx, wg, i+1, taskCh, resultCh)
	}
	wg.Wait()

	close(resultCh)

	var results = make([]workerResult, 0, len(accounts))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (r *Reconciler) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	workerID uint,
	taskCh <-chan *domain.Account,
	resultCh chan<- workerResult,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-taskCh:
			if !ok {
				return
			}
			resultCh <- r.verify(ctx, workerID, task)
		}
	}
}

func (r *Reconciler) verify(ctx context.Context, workerID uint, account *domain.Account) workerResult {
	result := workerResult{WorkerID: workerID, Account: account}

	reqCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	sum, err := r.svs.VerifyAccount(reqCtx, account.ID)
	if err != nil {
		result.Error = err
		return result
	}
	if !sum.Balance.Equal(sum.EntrySum) {
		result.Mismatch = &BalanceMismatchError{
			AccountID: sum.AccountID,
			Balance:   sum.Balance,
			EntrySum:  sum.EntrySum,
		}
	}
	return result
}

func (r *Reconciler) collect(results []workerResult) {
	for _, result := range results {
		l := r.l.WithFields(logrus.Fields{
			"worker":    result.WorkerID,
			"accountID": result.Account.ID,
		})
		switch {
		case result.Error != nil:
			r.failed.Inc()
			l.WithError(result.Error).Warn("verify account")
		case result.Mismatch != nil:
			r.audited.Inc()
			r.mismatched.Inc()
			l.WithFields(logrus.Fields{
				"balance":  domain.FormatAmount(result.Mismatch.Balance),
				"entrySum": domain.FormatAmount(result.Mismatch.EntrySum),
			}).Error(result.Mismatch.Error())
		default:
			r.audited.Inc()
		}
	}
}

func (r *Reconciler) checkTransactions(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	unbalanced, err := r.svs.FindUnbalanced(reqCtx, r.limitPerIteration)
	if err != nil {
		return fmt.Errorf("check transactions: %w", err)
	}
	for _, tx := range unbalanced {
		r.l.WithFields(logrus.Fields{
			"transactionID": tx.TransactionID,
			"creditSum":     domain.FormatAmount(tx.CreditSum),
			"debitSum":      domain.FormatAmount(tx.DebitSum),
		}).Error("unbalanced transaction")
	}
	r.unbalanced.Add(uint64(len(unbalanced)))
	return nil
}

// produce страница счетов с id больше afterID. Возвращает ErrNoAccounts, если страница пуста.
func (r *Reconciler) produce(ctx context.Context, afterID int64) ([]domain.Account, error) {
	produceCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	accounts, err := r.svs.ListAccounts(produceCtx, afterID, r.limitPerIteration)
	if err != nil {
		return nil, fmt.Errorf("produce: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return accounts, nil
}

func (r *Reconciler) statsFields() logrus.Fields {
	st := r.Stats()
	return logrus.Fields{
		"passes":     st.Passes,
		"audited":    st.Audited,
		"mismatched": st.Mismatched,
		"unbalanced": st.Unbalanced,
		"failed":     st.Failed,
	}
}
