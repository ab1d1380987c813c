package pgrepo

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	transactionColumns = `id, created_at, type, initiated_by_user_id, amount, status, COALESCE(idempotency_key, '')`
	entryColumns       = `id, created_at, transaction_id, account_id, entry_type, amount`
)

type LedgerRepository struct {
	conn uow.DBTX
}

func NewLedgerRepository(conn uow.DBTX) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

// CreateTransaction вставляет строку транзакции. Пустой ключ идемпотентности сохраняется как NULL.
// Повтор ключа тем же инициатором дает domain.ErrDuplicateKey.
func (l *LedgerRepository) CreateTransaction(
	ctx context.Context,
	args repoargs.CreateTransaction,
) (*domain.Transaction, error) {
	row := l.conn.QueryRow(ctx,
		`INSERT INTO transactions (type, initiated_by_user_id, amount, status, idempotency_key)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING `+transactionColumns,
		string(args.Type), args.InitiatorID, args.Amount, string(args.Status), args.IdempotencyKey,
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating %s transaction", args.Type)
	}
	return transaction, nil
}

// CreateEntries вставляет проводки одним пакетом. fn вызывается для каждой проводки в порядке entries.
func (l *LedgerRepository) CreateEntries(
	ctx context.Context,
	entries []repoargs.CreateEntry,
	fn repoargs.EntryBatchQueryRow,
) error {
	batch := new(pgx.Batch)
	for _, entry := range entries {
		batch.Queue(
			`INSERT INTO ledger_entries (transaction_id, account_id, entry_type, amount)
			VALUES ($1, $2, $3, $4)
			RETURNING `+entryColumns,
			entry.TransactionID, entry.AccountID, string(entry.EntryType), entry.Amount,
		)
	}

	br := l.conn.SendBatch(ctx, batch)
	for i := range entries {
		entry, err := scanEntry(br.QueryRow())
		fn(i, entry, convertErr(err, "creating ledger entry"))
	}
	return convertErr(br.Close(), "creating ledger entries")
}

func (l *LedgerRepository) FindByIdempotencyKey(
	ctx context.Context,
	initiatorID uuid.UUID,
	key string,
) (*domain.Transaction, error) {
	row := l.conn.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE initiated_by_user_id = $1 AND idempotency_key = $2`,
		initiatorID, key,
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "finding transaction by idempotency key %s", key)
	}
	return transaction, nil
}

func (l *LedgerRepository) FindEntriesByTransaction(
	ctx context.Context,
	transactionID int64,
) ([]domain.LedgerEntry, error) {
	rows, err := l.conn.Query(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE transaction_id = $1 ORDER BY id`,
		transactionID,
	)
	if err != nil {
		return nil, convertErr(err, "finding entries of transaction %d", transactionID)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerEntry, error) {
		entry, scanErr := scanEntry(row)
		if scanErr != nil {
			return domain.LedgerEntry{}, scanErr
		}
		return *entry, nil
	})
	if err != nil {
		return nil, convertErr(err, "finding entries of transaction %d", transactionID)
	}
	return entries, nil
}

// ListHistory возвращает проводки счета от новых к старым вместе с транзакцией, email инициатора и
// владельцем противоположной стороны транзакции.
func (l *LedgerRepository) ListHistory(ctx context.Context, args repoargs.ListHistory) ([]repoargs.HistoryRow, error) {
	limit, err := safeConvertUintToInt32(args.Limit)
	if err != nil {
		return nil, fmt.Errorf("[repository/listing history] %w", err)
	}

	rows, err := l.conn.Query(ctx,
		`SELECT e.id, e.created_at, e.transaction_id, e.account_id, e.entry_type, e.amount,
			t.id, t.created_at, t.type, t.initiated_by_user_id, t.amount, t.status, COALESCE(t.idempotency_key, ''),
			iu.email,
			COALESCE(cp.user_id, '00000000-0000-0000-0000-000000000000'::uuid), COALESCE(cp.email, '')
		FROM ledger_entries e
		JOIN transactions t ON t.id = e.transaction_id
		JOIN users iu ON iu.id = t.initiated_by_user_id
		LEFT JOIN LATERAL (
			SELECT a.user_id, u.email
			FROM ledger_entries o
			JOIN accounts a ON a.id = o.account_id
			JOIN users u ON u.id = a.user_id
			WHERE o.transaction_id = e.transaction_id AND o.entry_type <> e.entry_type
			ORDER BY o.id
			LIMIT 1
		) cp ON TRUE
		WHERE e.account_id = $1 AND ($2::bigint = 0 OR e.id < $2::bigint)
		ORDER BY e.id DESC
		LIMIT $3`,
		args.AccountID, args.BeforeID, limit,
	)
	if err != nil {
		return nil, convertErr(err, "listing history of account %d", args.AccountID)
	}

	history, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repoargs.HistoryRow, error) {
		var (
			h      repoargs.HistoryRow
			eType  string
			tType  string
			status string
		)
		scanErr := row.Scan(
			&h.Entry.ID, &h.Entry.CreatedAt, &h.Entry.TransactionID, &h.Entry.AccountID, &eType, &h.Entry.Amount,
			&h.Transaction.ID, &h.Transaction.CreatedAt, &tType, &h.Transaction.InitiatorID,
			&h.Transaction.Amount, &status, &h.Transaction.IdempotencyKey,
			&h.InitiatorEmail,
			&h.CounterpartyUserID, &h.CounterpartyEmail,
		)
		h.Entry.EntryType = domain.EntryType(eType)
		h.Transaction.Type = domain.TransactionType(tType)
		h.Transaction.Status = domain.TransactionStatus(status)
		return h, scanErr
	})
	if err != nil {
		return nil, convertErr(err, "listing history of account %d", args.AccountID)
	}
	return history, nil
}

// BalanceSum возвращает сохраненный баланс счета и сумму его проводок со знаком, прочитанные одним запросом.
func (l *LedgerRepository) BalanceSum(ctx context.Context, accountID int64) (*repoargs.AccountBalanceSum, error) {
	res := repoargs.AccountBalanceSum{AccountID: accountID}
	err := l.conn.QueryRow(ctx,
		`SELECT a.balance, COALESCE(SUM(CASE WHEN e.entry_type = 'CREDIT' THEN e.amount ELSE -e.amount END), 0)
		FROM accounts a
		LEFT JOIN ledger_entries e ON e.account_id = a.id
		WHERE a.id = $1
		GROUP BY a.id, a.balance`,
		accountID,
	).Scan(&res.Balance, &res.EntrySum)
	if err != nil {
		return nil, convertErr(err, "summing entries of account %d", accountID)
	}
	return &res, nil
}

// FindUnbalanced возвращает до limit транзакций, у которых сумма кредитов не совпадает с суммой дебетов.
func (l *LedgerRepository) FindUnbalanced(ctx context.Context, limit uint) ([]repoargs.UnbalancedTransaction, error) {
	lim, err := safeConvertUintToInt32(limit)
	if err != nil {
		return nil, fmt.Errorf("[repository/finding unbalanced transactions] %w", err)
	}
	rows, err := l.conn.Query(ctx,
		`SELECT transaction_id,
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'CREDIT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'DEBIT'), 0)
		FROM ledger_entries
		GROUP BY transaction_id
		HAVING COALESCE(SUM(amount) FILTER (WHERE entry_type = 'CREDIT'), 0)
			<> COALESCE(SUM(amount) FILTER (WHERE entry_type = 'DEBIT'), 0)
		ORDER BY transaction_id
		LIMIT $1`,
		lim,
	)
	if err != nil {
		return nil, convertErr(err, "finding unbalanced transactions")
	}
	res, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repoargs.UnbalancedTransaction, error) {
		var u repoargs.UnbalancedTransaction
		scanErr := row.Scan(&u.TransactionID, &u.CreditSum, &u.DebitSum)
		return u, scanErr
	})
	if err != nil {
		return nil, convertErr(err, "finding unbalanced transactions")
	}
	return res, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		tType  string
		status string
	)
	if err := row.Scan(&t.ID, &t.CreatedAt, &tType, &t.InitiatorID, &t.Amount, &status, &t.IdempotencyKey); err != nil {
		return nil, err //nolint:wrapcheck
	}
	t.Type = domain.TransactionType(tType)
	t.Status = domain.TransactionStatus(status)
	return &t, nil
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		e     domain.LedgerEntry
		eType string
	)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.TransactionID, &e.AccountID, &eType, &e.Amount); err != nil {
		return nil, err //nolint:wrapcheck
	}
	e.EntryType = domain.EntryType(eType)
	return &e, nil
}
