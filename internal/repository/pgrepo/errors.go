package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode      = "23505"
	checkViolationCode       = "23514"
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
	connectionExceptionClass = "08"
	numericOutOfRangeCode    = "22003"

	balanceNonNegativeConstraint = "accounts_balance_non_negative"
)

// convertErr преобразует ошибку к стандартному виду для слоя репозитория.
// Добавляет форматированное сообщение контекста, тип бизнес-ошибки и оригинальное сообщение.
// Особенности:
//   - pgx.ErrNoRows превращается в domain.ErrRecordNotFound.
//   - Нарушение уникальности (23505) превращается в domain.ErrDuplicateKey.
//   - Нарушение ограничения неотрицательного баланса (23514) превращается в domain.ErrInsufficientFunds.
//   - Выход суммы за пределы NUMERIC(20,2) (22003) превращается в domain.ErrInvalidAmount.
//   - Ошибки сериализации, дедлоки, обрывы соединения, таймауты и отмена контекста превращаются
//     в domain.ErrStorageUnavailable.
//   - Все остальные ошибки возвращаются как domain.ErrUnknown с оригинальным сообщением.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", msg, domain.ErrRecordNotFound)
	}

	return fmt.Errorf("[repository/%s] %w: %s", msg, classifyErr(err), err.Error())
}

func classifyErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolationCode:
			return domain.ErrDuplicateKey
		case pgErr.Code == checkViolationCode && pgErr.ConstraintName == balanceNonNegativeConstraint:
			return domain.ErrInsufficientFunds
		case pgErr.Code == numericOutOfRangeCode:
			return domain.ErrInvalidAmount
		case pgErr.Code == serializationFailureCode,
			pgErr.Code == deadlockDetectedCode,
			strings.HasPrefix(pgErr.Code, connectionExceptionClass):
			return domain.ErrStorageUnavailable
		}
		return domain.ErrUnknown
	}

	// pgconn.Timeout не узнает голый context.DeadlineExceeded, который pgx отдает при истекшем контексте запроса.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ErrStorageUnavailable
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return domain.ErrStorageUnavailable
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return domain.ErrStorageUnavailable
	}
	return domain.ErrUnknown
}
