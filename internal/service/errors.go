package service

import (
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
)

// storageErr оборачивает ошибку хранилища для операции op. Отказы по бизнес-правилам, конфликты ключей
// и повтор идемпотентной операции возвращаются с контекстом как есть. Все остальные сбои помечаются
// domain.ErrStorageUnavailable: единица работы откатилась, ничего не зафиксировано.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var dupErr *domain.DuplicateTransactionError
	if domain.IsBusinessError(err) ||
		errors.Is(err, domain.ErrImbalancedEntry) ||
		errors.Is(err, domain.ErrDuplicateKey) ||
		errors.Is(err, domain.ErrStorageUnavailable) ||
		errors.As(err, &dupErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
