package reconcile

import (
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNoAccounts = errors.New("no accounts")
)

// BalanceMismatchError сохраненный баланс счета не совпадает с суммой его проводок.
type BalanceMismatchError struct {
	AccountID int64
	Balance   decimal.Decimal
	EntrySum  decimal.Decimal
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf(
		"account %d balance %s does not match entries sum %s",
		e.AccountID,
		domain.FormatAmount(e.Balance),
		domain.FormatAmount(e.EntrySum),
	)
}
