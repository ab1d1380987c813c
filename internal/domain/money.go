package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale количество знаков после запятой у денежных сумм. Совпадает с NUMERIC(20,2) в схеме.
const AmountScale = 2

const DefaultCurrency = "PHP"

// MaxAmount наибольшее значение, которое помещается в NUMERIC(20,2). Ограничивает и суммы операций, и балансы.
var MaxAmount = decimal.RequireFromString("999999999999999999.99")

// ValidateAmount проверяет, что сумма операции положительна, не больше MaxAmount и не содержит больше
// AmountScale знаков после запятой. Возвращает ErrInvalidAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, amount.String())
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, amount.String(), MaxAmount.String())
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: %s has more than %d fraction digits", ErrInvalidAmount, amount.String(), AmountScale)
	}
	return nil
}

// FormatAmount форматирует сумму с фиксированным количеством знаков после запятой.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountScale)
}

// FitsAmountColumn сообщает, помещается ли баланс в NUMERIC(20,2) по модулю.
func FitsAmountColumn(balance decimal.Decimal) bool {
	return balance.Abs().LessThanOrEqual(MaxAmount)
}
