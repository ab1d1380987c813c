package reconcile

import (
	"math/rand/v2"
	"time"
)

// jitter возвращает длительность, рассыпавшуюся относительно value на случайный процент в пределах
// [1-percent, 1+percent]. Например, при percent=0.1 получим диапазон [0.9*value, 1.1*value].
//
// percent должен быть в [0, 1). Если указано иное, значение выставится в 0.15.
func jitter(value time.Duration, percent float64) time.Duration {
	if percent < 0 || percent >= 1 {
		percent = 0.15
	}
	factor := 1 - percent + rand.Float64()*2*percent // nolint:gosec
	return time.Duration(float64(value) * factor)
}
